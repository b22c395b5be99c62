package compute

import (
	"fmt"
	"math"
	"strings"
)

// Band is the triage classification of a pooled alignment.
type Band int

// Band values, ordered from calm to hot.
const (
	BandCalm Band = iota
	BandNoticeable
	BandHot
)

// Default thresholds on |alignment|.
const (
	DefaultCalmMax       = 0.20
	DefaultNoticeableMax = 0.40
)

var bandNames = [...]string{"calm", "noticeable", "hot"}

// bandLabels are the short display labels shown in console reports.
var bandLabels = [...]string{"A+", "A0", "A-"}

func (b Band) String() string {
	if b < BandCalm || b > BandHot {
		return fmt.Sprintf("band(%d)", int(b))
	}
	return bandNames[b]
}

// Label returns the display label: "A+", "A0" or "A-".
func (b Band) Label() string {
	if b < BandCalm || b > BandHot {
		return "A?"
	}
	return bandLabels[b]
}

// MarshalText encodes the band by name so JSON and YAML output stay readable.
func (b Band) MarshalText() ([]byte, error) {
	if b < BandCalm || b > BandHot {
		return nil, fmt.Errorf("compute: unknown band %d", int(b))
	}
	return []byte(bandNames[b]), nil
}

// UnmarshalText accepts anything ParseBand accepts.
func (b *Band) UnmarshalText(text []byte) error {
	v, err := ParseBand(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ParseBand accepts either a band name ("calm") or its label ("A+"),
// case-insensitively.
func ParseBand(s string) (Band, error) {
	s = strings.TrimSpace(s)
	for i := range bandNames {
		if strings.EqualFold(s, bandNames[i]) || strings.EqualFold(s, bandLabels[i]) {
			return Band(i), nil
		}
	}
	return 0, fmt.Errorf("compute: unknown band %q", s)
}

// Thresholds are the inclusive upper bounds on |alignment| for the calm and
// noticeable bands. Anything above NoticeableMax is hot.
type Thresholds struct {
	CalmMax       float64 `yaml:"calm_max" json:"calm_max"`
	NoticeableMax float64 `yaml:"noticeable_max" json:"noticeable_max"`
}

// DefaultThresholds returns calm ≤0.20, noticeable ≤0.40.
func DefaultThresholds() Thresholds {
	return Thresholds{CalmMax: DefaultCalmMax, NoticeableMax: DefaultNoticeableMax}
}

// Validate checks 0 <= CalmMax <= NoticeableMax.
func (t Thresholds) Validate() error {
	if math.IsNaN(t.CalmMax) || math.IsNaN(t.NoticeableMax) {
		return fmt.Errorf("thresholds must not be NaN")
	}
	if t.CalmMax < 0 {
		return fmt.Errorf("calm_max must be >= 0, got %v", t.CalmMax)
	}
	if t.NoticeableMax < t.CalmMax {
		return fmt.Errorf("noticeable_max (%v) must be >= calm_max (%v)", t.NoticeableMax, t.CalmMax)
	}
	return nil
}

// Classifier maps alignments to bands using fixed thresholds.
// The zero value is not usable; construct with NewClassifier.
type Classifier struct {
	t Thresholds
}

// NewClassifier returns a Classifier for t.
func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	return &Classifier{t: t}, nil
}

// Thresholds returns the thresholds the classifier was built with.
func (c *Classifier) Thresholds() Thresholds {
	return c.t
}

// Classify maps |a| to a band. The sign of a never matters.
func (c *Classifier) Classify(a float64) Band {
	aa := math.Abs(a)
	switch {
	case aa <= c.t.CalmMax:
		return BandCalm
	case aa <= c.t.NoticeableMax:
		return BandNoticeable
	default:
		return BandHot
	}
}
