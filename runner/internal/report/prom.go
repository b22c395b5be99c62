package report

import (
	"fmt"
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/alignpool/alignpool/runner/internal/runner"
)

// Metric names written by WriteProm.
const (
	MetricAlignment = "alignpool_pooled_alignment"
	MetricMagnitude = "alignpool_pooled_magnitude"
	MetricScenarios = "alignpool_scenarios"
)

// Families converts rep into Prometheus gauge families, ordered by name.
// Scenarios without a magnitude are absent from the magnitude family.
func Families(rep *runner.Report) []*dto.MetricFamily {
	alignment := gaugeFamily(MetricAlignment, "Pooled alignment of the last completed run, per scenario.")
	magnitude := gaugeFamily(MetricMagnitude, "Classical magnitude of the last completed run, per scenario.")
	scenarios := gaugeFamily(MetricScenarios, "Scenarios in the last run by terminal state.")

	for _, e := range rep.Entries {
		if e.Summary == nil {
			continue
		}
		alignment.Metric = append(alignment.Metric,
			gauge(e.Summary.Alignment, "band", e.Summary.Band.String(), "scenario", e.ID))
		if e.Summary.Magnitude != nil {
			magnitude.Metric = append(magnitude.Metric,
				gauge(*e.Summary.Magnitude, "scenario", e.ID))
		}
	}
	scenarios.Metric = append(scenarios.Metric,
		gauge(float64(rep.Completed), "state", string(runner.StateCompleted)),
		gauge(float64(rep.Failed), "state", string(runner.StateFailed)),
	)

	out := []*dto.MetricFamily{alignment}
	if len(magnitude.Metric) > 0 {
		out = append(out, magnitude)
	}
	return append(out, scenarios)
}

// WriteProm writes rep in the Prometheus text exposition format.
func WriteProm(w io.Writer, rep *runner.Report) error {
	for _, mf := range Families(rep) {
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("report: write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func gaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: ptr(name),
		Help: ptr(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

// gauge builds one sample. Label pairs must be passed sorted by name.
func gauge(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: ptr(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{Name: ptr(labels[i]), Value: ptr(labels[i+1])})
	}
	return m
}

func ptr[T any](v T) *T { return &v }
