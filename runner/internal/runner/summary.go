package runner

import (
	"time"

	"github.com/alignpool/alignpool/runner/internal/compute"
)

// Summary is the reportable view of one completed scenario.
type Summary struct {
	Magnitude *float64     `json:"m,omitempty"`
	Alignment float64      `json:"a"`
	Band      compute.Band `json:"band"`
	Label     string       `json:"label"`
}

// Entry is one scenario in a Report, in execution order. Summary is set for
// completed scenarios, Error for failed ones.
type Entry struct {
	ID      string   `json:"id"`
	State   State    `json:"state"`
	Summary *Summary `json:"summary,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Report is the classified view of a Run handed to the report writers.
type Report struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	Thresholds compute.Thresholds `json:"thresholds"`
	Entries    []Entry            `json:"scenarios"`
	Completed  int                `json:"completed"`
	Failed     int                `json:"failed"`
}

// Summarize classifies every completed outcome of run. Values are copied as
// they are; the classifier only adds a band next to them.
func Summarize(run *Run, c *compute.Classifier) *Report {
	rep := &Report{
		RunID:      run.ID,
		StartedAt:  run.StartedAt,
		Thresholds: c.Thresholds(),
		Entries:    make([]Entry, 0, len(run.Outcomes)),
	}
	for _, o := range run.Outcomes {
		e := Entry{ID: o.ID, State: o.State}
		if o.State == StateCompleted && o.Result != nil && o.Result.Alignment != nil {
			a := *o.Result.Alignment
			band := c.Classify(a)
			e.Summary = &Summary{
				Magnitude: copyFloat(o.Result.Magnitude),
				Alignment: a,
				Band:      band,
				Label:     band.Label(),
			}
			rep.Completed++
		} else {
			if o.Err != nil {
				e.Error = o.Err.Error()
			}
			rep.Failed++
		}
		rep.Entries = append(rep.Entries, e)
	}
	return rep
}

// Summaries returns the summaries of completed scenarios in order.
func (r *Report) Summaries() []Summary {
	out := make([]Summary, 0, r.Completed)
	for _, e := range r.Entries {
		if e.Summary != nil {
			out = append(out, *e.Summary)
		}
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
