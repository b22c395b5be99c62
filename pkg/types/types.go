package types

// Pair is one per-source measurement: a magnitude and an alignment score.
//
// Alignment is nominally in (-1, 1); values at or beyond ±1 are clamped by the
// pooling engine. Only |Magnitude| is used as a pooling weight, but classical
// magnitude aggregates keep its sign.
type Pair struct {
	Magnitude float64 `json:"m" yaml:"m"`
	Alignment float64 `json:"a" yaml:"a"`
}

// Result is what a scenario hands back to the runner once it completes.
// Alignment is required for the runner to report anything; Magnitude is
// optional because some scenarios only expose a pooled alignment.
type Result struct {
	Magnitude *float64 `json:"m,omitempty"`
	Alignment *float64 `json:"a,omitempty"`
}

// NewResult builds a Result carrying both outputs.
func NewResult(magnitude, alignment float64) *Result {
	return &Result{Magnitude: &magnitude, Alignment: &alignment}
}

// AlignmentOnly builds a Result without a magnitude.
func AlignmentOnly(alignment float64) *Result {
	return &Result{Alignment: &alignment}
}
