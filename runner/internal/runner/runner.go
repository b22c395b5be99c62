package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alignpool/alignpool/pkg/types"
	"github.com/alignpool/alignpool/runner/internal/scenario"
)

// State is the lifecycle state of one scenario within a run.
type State string

// Scenario states. Completed and Failed are terminal.
const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether s is Completed or Failed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// canTransition encodes PENDING → RUNNING → {COMPLETED | FAILED}.
func (s State) canTransition(to State) bool {
	switch s {
	case StatePending:
		return to == StateRunning
	case StateRunning:
		return to.Terminal()
	default:
		return false
	}
}

// ErrMissingAlignment is recorded for a scenario that completed without
// exposing an alignment. It is treated like a failure: no result.
var ErrMissingAlignment = errors.New("runner: scenario exposed no alignment")

// ExecutionError wraps an error returned, or a panic raised, by a scenario.
type ExecutionError struct {
	ScenarioID string
	Err        error
	Panicked   bool
}

func (e *ExecutionError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("scenario %s panicked: %v", e.ScenarioID, e.Err)
	}
	return fmt.Sprintf("scenario %s: %v", e.ScenarioID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Outcome is the terminal record of one scenario execution. Result is nil
// unless State is Completed; Err is nil unless State is Failed.
type Outcome struct {
	ID       string
	State    State
	Result   *types.Result
	Err      error
	Duration time.Duration
}

// Run is the record of one pass over a scenario set.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
}

// Runner executes scenarios. The zero value is not usable; use New.
type Runner struct {
	now   func() time.Time // injectable for deterministic tests
	newID func() string
}

// New returns a Runner that stamps each run with a random UUID.
func New() *Runner {
	return &Runner{now: time.Now, newID: func() string { return uuid.New().String() }}
}

// Run executes scenarios sequentially in the order given. A failing scenario
// never stops the others. If ctx is cancelled between scenarios, Run stops
// and returns the outcomes recorded so far.
func (r *Runner) Run(ctx context.Context, scenarios []scenario.Scenario) *Run {
	run := &Run{
		ID:        r.newID(),
		StartedAt: r.now(),
		Outcomes:  make([]Outcome, 0, len(scenarios)),
	}
	log := slog.With("run_id", run.ID)
	log.Info("runner: run started", "scenarios", len(scenarios))

	var failed int
	for _, s := range scenarios {
		if err := ctx.Err(); err != nil {
			log.Warn("runner: run cancelled", "remaining", len(scenarios)-len(run.Outcomes), "err", err)
			break
		}
		out := r.Execute(ctx, s)
		if out.State == StateFailed {
			failed++
			log.Warn("runner: scenario failed", "scenario", out.ID, "err", out.Err)
		} else {
			log.Debug("runner: scenario completed", "scenario", out.ID, "duration", out.Duration)
		}
		run.Outcomes = append(run.Outcomes, out)
	}

	run.FinishedAt = r.now()
	log.Info("runner: run finished",
		"completed", len(run.Outcomes)-failed,
		"failed", failed,
		"elapsed", run.FinishedAt.Sub(run.StartedAt),
	)
	return run
}

// Execute runs one scenario in isolation. Errors and panics from the scenario
// become a Failed outcome; so does a result without an alignment.
func (r *Runner) Execute(ctx context.Context, s scenario.Scenario) Outcome {
	out := Outcome{ID: s.ID(), State: StatePending}
	start := r.now()
	out.transition(StateRunning)

	res, err := safeRun(ctx, s)
	out.Duration = r.now().Sub(start)

	switch {
	case err != nil:
		out.Err = err
		out.transition(StateFailed)
	case res == nil || res.Alignment == nil:
		out.Err = fmt.Errorf("scenario %s: %w", out.ID, ErrMissingAlignment)
		out.transition(StateFailed)
	default:
		out.Result = res
		out.transition(StateCompleted)
	}
	return out
}

func (o *Outcome) transition(to State) {
	if !o.State.canTransition(to) {
		// Unreachable unless Execute is changed incorrectly.
		panic(fmt.Sprintf("runner: invalid transition %s -> %s for %s", o.State, to, o.ID))
	}
	o.State = to
}

// safeRun calls s.Run and converts a returned error or a panic into an
// *ExecutionError.
func safeRun(ctx context.Context, s scenario.Scenario) (res *types.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			perr, ok := p.(error)
			if !ok {
				perr = fmt.Errorf("%v", p)
			}
			res, err = nil, &ExecutionError{ScenarioID: s.ID(), Err: perr, Panicked: true}
		}
	}()

	res, err = s.Run(ctx)
	if err != nil {
		return nil, &ExecutionError{ScenarioID: s.ID(), Err: err}
	}
	return res, nil
}
