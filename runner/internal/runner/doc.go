// Package runner executes scenarios one at a time and summarizes their
// results.
//
// runner.go provides Runner.Execute, which runs a single scenario in
// isolation and returns a typed Outcome instead of propagating its error or
// panic, and Runner.Run, which executes a discovered set sequentially in
// order. Each scenario moves PENDING → RUNNING → COMPLETED | FAILED exactly
// once; there are no retries.
//
// summary.go provides Summarize, which attaches a band to every completed
// outcome. The band is presentational and never feeds back into the values.
package runner
