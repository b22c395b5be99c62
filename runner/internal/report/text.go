package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/alignpool/alignpool/runner/internal/runner"
)

const linePrefix = "[runner] "

// FormatSummary renders the one-line triage summary of a completed scenario,
// e.g. "summary: m=12.6500, a=+0.5296 [A-]". The magnitude is omitted when
// the scenario exposed none.
func FormatSummary(s runner.Summary) string {
	if s.Magnitude != nil {
		return fmt.Sprintf("summary: m=%.4f, a=%+.4f [%s]", *s.Magnitude, s.Alignment, s.Label)
	}
	return fmt.Sprintf("summary: a=%+.4f [%s]", s.Alignment, s.Label)
}

// WriteText writes the console report: a header per scenario, its classical
// and pooled values, then the summary line or a failure diagnostic.
func WriteText(w io.Writer, rep *runner.Report) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Running scenarios...")
	for _, e := range rep.Entries {
		fmt.Fprintf(bw, "\n--- %s ---\n", e.ID)
		if e.Summary == nil {
			fmt.Fprintf(bw, "%sfailed: %s\n", linePrefix, e.Error)
			continue
		}
		s := e.Summary
		if s.Magnitude != nil {
			fmt.Fprintf(bw, "Classical: %.4f\n", *s.Magnitude)
			fmt.Fprintf(bw, "SSM: m=%.4f, a=%+.4f\n", *s.Magnitude, s.Alignment)
		} else {
			fmt.Fprintf(bw, "SSM: a=%+.4f\n", s.Alignment)
		}
		fmt.Fprintln(bw, linePrefix+FormatSummary(*s))
	}
	fmt.Fprintln(bw, "\nAll scenarios completed.")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("report: write text: %w", err)
	}
	return nil
}
