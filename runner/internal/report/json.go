package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alignpool/alignpool/runner/internal/runner"
)

// WriteJSON writes rep as an indented JSON document.
func WriteJSON(w io.Writer, rep *runner.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("report: write json: %w", err)
	}
	return nil
}
