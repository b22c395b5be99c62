package report

import (
	"fmt"
	"io"

	"github.com/alignpool/alignpool/runner/internal/runner"
)

// Writer renders a report to w.
type Writer interface {
	Write(w io.Writer, rep *runner.Report) error
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(w io.Writer, rep *runner.Report) error

// Write calls f(w, rep).
func (f WriterFunc) Write(w io.Writer, rep *runner.Report) error { return f(w, rep) }

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatProm = "prom"
)

// New returns the Writer for format.
func New(format string) (Writer, error) {
	switch format {
	case FormatText, "":
		return WriterFunc(WriteText), nil
	case FormatJSON:
		return WriterFunc(WriteJSON), nil
	case FormatProm:
		return WriterFunc(WriteProm), nil
	default:
		return nil, fmt.Errorf("report: unsupported format %q", format)
	}
}
