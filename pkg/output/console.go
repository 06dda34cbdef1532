package output

import (
	"io"

	"github.com/ipintel/ipintel/pkg/scanner"
	"github.com/ipintel/ipintel/pkg/ui"
)

// ConsoleWriter prints one styled line per result as it completes.
type ConsoleWriter struct {
	w io.Writer
}

// NewConsoleWriter wraps w, usually os.Stdout.
func NewConsoleWriter(w io.Writer) *ConsoleWriter {
	return &ConsoleWriter{w: w}
}

// WriteResult prints the result line.
func (c *ConsoleWriter) WriteResult(res scanner.Result) error {
	ui.ResultLine(c.w, res)
	return nil
}

// Close is a no-op; the console stays open.
func (c *ConsoleWriter) Close() error { return nil }
