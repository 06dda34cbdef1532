// Package output streams scan results to machine-readable sinks. Results
// are written in completion order as they arrive, so a killed scan still
// leaves a usable partial file.
package output

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/ipintel/ipintel/pkg/jsonutil"
	"github.com/ipintel/ipintel/pkg/scanner"
)

// Writer consumes results one at a time. Implementations are not safe
// for concurrent use; the aggregator feeds them from one goroutine.
type Writer interface {
	WriteResult(scanner.Result) error
	Close() error
}

// record is the flattened JSONL shape for one result.
type record struct {
	IP        string   `json:"ip"`
	Status    string   `json:"status"`
	Ports     []int    `json:"ports,omitempty"`
	Hostnames []string `json:"hostnames,omitempty"`
	CPEs      []string `json:"cpes,omitempty"`
	Vulns     []string `json:"vulns,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Cached    bool     `json:"cached,omitempty"`
	Skipped   bool     `json:"skipped,omitempty"`
	Attempts  int      `json:"attempts,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func toRecord(res scanner.Result) record {
	rec := record{
		IP:       res.IP,
		Status:   res.Class.String(),
		Cached:   res.FromCache,
		Skipped:  res.Skipped,
		Attempts: res.Attempts,
	}
	if res.Skipped {
		rec.Status = "skipped"
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if r := res.Record; r != nil {
		rec.Ports = r.Ports
		rec.Hostnames = r.Hostnames
		rec.CPEs = r.CPEs
		rec.Vulns = r.Vulns
		rec.Tags = r.Tags
	}
	return rec
}

// JSONLWriter emits one JSON object per line.
type JSONLWriter struct {
	enc    *jsonutil.Encoder
	closer io.Closer
}

// NewJSONLWriter wraps w. If w is an io.Closer, Close closes it.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	jw := &JSONLWriter{enc: jsonutil.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		jw.closer = c
	}
	return jw
}

// WriteResult appends one line.
func (w *JSONLWriter) WriteResult(res scanner.Result) error {
	return w.enc.Encode(toRecord(res))
}

// Close closes the underlying writer when it is closable.
func (w *JSONLWriter) Close() error {
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// CSVWriter emits a header row then one row per result. List fields are
// joined with spaces so the cell stays grep-friendly.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
	wrote  bool
}

var csvHeader = []string{
	"ip", "status", "ports", "hostnames", "vulns", "tags", "cached", "attempts", "error",
}

// NewCSVWriter wraps w. If w is an io.Closer, Close closes it.
func NewCSVWriter(w io.Writer) *CSVWriter {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	return cw
}

// WriteResult appends one row, writing the header first if needed.
func (w *CSVWriter) WriteResult(res scanner.Result) error {
	if !w.wrote {
		if err := w.w.Write(csvHeader); err != nil {
			return err
		}
		w.wrote = true
	}

	rec := toRecord(res)
	ports := make([]string, len(rec.Ports))
	for i, p := range rec.Ports {
		ports[i] = strconv.Itoa(p)
	}
	row := []string{
		rec.IP,
		rec.Status,
		strings.Join(ports, " "),
		strings.Join(rec.Hostnames, " "),
		strings.Join(rec.Vulns, " "),
		strings.Join(rec.Tags, " "),
		strconv.FormatBool(rec.Cached),
		strconv.Itoa(rec.Attempts),
		rec.Error,
	}
	return w.w.Write(row)
}

// Close flushes buffered rows and closes the underlying writer when it
// is closable.
func (w *CSVWriter) Close() error {
	w.w.Flush()
	err := w.w.Error()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Multi fans each result out to several writers.
type Multi struct {
	writers []Writer
}

// NewMulti combines writers; a nil entry is ignored.
func NewMulti(writers ...Writer) *Multi {
	m := &Multi{}
	for _, w := range writers {
		if w != nil {
			m.writers = append(m.writers, w)
		}
	}
	return m
}

// WriteResult writes to every sink, returning the first error.
func (m *Multi) WriteResult(res scanner.Result) error {
	for _, w := range m.writers {
		if err := w.WriteResult(res); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, returning the first error.
func (m *Multi) Close() error {
	var first error
	for _, w := range m.writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
