// Package csvio wraps encoding/csv with the delimiter and sanitization
// rules the data search engine relies on (spec §4.5.2, §6.4).
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Delimiter is the single-byte ASCII group separator used for every
// CSV the engine writes or reads, chosen to sidestep embedded-comma
// values in free-text columns.
const Delimiter = '\x1D'

// NewWriter returns a csv.Writer configured with Delimiter.
func NewWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	return cw
}

// NewReader returns a csv.Reader configured with Delimiter. Field
// counts are not checked against the first record, since raw extract
// files have no header and parsed projection files are written by
// this package with a known-consistent column count.
func NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1
	return cr
}

// Sanitize replaces each embedded line break (\r\n, \n or \r) in a
// cell value with a single space before it is written, per spec
// §4.5.2.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

// SanitizeRow sanitizes every field of row in place and returns it.
func SanitizeRow(row []string) []string {
	for i, v := range row {
		row[i] = Sanitize(v)
	}
	return row
}

// ProjectionWriter accumulates the parsed projection of a raw extract
// file: a header row followed by the subset of columns some other
// table's foreign key needs (spec §4.5.2 step 4).
type ProjectionWriter struct {
	w       *csv.Writer
	file    *os.File
	indexes []int
}

// CreateProjection opens path for writing, creating its parent
// directory if needed, and emits header as the first row. indexes
// gives, for each entry of header, the column index into the raw row
// that supplies its value.
func CreateProjection(path string, header []string, indexes []int) (*ProjectionWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header of %s: %w", path, err)
	}
	return &ProjectionWriter{w: w, file: f, indexes: indexes}, nil
}

// WriteRow projects raw (a full SELECT * row) down to the configured
// columns and writes the result.
func (p *ProjectionWriter) WriteRow(raw []string) error {
	out := make([]string, len(p.indexes))
	for i, idx := range p.indexes {
		if idx >= 0 && idx < len(raw) {
			out[i] = raw[idx]
		}
	}
	if err := p.w.Write(out); err != nil {
		return fmt.Errorf("write projection row: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (p *ProjectionWriter) Close() error {
	p.w.Flush()
	if err := p.w.Error(); err != nil {
		p.file.Close()
		return fmt.Errorf("flush projection: %w", err)
	}
	return p.file.Close()
}

// ReadColumn reads a parsed projection CSV at path and returns every
// non-empty value in the named column; values such as "null" or \N are
// returned as they are (where.go filters those for the outsider pass). It is the
// on-disk seed set a dependent table's WHERE clause is built from
// (spec §4.5.1). A missing file is not an error: ExtractTable only
// writes a parsed projection when the source table yielded at least
// one row (spec §4.5.2), so an absent file means zero seed values,
// not a failure.
func ReadColumn(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	colIdx := -1
	for i, h := range header {
		if h == column {
			colIdx = i
			break
		}
	}
	if colIdx == -1 {
		return nil, fmt.Errorf("column %q not found in %s", column, path)
	}

	var values []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row of %s: %w", path, err)
		}
		if colIdx >= len(row) {
			continue
		}
		v := row[colIdx]
		if v == "" {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}
