package csvio

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no newline", "plain value", "plain value"},
		{"unix newline", "line1\nline2", "line1 line2"},
		{"windows newline", "line1\r\nline2", "line1 line2"},
		{"lone carriage return", "line1\rline2", "line1 line2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriterUsesDelimiter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.Flush()

	want := "a" + string(Delimiter) + "b" + string(Delimiter) + "c\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Write([]string{"1", "Alice"})
	w.Write([]string{"2", "Bob, the Builder"})
	w.Flush()

	r := NewReader(&buf)
	row, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if row[0] != "1" || row[1] != "Alice" {
		t.Errorf("row = %v", row)
	}
	row, err = r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if row[1] != "Bob, the Builder" {
		t.Errorf("embedded comma mangled: %v", row)
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "customers_parsed.csv")

	pw, err := CreateProjection(path, []string{"id"}, []int{0})
	if err != nil {
		t.Fatalf("CreateProjection: %v", err)
	}
	if err := pw.WriteRow([]string{"1", "Alice", "alice@example.com"}); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	if err := pw.WriteRow([]string{"2", "Bob", "bob@example.com"}); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	if err := pw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	values, err := ReadColumn(path, "id")
	if err != nil {
		t.Fatalf("ReadColumn: %v", err)
	}
	if len(values) != 2 || values[0] != "1" || values[1] != "2" {
		t.Errorf("values = %v", values)
	}
}

func TestReadColumnSkipsEmptyValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regions_parsed.csv")

	pw, err := CreateProjection(path, []string{"region_id"}, []int{0})
	if err != nil {
		t.Fatalf("CreateProjection: %v", err)
	}
	pw.WriteRow([]string{"east"})
	pw.WriteRow([]string{""})
	pw.WriteRow([]string{"west"})
	if err := pw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	values, err := ReadColumn(path, "region_id")
	if err != nil {
		t.Fatalf("ReadColumn: %v", err)
	}
	if len(values) != 2 || values[0] != "east" || values[1] != "west" {
		t.Errorf("values = %v", values)
	}
}

func TestReadColumnUnknownColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders_parsed.csv")

	pw, err := CreateProjection(path, []string{"id"}, []int{0})
	if err != nil {
		t.Fatalf("CreateProjection: %v", err)
	}
	pw.WriteRow([]string{"1"})
	if err := pw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := ReadColumn(path, "nope"); err == nil {
		t.Errorf("expected error for unknown column")
	}
}

func TestReadColumnMissingFile(t *testing.T) {
	dir := t.TempDir()
	values, err := ReadColumn(filepath.Join(dir, "absent_parsed.csv"), "id")
	if err != nil {
		t.Fatalf("ReadColumn: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("values = %v, want empty (zero-row parent never wrote a projection)", values)
	}
}
