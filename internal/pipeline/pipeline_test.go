package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"dbslice/internal/catalog"
	"dbslice/internal/extract"
)

// expectIntrospection wires up the three introspection queries a BFS
// visit of one table issues: children, parents, columns.
func expectIntrospection(mock sqlmock.Sqlmock, table string, children, parents [][]string, cols [][]string) {
	cr := sqlmock.NewRows([]string{"child_table", "child_column", "parent_column"})
	for _, row := range children {
		cr.AddRow(row[0], row[1], row[2])
	}
	mock.ExpectQuery(`ccu\.table_name = \$2`).WithArgs("public", table).WillReturnRows(cr)

	pr := sqlmock.NewRows([]string{"parent_table", "parent_column", "child_column"})
	for _, row := range parents {
		pr.AddRow(row[0], row[1], row[2])
	}
	mock.ExpectQuery(`tc\.table_name = \$2`).WithArgs("public", table).WillReturnRows(pr)

	colr := sqlmock.NewRows([]string{"column_name", "is_nullable", "data_type"})
	for _, row := range cols {
		colr.AddRow(row[0], row[1], row[2])
	}
	mock.ExpectQuery("information_schema.columns").WithArgs("public", table).WillReturnRows(colr)
}

// TestRunChainScenario exercises spec §8.4 scenario 1: A references B,
// B references C; since nothing references A, A is the only direct
// descendant and B, C are both outsiders — an outsider chain, which
// is exactly the case that requires the outsider pass to run in
// reverse (see pipeline.go's reverseAll comment).
func TestRunChainScenario(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	expectIntrospection(mock, "a", nil,
		[][]string{{"b", "id", "b_id"}},
		[][]string{{"id", "NO", "integer"}, {"b_id", "NO", "integer"}})
	expectIntrospection(mock, "b",
		[][]string{{"a", "b_id", "id"}},
		[][]string{{"c", "id", "c_id"}},
		[][]string{{"id", "NO", "integer"}, {"c_id", "NO", "integer"}})
	expectIntrospection(mock, "c",
		[][]string{{"b", "c_id", "id"}},
		nil,
		[][]string{{"id", "NO", "integer"}})

	mock.ExpectQuery(`SELECT \* FROM a`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "b_id"}).AddRow("1", "10"))
	mock.ExpectQuery(`SELECT \* FROM b`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "c_id"}).AddRow("10", "100"))
	mock.ExpectQuery(`SELECT \* FROM c`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("100"))

	dir := t.TempDir()
	cat := catalog.NewPgCatalog(db)
	opts := Options{
		RootTable: "a",
		RootID:    "1",
		Layout:    extract.Layout{Root: dir},
	}

	report, err := Run(context.Background(), cat, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.TotalRowsWritten != 3 {
		t.Errorf("TotalRowsWritten = %d, want 3", report.TotalRowsWritten)
	}
	if len(report.DirectDescendants) != 1 || report.DirectDescendants[0] != "a" {
		t.Errorf("DirectDescendants = %v, want [a]", report.DirectDescendants)
	}

	for _, table := range []string{"a", "b", "c"} {
		raw, err := os.ReadFile(extract.Layout{Root: dir}.RawCSV(table))
		if err != nil {
			t.Fatalf("read %s raw csv: %v", table, err)
		}
		if len(raw) == 0 {
			t.Errorf("%s raw csv is empty", table)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "graph-info.txt")); err != nil {
		t.Errorf("expected graph-info.txt: %v", err)
	}
}
