package extract

import (
	"testing"

	"dbslice/internal/csvio"
	"dbslice/internal/graph"
)

func TestWhereForRoot(t *testing.T) {
	got, err := WhereForRoot("42")
	if err != nil {
		t.Fatalf("WhereForRoot: %v", err)
	}
	if got != "WHERE id = 42" {
		t.Errorf("got %q", got)
	}
}

func TestWhereForRootRejectsNonNumeric(t *testing.T) {
	if _, err := WhereForRoot("42; DROP TABLE customers"); err == nil {
		t.Errorf("expected rejection of non-numeric root id")
	}
}

func TestWhereForDescendant(t *testing.T) {
	dir := t.TempDir()
	l := Layout{Root: dir}

	s := &graph.State{
		DirectDescendants: map[string]bool{"customers": true, "orders": true},
		Deps:              map[string]map[string]bool{"orders": {"customers": true}},
		FKeys:             map[string]map[string]string{"orders": {"customers": "customer_id"}},
		FKeyCols:          map[string]map[string]string{"customers": {"customer_id": "id"}},
	}

	pw, err := csvio.CreateProjection(l.ParsedCSV("customers"), []string{"id"}, []int{0})
	if err != nil {
		t.Fatalf("CreateProjection: %v", err)
	}
	pw.WriteRow([]string{"1"})
	pw.WriteRow([]string{"2"})
	if err := pw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	where, err := WhereForDescendant(s, l, "orders")
	if err != nil {
		t.Fatalf("WhereForDescendant: %v", err)
	}
	want := "WHERE 1 = 2\n  OR \"customer_id\" IN ('1', '2')"
	if where != want {
		t.Errorf("got %q, want %q", where, want)
	}
}

func TestWhereForDescendantNoParentRowsOmitsDisjunct(t *testing.T) {
	dir := t.TempDir()
	l := Layout{Root: dir}

	s := &graph.State{
		DirectDescendants: map[string]bool{"customers": true, "orders": true},
		Deps:              map[string]map[string]bool{"orders": {"customers": true}},
		FKeys:             map[string]map[string]string{"orders": {"customers": "customer_id"}},
		FKeyCols:          map[string]map[string]string{"customers": {"customer_id": "id"}},
	}

	// customers.csv yielded zero rows, so ExtractTable never wrote a
	// parsed projection for it (engine.go): l.ParsedCSV("customers")
	// does not exist at all. This is the normal zero-row outcome, not
	// an error (spec §4.5.1, §8.3).

	where, err := WhereForDescendant(s, l, "orders")
	if err != nil {
		t.Fatalf("WhereForDescendant: %v", err)
	}
	if where != "WHERE 1 = 2" {
		t.Errorf("got %q, want seed-only clause", where)
	}
}

func TestWhereForOutsider(t *testing.T) {
	dir := t.TempDir()
	l := Layout{Root: dir}

	s := &graph.State{
		Inv:      map[string]map[string]bool{"regions": {"customers": true}},
		FKeys:    map[string]map[string]string{"customers": {"regions": "region_id"}},
		FKeyCols: map[string]map[string]string{"regions": {"region_id": "id"}},
	}

	pw, err := csvio.CreateProjection(l.ParsedCSV("customers"), []string{"region_id"}, []int{0})
	if err != nil {
		t.Fatalf("CreateProjection: %v", err)
	}
	pw.WriteRow([]string{"east"})
	pw.WriteRow([]string{""})
	if err := pw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	where, err := WhereForOutsider(s, l, "regions")
	if err != nil {
		t.Fatalf("WhereForOutsider: %v", err)
	}
	want := "WHERE 1 = 2\n  OR \"id\" IN ('east')"
	if where != want {
		t.Errorf("got %q, want %q", where, want)
	}
}

func TestWhereForOutsiderNoReferrerRowsOmitsDisjunct(t *testing.T) {
	dir := t.TempDir()
	l := Layout{Root: dir}

	s := &graph.State{
		Inv:      map[string]map[string]bool{"regions": {"customers": true}},
		FKeys:    map[string]map[string]string{"customers": {"regions": "region_id"}},
		FKeyCols: map[string]map[string]string{"regions": {"region_id": "id"}},
	}

	// customers.csv yielded zero rows, so its parsed projection was
	// never written; l.ParsedCSV("customers") is absent.

	where, err := WhereForOutsider(s, l, "regions")
	if err != nil {
		t.Fatalf("WhereForOutsider: %v", err)
	}
	if where != "WHERE 1 = 2" {
		t.Errorf("got %q, want seed-only clause", where)
	}
}

func TestInClauseEscapesQuotes(t *testing.T) {
	got := inClause("name", []string{"O'Brien"})
	want := `"name" IN ('O''Brien')`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
