package source

import (
	"fmt"
	"strings"
)

// Column represents a table column as reported by a dialect extractor.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	PK       bool   `json:"pk"`
}

// ForeignKey represents a foreign key relationship discovered by a
// dialect extractor. FromColumn/ToColumn hold a comma-joined column list
// when the extractor's dialect reports a composite key (Postgres,
// MySQL, SQL Server, and Oracle all aggregate multi-column keys this
// way); Composite records whether that happened.
type ForeignKey struct {
	FromSchema string `json:"from_schema,omitempty"`
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToSchema   string `json:"to_schema,omitempty"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
	Constraint string `json:"constraint,omitempty"`

	// Composite is true when FromColumn names more than one column.
	// internal/graph's BFS (spec §4.2) records one child column to one
	// parent column per edge, so extract cannot follow this edge even
	// though describe found it.
	Composite bool `json:"composite,omitempty"`
}

// Table represents a database table and its columns.
type Table struct {
	Schema  string   `json:"schema,omitempty"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    int64    `json:"rows,omitempty"` // optional row estimate/counted value

	// PKColumns names this table's primary-key columns, in column
	// order. extract's root WHERE clause and every parsed-projection
	// seed join on exactly one column (spec §4.5.1, §9), so a table
	// with zero or more than one PK column cannot be used as root and
	// is only ever reached as an outsider or descendant via its FKs.
	PKColumns []string `json:"pkColumns,omitempty"`
}

// MultiColumnPK reports whether t has more than one primary-key column.
func (t Table) MultiColumnPK() bool {
	return len(t.PKColumns) > 1
}

// DerivePK derives PKColumns from the PK flags already set on
// t.Columns. Extractors call this once a table's columns and primary
// key have both been scanned.
func (t *Table) DerivePK() {
	t.PKColumns = nil
	for _, c := range t.Columns {
		if c.PK {
			t.PKColumns = append(t.PKColumns, c.Name)
		}
	}
}

// MarkComposite sets fk.Composite from the column list an extractor
// already scanned into fk.FromColumn.
func MarkComposite(fk *ForeignKey) {
	fk.Composite = strings.Contains(fk.FromColumn, ",")
}

// Schema is the full set of tables and foreign keys reported for one
// describe request. It is diagnostic output only; the slice-extraction
// engine builds its own, narrower catalog types (see internal/catalog).
type Schema struct {
	Tables      []Table      `json:"tables"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
}

// Warnings flags schema shapes the slice-extraction engine cannot
// follow: composite foreign keys and tables without exactly one
// primary-key column. Run before `dbslice extract` against an
// unfamiliar schema to see what it will silently skip.
func (s Schema) Warnings() []string {
	var out []string
	for _, t := range s.Tables {
		switch len(t.PKColumns) {
		case 1:
			// extractable
		case 0:
			out = append(out, fmt.Sprintf("%s: no primary key found; cannot be used as a root table", qualify(t.Schema, t.Name)))
		default:
			out = append(out, fmt.Sprintf("%s: composite primary key %v; cannot be used as a root table", qualify(t.Schema, t.Name), t.PKColumns))
		}
	}
	for _, fk := range s.ForeignKeys {
		if fk.Composite {
			out = append(out, fmt.Sprintf("%s.%s -> %s.%s: composite foreign key %q; extract cannot follow this edge",
				qualify(fk.FromSchema, fk.FromTable), fk.FromColumn, qualify(fk.ToSchema, fk.ToTable), fk.ToColumn, fk.Constraint))
		}
	}
	return out
}

func qualify(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}
