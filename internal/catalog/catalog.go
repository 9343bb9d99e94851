package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// Catalog is the schema introspector (spec §4.1): three read-only
// lookups against the source database's information_schema, each
// returning a lazy, single-consumption sequence of rows. Implemented
// against PostgreSQL only — see spec Non-goal (c).
type Catalog interface {
	// Children returns one row per FK constraint whose parent table is
	// table: tables that reference table.
	Children(ctx context.Context, table string) (ChildRows, error)
	// Parents returns one row per FK constraint whose child table is
	// table: tables that table references.
	Parents(ctx context.Context, table string) (ParentRows, error)
	// Columns returns the ordered columns of table.
	Columns(ctx context.Context, table string) (ColumnRows, error)
	// Raw exposes the underlying connection so the data search engine
	// (internal/extract) can run its own `SELECT * FROM <T>` queries
	// against the same connection the introspector used.
	Raw() *sql.DB
	Close() error
}

const publicSchema = "public"

// childrenQuery finds every FK constraint whose referenced (parent)
// table is $1, grounded on original_source/src/main.cpp's
// getChildrenQuery.
const childrenQuery = `
	SELECT
		tc.table_name AS child_table,
		kcu.column_name AS child_column,
		ccu.column_name AS parent_column
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage AS ccu
		ON ccu.constraint_name = tc.constraint_name
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = $1
		AND ccu.table_name = $2`

// parentsQuery finds every FK constraint owned by (child table) $1,
// grounded on original_source/src/main.cpp's getSupportersQuery.
const parentsQuery = `
	SELECT
		ccu.table_name AS parent_table,
		ccu.column_name AS parent_column,
		kcu.column_name AS child_column
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage AS ccu
		ON ccu.constraint_name = tc.constraint_name
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = $1
		AND tc.table_name = $2`

// columnsQuery grounded on original_source/src/main.cpp's
// getTableFieldsAndDataTypes.
const columnsQuery = `
	SELECT column_name, is_nullable, data_type
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position`

// PgCatalog is the PostgreSQL Catalog, built directly on database/sql +
// lib/pq (the only driver the slice-extraction engine itself opens;
// internal/source's multi-dialect registry is for the describe
// subcommand only).
type PgCatalog struct {
	db *sql.DB
}

// Open connects to PostgreSQL via connStr (a lib/pq-style DSN, see
// pkg/config.DataSource.ConnString) and pings it.
func Open(ctx context.Context, connStr string) (*PgCatalog, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open source database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping source database: %w", err)
	}
	return &PgCatalog{db: db}, nil
}

// NewPgCatalog wraps an already-open *sql.DB as a Catalog, bypassing
// Open's dial-and-ping step. Used to inject a mocked connection (e.g.
// sqlmock) when testing code that depends on Catalog.
func NewPgCatalog(db *sql.DB) *PgCatalog {
	return &PgCatalog{db: db}
}

func (c *PgCatalog) Raw() *sql.DB {
	return c.db
}

func (c *PgCatalog) Close() error {
	return c.db.Close()
}

func (c *PgCatalog) Children(ctx context.Context, table string) (ChildRows, error) {
	rows, err := c.db.QueryContext(ctx, childrenQuery, publicSchema, table)
	if err != nil {
		return ChildRows{}, fmt.Errorf("query children of %s: %w", table, err)
	}
	return ChildRows{rows: rows, parent: table}, nil
}

func (c *PgCatalog) Parents(ctx context.Context, table string) (ParentRows, error) {
	rows, err := c.db.QueryContext(ctx, parentsQuery, publicSchema, table)
	if err != nil {
		return ParentRows{}, fmt.Errorf("query parents of %s: %w", table, err)
	}
	return ParentRows{rows: rows, child: table}, nil
}

func (c *PgCatalog) Columns(ctx context.Context, table string) (ColumnRows, error) {
	rows, err := c.db.QueryContext(ctx, columnsQuery, publicSchema, table)
	if err != nil {
		return ColumnRows{}, fmt.Errorf("query columns of %s: %w", table, err)
	}
	return ColumnRows{rows: rows, table: table}, nil
}

// ChildRows is a lazy, single-consumption sequence of FKEdge values
// pointing at one parent table.
type ChildRows struct {
	rows   *sql.Rows
	parent string
}

func (r *ChildRows) Next() bool { return r.rows.Next() }

func (r *ChildRows) Edge() (FKEdge, error) {
	var childTable, childColumn, parentColumn string
	if err := r.rows.Scan(&childTable, &childColumn, &parentColumn); err != nil {
		return FKEdge{}, fmt.Errorf("scan child edge of %s: %w", r.parent, err)
	}
	return FKEdge{
		ChildTable:   childTable,
		ChildColumn:  childColumn,
		ParentTable:  r.parent,
		ParentColumn: parentColumn,
	}, nil
}

func (r *ChildRows) Err() error   { return r.rows.Err() }
func (r *ChildRows) Close() error { return r.rows.Close() }

// ParentRows is a lazy, single-consumption sequence of FKEdge values
// pointing away from one child table.
type ParentRows struct {
	rows  *sql.Rows
	child string
}

func (r *ParentRows) Next() bool { return r.rows.Next() }

func (r *ParentRows) Edge() (FKEdge, error) {
	var parentTable, parentColumn, childColumn string
	if err := r.rows.Scan(&parentTable, &parentColumn, &childColumn); err != nil {
		return FKEdge{}, fmt.Errorf("scan parent edge of %s: %w", r.child, err)
	}
	return FKEdge{
		ChildTable:   r.child,
		ChildColumn:  childColumn,
		ParentTable:  parentTable,
		ParentColumn: parentColumn,
	}, nil
}

func (r *ParentRows) Err() error   { return r.rows.Err() }
func (r *ParentRows) Close() error { return r.rows.Close() }

// ColumnRows is a lazy, single-consumption sequence of Column values.
type ColumnRows struct {
	rows  *sql.Rows
	table string
}

func (r *ColumnRows) Next() bool { return r.rows.Next() }

func (r *ColumnRows) Column() (Column, error) {
	var name, nullable, dataType string
	if err := r.rows.Scan(&name, &nullable, &dataType); err != nil {
		return Column{}, fmt.Errorf("scan column of %s: %w", r.table, err)
	}
	return Column{
		Table:    r.table,
		Name:     name,
		Nullable: nullable == "YES",
		Type:     ParseDataType(dataType),
	}, nil
}

func (r *ColumnRows) Err() error   { return r.rows.Err() }
func (r *ColumnRows) Close() error { return r.rows.Close() }
