package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"dbslice/internal/logger"
	"dbslice/internal/source"
)

// sqliteExtractor implements Extractor for SQLite. It derives
// primary-key column counts and foreign-key composite-ness for
// dbslice's own preflight check (Schema.Warnings) instead of the
// dbstat page-size accounting an ERD renderer would want.
type sqliteExtractor struct{}

// This is the extractor for SQLite
func (sqliteExtractor) Extract(ctx context.Context, dbConn *sql.DB) (source.Schema, error) {
	var s source.Schema
	dbName := "main"

	if rows, err := dbConn.QueryContext(ctx, `PRAGMA database_list`); err == nil {
		defer rows.Close()
		var seq int
		var name, file sql.NullString
		if rows.Next() {
			if err := rows.Scan(&seq, &name, &file); err == nil && name.Valid {
				dbName = name.String
			}
		}
	} else {
		logger.Error("database list: %v", err)
	}

	trQuery := `
	    SELECT name
		FROM sqlite_master
		WHERE type='table'
		AND name NOT LIKE 'sqlite_%'
		ORDER BY name`
	tr, err := dbConn.QueryContext(ctx, trQuery)
	if err != nil {
		return s, fmt.Errorf("query tables: %w", err)
	}
	defer tr.Close()

	for tr.Next() {
		var tab source.Table
		if err := tr.Scan(&tab.Name); err != nil {
			return s, fmt.Errorf("scan table row: %w", err)
		}
		s.Tables = append(s.Tables, tab)
	}

	for i := range s.Tables {
		t := &s.Tables[i]
		tiQuery := fmt.Sprintf("PRAGMA %s.table_info('%s')", dbName, t.Name)
		pr, err := dbConn.QueryContext(ctx, tiQuery)
		if err != nil {
			return s, fmt.Errorf("query columns for %s.%s: %w", t.Schema, t.Name, err)
		}
		for pr.Next() {
			var cid int
			var name, ctype string
			var notnull, pk int
			var dflt sql.NullString
			if err := pr.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
				pr.Close()
				return s, fmt.Errorf("scan column for %s.%s: %w", t.Schema, t.Name, err)
			}
			col := source.Column{
				Name:     name,
				Type:     ctype,
				Nullable: notnull == 0,
				PK:       pk != 0,
			}
			t.Columns = append(t.Columns, col)
		}
		pr.Close()
		t.DerivePK()

		fkQuery := fmt.Sprintf(`
		    SELECT "table", string_agg("from", ', ') AS from_column, string_agg("to", ', ') AS to_column
		    FROM pragma_foreign_key_list('%s') 
			GROUP BY "table"`, t.Name)
		fkRows, err := dbConn.QueryContext(ctx, fkQuery)

		if err == nil {
			for fkRows.Next() {
				var table, from, to sql.NullString
				if err := fkRows.Scan(&table, &from, &to); err == nil {
					if table.Valid && from.Valid && to.Valid {
						fk := source.ForeignKey{
							FromTable:  t.Name,
							FromColumn: from.String,
							ToTable:    table.String,
							ToColumn:   to.String,
						}
						source.MarkComposite(&fk)
						s.ForeignKeys = append(s.ForeignKeys, fk)
					}
				} else {
					logger.Error("scan foreign key: %v", err)
				}
			}
			fkRows.Close()
		} else {
			logger.Error("query foreign key: %v", err)
		}
	}

	return s, nil
}

func init() {
	source.Register("sqlite3", sqliteExtractor{})
	source.Register("sqlite", sqliteExtractor{})
}
