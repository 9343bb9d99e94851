// Package extract is the data search engine (spec §4.5): it turns a
// table plus a WHERE clause into raw and parsed-projection CSVs on
// disk, either by streaming rows in-process or by shelling out to an
// external psql-compatible client.
package extract

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"

	"dbslice/internal/csvio"
	"dbslice/internal/graph"
	"dbslice/internal/logger"
)

// Engine runs the per-table extraction described in spec §4.5.2
// against one source *sql.DB.
type Engine struct {
	DB     *sql.DB
	Layout Layout

	// PsqlPath, Host, Port, User, DBName, Password, SSLMode configure
	// the external \copy path (spec §4.5.2, §6.5). PsqlPath empty
	// disables the external path.
	PsqlPath string
	Host     string
	Port     int
	User     string
	DBName   string
	Password string
	SSLMode  string
}

// Result is what one table's extraction produced.
type Result struct {
	Table       string
	RowsWritten int
	Projected   bool
}

// ExtractTable executes `SELECT * FROM <table> <where>`, streams the
// result to <table>.csv, and — when the table's needed-FK set is
// non-empty and at least one row came back — writes
// <table>_parsed.csv alongside it (spec §4.5.2 steps 1-4).
func (e *Engine) ExtractTable(ctx context.Context, s *graph.State, table, where string) (Result, error) {
	if err := os.MkdirAll(e.Layout.TableDir(table), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir for %s: %w", table, err)
	}

	query := fmt.Sprintf("SELECT * FROM %s %s", table, where)
	rows, err := e.DB.QueryContext(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("columns of %s: %w", table, err)
	}
	colIndex := make(map[string]int, len(cols))
	for i, c := range cols {
		colIndex[c] = i
	}

	rawPath := e.Layout.RawCSV(table)
	rawFile, err := os.Create(rawPath)
	if err != nil {
		return Result{}, fmt.Errorf("create %s: %w", rawPath, err)
	}
	w := csvio.NewWriter(rawFile)

	dest := make([]interface{}, len(cols))
	rawVals := make([]sql.NullString, len(cols))
	for i := range rawVals {
		dest[i] = &rawVals[i]
	}

	var n int
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			rawFile.Close()
			return Result{}, fmt.Errorf("scan row %d of %s: %w", n, table, err)
		}
		row := make([]string, len(cols))
		for i, v := range rawVals {
			if v.Valid {
				row[i] = v.String
			}
		}
		csvio.SanitizeRow(row)
		if err := w.Write(row); err != nil {
			rawFile.Close()
			return Result{}, fmt.Errorf("write row %d of %s: %w", n, table, err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		rawFile.Close()
		return Result{}, fmt.Errorf("iterate rows of %s: %w", table, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		rawFile.Close()
		return Result{}, fmt.Errorf("flush %s: %w", rawPath, err)
	}
	if err := rawFile.Close(); err != nil {
		return Result{}, fmt.Errorf("close %s: %w", rawPath, err)
	}

	result := Result{Table: table, RowsWritten: n}

	needs := s.TableFKeyNeeds[table]
	if len(needs) == 0 || n == 0 {
		return result, nil
	}

	header := make([]string, 0, len(needs))
	indexes := make([]int, 0, len(needs))
	for col := range needs {
		idx, ok := colIndex[col]
		if !ok {
			return result, fmt.Errorf("%w: %s.%s needed by a foreign key but not present in the row's columns",
				graph.ErrInvariantViolation, table, col)
		}
		header = append(header, col)
		indexes = append(indexes, idx)
	}

	if err := e.writeParsedProjection(rawPath, e.Layout.ParsedCSV(table), header, indexes); err != nil {
		return result, err
	}
	result.Projected = true
	return result, nil
}

func (e *Engine) writeParsedProjection(rawPath, parsedPath string, header []string, indexes []int) error {
	raw, err := os.Open(rawPath)
	if err != nil {
		return fmt.Errorf("reopen %s for projection: %w", rawPath, err)
	}
	defer raw.Close()

	pw, err := csvio.CreateProjection(parsedPath, header, indexes)
	if err != nil {
		return err
	}

	r := csvio.NewReader(raw)
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if err := pw.WriteRow(row); err != nil {
			pw.Close()
			return err
		}
	}
	return pw.Close()
}

// ExternalCopy shells out to a psql-compatible client to perform
// `\copy (<query>) TO <path> CSV` with the same hex delimiter (spec
// §4.5.2, §4.5 "alternative" path, §6.5). It is best-effort: a
// non-zero exit is reported but does not abort the caller's pass.
// Disabled (returns nil immediately) when PsqlPath is empty.
func (e *Engine) ExternalCopy(ctx context.Context, table, where string) error {
	if e.PsqlPath == "" {
		return nil
	}
	query := fmt.Sprintf("SELECT * FROM %s %s", table, where)
	copyCmd := fmt.Sprintf(`\copy (%s) TO '%s' CSV DELIMITER E'\x1d'`, query, e.Layout.BulkCopyCSV(table))

	args := []string{
		"--host", e.Host,
		"--port", fmt.Sprintf("%d", e.Port),
		"--username", e.User,
		"--dbname", e.DBName,
		"-c", copyCmd,
	}
	cmd := exec.CommandContext(ctx, e.PsqlPath, args...)
	var env []string
	if e.Password != "" {
		env = append(env, "PGPASSWORD="+e.Password)
	}
	if e.SSLMode != "" {
		env = append(env, "PGSSLMODE="+e.SSLMode)
	}
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Error("external copy of %s failed: %v: %s", table, err, stderr.String())
		return fmt.Errorf("external copy of %s: %w", table, err)
	}
	return nil
}
