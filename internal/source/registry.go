package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"dbslice/pkg/config"
)

// Extractor reports the tables, columns, and foreign keys of a database
// over an already-open connection. Each dialect package registers one
// Extractor under its driver name via Register.
type Extractor interface {
	Extract(ctx context.Context, db *sql.DB) (Schema, error)
}

var dialects = map[string]Extractor{}

// Register makes an Extractor available under name.
func Register(name string, e Extractor) {
	dialects[strings.ToLower(name)] = e
}

// listRegistered returns the registered dialect keys (for diagnostics).
func listRegistered() []string {
	keys := make([]string, 0, len(dialects))
	for k := range dialects {
		keys = append(keys, k)
	}
	return keys
}

// ConnectAndExtract opens driver/dsn, pings it, and runs the registered
// extractor for that dialect. Used by the describe subcommand only; the
// slice-extraction engine has its own, postgres-only catalog reader.
func ConnectAndExtract(driver, dsn string, timeoutSec int) (Schema, error) {
	driver = config.NormalizeDriver(driver)
	extractor, ok := dialects[driver]
	if !ok {
		return Schema{}, fmt.Errorf("dialect not registered: %q (available: %v)", driver, listRegistered())
	}
	dbConn, err := sql.Open(driver, dsn)
	if err != nil {
		return Schema{}, fmt.Errorf("open %s: %w", driver, err)
	}
	defer dbConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		return Schema{}, fmt.Errorf("ping %s: %w", driver, err)
	}
	return extractor.Extract(ctx, dbConn)
}

// RegisteredDialects lets callers print or validate the set of dialects
// with a registered Extractor.
func RegisteredDialects() []string {
	return listRegistered()
}
