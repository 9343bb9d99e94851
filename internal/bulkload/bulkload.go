// Package bulkload emits and runs the `\copy ... FROM ... CSV`
// commands that load a previously extracted slice into a destination
// database (spec §4.6).
package bulkload

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"dbslice/internal/extract"
	"dbslice/internal/logger"
)

// Command is one table's bulk-load statement, kept alongside its
// table name so a failure can be reported without re-parsing the SQL.
type Command struct {
	Table string
	SQL   string
}

// BuildCommands emits one \copy command per table in order (global
// topological order, parents first), targeting the raw CSV each
// table's extraction pass produced.
func BuildCommands(order []string, l extract.Layout) []Command {
	cmds := make([]Command, len(order))
	for i, table := range order {
		cmds[i] = Command{
			Table: table,
			SQL:   fmt.Sprintf(`\copy %s FROM '%s' CSV DELIMITER E'\x1d'`, table, l.RawCSV(table)),
		}
	}
	return cmds
}

// Emitter runs bulk-load Commands against a destination database via
// an external psql-compatible client, the same way Engine.ExternalCopy
// does for extraction (spec §4.6, §6.5).
type Emitter struct {
	PsqlPath string
	Host     string
	Port     int
	User     string
	DBName   string
	Password string
}

// Outcome records whether one command succeeded.
type Outcome struct {
	Command Command
	Err     error
}

// Run executes every command in order against the destination. A
// failed command is recorded in the returned slice and execution
// continues — the operator decides recovery (spec §4.6).
func (e *Emitter) Run(ctx context.Context, cmds []Command) []Outcome {
	outcomes := make([]Outcome, len(cmds))
	for i, cmd := range cmds {
		err := e.runOne(ctx, cmd)
		if err != nil {
			logger.Error("bulk load of %s failed: %v", cmd.Table, err)
		} else {
			logger.Info("bulk loaded %s", cmd.Table)
		}
		outcomes[i] = Outcome{Command: cmd, Err: err}
	}
	return outcomes
}

func (e *Emitter) runOne(ctx context.Context, cmd Command) error {
	args := []string{
		"--host", e.Host,
		"--port", fmt.Sprintf("%d", e.Port),
		"--username", e.User,
		"--dbname", e.DBName,
		"-c", cmd.SQL,
	}
	psqlCmd := exec.CommandContext(ctx, e.PsqlPath, args...)
	if e.Password != "" {
		psqlCmd.Env = append(os.Environ(), "PGPASSWORD="+e.Password)
	}
	var stderr bytes.Buffer
	psqlCmd.Stderr = &stderr

	if err := psqlCmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", cmd.Table, err, stderr.String())
	}
	return nil
}
