// Package pipeline wires the Schema Introspector, Graph Builder,
// Partitioner, Topological Sorter, Data Search Engine, and Bulk-Load
// Emitter into the single-threaded run described in spec §4.7.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"dbslice/internal/bulkload"
	"dbslice/internal/catalog"
	"dbslice/internal/extract"
	"dbslice/internal/graph"
	"dbslice/internal/logger"
	"dbslice/internal/toposort"
)

// Options configures one run of Run.
type Options struct {
	RootTable string
	RootID    string
	Layout    extract.Layout

	// PsqlPath, Host, Port, User, DBName, Password enable the
	// external \copy extraction and bulk-load paths when non-empty
	// (spec §4.5.2, §6.5). Leave PsqlPath empty to rely solely on the
	// in-process streaming path.
	PsqlPath string
	Host     string
	Port     int
	User     string
	DBName   string
	Password string
}

// Report summarizes one completed run (spec §4.7).
type Report struct {
	Elapsed           time.Duration
	TotalRowsWritten  int
	DirectDescendants []string
	Outsiders         []string
	Order             []string
	OutsiderOrder     []string
	CopyFailures      []bulkload.Outcome
}

// Run executes the full pipeline: introspect + build graph → partition
// → sort → extract descendants → extract outsiders → emit loader
// commands → report wall-clock time and total rows written.
func Run(ctx context.Context, cat catalog.Catalog, opts Options) (Report, error) {
	start := time.Now()

	s, err := graph.Build(ctx, cat, opts.RootTable)
	if err != nil {
		return Report{}, fmt.Errorf("build graph: %w", err)
	}
	// graph.Build already partitions, but re-assert the invariant here
	// since the orchestrator is the boundary a caller observes (spec
	// §8.1).
	if err := graph.Partition(s); err != nil {
		return Report{}, fmt.Errorf("partition: %w", err)
	}

	order, err := toposort.Sort(s.Reached, s.Deps, s.Inv)
	if err != nil {
		return Report{}, fmt.Errorf("topological sort: %w", err)
	}
	outsiderOrder, err := toposort.Sort(s.Outsiders, s.Deps, s.Inv)
	if err != nil {
		return Report{}, fmt.Errorf("topological sort of outsiders: %w", err)
	}

	engine := &extract.Engine{
		DB:       cat.Raw(),
		Layout:   opts.Layout,
		PsqlPath: opts.PsqlPath,
		Host:     opts.Host,
		Port:     opts.Port,
		User:     opts.User,
		DBName:   opts.DBName,
		Password: opts.Password,
	}

	totalRows := 0

	// Descendant pass: reverse of the global order restricted to
	// direct descendants puts root first, then its immediate
	// referrers, then theirs (spec §4.5, the root is the leaf of the
	// reference graph).
	descendantOrder := reverseFiltered(order, s.DirectDescendants)
	for _, table := range descendantOrder {
		var where string
		if table == opts.RootTable {
			where, err = extract.WhereForRoot(opts.RootID)
		} else {
			where, err = extract.WhereForDescendant(s, opts.Layout, table)
		}
		if err != nil {
			return Report{}, fmt.Errorf("where clause for %s: %w", table, err)
		}
		result, err := engine.ExtractTable(ctx, s, table, where)
		if err != nil {
			return Report{}, fmt.Errorf("extract %s: %w", table, err)
		}
		if err := engine.ExternalCopy(ctx, table, where); err != nil {
			logger.Warn("external copy of %s did not complete: %v", table, err)
		}
		totalRows += result.RowsWritten
	}

	// Outsider pass: reverse of L_outsiders. An outsider's WHERE
	// clause reads from its *referrers* (inv[T], spec §4.5.1), and
	// referrers come later than their parents in a parents-first
	// topological order, so — exactly like the descendant pass above
	// — the processing order has to run that sort backwards. Without
	// this an outsider-chain (one outsider referencing another, as when
	// root references B and B references C) would read a parsed CSV
	// that does not exist yet; see DESIGN.md.
	for _, table := range reverseAll(outsiderOrder) {
		where, err := extract.WhereForOutsider(s, opts.Layout, table)
		if err != nil {
			return Report{}, fmt.Errorf("where clause for %s: %w", table, err)
		}
		result, err := engine.ExtractTable(ctx, s, table, where)
		if err != nil {
			return Report{}, fmt.Errorf("extract %s: %w", table, err)
		}
		if err := engine.ExternalCopy(ctx, table, where); err != nil {
			logger.Warn("external copy of %s did not complete: %v", table, err)
		}
		totalRows += result.RowsWritten
	}

	cmds := bulkload.BuildCommands(order, opts.Layout)
	var failures []bulkload.Outcome
	if opts.PsqlPath != "" {
		emitter := &bulkload.Emitter{
			PsqlPath: opts.PsqlPath,
			Host:     opts.Host,
			Port:     opts.Port,
			User:     opts.User,
			DBName:   opts.DBName,
			Password: opts.Password,
		}
		for _, outcome := range emitter.Run(ctx, cmds) {
			if outcome.Err != nil {
				failures = append(failures, outcome)
			}
		}
	}

	report := Report{
		Elapsed:           time.Since(start),
		TotalRowsWritten:  totalRows,
		DirectDescendants: sortedKeys(s.DirectDescendants),
		Outsiders:         sortedKeys(s.Outsiders),
		Order:             order,
		OutsiderOrder:     outsiderOrder,
		CopyFailures:      failures,
	}
	if err := writeGraphInfo(opts.Layout.GraphInfoPath(), report, cmds); err != nil {
		logger.Warn("graph-info.txt not written: %v", err)
	}
	return report, nil
}

func reverseFiltered(order []string, keep map[string]bool) []string {
	out := make([]string, 0, len(keep))
	for i := len(order) - 1; i >= 0; i-- {
		if keep[order[i]] {
			out = append(out, order[i])
		}
	}
	return out
}

func reverseAll(order []string) []string {
	out := make([]string, len(order))
	for i, t := range order {
		out[len(order)-1-i] = t
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func writeGraphInfo(path string, r Report, cmds []bulkload.Command) error {
	var b strings.Builder
	fmt.Fprintf(&b, "direct descendants (%d): %s\n", len(r.DirectDescendants), strings.Join(r.DirectDescendants, ", "))
	fmt.Fprintf(&b, "outsiders (%d): %s\n", len(r.Outsiders), strings.Join(r.Outsiders, ", "))
	fmt.Fprintf(&b, "L: %s\n", strings.Join(r.Order, ", "))
	fmt.Fprintf(&b, "L_outsiders: %s\n", strings.Join(r.OutsiderOrder, ", "))
	b.WriteString("bulk load commands:\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "  %s\n", c.SQL)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
