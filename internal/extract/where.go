package extract

import (
	"fmt"
	"regexp"
	"strings"

	"dbslice/internal/csvio"
	"dbslice/internal/graph"
)

// onlyDigits is deliberately conservative: the root id is the one
// caller-supplied literal the engine splices into SQL by string
// concatenation (spec §9 design note), so it is restricted to a
// numeric literal rather than escaped generically.
var onlyDigits = regexp.MustCompile(`^-?[0-9]+$`)

// WhereForRoot builds the root table's WHERE clause (spec §4.5.1).
// rootID must be a numeric literal; anything else is rejected rather
// than escaped.
func WhereForRoot(rootID string) (string, error) {
	if !onlyDigits.MatchString(rootID) {
		return "", fmt.Errorf("root id %q is not a numeric literal", rootID)
	}
	return fmt.Sprintf("WHERE id = %s", rootID), nil
}

// WhereForDescendant builds the WHERE clause for a direct-descendant
// table other than root: a disjunction over each of its parents that
// is itself a direct descendant, seeded from that parent's parsed
// projection CSV (spec §4.5.1).
func WhereForDescendant(s *graph.State, l Layout, table string) (string, error) {
	var disjuncts []string
	for parent := range s.Deps[table] {
		if !s.DirectDescendants[parent] {
			continue
		}
		childCol, ok := s.FKeys[table][parent]
		if !ok {
			continue
		}
		parentCol, ok := s.FKeyCols[parent][childCol]
		if !ok {
			continue
		}
		values, err := csvio.ReadColumn(l.ParsedCSV(parent), parentCol)
		if err != nil {
			return "", fmt.Errorf("read parsed projection of %s for %s: %w", parent, table, err)
		}
		if len(values) == 0 {
			continue
		}
		disjuncts = append(disjuncts, inClause(childCol, values))
	}
	return buildWhere(disjuncts), nil
}

// WhereForOutsider builds the WHERE clause for an outsider table: a
// disjunction over each table that references it, seeded from that
// referrer's parsed projection CSV (spec §4.5.1).
func WhereForOutsider(s *graph.State, l Layout, table string) (string, error) {
	var disjuncts []string
	for dependant := range s.Inv[table] {
		childCol, ok := s.FKeys[dependant][table]
		if !ok {
			continue
		}
		parentCol, ok := s.FKeyCols[table][childCol]
		if !ok {
			continue
		}
		values, err := csvio.ReadColumn(l.ParsedCSV(dependant), childCol)
		if err != nil {
			return "", fmt.Errorf("read parsed projection of %s for %s: %w", dependant, table, err)
		}
		values = dropNullLooking(values)
		if len(values) == 0 {
			continue
		}
		disjuncts = append(disjuncts, inClause(parentCol, values))
	}
	return buildWhere(disjuncts), nil
}

func buildWhere(disjuncts []string) string {
	clause := "WHERE 1 = 2"
	for _, d := range disjuncts {
		clause += "\n  OR " + d
	}
	return clause
}

func inClause(column string, values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return fmt.Sprintf(`"%s" IN (%s)`, column, strings.Join(quoted, ", "))
}

func dropNullLooking(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, `\N`) {
			continue
		}
		out = append(out, v)
	}
	return out
}
