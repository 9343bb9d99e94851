// Package graph builds and partitions the foreign-key reachability
// graph rooted at a single table (spec §4.2, §4.3).
package graph

import (
	"context"
	"errors"
	"fmt"

	"dbslice/internal/catalog"
)

// ErrInvariantViolation marks the "bug or upstream schema change
// mid-run" fatal category from spec §7. It is returned when Partition's
// disjoint-union check fails and when extract's ExtractTable finds a
// needed FK column absent from a row. Callers compare against it with
// errors.Is.
var ErrInvariantViolation = errors.New("invariant violation")

// State is everything the Graph Builder discovers in one BFS pass,
// bundled as a single owned struct rather than a handful of
// package-level maps (see DESIGN.md's internal/graph section).
type State struct {
	Root string

	// Reached is every table seen during discovery, including Root.
	Reached map[string]bool

	// Deps[t] is the set of tables t has a foreign key into (t's
	// parents). Inv[t] is the set of tables that reference t (t's
	// children). Deps and Inv are inverse of each other.
	Deps map[string]map[string]bool
	Inv  map[string]map[string]bool

	// FKeyCols[parent][childCol] = parentCol: for an edge from some
	// child table into parent using childCol, the parent-side column
	// it targets. When Build discovers an edge from the child's side
	// (Parents of the child), it also records FKeyCols[child][childCol]
	// = parentCol.
	FKeyCols map[string]map[string]string

	// FKeys[child][parent] = childCol: the column in child that holds
	// the foreign key into parent.
	FKeys map[string]map[string]string

	// InvFKeys[parent][child] = childCol: same data as FKeys, indexed
	// the other way. The outsider WHERE-clause pass (§4.5.1) reads the
	// same values through FKeys.
	InvFKeys map[string]map[string]string

	// TableFKeyNeeds[t] is the set of column names in t that some
	// other table's foreign key references, plus t's own foreign-key
	// columns (which the outsider WHERE-clause pass reads); these must
	// survive into t's parsed projection CSV.
	TableFKeyNeeds map[string]map[string]bool

	// TableCols[t][colName] = column metadata.
	TableCols map[string]map[string]catalog.Column

	// DirectDescendants is root plus every table reachable from root
	// by following Inv edges transitively (§4.3). Outsiders is
	// Reached minus DirectDescendants.
	DirectDescendants map[string]bool
	Outsiders         map[string]bool
}

func newState(root string) *State {
	return &State{
		Root:              root,
		Reached:           map[string]bool{root: true},
		Deps:              map[string]map[string]bool{},
		Inv:               map[string]map[string]bool{},
		FKeyCols:          map[string]map[string]string{},
		FKeys:             map[string]map[string]string{},
		InvFKeys:          map[string]map[string]string{},
		TableFKeyNeeds:    map[string]map[string]bool{},
		TableCols:         map[string]map[string]catalog.Column{},
		DirectDescendants: map[string]bool{root: true},
		Outsiders:         map[string]bool{},
	}
}

func (s *State) addDep(child, parent string) {
	if s.Deps[child] == nil {
		s.Deps[child] = map[string]bool{}
	}
	s.Deps[child][parent] = true
	if s.Inv[parent] == nil {
		s.Inv[parent] = map[string]bool{}
	}
	s.Inv[parent][child] = true
}

func (s *State) need(table, col string) {
	if s.TableFKeyNeeds[table] == nil {
		s.TableFKeyNeeds[table] = map[string]bool{}
	}
	s.TableFKeyNeeds[table][col] = true
}

func (s *State) setFKeyCol(parent, childCol, parentCol string) {
	if s.FKeyCols[parent] == nil {
		s.FKeyCols[parent] = map[string]string{}
	}
	s.FKeyCols[parent][childCol] = parentCol
}

func (s *State) setFKey(child, parent, childCol string) {
	if s.FKeys[child] == nil {
		s.FKeys[child] = map[string]string{}
	}
	s.FKeys[child][parent] = childCol
	if s.InvFKeys[parent] == nil {
		s.InvFKeys[parent] = map[string]string{}
	}
	s.InvFKeys[parent][child] = childCol
}

// Build runs the breadth-first discovery described in spec §4.2,
// marking direct descendants per §4.3 as it goes.
func Build(ctx context.Context, cat catalog.Catalog, root string) (*State, error) {
	s := newState(root)
	queue := []string{root}

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		isDescendant := s.DirectDescendants[t]

		// Children of T: tables that reference T.
		cr, err := cat.Children(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("children of %s: %w", t, err)
		}
		for cr.Next() {
			edge, err := cr.Edge()
			if err != nil {
				cr.Close()
				return nil, fmt.Errorf("children of %s: %w", t, err)
			}
			child := edge.ChildTable
			s.addDep(child, t)
			s.setFKeyCol(t, edge.ChildColumn, edge.ParentColumn)
			s.need(t, edge.ParentColumn)
			s.setFKey(child, t, edge.ChildColumn)
			if isDescendant {
				s.DirectDescendants[child] = true
			}
			if !s.Reached[child] {
				s.Reached[child] = true
				queue = append(queue, child)
			}
		}
		if err := cr.Err(); err != nil {
			cr.Close()
			return nil, fmt.Errorf("children of %s: %w", t, err)
		}
		cr.Close()

		// Parents of T: tables T references.
		pr, err := cat.Parents(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("parents of %s: %w", t, err)
		}
		for pr.Next() {
			edge, err := pr.Edge()
			if err != nil {
				pr.Close()
				return nil, fmt.Errorf("parents of %s: %w", t, err)
			}
			parent := edge.ParentTable
			s.addDep(t, parent)
			s.need(t, edge.ChildColumn)
			s.setFKeyCol(t, edge.ChildColumn, edge.ParentColumn)
			s.setFKey(t, parent, edge.ChildColumn)
			if !s.Reached[parent] {
				s.Reached[parent] = true
				queue = append(queue, parent)
			}
		}
		if err := pr.Err(); err != nil {
			pr.Close()
			return nil, fmt.Errorf("parents of %s: %w", t, err)
		}
		pr.Close()

		// Columns of T.
		colr, err := cat.Columns(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("columns of %s: %w", t, err)
		}
		cols := map[string]catalog.Column{}
		for colr.Next() {
			c, err := colr.Column()
			if err != nil {
				colr.Close()
				return nil, fmt.Errorf("columns of %s: %w", t, err)
			}
			cols[c.Name] = c
		}
		if err := colr.Err(); err != nil {
			colr.Close()
			return nil, fmt.Errorf("columns of %s: %w", t, err)
		}
		colr.Close()
		s.TableCols[t] = cols
	}

	if err := Partition(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Partition classifies every reached table as a direct descendant or
// an outsider and asserts the disjoint-union invariant (spec §4.3,
// §8.1).
func Partition(s *State) error {
	for t := range s.Reached {
		if !s.DirectDescendants[t] {
			s.Outsiders[t] = true
		}
	}
	if len(s.DirectDescendants)+len(s.Outsiders) != len(s.Reached) {
		return fmt.Errorf("%w: %d descendants + %d outsiders != %d reached",
			ErrInvariantViolation, len(s.DirectDescendants), len(s.Outsiders), len(s.Reached))
	}
	return nil
}
