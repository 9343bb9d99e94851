// Package toposort implements Kahn's algorithm over the table
// dependency graph built by internal/graph (spec §4.4).
package toposort

import (
	"errors"
	"fmt"
)

// ErrCycleDetected is returned by Sort when the foreign-key graph
// contains a cycle the algorithm cannot resolve (spec §7, §8.4
// scenario 6). Callers compare against it with errors.Is rather than
// matching the error string.
var ErrCycleDetected = errors.New("cycle detected in foreign-key graph")

// Sort returns a topological order over reached such that if deps[a]
// contains b, b precedes a in the result (parents before children).
// It mutates its own deep copy of deps and only reads inv, never
// changing the caller's maps, so the same graph can be sorted more
// than once (spec §4.4,
// and the Open Questions decision to give the outsider pass its own
// fresh copies rather than reusing the first run's mutated state).
func Sort(reached map[string]bool, deps, inv map[string]map[string]bool) ([]string, error) {
	d := deepCopy(deps)
	remaining := map[string]int{}
	for t := range reached {
		n := 0
		for p := range d[t] {
			switch {
			case p == t:
				// Self-referential FK: tolerated by excluding it from
				// in-degree rather than treating it as an unresolvable
				// cycle (spec §8.3).
				delete(d[t], p)
			case reached[p]:
				n++
			default:
				delete(d[t], p)
			}
		}
		remaining[t] = n
	}

	var queue []string
	for t, n := range remaining {
		if n == 0 {
			queue = append(queue, t)
		}
	}

	order := make([]string, 0, len(reached))
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		order = append(order, t)
		for m := range inv[t] {
			if !reached[m] {
				continue
			}
			if _, ok := d[m][t]; !ok {
				continue
			}
			delete(d[m], t)
			remaining[m]--
			if remaining[m] == 0 {
				queue = append(queue, m)
			}
		}
	}

	if len(order) < len(reached) {
		return nil, fmt.Errorf("%w: topological sort produced %d of %d tables", ErrCycleDetected, len(order), len(reached))
	}
	return order, nil
}

func deepCopy(m map[string]map[string]bool) map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(m))
	for k, v := range m {
		inner := make(map[string]bool, len(v))
		for k2, v2 := range v {
			inner[k2] = v2
		}
		out[k] = inner
	}
	return out
}
