// Package permutation records equality obligations between cells and
// resolves them into equivalence classes at finalization. Classes are kept
// in a disjoint-set forest with path compression and union by size.
package permutation

import (
	"fmt"
	"sort"

	"github.com/PolyhedraZK/PlonkishLayouter/cs"
	"github.com/PolyhedraZK/PlonkishLayouter/table"
)

// EquivalenceError reports two copy-constrained cells that ended the run
// holding different values.
type EquivalenceError struct {
	A, B   cs.Cell
	ValueA string
	ValueB string
}

func (e *EquivalenceError) Error() string {
	return fmt.Sprintf("copy constraint violated: %v = %s but %v = %s", e.A, e.ValueA, e.B, e.ValueB)
}

// UnresolvedEquivalenceError reports an equivalence class with no assigned
// member. Such a constraint has no effect, which almost always means a
// missing assignment.
type UnresolvedEquivalenceError struct {
	Cells []cs.Cell
}

func (e *UnresolvedEquivalenceError) Error() string {
	return fmt.Sprintf("copy constraint has no assigned cell: class %v", e.Cells)
}

// Registry is the copy-constraint registry. The zero value is not usable;
// use New.
type Registry struct {
	parent []int
	size   []int
	cells  []cs.Cell
	index  map[cs.Cell]int
}

func New() *Registry {
	return &Registry{index: make(map[cs.Cell]int)}
}

func (r *Registry) node(c cs.Cell) int {
	if i, ok := r.index[c]; ok {
		return i
	}
	i := len(r.cells)
	r.cells = append(r.cells, c)
	r.parent = append(r.parent, i)
	r.size = append(r.size, 1)
	r.index[c] = i
	return i
}

func (r *Registry) find(i int) int {
	for r.parent[i] != i {
		r.parent[i] = r.parent[r.parent[i]]
		i = r.parent[i]
	}
	return i
}

// Equate unions the equivalence classes of a and b.
func (r *Registry) Equate(a, b cs.Cell) {
	ra, rb := r.find(r.node(a)), r.find(r.node(b))
	if ra == rb {
		return
	}
	if r.size[ra] < r.size[rb] {
		ra, rb = rb, ra
	}
	r.parent[rb] = ra
	r.size[ra] += r.size[rb]
}

// NbConstraints returns the number of cells under at least one copy
// constraint.
func (r *Registry) NbConstraints() int { return len(r.cells) }

// Classes returns the equivalence classes, each sorted by (column, row) and
// the list sorted by its first cell, so the output is deterministic.
func (r *Registry) Classes() [][]cs.Cell {
	groups := make(map[int][]cs.Cell)
	for i, c := range r.cells {
		root := r.find(i)
		groups[root] = append(groups[root], c)
	}
	res := make([][]cs.Cell, 0, len(groups))
	for _, cls := range groups {
		sort.Slice(cls, func(i, j int) bool {
			if cls[i].Column.ID != cls[j].Column.ID {
				return cls[i].Column.ID < cls[j].Column.ID
			}
			return cls[i].Row < cls[j].Row
		})
		res = append(res, cls)
	}
	sort.Slice(res, func(i, j int) bool {
		a, b := res[i][0], res[j][0]
		if a.Column.ID != b.Column.ID {
			return a.Column.ID < b.Column.ID
		}
		return a.Row < b.Row
	})
	return res
}

// Finalize walks every class and checks all assigned members agree on one
// value. Violations are collected, not short-circuited. No values are
// mutated, only compared.
func (r *Registry) Finalize(m *table.Matrix) []error {
	var errs []error
	for _, cls := range r.Classes() {
		var ref cs.Cell
		var refVal string
		seen := false
		for _, c := range cls {
			v, ok := m.Get(c)
			if !ok {
				continue
			}
			s := m.Field().String(v)
			if !seen {
				ref, refVal, seen = c, s, true
				continue
			}
			if s != refVal {
				errs = append(errs, &EquivalenceError{A: ref, ValueA: refVal, B: c, ValueB: s})
			}
		}
		if !seen {
			errs = append(errs, &UnresolvedEquivalenceError{Cells: cls})
		}
	}
	return errs
}
