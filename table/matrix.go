// Package table implements the assignment matrix: the global
// (column, row) -> value table built during synthesis and consumed by the
// external proving machinery once frozen.
package table

import (
	"errors"
	"fmt"

	"github.com/PolyhedraZK/PlonkishLayouter/cs"
	"github.com/PolyhedraZK/PlonkishLayouter/field"
	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark/constraint"
)

// ErrFrozen is returned on writes after finalization.
var ErrFrozen = errors.New("assignment matrix is frozen")

// AlreadyAssignedError reports a conflicting double write to one cell.
// Rewriting the same value is not an error.
type AlreadyAssignedError struct {
	Cell     cs.Cell
	Old, New string
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("cell %v already assigned: has %s, got %s", e.Cell, e.Old, e.New)
}

// Matrix stores one value slice and one assigned bitmap per column. Columns
// share a height which grows as regions are committed.
type Matrix struct {
	f        field.Field
	sys      *cs.System
	values   [][]constraint.Element
	assigned []*bitset.BitSet
	height   int
	frozen   bool
}

func NewMatrix(f field.Field, sys *cs.System) *Matrix {
	n := sys.NbColumns()
	m := &Matrix{
		f:        f,
		sys:      sys,
		values:   make([][]constraint.Element, n),
		assigned: make([]*bitset.BitSet, n),
	}
	for i := 0; i < n; i++ {
		m.assigned[i] = bitset.New(0)
	}
	return m
}

func (m *Matrix) Field() field.Field { return m.f }

func (m *Matrix) System() *cs.System { return m.sys }

// Height is the number of rows committed so far.
func (m *Matrix) Height() int { return m.height }

// Grow extends the matrix to at least rows rows.
func (m *Matrix) Grow(rows int) error {
	if m.frozen {
		return ErrFrozen
	}
	if rows > m.height {
		m.height = rows
	}
	return nil
}

// Assign writes v to cell. Assigning the same value twice succeeds;
// assigning a different value fails with *AlreadyAssignedError.
func (m *Matrix) Assign(cell cs.Cell, v constraint.Element) error {
	if m.frozen {
		return ErrFrozen
	}
	id, row := cell.Column.ID, cell.Row
	if row < 0 {
		return fmt.Errorf("cell %v: negative row", cell)
	}
	if m.assigned[id].Test(uint(row)) {
		if m.values[id][row] != v {
			return &AlreadyAssignedError{
				Cell: cell,
				Old:  m.f.String(m.values[id][row]),
				New:  m.f.String(v),
			}
		}
		return nil
	}
	for row >= len(m.values[id]) {
		m.values[id] = append(m.values[id], constraint.Element{})
	}
	m.values[id][row] = v
	m.assigned[id].Set(uint(row))
	return m.Grow(row + 1)
}

// Get returns the cell's value and whether it was explicitly assigned.
// Unassigned cells (including rows outside the committed height) read as
// zero.
func (m *Matrix) Get(cell cs.Cell) (constraint.Element, bool) {
	id, row := cell.Column.ID, cell.Row
	if row < 0 || row >= len(m.values[id]) || !m.assigned[id].Test(uint(row)) {
		return constraint.Element{}, false
	}
	return m.values[id][row], true
}

// NbAssigned returns the number of explicitly assigned cells.
func (m *Matrix) NbAssigned() int {
	res := 0
	for _, b := range m.assigned {
		res += int(b.Count())
	}
	return res
}

// Freeze makes the matrix immutable. Idempotent.
func (m *Matrix) Freeze() { m.frozen = true }

func (m *Matrix) Frozen() bool { return m.frozen }
