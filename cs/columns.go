package cs

import (
	"fmt"

	"github.com/PolyhedraZK/PlonkishLayouter/expr"
)

// ColumnKind distinguishes how a column's values are sourced.
type ColumnKind uint8

const (
	// Fixed columns are part of the circuit definition, not per-witness data.
	Fixed ColumnKind = iota
	// Advice columns carry witness values supplied during assignment.
	Advice
	// Instance columns carry public inputs visible to the verifier side.
	Instance
)

func (k ColumnKind) String() string {
	switch k {
	case Fixed:
		return "fixed"
	case Advice:
		return "advice"
	case Instance:
		return "instance"
	}
	return fmt.Sprintf("ColumnKind(%d)", uint8(k))
}

// Column spans all rows of the matrix. ID is unique across kinds.
type Column struct {
	ID   int
	Kind ColumnKind
}

// Query reads the column at a rotation relative to a gate's anchor row.
func (c Column) Query(rotation int) expr.Expression {
	return expr.NewQuery(c.ID, rotation)
}

// Cur reads the column at the anchor row.
func (c Column) Cur() expr.Expression { return c.Query(0) }

// Next reads the column one row below the anchor row.
func (c Column) Next() expr.Expression { return c.Query(1) }

func (c Column) String() string {
	return fmt.Sprintf("%s[%d]", c.Kind, c.ID)
}

// Selector is a fixed column restricted to {0, 1}, written only through
// region selector enables.
type Selector struct {
	Column
}

// Cell addresses one storage location of the matrix.
type Cell struct {
	Column Column
	Row    int
}

func (c Cell) String() string {
	return fmt.Sprintf("%v@%d", c.Column, c.Row)
}
