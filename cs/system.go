// Package cs holds the static half of a circuit: columns, selectors, gates
// and lookups. A System is populated during setup and sealed before any
// assignment happens; all mutation after sealing fails.
package cs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PolyhedraZK/PlonkishLayouter/expr"
)

// ErrLateAllocation is returned when columns, gates or lookups are declared
// after the system has been sealed (i.e. after synthesis started).
var ErrLateAllocation = errors.New("constraint system is sealed, declarations must happen during setup")

// Gate is a named polynomial identity gated by a selector. The polynomial
// that must vanish at every row is Selector * Poly; where the selector is
// zero the product is zero whatever the other operands hold, so the gate is
// checked everywhere but only effective at enabled rows.
type Gate struct {
	Name     string
	Selector Selector
	Poly     expr.Expression

	full expr.Expression
}

// Polynomial returns the evaluated form Selector * Poly.
func (g *Gate) Polynomial() expr.Expression { return g.full }

// RotationRange returns the rotation span of the raw polynomial. The
// selector itself is always queried at rotation 0.
func (g *Gate) RotationRange() (int, int) { return g.Poly.RotationRange() }

// Lookup requires, at every row where Selector is on, the tuple of input
// expression values to occur among the rows written to the table's fixed
// columns.
type Lookup struct {
	Name     string
	Selector Selector
	Inputs   []expr.Expression
	Table    []Column
}

// RotationRange returns the rotation span over all input expressions.
func (l *Lookup) RotationRange() (int, int) {
	min, max := 0, 0
	for _, in := range l.Inputs {
		lo, hi := in.RotationRange()
		if lo < min {
			min = lo
		}
		if hi > max {
			max = hi
		}
	}
	return min, max
}

// System is the constraint setup shared by the synthesizer and the checker.
type System struct {
	kinds    []ColumnKind
	selector []bool
	dontCare []bool
	gates    []*Gate
	lookups  []*Lookup
	sealed   bool
}

func NewSystem() *System {
	return &System{}
}

func (s *System) addColumn(kind ColumnKind) (Column, error) {
	if s.sealed {
		return Column{}, ErrLateAllocation
	}
	id := len(s.kinds)
	s.kinds = append(s.kinds, kind)
	s.selector = append(s.selector, false)
	s.dontCare = append(s.dontCare, false)
	return Column{ID: id, Kind: kind}, nil
}

// AddFixedColumn declares a fixed column. Unwritten rows read as zero.
func (s *System) AddFixedColumn() (Column, error) { return s.addColumn(Fixed) }

// AddAdviceColumn declares a witness-carrying column.
func (s *System) AddAdviceColumn() (Column, error) { return s.addColumn(Advice) }

// AddInstanceColumn declares a public-input column.
func (s *System) AddInstanceColumn() (Column, error) { return s.addColumn(Instance) }

// AddSelector declares a selector: a fixed column restricted to {0, 1} that
// only region selector enables may write.
func (s *System) AddSelector() (Selector, error) {
	col, err := s.addColumn(Fixed)
	if err != nil {
		return Selector{}, err
	}
	s.selector[col.ID] = true
	return Selector{Column: col}, nil
}

// AddGate declares a gate. The stored polynomial is sel * poly, so the
// algebraic disable is part of the gate itself rather than a runtime skip.
func (s *System) AddGate(name string, sel Selector, poly expr.Expression) (*Gate, error) {
	if s.sealed {
		return nil, ErrLateAllocation
	}
	g := &Gate{
		Name:     name,
		Selector: sel,
		Poly:     poly,
		full:     expr.NewMul(sel.Query(0), poly),
	}
	s.gates = append(s.gates, g)
	return g, nil
}

// AddLookup declares a lookup argument. Every table column must be fixed.
func (s *System) AddLookup(name string, sel Selector, inputs []expr.Expression, table []Column) (*Lookup, error) {
	if s.sealed {
		return nil, ErrLateAllocation
	}
	if len(inputs) == 0 || len(inputs) != len(table) {
		return nil, fmt.Errorf("lookup %q: %d inputs against %d table columns", name, len(inputs), len(table))
	}
	for _, col := range table {
		if col.Kind != Fixed {
			return nil, fmt.Errorf("lookup %q: table column %v is not fixed", name, col)
		}
	}
	l := &Lookup{Name: name, Selector: sel, Inputs: inputs, Table: table}
	s.lookups = append(s.lookups, l)
	return l, nil
}

// MarkDontCare exempts a column's unassigned cells from the unassigned-read
// check at finalization; they read as zero instead.
func (s *System) MarkDontCare(col Column) error {
	if s.sealed {
		return ErrLateAllocation
	}
	s.dontCare[col.ID] = true
	return nil
}

// Seal closes the setup phase. Idempotent.
func (s *System) Seal() { s.sealed = true }

func (s *System) Sealed() bool { return s.sealed }

func (s *System) NbColumns() int { return len(s.kinds) }

func (s *System) ColumnKind(id int) ColumnKind { return s.kinds[id] }

func (s *System) IsSelector(id int) bool { return s.selector[id] }

// ZeroDefault reports whether an unassigned cell of the column reads as zero
// rather than erroring. Fixed columns (selectors included) always do; other
// kinds only when marked don't-care.
func (s *System) ZeroDefault(id int) bool {
	return s.kinds[id] == Fixed || s.dontCare[id]
}

func (s *System) Gates() []*Gate { return s.gates }

func (s *System) Lookups() []*Lookup { return s.lookups }

// GatesString pretty-prints every gate's polynomial.
func (s *System) GatesString(f expr.Arith) string {
	var sb strings.Builder
	for _, g := range s.gates {
		fmt.Fprintf(&sb, "%s: %s * %s = 0\n", g.Name, g.Selector.Column, g.Poly.Format(f))
	}
	return sb.String()
}
