package builder

import (
	"fmt"

	"github.com/PolyhedraZK/PlonkishLayouter/cs"
	"github.com/consensys/gnark/constraint"
)

// Region is a named span of rows with a local coordinate system. Assignment
// logic only ever references local offsets; the synthesizer maps the region
// onto a disjoint absolute row range when it commits. Values living
// elsewhere in the matrix enter through CopyAdvice, never by addressing
// absolute rows from gate expressions.
type Region struct {
	s       *Synthesizer
	name    string
	base    int
	size    int
	enables []selectorEnable
}

type selectorEnable struct {
	sel    cs.Selector
	offset int
}

func (r *Region) touch(offset int) {
	if offset+1 > r.size {
		r.size = offset + 1
	}
}

// Cell returns the absolute cell for a local offset in col. It does not
// assign anything.
func (r *Region) Cell(col cs.Column, offset int) cs.Cell {
	return cs.Cell{Column: col, Row: r.base + offset}
}

// element converts an assignment value. constraint.Element values pass
// through untouched, anything else goes through the field engine.
func (r *Region) element(v interface{}) constraint.Element {
	if e, ok := v.(constraint.Element); ok {
		return e
	}
	return r.s.f.FromInterface(v)
}

func (r *Region) assign(col cs.Column, offset int, v constraint.Element) (cs.Cell, error) {
	if offset < 0 {
		return cs.Cell{}, fmt.Errorf("region %q: negative offset %d", r.name, offset)
	}
	cell := r.Cell(col, offset)
	if err := r.s.matrix.Assign(cell, v); err != nil {
		return cs.Cell{}, err
	}
	r.touch(offset)
	return cell, nil
}

// AssignAdvice writes a witness value at a local offset of an advice column.
func (r *Region) AssignAdvice(col cs.Column, offset int, value interface{}) (cs.Cell, error) {
	if col.Kind != cs.Advice {
		return cs.Cell{}, fmt.Errorf("region %q: %v is not an advice column", r.name, col)
	}
	return r.assign(col, offset, r.element(value))
}

// AssignFixed writes a circuit constant at a local offset of a fixed column.
// Selector columns are driven by EnableSelector only.
func (r *Region) AssignFixed(col cs.Column, offset int, value interface{}) (cs.Cell, error) {
	if col.Kind != cs.Fixed {
		return cs.Cell{}, fmt.Errorf("region %q: %v is not a fixed column", r.name, col)
	}
	if r.s.sys.IsSelector(col.ID) {
		return cs.Cell{}, fmt.Errorf("region %q: %v is a selector column, use EnableSelector", r.name, col)
	}
	return r.assign(col, offset, r.element(value))
}

// AssignInstance writes a public input at a local offset of an instance
// column.
func (r *Region) AssignInstance(col cs.Column, offset int, value interface{}) (cs.Cell, error) {
	if col.Kind != cs.Instance {
		return cs.Cell{}, fmt.Errorf("region %q: %v is not an instance column", r.name, col)
	}
	return r.assign(col, offset, r.element(value))
}

// CopyAdvice assigns the value held by src to a new local advice cell and
// copy-constrains the two, bridging an external value into the region.
func (r *Region) CopyAdvice(col cs.Column, offset int, src cs.Cell) (cs.Cell, error) {
	v, ok := r.s.matrix.Get(src)
	if !ok {
		return cs.Cell{}, fmt.Errorf("region %q: copy source %v is unassigned", r.name, src)
	}
	if col.Kind != cs.Advice {
		return cs.Cell{}, fmt.Errorf("region %q: %v is not an advice column", r.name, col)
	}
	cell, err := r.assign(col, offset, v)
	if err != nil {
		return cs.Cell{}, err
	}
	r.s.perm.Equate(cell, src)
	return cell, nil
}

// ConstrainEqual registers a copy constraint between two cells, either of
// which may live outside the region.
func (r *Region) ConstrainEqual(a, b cs.Cell) {
	r.s.perm.Equate(a, b)
}

// EnableSelector turns the selector on at a local offset. The rotation span
// of every gate and lookup gated by sel is checked against the region's
// final size when the region commits.
func (r *Region) EnableSelector(sel cs.Selector, offset int) error {
	if _, err := r.assign(sel.Column, offset, r.s.f.One()); err != nil {
		return err
	}
	r.enables = append(r.enables, selectorEnable{sel: sel, offset: offset})
	return nil
}

func (r *Region) commit() error {
	for _, en := range r.enables {
		for _, g := range r.s.sys.Gates() {
			if g.Selector != en.sel {
				continue
			}
			lo, hi := g.RotationRange()
			if err := r.checkSpan(g.Name, en.offset, lo, hi); err != nil {
				return err
			}
		}
		for _, l := range r.s.sys.Lookups() {
			if l.Selector != en.sel {
				continue
			}
			lo, hi := l.RotationRange()
			if err := r.checkSpan(l.Name, en.offset, lo, hi); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Region) checkSpan(name string, offset int, lo, hi int) error {
	if offset+lo < 0 {
		return &OffsetOutOfRegionError{Region: r.name, Gate: name, Offset: offset, Rotation: lo, Size: r.size}
	}
	if offset+hi >= r.size {
		return &OffsetOutOfRegionError{Region: r.name, Gate: name, Offset: offset, Rotation: hi, Size: r.size}
	}
	return nil
}
