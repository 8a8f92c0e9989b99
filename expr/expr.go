// Package expr defines the polynomial expressions gates are built from.
//
// An expression is a tree of sums, products and negations over constants and
// column queries. A query addresses a column at a rotation relative to the
// row a gate is evaluated at; expressions never address absolute rows, which
// is what keeps gate logic reusable across region instances. Division is not
// representable, keeping constraint degree well-defined.
package expr

import (
	"fmt"
	"strings"

	"github.com/consensys/gnark/constraint"
)

// Arith is the subset of the field engine expression folding needs.
// field.Field satisfies it.
type Arith interface {
	Add(a, b constraint.Element) constraint.Element
	Mul(a, b constraint.Element) constraint.Element
	Neg(a constraint.Element) constraint.Element
	One() constraint.Element
	String(a constraint.Element) string
}

// CellGetter resolves a column query: the value of column at the gate's
// anchor row shifted by rotation.
type CellGetter func(column int, rotation int) (constraint.Element, error)

type Expression interface {
	// Eval substitutes column queries through get and folds the tree in f.
	Eval(f Arith, get CellGetter) (constraint.Element, error)

	// Degree returns the total degree of the polynomial.
	Degree() int

	// RotationRange returns the smallest and largest rotation queried.
	// A constant expression reports (0, 0).
	RotationRange() (min int, max int)

	// Format renders the expression using f to print constants.
	Format(f Arith) string
}

// Query reads a column at a rotation relative to the anchor row.
type Query struct {
	Column   int
	Rotation int
}

// Constant is a fixed field element.
type Constant struct {
	Value constraint.Element
}

// Sum is the addition of its terms.
type Sum struct {
	Terms []Expression
}

// Product is the multiplication of its terms.
type Product struct {
	Terms []Expression
}

// Negate is the additive inverse of its inner expression.
type Negate struct {
	Inner Expression
}

// NewQuery returns an expression reading column at the given rotation.
func NewQuery(column, rotation int) Expression {
	return Query{Column: column, Rotation: rotation}
}

// NewConstant returns a constant expression.
func NewConstant(v constraint.Element) Expression {
	return Constant{Value: v}
}

// NewAdd returns the sum of the given expressions.
func NewAdd(terms ...Expression) Expression {
	return Sum{Terms: terms}
}

// NewMul returns the product of the given expressions.
func NewMul(terms ...Expression) Expression {
	return Product{Terms: terms}
}

// NewNeg returns the negation of e.
func NewNeg(e Expression) Expression {
	return Negate{Inner: e}
}

// NewSub returns a - b.
func NewSub(a, b Expression) Expression {
	return Sum{Terms: []Expression{a, Negate{Inner: b}}}
}

func (q Query) Eval(f Arith, get CellGetter) (constraint.Element, error) {
	return get(q.Column, q.Rotation)
}

func (q Query) Degree() int { return 1 }

func (q Query) RotationRange() (int, int) { return q.Rotation, q.Rotation }

func (q Query) Format(f Arith) string {
	return fmt.Sprintf("col[%d]@%d", q.Column, q.Rotation)
}

func (c Constant) Eval(f Arith, get CellGetter) (constraint.Element, error) {
	return c.Value, nil
}

func (c Constant) Degree() int { return 0 }

func (c Constant) RotationRange() (int, int) { return 0, 0 }

func (c Constant) Format(f Arith) string { return f.String(c.Value) }

func (s Sum) Eval(f Arith, get CellGetter) (constraint.Element, error) {
	var res constraint.Element
	for _, t := range s.Terms {
		v, err := t.Eval(f, get)
		if err != nil {
			return constraint.Element{}, err
		}
		res = f.Add(res, v)
	}
	return res, nil
}

func (s Sum) Degree() int {
	res := 0
	for _, t := range s.Terms {
		if d := t.Degree(); d > res {
			res = d
		}
	}
	return res
}

func (s Sum) RotationRange() (int, int) { return rangeOf(s.Terms) }

func (s Sum) Format(f Arith) string { return formatList(f, s.Terms, " + ") }

func (p Product) Eval(f Arith, get CellGetter) (constraint.Element, error) {
	res := f.One()
	for _, t := range p.Terms {
		v, err := t.Eval(f, get)
		if err != nil {
			return constraint.Element{}, err
		}
		res = f.Mul(res, v)
	}
	return res, nil
}

func (p Product) Degree() int {
	res := 0
	for _, t := range p.Terms {
		res += t.Degree()
	}
	return res
}

func (p Product) RotationRange() (int, int) { return rangeOf(p.Terms) }

func (p Product) Format(f Arith) string { return formatList(f, p.Terms, " * ") }

func (n Negate) Eval(f Arith, get CellGetter) (constraint.Element, error) {
	v, err := n.Inner.Eval(f, get)
	if err != nil {
		return constraint.Element{}, err
	}
	return f.Neg(v), nil
}

func (n Negate) Degree() int { return n.Inner.Degree() }

func (n Negate) RotationRange() (int, int) { return n.Inner.RotationRange() }

func (n Negate) Format(f Arith) string {
	return "-(" + n.Inner.Format(f) + ")"
}

func rangeOf(terms []Expression) (int, int) {
	if len(terms) == 0 {
		return 0, 0
	}
	min, max := terms[0].RotationRange()
	for _, t := range terms[1:] {
		lo, hi := t.RotationRange()
		if lo < min {
			min = lo
		}
		if hi > max {
			max = hi
		}
	}
	return min, max
}

func formatList(f Arith, terms []Expression, sep string) string {
	s := make([]string, len(terms))
	for i, t := range terms {
		s[i] = t.Format(f)
	}
	return "(" + strings.Join(s, sep) + ")"
}
