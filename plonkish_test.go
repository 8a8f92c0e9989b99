package plonkish_test

import (
	"errors"
	"testing"

	"github.com/PolyhedraZK/PlonkishLayouter/builder"
	"github.com/PolyhedraZK/PlonkishLayouter/checker"
	"github.com/PolyhedraZK/PlonkishLayouter/cs"
	"github.com/PolyhedraZK/PlonkishLayouter/expr"
	"github.com/PolyhedraZK/PlonkishLayouter/field/bn254"
	"github.com/PolyhedraZK/PlonkishLayouter/field/m31"
	"github.com/PolyhedraZK/PlonkishLayouter/permutation"
	"github.com/PolyhedraZK/PlonkishLayouter/test"
)

// mulCircuit wires the a*b - c = 0 gate: a and b enter through copy
// constraints from externally loaded cells, c is assigned locally. The
// selector can be left off to make the gate vacuous.
type mulCircuit struct {
	A, B, C      uint64
	SkipSelector bool
	NbInstances  int

	a0, a1 cs.Column
	sMul   cs.Selector
}

func (c *mulCircuit) Configure(sys *cs.System) error {
	var err error
	if c.a0, err = sys.AddAdviceColumn(); err != nil {
		return err
	}
	if c.a1, err = sys.AddAdviceColumn(); err != nil {
		return err
	}
	if c.sMul, err = sys.AddSelector(); err != nil {
		return err
	}
	_, err = sys.AddGate("mul", c.sMul,
		expr.NewSub(expr.NewMul(c.a0.Cur(), c.a1.Cur()), c.a0.Next()))
	return err
}

func (c *mulCircuit) Synthesize(s *builder.Synthesizer) error {
	n := c.NbInstances
	if n == 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		a, err := s.LoadPrivate(c.a0, c.A)
		if err != nil {
			return err
		}
		b, err := s.LoadPrivate(c.a0, c.B)
		if err != nil {
			return err
		}
		err = s.Region("mul", func(r *builder.Region) error {
			if _, err := r.CopyAdvice(c.a0, 0, a); err != nil {
				return err
			}
			if _, err := r.CopyAdvice(c.a1, 0, b); err != nil {
				return err
			}
			if _, err := r.AssignAdvice(c.a0, 1, c.C); err != nil {
				return err
			}
			if c.SkipSelector {
				// still size the region for the gate's reach
				return nil
			}
			return r.EnableSelector(c.sMul, 0)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func TestMulScenario(t *testing.T) {
	assert := test.NewAssert(t)

	// 3 * 4 = 12 with the selector on
	assert.SynthesizeSucceeded(m31.ScalarField, &mulCircuit{A: 3, B: 4, C: 12})

	// wrong product with the selector still on
	err := assert.SynthesizeFailed(m31.ScalarField, &mulCircuit{A: 3, B: 4, C: 11})
	var report *checker.Report
	assert.ErrorAs(err, &report)
	var gv *checker.GateViolation
	assert.ErrorAs(report.Violations[0], &gv)
	assert.Equal("mul", gv.Gate)

	// wrong product but the selector off: constraint is vacuous
	assert.SynthesizeSucceeded(m31.ScalarField, &mulCircuit{A: 3, B: 4, C: 11, SkipSelector: true})
}

func TestMulScenarioOverBN254(t *testing.T) {
	assert := test.NewAssert(t)
	assert.SynthesizeSucceeded(bn254.ScalarField, &mulCircuit{A: 3, B: 4, C: 12})
	assert.SynthesizeFailed(bn254.ScalarField, &mulCircuit{A: 3, B: 4, C: 11})
}

func TestRegionReuse(t *testing.T) {
	assert := test.NewAssert(t)

	// N instances of the same chip logic occupy disjoint spans and pass
	// independently
	res := assert.SynthesizeSucceeded(m31.ScalarField, &mulCircuit{A: 5, B: 6, C: 30, NbInstances: 4})
	// each instance: two one-row load regions plus a two-row mul region
	assert.Equal(16, res.Matrix.Height())
}

// constPublicCircuit loads the constant 7 and a public input into separate
// regions and copy-constrains the two cells.
type constPublicCircuit struct {
	Public uint64

	advice   cs.Column
	constant cs.Column
	instance cs.Column
}

func (c *constPublicCircuit) Configure(sys *cs.System) error {
	var err error
	if c.advice, err = sys.AddAdviceColumn(); err != nil {
		return err
	}
	if c.constant, err = sys.AddFixedColumn(); err != nil {
		return err
	}
	c.instance, err = sys.AddInstanceColumn()
	return err
}

func (c *constPublicCircuit) Synthesize(s *builder.Synthesizer) error {
	k, err := s.LoadConstant(c.advice, c.constant, 7)
	if err != nil {
		return err
	}
	pub, err := s.LoadPublic(c.advice, c.instance, c.Public)
	if err != nil {
		return err
	}
	return s.ConstrainEqual(k, pub)
}

func TestConstantAgainstPublic(t *testing.T) {
	assert := test.NewAssert(t)

	// both cells hold 7: the class collapses to a single value
	assert.SynthesizeSucceeded(m31.ScalarField, &constPublicCircuit{Public: 7})

	// public input changed to 8: the copy constraint must fire
	err := assert.SynthesizeFailed(m31.ScalarField, &constPublicCircuit{Public: 8})
	var report *checker.Report
	assert.ErrorAs(err, &report)
	var ev *permutation.EquivalenceError
	found := false
	for _, v := range report.Violations {
		if errors.As(v, &ev) {
			found = true
		}
	}
	assert.True(found, "expected an equivalence violation")
}

// danglingCopyCircuit registers a copy constraint whose class never gets a
// value.
type danglingCopyCircuit struct {
	advice cs.Column
}

func (c *danglingCopyCircuit) Configure(sys *cs.System) error {
	var err error
	c.advice, err = sys.AddAdviceColumn()
	return err
}

func (c *danglingCopyCircuit) Synthesize(s *builder.Synthesizer) error {
	return s.ConstrainEqual(cs.Cell{Column: c.advice, Row: 0}, cs.Cell{Column: c.advice, Row: 1})
}

func TestUnresolvedCopyConstraint(t *testing.T) {
	assert := test.NewAssert(t)
	err := assert.SynthesizeFailed(m31.ScalarField, &danglingCopyCircuit{})
	var report *checker.Report
	assert.ErrorAs(err, &report)
	var uv *permutation.UnresolvedEquivalenceError
	assert.ErrorAs(report.Violations[0], &uv)
}

func TestGatesString(t *testing.T) {
	assert := test.NewAssert(t)
	res := assert.SynthesizeSucceeded(m31.ScalarField, &mulCircuit{A: 3, B: 4, C: 12})
	s := res.System.GatesString(res.Field)
	assert.Contains(s, "mul")
	assert.Contains(s, "= 0")
}
