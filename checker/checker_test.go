package checker

import (
	"testing"

	"github.com/PolyhedraZK/PlonkishLayouter/cs"
	"github.com/PolyhedraZK/PlonkishLayouter/expr"
	"github.com/PolyhedraZK/PlonkishLayouter/field"
	"github.com/PolyhedraZK/PlonkishLayouter/field/m31"
	"github.com/PolyhedraZK/PlonkishLayouter/table"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

// mulSystem declares the multiplication gate s * (a0 * a1 - a0@next).
func mulSystem(t *testing.T) (*cs.System, cs.Column, cs.Column, cs.Selector) {
	t.Helper()
	sys := cs.NewSystem()
	a0, err := sys.AddAdviceColumn()
	require.NoError(t, err)
	a1, err := sys.AddAdviceColumn()
	require.NoError(t, err)
	sel, err := sys.AddSelector()
	require.NoError(t, err)
	_, err = sys.AddGate("mul", sel,
		expr.NewSub(expr.NewMul(a0.Cur(), a1.Cur()), a0.Next()))
	require.NoError(t, err)
	sys.Seal()
	return sys, a0, a1, sel
}

func assign(t *testing.T, m *table.Matrix, col cs.Column, row int, v uint64) {
	t.Helper()
	require.NoError(t, m.Assign(cs.Cell{Column: col, Row: row}, m.Field().FromInterface(v)))
}

func TestMulGateHolds(t *testing.T) {
	sys, a0, a1, sel := mulSystem(t)
	m := table.NewMatrix(field.GetFieldFromOrder(m31.ScalarField), sys)

	assign(t, m, a0, 0, 3)
	assign(t, m, a1, 0, 4)
	assign(t, m, a0, 1, 12)
	assign(t, m, sel.Column, 0, 1)

	require.NoError(t, Check(sys, m, 1))
}

func TestMulGateViolated(t *testing.T) {
	sys, a0, a1, sel := mulSystem(t)
	m := table.NewMatrix(field.GetFieldFromOrder(m31.ScalarField), sys)

	assign(t, m, a0, 0, 3)
	assign(t, m, a1, 0, 4)
	assign(t, m, a0, 1, 11)
	assign(t, m, sel.Column, 0, 1)

	err := Check(sys, m, 1)
	var report *Report
	require.ErrorAs(t, err, &report)
	require.Len(t, report.Violations, 1)
	var gv *GateViolation
	require.ErrorAs(t, report.Violations[0], &gv)
	require.Equal(t, "mul", gv.Gate)
	require.Equal(t, 0, gv.Row)
}

func TestSelectorOffMakesGateVacuous(t *testing.T) {
	sys, a0, a1, _ := mulSystem(t)
	m := table.NewMatrix(field.GetFieldFromOrder(m31.ScalarField), sys)

	// 3 * 4 != 11, but the selector stays zero everywhere
	assign(t, m, a0, 0, 3)
	assign(t, m, a1, 0, 4)
	assign(t, m, a0, 1, 11)

	require.NoError(t, Check(sys, m, 1))
}

func TestUnassignedCellAtEffectiveRow(t *testing.T) {
	sys, a0, _, sel := mulSystem(t)
	m := table.NewMatrix(field.GetFieldFromOrder(m31.ScalarField), sys)

	assign(t, m, a0, 0, 3)
	assign(t, m, a0, 1, 0)
	assign(t, m, sel.Column, 0, 1)

	err := Check(sys, m, 1)
	var report *Report
	require.ErrorAs(t, err, &report)
	var uc *UnassignedCellError
	require.ErrorAs(t, report.Violations[0], &uc)
	require.Equal(t, 0, uc.Cell.Row)
}

func TestUnassignedCellAtVacuousRowIsFine(t *testing.T) {
	sys, a0, _, _ := mulSystem(t)
	m := table.NewMatrix(field.GetFieldFromOrder(m31.ScalarField), sys)

	// a1 at row 0 never written, selector off
	assign(t, m, a0, 0, 3)

	require.NoError(t, Check(sys, m, 1))
}

func TestViolationsCollectedAcrossRows(t *testing.T) {
	sys, a0, a1, sel := mulSystem(t)
	m := table.NewMatrix(field.GetFieldFromOrder(m31.ScalarField), sys)

	for _, base := range []int{0, 2, 4} {
		assign(t, m, a0, base, 2)
		assign(t, m, a1, base, 5)
		assign(t, m, a0, base+1, 10+uint64(base)) // only base 0 is correct
		assign(t, m, sel.Column, base, 1)
	}

	err := Check(sys, m, 2)
	var report *Report
	require.ErrorAs(t, err, &report)
	require.Len(t, report.Violations, 2)
	// report is ordered by row
	require.Equal(t, 2, report.Violations[0].(*GateViolation).Row)
	require.Equal(t, 4, report.Violations[1].(*GateViolation).Row)
}

func TestLookup(t *testing.T) {
	sys := cs.NewSystem()
	a, _ := sys.AddAdviceColumn()
	tab, _ := sys.AddFixedColumn()
	sel, _ := sys.AddSelector()
	_, err := sys.AddLookup("range4", sel, []expr.Expression{a.Cur()}, []cs.Column{tab})
	require.NoError(t, err)
	sys.Seal()

	m := table.NewMatrix(field.GetFieldFromOrder(m31.ScalarField), sys)
	for i := 0; i < 4; i++ {
		assign(t, m, tab, i, uint64(i))
	}
	assign(t, m, a, 4, 2)
	assign(t, m, sel.Column, 4, 1)
	require.NoError(t, Check(sys, m, 1))

	assign(t, m, a, 5, 9)
	assign(t, m, sel.Column, 5, 1)
	err = Check(sys, m, 1)
	var report *Report
	require.ErrorAs(t, err, &report)
	var lv *LookupViolation
	require.ErrorAs(t, report.Violations[0], &lv)
	require.Equal(t, 5, lv.Row)
}

// Rows where the selector is zero must tolerate arbitrary cell values:
// the gate is evaluated there too, but the product vanishes identically.
func TestSelectorOffRowsAreVacuousProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	properties.Property("arbitrary values never violate a disabled gate", prop.ForAll(
		func(vals []uint64) bool {
			sys, a0, a1, _ := mulSystem(t)
			m := table.NewMatrix(field.GetFieldFromOrder(m31.ScalarField), sys)
			for i, v := range vals {
				if m.Assign(cs.Cell{Column: a0, Row: i}, m.Field().FromInterface(v)) != nil {
					return false
				}
				if m.Assign(cs.Cell{Column: a1, Row: i}, m.Field().FromInterface(v^0x5555)) != nil {
					return false
				}
			}
			return Check(sys, m, 0) == nil
		},
		gen.SliceOf(gen.UInt64()),
	))
	properties.TestingRun(t)
}
