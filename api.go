// Package plonkish builds Plonkish circuit assignments: a circuit declares
// columns and selector-gated polynomial gates, regions assign cells through
// local offsets, and finalization verifies every gate and copy constraint
// over the completed matrix. Proving and commitment machinery is external;
// the output of a run is the assignment matrix plus the static constraint
// system.
package plonkish

import (
	"math/big"

	"github.com/PolyhedraZK/PlonkishLayouter/builder"
	"github.com/PolyhedraZK/PlonkishLayouter/cs"
	"github.com/PolyhedraZK/PlonkishLayouter/field"
	"github.com/PolyhedraZK/PlonkishLayouter/table"
	"github.com/consensys/gnark/logger"
)

// Circuit is implemented by circuit definitions. Configure declares columns
// and gates while the system is unsealed; Synthesize opens regions and
// assigns cells.
type Circuit interface {
	Configure(sys *cs.System) error
	Synthesize(s *builder.Synthesizer) error
}

// Result is the finished artifact handed to external proving machinery.
type Result struct {
	Field  field.Field
	System *cs.System
	Matrix *table.Matrix
}

// Synthesize runs a circuit end to end over the field of the given order:
// setup, region assignment, then finalization. A non-nil error from
// finalization is a *checker.Report listing every violation found.
func Synthesize(order *big.Int, circuit Circuit, opts ...builder.Option) (*Result, error) {
	log := logger.Logger()
	f := field.GetFieldFromOrder(order)

	sys := cs.NewSystem()
	if err := circuit.Configure(sys); err != nil {
		return nil, err
	}
	s := builder.NewSynthesizer(f, sys, opts...)
	log.Debug().
		Int("nbColumns", sys.NbColumns()).
		Int("nbGates", len(sys.Gates())).
		Int("nbLookups", len(sys.Lookups())).
		Msg("constraint system sealed")

	if err := circuit.Synthesize(s); err != nil {
		return nil, err
	}
	m, err := s.Finalize()
	if err != nil {
		return nil, err
	}
	return &Result{Field: f, System: sys, Matrix: m}, nil
}
