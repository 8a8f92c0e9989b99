// Package test provides helpers for end-to-end circuit tests.
package test

import (
	"math/big"
	"testing"

	plonkish "github.com/PolyhedraZK/PlonkishLayouter"
	"github.com/PolyhedraZK/PlonkishLayouter/builder"
	"github.com/stretchr/testify/require"
)

type Assert struct {
	*require.Assertions
	t *testing.T
}

func NewAssert(t *testing.T) *Assert {
	return &Assert{Assertions: require.New(t), t: t}
}

// SynthesizeSucceeded runs the circuit and fails the test on any error.
func (a *Assert) SynthesizeSucceeded(order *big.Int, circuit plonkish.Circuit, opts ...builder.Option) *plonkish.Result {
	res, err := plonkish.Synthesize(order, circuit, opts...)
	a.NoError(err, "synthesis should succeed")
	return res
}

// SynthesizeFailed runs the circuit and fails the test unless it errors.
// The error is returned for inspection.
func (a *Assert) SynthesizeFailed(order *big.Int, circuit plonkish.Circuit, opts ...builder.Option) error {
	_, err := plonkish.Synthesize(order, circuit, opts...)
	a.Error(err, "synthesis should fail")
	return err
}
