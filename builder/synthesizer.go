// Package builder drives circuit synthesis: it owns the assignment matrix
// and the copy-constraint registry, allocates regions sequentially, and runs
// the finalization checks.
package builder

import (
	"errors"
	"fmt"

	"github.com/PolyhedraZK/PlonkishLayouter/checker"
	"github.com/PolyhedraZK/PlonkishLayouter/cs"
	"github.com/PolyhedraZK/PlonkishLayouter/field"
	"github.com/PolyhedraZK/PlonkishLayouter/permutation"
	"github.com/PolyhedraZK/PlonkishLayouter/table"
	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

var (
	// ErrNotAssigning is returned when a region is opened or a copy
	// constraint is registered outside the assigning phase.
	ErrNotAssigning = errors.New("synthesizer is not in the assigning phase")
	// ErrAlreadyFinalized is returned when Finalize is called twice.
	ErrAlreadyFinalized = errors.New("synthesizer already finalized")
)

// OffsetOutOfRegionError reports a gate or lookup whose rotation span
// escapes the rows of the region it was enabled in.
type OffsetOutOfRegionError struct {
	Region   string
	Gate     string
	Offset   int
	Rotation int
	Size     int
}

func (e *OffsetOutOfRegionError) Error() string {
	return fmt.Sprintf("region %q: gate %q enabled at offset %d reaches rotation %d, outside the %d-row region",
		e.Region, e.Gate, e.Offset, e.Rotation, e.Size)
}

type state uint8

const (
	stateAssigning state = iota
	stateFinalizing
	stateDone
)

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger replaces the default logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Synthesizer) { s.log = log }
}

// WithWorkers sets the number of finalization workers. Values <= 0 select
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Synthesizer) { s.workers = n }
}

// Synthesizer is the single owner of the matrix between setup and handoff.
// Region allocation is sequential: each region's absolute rows depend on the
// cumulative row count of all previously closed regions.
type Synthesizer struct {
	f       field.Field
	sys     *cs.System
	matrix  *table.Matrix
	perm    *permutation.Registry
	state   state
	nextRow int
	workers int
	log     zerolog.Logger
}

// NewSynthesizer seals the constraint system and opens the assigning phase.
func NewSynthesizer(f field.Field, sys *cs.System, opts ...Option) *Synthesizer {
	sys.Seal()
	s := &Synthesizer{
		f:      f,
		sys:    sys,
		matrix: table.NewMatrix(f, sys),
		perm:   permutation.New(),
		log:    logger.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synthesizer) Field() field.Field { return s.f }

// Matrix exposes the assignment matrix; it is mutable only through regions
// until finalization.
func (s *Synthesizer) Matrix() *table.Matrix { return s.matrix }

// ConstrainEqual registers a copy constraint between two cells. It fails
// once the synthesizer left the assigning phase: the registry is resolved
// during finalization and later constraints would go unchecked.
func (s *Synthesizer) ConstrainEqual(a, b cs.Cell) error {
	if s.state != stateAssigning {
		return ErrNotAssigning
	}
	s.perm.Equate(a, b)
	return nil
}

// Region opens a named region, runs fn against it, and commits it: the
// region consumes the next contiguous rows sized by the largest local offset
// fn touched, and enabled selectors are checked against that size.
func (s *Synthesizer) Region(name string, fn func(r *Region) error) error {
	if s.state != stateAssigning {
		return ErrNotAssigning
	}
	r := &Region{s: s, name: name, base: s.nextRow}
	if err := fn(r); err != nil {
		return fmt.Errorf("region %q: %w", name, err)
	}
	if err := r.commit(); err != nil {
		return err
	}
	s.nextRow += r.size
	if err := s.matrix.Grow(s.nextRow); err != nil {
		return err
	}
	s.log.Debug().Str("region", name).Int("base", r.base).Int("rows", r.size).Msg("region committed")
	return nil
}

// Finalize freezes the matrix, resolves every equivalence class and checks
// every gate and lookup over the whole matrix. All violations of the run
// are reported together. On success the matrix is ready for handoff.
func (s *Synthesizer) Finalize() (*table.Matrix, error) {
	if s.state != stateAssigning {
		return nil, ErrAlreadyFinalized
	}
	s.state = stateFinalizing
	s.matrix.Freeze()

	errs := s.perm.Finalize(s.matrix)
	if err := checker.Check(s.sys, s.matrix, s.workers); err != nil {
		var report *checker.Report
		if errors.As(err, &report) {
			errs = append(errs, report.Violations...)
		} else {
			errs = append(errs, err)
		}
	}
	s.state = stateDone
	if len(errs) > 0 {
		return nil, &checker.Report{Violations: errs}
	}
	s.log.Info().
		Int("rows", s.matrix.Height()).
		Int("nbCells", s.matrix.NbAssigned()).
		Int("nbGates", len(s.sys.Gates())).
		Int("nbCopies", s.perm.NbConstraints()).
		Msg("synthesis finalized")
	return s.matrix, nil
}
