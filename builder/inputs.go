package builder

// Input collaborators. Each loads one value through its own one-row region
// and returns a cell handle usable in later copy constraints.

import (
	"fmt"

	"github.com/PolyhedraZK/PlonkishLayouter/cs"
)

// LoadPrivate assigns a witness value to a fresh advice cell.
func (s *Synthesizer) LoadPrivate(col cs.Column, value interface{}) (cs.Cell, error) {
	var cell cs.Cell
	err := s.Region("load private", func(r *Region) error {
		var err error
		cell, err = r.AssignAdvice(col, 0, value)
		return err
	})
	return cell, err
}

// LoadConstant bakes a constant into a fixed cell and mirrors it into an
// advice cell, copy-constraining the two so the witness cannot drift from
// the circuit definition.
func (s *Synthesizer) LoadConstant(advice, fixed cs.Column, value interface{}) (cs.Cell, error) {
	var cell cs.Cell
	err := s.Region("load constant", func(r *Region) error {
		fixedCell, err := r.AssignFixed(fixed, 0, value)
		if err != nil {
			return err
		}
		cell, err = r.AssignAdvice(advice, 0, value)
		if err != nil {
			return err
		}
		r.ConstrainEqual(cell, fixedCell)
		return nil
	})
	return cell, err
}

// LoadPublic assigns a public input to an instance cell and mirrors it into
// an advice cell via a copy constraint.
func (s *Synthesizer) LoadPublic(advice, instance cs.Column, value interface{}) (cs.Cell, error) {
	var cell cs.Cell
	err := s.Region("load public", func(r *Region) error {
		instCell, err := r.AssignInstance(instance, 0, value)
		if err != nil {
			return err
		}
		cell, err = r.AssignAdvice(advice, 0, value)
		if err != nil {
			return err
		}
		r.ConstrainEqual(cell, instCell)
		return nil
	})
	return cell, err
}

// ExposePublic mirrors an already assigned cell into an instance cell,
// making its value part of the verifier-visible data.
func (s *Synthesizer) ExposePublic(instance cs.Column, src cs.Cell) (cs.Cell, error) {
	var cell cs.Cell
	err := s.Region("expose public", func(r *Region) error {
		v, ok := s.matrix.Get(src)
		if !ok {
			return &sourceUnassignedError{src}
		}
		if instance.Kind != cs.Instance {
			return fmt.Errorf("%v is not an instance column", instance)
		}
		instCell, err := r.assign(instance, 0, v)
		if err != nil {
			return err
		}
		r.ConstrainEqual(instCell, src)
		cell = instCell
		return nil
	})
	return cell, err
}

type sourceUnassignedError struct {
	cell cs.Cell
}

func (e *sourceUnassignedError) Error() string {
	return "exposed cell " + e.cell.String() + " is unassigned"
}
