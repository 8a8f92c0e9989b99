// Package checker verifies a completed assignment matrix against the static
// constraint system: every gate polynomial must vanish at every row, and
// every lookup input must appear in its table at rows where its selector is
// on. The matrix is immutable at this stage, so rows are checked in parallel
// shards with no shared mutable state; only the aggregate result matters.
package checker

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/PolyhedraZK/PlonkishLayouter/cs"
	"github.com/PolyhedraZK/PlonkishLayouter/expr"
	"github.com/PolyhedraZK/PlonkishLayouter/table"
	"github.com/consensys/gnark/constraint"
	"golang.org/x/sync/errgroup"
)

// GateViolation reports a gate polynomial that is nonzero at an effective
// row.
type GateViolation struct {
	Gate  string
	Row   int
	Value string
}

func (e *GateViolation) Error() string {
	return fmt.Sprintf("gate %q does not vanish at row %d: %s", e.Gate, e.Row, e.Value)
}

// LookupViolation reports an input tuple missing from its lookup table.
type LookupViolation struct {
	Lookup string
	Row    int
	Inputs []string
}

func (e *LookupViolation) Error() string {
	return fmt.Sprintf("lookup %q: tuple (%s) at row %d not in table", e.Lookup, strings.Join(e.Inputs, ", "), e.Row)
}

// UnassignedCellError reports a cell read by an effective constraint that
// was never written and whose column is not zero-defaulted.
type UnassignedCellError struct {
	Cell cs.Cell
	Gate string
	Row  int
}

func (e *UnassignedCellError) Error() string {
	return fmt.Sprintf("gate %q at row %d reads unassigned cell %v", e.Gate, e.Row, e.Cell)
}

// Report aggregates every violation of a failing run.
type Report struct {
	Violations []error
}

func (r *Report) Error() string {
	s := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		s[i] = v.Error()
	}
	return fmt.Sprintf("%d constraint violation(s):\n\t%s", len(r.Violations), strings.Join(s, "\n\t"))
}

// getter resolves column queries for one anchor row, recording reads of
// unassigned cells that are not zero-defaulted. The recorded misses only
// become errors when the surrounding constraint turns out to be effective.
type getter struct {
	m      *table.Matrix
	row    int
	missed []cs.Cell
}

func (g *getter) get(column, rotation int) (constraint.Element, error) {
	cell := cs.Cell{
		Column: cs.Column{ID: column, Kind: g.m.System().ColumnKind(column)},
		Row:    g.row + rotation,
	}
	v, ok := g.m.Get(cell)
	if !ok && !g.m.System().ZeroDefault(column) {
		g.missed = append(g.missed, cell)
	}
	return v, nil
}

// Check verifies all gates and lookups over every row of the matrix. A nil
// error means the matrix satisfies the system; otherwise the returned
// *Report lists every violation found. workers <= 0 selects GOMAXPROCS.
func Check(sys *cs.System, m *table.Matrix, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	height := m.Height()
	if workers > height {
		workers = height
	}
	if workers < 1 {
		workers = 1
	}
	f := m.Field()

	tables := tableSets(sys, m)

	// one violation slice per shard, merged after the group completes
	perShard := make([][]error, workers)
	chunk := (height + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		start, end := w*chunk, (w+1)*chunk
		if end > height {
			end = height
		}
		g.Go(func() error {
			var errs []error
			for row := start; row < end; row++ {
				errs = append(errs, checkRow(sys, m, f, tables, row)...)
			}
			perShard[w] = errs
			return nil
		})
	}
	_ = g.Wait()

	var all []error
	for _, errs := range perShard {
		all = append(all, errs...)
	}
	if len(all) == 0 {
		return nil
	}
	sortErrors(all)
	return &Report{Violations: all}
}

func checkRow(sys *cs.System, m *table.Matrix, f expr.Arith, tables []map[string]struct{}, row int) []error {
	var errs []error
	for _, gate := range sys.Gates() {
		gt := &getter{m: m, row: row}
		v, err := gate.Polynomial().Eval(f, gt.get)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sel, _ := m.Get(cs.Cell{Column: gate.Selector.Column, Row: row})
		if !sel.IsZero() {
			for _, cell := range gt.missed {
				errs = append(errs, &UnassignedCellError{Cell: cell, Gate: gate.Name, Row: row})
			}
			if len(gt.missed) > 0 {
				continue
			}
		}
		if !v.IsZero() {
			errs = append(errs, &GateViolation{Gate: gate.Name, Row: row, Value: f.String(v)})
		}
	}
	for i, lk := range sys.Lookups() {
		sel, _ := m.Get(cs.Cell{Column: lk.Selector.Column, Row: row})
		if sel.IsZero() {
			continue
		}
		gt := &getter{m: m, row: row}
		inputs := make([]string, len(lk.Inputs))
		bad := false
		for j, in := range lk.Inputs {
			v, err := in.Eval(f, gt.get)
			if err != nil {
				errs = append(errs, err)
				bad = true
				break
			}
			inputs[j] = f.String(v)
		}
		if bad {
			continue
		}
		for _, cell := range gt.missed {
			errs = append(errs, &UnassignedCellError{Cell: cell, Gate: lk.Name, Row: row})
		}
		if len(gt.missed) > 0 {
			continue
		}
		if _, ok := tables[i][tupleKey(inputs)]; !ok {
			errs = append(errs, &LookupViolation{Lookup: lk.Name, Row: row, Inputs: inputs})
		}
	}
	return errs
}

// tableSets materializes each lookup's table: the set of rows where every
// table column was explicitly assigned.
func tableSets(sys *cs.System, m *table.Matrix) []map[string]struct{} {
	f := m.Field()
	res := make([]map[string]struct{}, len(sys.Lookups()))
	for i, lk := range sys.Lookups() {
		set := make(map[string]struct{})
		for row := 0; row < m.Height(); row++ {
			tuple := make([]string, len(lk.Table))
			complete := true
			for j, col := range lk.Table {
				v, ok := m.Get(cs.Cell{Column: col, Row: row})
				if !ok {
					complete = false
					break
				}
				tuple[j] = f.String(v)
			}
			if complete {
				set[tupleKey(tuple)] = struct{}{}
			}
		}
		res[i] = set
	}
	return res
}

func tupleKey(vals []string) string {
	return strings.Join(vals, "\x00")
}

// sortErrors orders violations by row for deterministic reports.
func sortErrors(errs []error) {
	rowOf := func(e error) int {
		switch v := e.(type) {
		case *GateViolation:
			return v.Row
		case *LookupViolation:
			return v.Row
		case *UnassignedCellError:
			return v.Row
		}
		return -1
	}
	sort.SliceStable(errs, func(i, j int) bool { return rowOf(errs[i]) < rowOf(errs[j]) })
}
