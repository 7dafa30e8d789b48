// Package executor runs a cycle's work cells concurrently.
package executor

import (
	"context"

	"github.com/stratus-framework/ctrl-vpces/internal/core"
	"golang.org/x/sync/errgroup"
)

// Task reconciles one cell. It returns an error only for faults that must
// stop the controller.
type Task func(ctx context.Context, cell core.WorkCell) (core.CellResult, error)

// Outcome pairs a cell with what its task reported.
type Outcome struct {
	Cell   core.WorkCell
	Result core.CellResult
	Err    error
}

// Run starts one goroutine per cell and waits for all of them, even when
// one fails. Outcomes are returned in cell order along with the first task
// error.
func Run(ctx context.Context, cells []core.WorkCell, task Task) ([]Outcome, error) {
	outcomes := make([]Outcome, len(cells))

	var g errgroup.Group
	for i, cell := range cells {
		g.Go(func() error {
			result, err := task(ctx, cell)
			outcomes[i] = Outcome{Cell: cell, Result: result, Err: err}
			return err
		})
	}
	err := g.Wait()
	return outcomes, err
}

// Summary aggregates the outcomes of one cycle.
type Summary struct {
	Cells           int
	IdentitySkipped int
	SessionFailed   int
	ListFailed      int
	Services        int
	Updated         int
	Failed          int
	Intended        int
}

// Summarize totals a cycle's outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Cells: len(outcomes)}
	for _, o := range outcomes {
		switch o.Result.Status {
		case core.CellIdentitySkipped:
			s.IdentitySkipped++
		case core.CellSessionFailed:
			s.SessionFailed++
		case core.CellListFailed:
			s.ListFailed++
		}
		s.Services += o.Result.Services
		s.Updated += o.Result.Updated
		s.Failed += o.Result.Failed
		s.Intended += o.Result.Intended
	}
	return s
}
