package scheduler

import (
	"context"
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// RunFunc runs the system with the given registration index.
type RunFunc func(ctx context.Context, system int) error

// Executor runs plans on a fixed number of workers.
type Executor struct {
	workers int
}

// NewExecutor creates an executor with the given pool size. A size below one uses GOMAXPROCS.
func NewExecutor(workers int) *Executor {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{workers: workers}
}

func (x *Executor) Workers() int {
	return x.workers
}

type completion struct {
	node int
	err  error
}

// Execute runs every phase of plan in order. The exclusive root of a phase runs alone, then every
// other node is started as soon as the nodes it waits on have finished. Once a system fails or ctx
// is done no further system is started; Execute waits for the running ones and returns the first
// error.
func (x *Executor) Execute(ctx context.Context, plan *Plan, run RunFunc) error {
	for _, phase := range plan.phases {
		if phase.Exclusive >= 0 {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "schedule interrupted")
			}
			if err := run(ctx, phase.Exclusive); err != nil {
				return err
			}
		}
		if err := x.executePhase(ctx, phase, run); err != nil {
			return err
		}
	}
	return nil
}

func (x *Executor) executePhase(ctx context.Context, phase Phase, run RunFunc) error {
	counts := make([]int, len(phase.Nodes))
	for i, n := range phase.Nodes {
		counts[i] = n.WaitingOn
	}
	done := make(chan completion, len(phase.Nodes))

	var g errgroup.Group
	g.SetLimit(x.workers)
	pending := 0
	var firstErr error

	submit := func(node int) {
		pending++
		system := phase.Nodes[node].System
		g.Go(func() error {
			done <- completion{node: node, err: run(ctx, system)}
			return nil
		})
	}
	finish := func(node int) {
		for _, w := range phase.Nodes[node].Wakes {
			counts[w]--
			if counts[w] != 0 {
				continue
			}
			if err := ctx.Err(); err != nil && firstErr == nil {
				firstErr = eris.Wrap(err, "schedule interrupted")
			}
			if firstErr == nil {
				submit(w)
			}
		}
	}

	finish(0)
	for pending > 0 {
		c := <-done
		pending--
		if c.err != nil && firstErr == nil {
			firstErr = c.err
		}
		if firstErr == nil {
			finish(c.node)
		}
	}
	_ = g.Wait()
	return firstErr
}
