// Package enginepool maintains a fixed set of engine workers and leases
// them to analysis tasks, preserving the caller's record order across a
// batch while letting individual analyses run in parallel.
package enginepool

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/puzzleforge/internal/analysis"
	"github.com/hailam/puzzleforge/internal/board"
	"github.com/hailam/puzzleforge/internal/filter"
	"github.com/hailam/puzzleforge/internal/protocol"
	"github.com/hailam/puzzleforge/internal/worker"
)

// Pool is a bounded blocking queue of idle workers, strictly FIFO. Each
// task takes one worker, runs an analysis, and returns it.
type Pool struct {
	idle    chan *worker.Worker
	workers []*worker.Worker
}

// Create spawns up to instances workers against descriptor. If at least
// one worker starts, the pool proceeds at reduced capacity and logs a
// warning for every failed spawn; construction only fails if zero workers
// were created.
func Create(instances int, descriptor *protocol.Descriptor) (*Pool, error) {
	if instances < 1 {
		return nil, fmt.Errorf("enginepool: instances must be >= 1")
	}

	p := &Pool{idle: make(chan *worker.Worker, instances)}

	for i := 0; i < instances; i++ {
		w, err := worker.Spawn(descriptor)
		if err != nil {
			log.Printf("enginepool: worker %d failed to spawn: %v", i, err)
			continue
		}
		p.workers = append(p.workers, w)
		p.idle <- w
	}

	if len(p.workers) == 0 {
		return nil, fmt.Errorf("enginepool: zero workers spawned out of %d requested", instances)
	}
	if len(p.workers) < instances {
		log.Printf("enginepool: running at reduced capacity: %d/%d workers", len(p.workers), instances)
	}

	return p, nil
}

// AnalyseAll runs one analysis per position, in parallel across idle
// workers, under accelerate as the early-exit filter and the given search
// parameters. The returned slice mirrors positions' order regardless of
// which analysis finishes first. On a worker error the task retries once
// on a different worker; a second failure leaves that position's entry nil.
func (p *Pool) AnalyseAll(ctx context.Context, positions []*board.Position, accelerate *filter.Node, params worker.SearchParams) ([]*analysis.Analysis, error) {
	results := make([]*analysis.Analysis, len(positions))

	g, gctx := errgroup.WithContext(ctx)

	for i := range positions {
		i := i
		g.Go(func() error {
			pos := positions[i]

			w, err := p.lease(gctx)
			if err != nil {
				return err
			}

			a, err := w.Analyze(pos, accelerate, params)
			if err == nil {
				p.release(w)
				results[i] = a
				return nil
			}

			p.retire(w)

			w2, leaseErr := p.lease(gctx)
			if leaseErr != nil {
				log.Printf("enginepool: %s: no worker available for retry: %v", pos.ToFEN(), leaseErr)
				return nil
			}
			a2, err2 := w2.Analyze(pos, accelerate, params)
			p.release(w2)
			if err2 != nil {
				log.Printf("enginepool: %s: failed twice, marking empty analysis: %v", pos.ToFEN(), err2)
				return nil
			}
			results[i] = a2
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pool) lease(ctx context.Context) (*worker.Worker, error) {
	select {
	case w := <-p.idle:
		return w, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) release(w *worker.Worker) {
	p.idle <- w
}

// retire drops a worker that just failed an analysis. A worker that ends
// up StateBroken already exhausted its automatic revival (worker.Analyze
// only returns an error once that's happened), so its process is gone and
// it does not go back in the idle queue; any other error means the
// worker revived itself internally and is safe to reuse.
func (p *Pool) retire(w *worker.Worker) {
	if w.State() == worker.StateBroken {
		w.Close()
		return
	}
	p.idle <- w
}

// Close shuts down every worker the pool spawned, terminating their child
// processes. Leased workers are closed at once as well: Close does not wait
// for an in-flight analysis to finish.
func (p *Pool) Close() {
	for _, w := range p.workers {
		w.Close()
	}
}
