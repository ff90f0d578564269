package mcts

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hailam/nczero/internal/position"
)

// PollInterval is how often the controller polls worker status during a
// search, matching the reference engine's 500ms status cadence.
const PollInterval = 500 * time.Millisecond

// InfoFunc receives a live status line during search (UCI "info" output
// or a pretty table, at the caller's discretion).
type InfoFunc func(elapsed time.Duration, nodes int)

// Pool owns a fixed set of workers sharing one evaluator and runs timed
// searches against a root node.
type Pool struct {
	evaluator Evaluator
	batchSize int
	workers   []*Worker
}

// NewPool sizes the pool for numThreads workers. The workers themselves,
// each with its own cloned position, are constructed by every Search call.
func NewPool(numThreads int, eval Evaluator, batchSize int) *Pool {
	return &Pool{evaluator: eval, batchSize: batchSize, workers: make([]*Worker, numThreads)}
}

// SetBatchSize resizes every worker's batch buffers.
func (pl *Pool) SetBatchSize(b int) {
	pl.batchSize = b
	for _, w := range pl.workers {
		if w != nil {
			w.SetBatchSize(b)
		}
	}
}

// Search runs a timed PUCT search rooted at root and pos, then samples and
// returns a child action by visit count. The budget is checked once every
// PollInterval, and its clock restarts at the first poll that sees a
// searched node, so a search lasts at least maxMS milliseconds past that
// poll, rounded up to the next poll.
// onInfo, if non-nil, is called roughly every PollInterval with progress.
func (pl *Pool) Search(ctx context.Context, root *Node, pos *position.Position, maxMS int, onInfo InfoFunc) (*Node, bool) {
	for i := range pl.workers {
		pl.workers[i] = NewWorker(pos, pl.evaluator, pl.batchSize)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range pl.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			for ctx.Err() == nil {
				w.RunBatch(root)
			}
		}(w)
	}

	start := time.Now()
	warmedUp := false
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

searchLoop:
	for {
		select {
		case <-ticker.C:
			nodes := pl.totalNodes()
			if !warmedUp && nodes > 0 {
				// First-batch warmup should not count against the budget.
				start = time.Now()
				warmedUp = true
			}
			elapsed := time.Since(start)
			if onInfo != nil {
				onInfo(elapsed, nodes)
			}
			if elapsed.Milliseconds() >= int64(maxMS) {
				break searchLoop
			}
		case <-ctx.Done():
			break searchLoop
		}
	}

	cancel()
	wg.Wait()

	return pl.sampleChild(root)
}

func (pl *Pool) totalNodes() int {
	total := 0
	for _, w := range pl.workers {
		total += w.Status().NodeCount
	}
	return total
}

// sampleChild builds a categorical distribution over root's children with
// weights equal to their visit counts and samples one.
func (pl *Pool) sampleChild(root *Node) (*Node, bool) {
	kids := root.Children()
	if len(kids) == 0 {
		return nil, false
	}

	total := 0
	weights := make([]int, len(kids))
	for i, c := range kids {
		weights[i] = c.VisitCount()
		total += weights[i]
	}
	if total == 0 {
		return kids[rand.IntN(len(kids))], true
	}

	r := rand.IntN(total)
	for i, w := range weights {
		if r < w {
			return kids[i], true
		}
		r -= w
	}
	return kids[len(kids)-1], true
}

// FormatInfo renders a UCI "info" line for a search progress snapshot.
func FormatInfo(elapsed time.Duration, nodes int) string {
	ms := elapsed.Milliseconds()
	nps := int64(0)
	if ms > 0 {
		nps = int64(nodes) * 1000 / ms
	}
	return fmt.Sprintf("info time %d nodes %d nps %d", ms, nodes, nps)
}
