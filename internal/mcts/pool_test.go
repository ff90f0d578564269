package mcts_test

import (
	"testing"

	"github.com/hailam/nczero/internal/evalstub"
	"github.com/hailam/nczero/internal/mcts"
	"github.com/hailam/nczero/internal/position"
)

// TestDeterministicVisitCountAlternatingWorkers exercises the property
// that, given a fixed evaluator and batch size 1, a tree shared by two
// workers ends up with a root visit count equal to the number of
// completed batches. The two workers take turns on one goroutine; the
// test does not run them concurrently.
func TestDeterministicVisitCountAlternatingWorkers(t *testing.T) {
	pos := position.NewPosition()
	root := mcts.NewRoot(pos.SideToMove())

	w1 := mcts.NewWorker(pos, evalstub.Stub{}, 1)
	w2 := mcts.NewWorker(pos, evalstub.Stub{}, 1)

	const totalBatches = 40
	for i := 0; i < totalBatches; i++ {
		if i%2 == 0 {
			w1.RunBatch(root)
		} else {
			w2.RunBatch(root)
		}
	}

	if got := root.VisitCount(); got != totalBatches {
		t.Errorf("root.VisitCount() = %d, want %d", got, totalBatches)
	}
}

func TestRootChildrenAccumulateVisits(t *testing.T) {
	pos := position.NewPosition()
	root := mcts.NewRoot(pos.SideToMove())
	w := mcts.NewWorker(pos, evalstub.Stub{}, 8)

	for i := 0; i < 200; i++ {
		w.RunBatch(root)
	}

	if !root.HasChildren() {
		t.Fatal("expected root to have expanded children after searching")
	}

	var best *mcts.Node
	for _, c := range root.Children() {
		if best == nil || c.VisitCount() > best.VisitCount() {
			best = c
		}
	}
	if best.VisitCount() == 0 {
		t.Error("expected at least one child to have been visited")
	}
}
