package mcts

import (
	"testing"

	"github.com/hailam/nczero/internal/board"
)

func TestSetChildrenIsOneShot(t *testing.T) {
	root := NewRoot(board.White)
	first := []*Node{newChild(root, board.NewMove(board.E2, board.E4, board.NoPieceType, board.FlagPawnJump))}
	second := []*Node{newChild(root, board.NewMove(board.D2, board.D4, board.NoPieceType, board.FlagPawnJump))}

	if !root.SetChildren(first) {
		t.Fatal("first SetChildren call should succeed")
	}
	if root.SetChildren(second) {
		t.Fatal("second SetChildren call should fail, children already published")
	}
	if got := root.Children(); len(got) != 1 || got[0] != first[0] {
		t.Fatal("children should still be the first published slice")
	}
}

func TestBackpropAlternatesSign(t *testing.T) {
	root := NewRoot(board.White)
	child := newChild(root, board.NewMove(board.E2, board.E4, board.NoPieceType, board.FlagPawnJump))
	root.SetChildren([]*Node{child})

	child.Backprop(0.7)

	if got := child.TotalValue(); got != 0.7 {
		t.Errorf("child.TotalValue() = %v, want 0.7", got)
	}
	if got := child.VisitCount(); got != 1 {
		t.Errorf("child.VisitCount() = %d, want 1", got)
	}
	if got := root.TotalValue(); got != -0.7 {
		t.Errorf("root.TotalValue() = %v, want -0.7 (negated for the parent)", got)
	}
}

func TestBackpropTerminalOnlyPropagatesDecisive(t *testing.T) {
	root := NewRoot(board.White)
	child := newChild(root, board.NewMove(board.E2, board.E4, board.NoPieceType, board.FlagPawnJump))
	root.SetChildren([]*Node{child})

	if child.BackpropTerminal(nonTerminal) {
		t.Fatal("BackpropTerminal(1.0) should not propagate on an unresolved node")
	}
	if !child.BackpropTerminal(0) {
		t.Fatal("BackpropTerminal(0) should propagate a draw")
	}
	if got := child.Terminal(); got != 0 {
		t.Errorf("child.Terminal() = %v, want 0", got)
	}
	if got := root.TotalValue(); got != 0 {
		t.Errorf("root.TotalValue() = %v, want 0", got)
	}

	// A later no-arg check should re-observe the already-cached decisive
	// value and backprop it again (Worker.descend's cached-terminal step).
	if !child.BackpropTerminal(nonTerminal) {
		t.Fatal("BackpropTerminal(1.0) should re-propagate an already-cached decisive value")
	}
}

func TestApplyPolicyMirrorsForBlackParent(t *testing.T) {
	whiteParent := NewRoot(board.White)
	blackParent := NewRoot(board.Black)

	m := board.NewMove(board.E2, board.E4, board.NoPieceType, board.FlagPawnJump)
	wChild := newChild(whiteParent, m)
	bChild := newChild(blackParent, m)

	var policy [4096]float32
	src, dst := int(board.E2), int(board.E4)
	policy[src*64+dst] = 0.3
	policy[(63-src)*64+(63-dst)] = 0.9

	wChild.ApplyPolicy(&policy)
	bChild.ApplyPolicy(&policy)

	// Priors are float64 widenings of the float32 policy entries.
	wantW, wantB := float64(float32(0.3)), float64(float32(0.9))
	if got := wChild.P(); got != wantW {
		t.Errorf("white-parent child P() = %v, want %v", got, wantW)
	}
	if got := bChild.P(); got != wantB {
		t.Errorf("black-parent child P() = %v, want %v", got, wantB)
	}
	if got := whiteParent.TotalP(); got != wantW {
		t.Errorf("whiteParent.TotalP() = %v, want %v", got, wantW)
	}
	if got := blackParent.TotalP(); got != wantB {
		t.Errorf("blackParent.TotalP() = %v, want %v", got, wantB)
	}
}

func TestMoveChildDetachesParent(t *testing.T) {
	root := NewRoot(board.White)
	m := board.NewMove(board.E2, board.E4, board.NoPieceType, board.FlagPawnJump)
	child := newChild(root, m)
	root.SetChildren([]*Node{child})

	got, ok := root.MoveChild(m)
	if !ok {
		t.Fatal("MoveChild should find the published child")
	}
	if got != child {
		t.Fatal("MoveChild returned the wrong node")
	}
	if child.parent != nil {
		t.Error("MoveChild should detach the child's parent link")
	}

	other := board.NewMove(board.D2, board.D4, board.NoPieceType, board.FlagPawnJump)
	if _, ok := root.MoveChild(other); ok {
		t.Error("MoveChild should fail for an action with no matching child")
	}
}
