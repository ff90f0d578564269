// Package mcts implements the parallel PUCT search tree: shared-ownership
// nodes with one-shot child expansion, a batching worker that descends the
// tree to assemble leaves for neural evaluation, and a pool/controller
// that runs a timed search and samples the final move.
package mcts

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/hailam/nczero/internal/board"
)

// PolicyWeight and Exploration are the PUCT selection formula's tunable
// constants, matching the reference engine's node.cpp.
const (
	PolicyWeight = 5.0
	Exploration  = math.Sqrt2
)

// nonTerminal is the terminal-cache sentinel meaning "not known decisive".
const nonTerminal = 1.0

// Node is a PUCT search tree node. Children are published exactly once via
// a compare-and-swap on the children pointer itself, which serves as the
// one-shot "has_children" gate described in the reference design: a nil
// pointer means unexpanded, and only the first CompareAndSwap(nil, ...)
// call wins. (n, w) are guarded by mu; p, totalP, and terminal are racy
// atomics, updated monotonically and read only for ranking — lost updates
// under concurrent writers are accepted by design.
type Node struct {
	Action board.Move
	POV    board.Color

	parent   *Node
	children atomic.Pointer[[]*Node]

	mu sync.Mutex
	n  int
	w  float64

	p        atomic.Uint64 // float64 bits
	totalP   atomic.Uint64 // float64 bits
	terminal atomic.Uint64 // float64 bits
}

// NewRoot creates a fresh root node for pov (the side to move at the root
// position), with no action and no parent.
func NewRoot(pov board.Color) *Node {
	n := &Node{Action: board.NullMove, POV: pov}
	n.terminal.Store(math.Float64bits(nonTerminal))
	return n
}

// newChild creates an unexpanded child of parent for the given action. The
// child's POV is the opposite of its parent's, matching the reference
// engine's pov alternation by depth.
func newChild(parent *Node, action board.Move) *Node {
	n := &Node{Action: action, POV: parent.POV.Other(), parent: parent}
	n.terminal.Store(math.Float64bits(nonTerminal))
	return n
}

// HasChildren reports whether children have already been published.
func (n *Node) HasChildren() bool {
	return n.children.Load() != nil
}

// Children returns the published child slice, or nil if unexpanded.
func (n *Node) Children() []*Node {
	if p := n.children.Load(); p != nil {
		return *p
	}
	return nil
}

// SetChildren attempts to publish kids as this node's children. It is
// one-shot: only the first caller across all goroutines succeeds: this
// prevents double-expansion when two workers independently expand the
// same leaf within the same batch window.
func (n *Node) SetChildren(kids []*Node) bool {
	return n.children.CompareAndSwap(nil, &kids)
}

// MoveChild detaches and returns the child matching action, promoting it
// to a standalone root (its parent link is cleared so the old tree,
// including its now-irrelevant siblings, can be garbage collected once
// released). It fails if no such child has been published.
func (n *Node) MoveChild(action board.Move) (*Node, bool) {
	for _, c := range n.Children() {
		if c.Action == action {
			c.parent = nil
			return c, true
		}
	}
	return nil, false
}

// VisitCount and TotalValue read (n, w) under the node's mutex.
func (n *Node) VisitCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.n
}

func (n *Node) TotalValue() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.w
}

// P returns this node's prior, as set by ApplyPolicy.
func (n *Node) P() float64 { return math.Float64frombits(n.p.Load()) }

// setP stores this node's prior directly, for ApplyPolicy.
func (n *Node) setP(v float64) { n.p.Store(math.Float64bits(v)) }

// TotalP returns the running sum of this node's children's priors.
func (n *Node) TotalP() float64 { return math.Float64frombits(n.totalP.Load()) }

// addTotalP is a deliberately racy read-add-store: per the concurrency
// model, total_p is updated monotonically and only ever read for ranking,
// so occasional lost updates under concurrent writers are acceptable.
func (n *Node) addTotalP(v float64) {
	n.totalP.Store(math.Float64bits(n.TotalP() + v))
}

// Terminal returns the cached terminal value from this node's own POV:
// the sentinel 1.0 means "not known decisive", -1.0 means loss, 0.0 draw.
func (n *Node) Terminal() float64 { return math.Float64frombits(n.terminal.Load()) }

// UCT computes this node's PUCT selection score relative to its parent.
// Calling UCT on a root node (no parent) is not meaningful and panics.
func (n *Node) UCT() float64 {
	nn := n.VisitCount()
	ww := n.TotalValue()
	parent := n.parent

	exploit := ww / float64(nn+1)

	var priorTerm float64
	if tp := parent.TotalP(); tp > 0 {
		priorTerm = PolicyWeight * (n.P() / tp)
	}

	var explTerm float64
	if pn := parent.VisitCount(); pn > 0 {
		explTerm = Exploration * math.Sqrt(math.Log(float64(pn))/float64(nn+1))
	}

	return exploit + priorTerm + explTerm
}

// Backprop increments the visit count by one and adds value to the total,
// under the node's mutex, then recurses on the parent with the negated
// value — value is from this node's POV, so the parent sees the opposite.
func (n *Node) Backprop(value float64) {
	n.mu.Lock()
	n.n++
	n.w += value
	n.mu.Unlock()
	if n.parent != nil {
		n.parent.Backprop(-value)
	}
}

// BackpropTerminal updates the terminal cache with tv if tv indicates a
// decisive result (tv < 1.0, i.e. loss or draw), then — regardless of
// whether this call just wrote it or an earlier call already had — if the
// cache now holds a decisive value, backpropagates it and reports true.
// Calling with tv == nonTerminal (1.0) checks an already-cached value
// without overwriting it; this is the "no-arg" form used by Worker.descend
// to notice a leaf some other worker already resolved.
func (n *Node) BackpropTerminal(tv float64) bool {
	if tv < nonTerminal {
		n.terminal.Store(math.Float64bits(tv))
	}
	if cur := n.Terminal(); cur < nonTerminal {
		n.Backprop(cur)
		return true
	}
	return false
}

// ApplyPolicy sets this node's prior from policy (a dense 4096-entry
// from/to distribution) and adds it to the parent's running prior sum.
// The index into policy depends on the parent's POV, not this node's: for
// a white-POV parent idx = src*64+dst; for a black-POV parent the board is
// mirrored, idx = (63-src)*64 + (63-dst). Since a child's POV is always
// the opposite of its parent's, this also reads as "mirror the index
// exactly when this node's own POV is white" — both are the same
// condition, stated here the way the reference node.cpp states it.
func (n *Node) ApplyPolicy(policy *[4096]float32) {
	p := float64(policy[PolicyIndex(n.Action, n.parent.POV)])
	n.setP(p)
	n.parent.addTotalP(p)
}

// PolicyIndex returns the policy/LMM vector index for move m as seen by a
// node whose POV is pov: idx = src*64+dst for White, mirrored
// ((63-src)*64 + (63-dst)) for Black.
func PolicyIndex(m board.Move, pov board.Color) int {
	src, dst := m.Src(), m.Dst()
	if pov == board.Black {
		src, dst = src.Rotate180(), dst.Rotate180()
	}
	return int(src)*64 + int(dst)
}
