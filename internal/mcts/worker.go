package mcts

import (
	crand "crypto/rand"
	"encoding/binary"
	"log"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/hailam/nczero/internal/position"
)

// EvalResult is one row of a batched neural network evaluation: a dense
// from/to policy distribution and a scalar value from the to-move side's
// POV, in [-1, 1].
type EvalResult struct {
	Policy [4096]float32
	Value  float32
}

// Evaluator batches board/legal-move-mask input rows through a neural
// network. Implementations may be called concurrently by multiple
// workers; they are responsible for their own serialization or
// device-side batching.
type Evaluator interface {
	Evaluate(boardInput, lmmInput []float32, batchSize int) ([]EvalResult, error)
}

// Status reports a worker's live progress, polled by the controller.
type Status struct {
	Code       string
	BatchCount int
	ExecCount  int
	NodeCount  int
	BatchAvgMS float64
	ExecAvgMS  float64
}

const (
	codeUninitialized = "uninitialized"
	codeBuilding       = "building"
	codeExecute        = "execute "
)

// Worker is one search goroutine: it repeatedly descends the shared tree
// to assemble a batch of leaves, hands the batch to the evaluator, and
// backpropagates the results, until stopped.
type Worker struct {
	pos       *position.Position
	evaluator Evaluator
	RNG       *rand.Rand // not read by search or by Pool's move sampling

	batchSize int
	boardBuf  []float32
	lmmBuf    []float32
	rows      int
	leaves    []*Node
	children  [][]*Node

	statusMu sync.Mutex
	status   Status
}

// NewWorker constructs a worker with its own cloned position and a
// crypto/rand-seeded RNG (exposed as RNG; the worker does not read it).
func NewWorker(pos *position.Position, eval Evaluator, batchSize int) *Worker {
	w := &Worker{
		pos:       pos.Clone(),
		evaluator: eval,
		RNG:       rand.New(rand.NewPCG(cryptoSeed(), cryptoSeed())),
	}
	w.status.Code = codeUninitialized
	w.SetBatchSize(batchSize)
	return w
}

func cryptoSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// SetBatchSize reallocates the worker's batch buffers for batch size b.
// RunBatch reuses them for every batch until the next SetBatchSize.
func (w *Worker) SetBatchSize(b int) {
	w.batchSize = b
	w.boardBuf = make([]float32, b*position.InputPlanes)
	w.lmmBuf = make([]float32, b*4096)
	w.leaves = make([]*Node, 0, b)
	w.children = make([][]*Node, 0, b)
}

// Status returns a snapshot of the worker's current progress.
func (w *Worker) Status() Status {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	return w.status
}

func (w *Worker) setCode(code string) {
	w.statusMu.Lock()
	w.status.Code = code
	w.statusMu.Unlock()
}

// RunBatch assembles and processes one batch against root, returning the
// number of leaves added to the tree during descent (terminal
// short-circuits that consume no batch slot are not counted).
func (w *Worker) RunBatch(root *Node) int {
	start := time.Now()
	w.setCode(codeBuilding)

	w.rows = 0
	w.leaves = w.leaves[:0]
	w.children = w.children[:0]

	added := w.descend(root, w.batchSize)
	batchElapsed := time.Since(start)

	if w.rows > 0 {
		w.setCode(codeExecute)
		execStart := time.Now()
		results, err := w.evaluator.Evaluate(w.boardBuf[:w.rows*position.InputPlanes], w.lmmBuf[:w.rows*4096], w.rows)
		execElapsed := time.Since(execStart)
		if err == nil {
			for i := 0; i < w.rows; i++ {
				leaf := w.leaves[i]
				kids := w.children[i]
				for _, c := range kids {
					c.ApplyPolicy(&results[i].Policy)
				}
				if leaf.SetChildren(kids) {
					leaf.Backprop(float64(results[i].Value))
				}
			}
		} else {
			log.Fatalf("mcts: evaluator failed: %v", err)
		}
		w.recordExec(execElapsed)
	}

	w.recordBatch(batchElapsed, added)
	w.setCode(codeBuilding)
	return added
}

func (w *Worker) recordBatch(d time.Duration, added int) {
	w.statusMu.Lock()
	w.status.BatchCount++
	w.status.NodeCount += added
	n := float64(w.status.BatchCount)
	w.status.BatchAvgMS += (float64(d.Milliseconds()) - w.status.BatchAvgMS) / n
	w.statusMu.Unlock()
}

// recordExec folds one evaluator call's elapsed time into the running
// average. Only called when RunBatch actually reached evaluation (rows
// > 0), so every call here is one more real sample.
func (w *Worker) recordExec(d time.Duration) {
	w.statusMu.Lock()
	w.status.ExecCount++
	n := float64(w.status.ExecCount)
	w.status.ExecAvgMS += (float64(d.Milliseconds()) - w.status.ExecAvgMS) / n
	w.statusMu.Unlock()
}

// descend recursively assembles up to allocated leaves rooted at node,
// returning how many were actually added to the batch (new-child leaves
// only; terminal short-circuits consume no slot).
func (w *Worker) descend(node *Node, allocated int) int {
	if allocated <= 0 {
		return 0
	}

	if node.HasChildren() {
		return w.descendChildren(node, allocated)
	}

	if node.BackpropTerminal(nonTerminal) {
		return 0
	}

	if w.pos.IsDrawByHRM() {
		node.BackpropTerminal(0)
		return 0
	}

	return w.expandLeaf(node)
}

// descendChildren ranks node's published children by current UCT
// (descending) and distributes allocated slots proportionally to each
// child's share of the total UCT among them, stopping once the
// allocation is exhausted.
func (w *Worker) descendChildren(node *Node, allocated int) int {
	kids := append([]*Node(nil), node.Children()...)
	sort.Slice(kids, func(i, j int) bool { return kids[i].UCT() > kids[j].UCT() })

	total := 0.0
	scores := make([]float64, len(kids))
	for i, c := range kids {
		s := c.UCT()
		if s < 0 {
			s = 0
		}
		scores[i] = s
		total += s
	}

	added := 0
	remaining := allocated
	remainingTotal := total
	for i, c := range kids {
		if remaining <= 0 {
			break
		}
		share := remaining
		if remainingTotal > 0 {
			share = int(float64(remaining) * scores[i] / remainingTotal)
			if share <= 0 {
				share = 1
			}
			if share > remaining {
				share = remaining
			}
		}

		w.pos.MakeMove(c.Action)
		n := w.descend(c, share)
		w.pos.UnmakeMove()

		added += n
		remaining -= share
		remainingTotal -= scores[i]
	}
	return added
}

// expandLeaf generates legal moves from the local position, builds one
// placeholder child per legal move, writes the board/LMM batch rows for
// the evaluator, and records the leaf for post-evaluation processing. If
// there are no legal moves the position is itself terminal (checkmate or
// stalemate), which is backpropagated immediately and consumes no slot.
func (w *Worker) expandLeaf(node *Node) int {
	legal := w.pos.LegalMoves()
	if legal.Len() == 0 {
		tv := 0.0
		if w.pos.InCheck() {
			tv = -1.0
		}
		node.BackpropTerminal(tv)
		return 0
	}

	kids := make([]*Node, legal.Len())
	for i := 0; i < legal.Len(); i++ {
		kids[i] = newChild(node, legal.Get(i))
	}

	row := w.rows
	boardRow := w.boardBuf[row*position.InputPlanes : (row+1)*position.InputPlanes]
	copy(boardRow, w.pos.GetCurrentInput())

	lmmRow := w.lmmBuf[row*4096 : (row+1)*4096]
	clear(lmmRow)
	for i := 0; i < legal.Len(); i++ {
		lmmRow[PolicyIndex(legal.Get(i), node.POV)] = 1
	}

	w.leaves = append(w.leaves, node)
	w.children = append(w.children, kids)
	w.rows++
	return 1
}
