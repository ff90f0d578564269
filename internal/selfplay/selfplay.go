// Package selfplay drives self-play games through an mcts.Pool and writes
// them out in the training format expected by the learner: one file per
// game under models/latest/<index>.
package selfplay

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hailam/nczero/internal/mcts"
	"github.com/hailam/nczero/internal/position"
)

// MaxPlies bounds a self-play game's length as a safety net against
// positions the draw rules don't catch quickly (e.g. long maneuvering
// games against a weak or untrained evaluator).
const MaxPlies = 512

// MoveRecord is one played move's training row.
type MoveRecord struct {
	UCI         string
	BoardInput  []float32
	LMM         []float32
	VisitRatios []float32
}

// Game is a complete self-play game: every move played plus the terminal
// value from White's point of view.
type Game struct {
	Moves         []MoveRecord
	TerminalValue float64
}

// Play runs one self-play game to completion (or to MaxPlies), sampling
// each move from a fresh search against pool.
func Play(ctx context.Context, pool *mcts.Pool, moveMS int) (*Game, error) {
	pos := position.NewPosition()
	game := &Game{}

	for ply := 0; ply < MaxPlies; ply++ {
		if value, over := pos.IsGameOver(); over {
			game.TerminalValue = value
			return game, nil
		}

		root := mcts.NewRoot(pos.SideToMove())
		chosen, ok := pool.Search(ctx, root, pos, moveMS, nil)
		if !ok {
			// No children were ever published — treat as a stalemate-like
			// terminal rather than fail the whole game.
			game.TerminalValue = 0
			return game, nil
		}

		rec := MoveRecord{
			UCI:         chosen.Action.String(),
			BoardInput:  pos.GetCurrentInput(),
			LMM:         lmmRow(root),
			VisitRatios: visitRatioRow(root),
		}
		game.Moves = append(game.Moves, rec)

		if !pos.MakeMove(chosen.Action) {
			return nil, fmt.Errorf("selfplay: sampled move %s was illegal", chosen.Action)
		}
	}

	game.TerminalValue = 0
	return game, nil
}

func lmmRow(root *mcts.Node) []float32 {
	row := make([]float32, 4096)
	for _, c := range root.Children() {
		row[mcts.PolicyIndex(c.Action, root.POV)] = 1
	}
	return row
}

func visitRatioRow(root *mcts.Node) []float32 {
	row := make([]float32, 4096)
	total := 0
	for _, c := range root.Children() {
		total += c.VisitCount()
	}
	if total == 0 {
		return row
	}
	for _, c := range root.Children() {
		row[mcts.PolicyIndex(c.Action, root.POV)] = float32(c.VisitCount()) / float32(total)
	}
	return row
}

// Write serializes game to the file <dir>/<index> (dir is typically
// models/latest), one line per
// move (UCI move, board input floats, LMM floats, visit-ratio floats,
// space-separated) followed by a final terminal-value line.
func Write(dir string, index int, game *Game) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, fmt.Sprint(index))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, m := range game.Moves {
		fmt.Fprint(w, m.UCI)
		writeFloats(w, m.BoardInput)
		writeFloats(w, m.LMM)
		writeFloats(w, m.VisitRatios)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, game.TerminalValue)

	return w.Flush()
}

func writeFloats(w *bufio.Writer, vals []float32) {
	for _, v := range vals {
		fmt.Fprintf(w, " %g", v)
	}
}
