package selfplay

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hailam/nczero/internal/evalstub"
	"github.com/hailam/nczero/internal/mcts"
)

func TestPlayProducesMovesAndTerminalValue(t *testing.T) {
	pool := mcts.NewPool(2, evalstub.Stub{}, 4)

	game, err := Play(context.Background(), pool, 20)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	if len(game.Moves) == 0 {
		t.Fatal("expected at least one move to be played")
	}
	for i, m := range game.Moves {
		if m.UCI == "" {
			t.Errorf("move %d has empty UCI string", i)
		}
		if len(m.BoardInput) != 8*8*85 {
			t.Errorf("move %d BoardInput length = %d, want %d", i, len(m.BoardInput), 8*8*85)
		}
		if len(m.LMM) != 4096 {
			t.Errorf("move %d LMM length = %d, want 4096", i, len(m.LMM))
		}
		if len(m.VisitRatios) != 4096 {
			t.Errorf("move %d VisitRatios length = %d, want 4096", i, len(m.VisitRatios))
		}
	}
	if game.TerminalValue < -1 || game.TerminalValue > 1 {
		t.Errorf("TerminalValue = %v, want in [-1, 1]", game.TerminalValue)
	}
}

func TestWriteProducesOneLinePerMovePlusTerminal(t *testing.T) {
	dir := t.TempDir()
	game := &Game{
		Moves: []MoveRecord{
			{UCI: "e2e4", BoardInput: []float32{1, 0}, LMM: []float32{1}, VisitRatios: []float32{1}},
			{UCI: "e7e5", BoardInput: []float32{0, 1}, LMM: []float32{1}, VisitRatios: []float32{1}},
		},
		TerminalValue: 0,
	}

	if err := Write(dir, 3, game); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "3"))
	if err != nil {
		t.Fatalf("Open written file: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) != len(game.Moves)+1 {
		t.Fatalf("got %d lines, want %d (moves + terminal)", len(lines), len(game.Moves)+1)
	}
	if !strings.HasPrefix(lines[0], "e2e4 ") {
		t.Errorf("first line should start with the UCI move, got %q", lines[0][:min(10, len(lines[0]))])
	}
	if lines[len(lines)-1] != "0" {
		t.Errorf("last line = %q, want terminal value \"0\"", lines[len(lines)-1])
	}
}
