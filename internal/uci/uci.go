// Package uci implements the subset of the Universal Chess Interface
// protocol this engine supports: position setup, a timed search, and
// live status reporting driven by a shared PUCT search tree.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/nczero/internal/board"
	"github.com/hailam/nczero/internal/evalstub"
	"github.com/hailam/nczero/internal/gamestore"
	"github.com/hailam/nczero/internal/mcts"
	"github.com/hailam/nczero/internal/position"
	"github.com/hailam/nczero/internal/selfplay"
)

// UCI implements the UCI main loop against a single shared search tree.
type UCI struct {
	pos  *position.Position
	root *mcts.Node
	pool *mcts.Pool

	threads   int
	batch     int
	modelsDir string
}

// New creates a UCI handler with default Threads=NumCPU, Batch=16, and
// the uniform-policy evaluator stub (no trained network configured).
func New() *UCI {
	threads := runtime.NumCPU()
	batch := 16
	u := &UCI{
		pos:       position.NewPosition(),
		threads:   threads,
		batch:     batch,
		modelsDir: "models/latest",
	}
	u.pool = mcts.NewPool(threads, evalstub.Stub{}, batch)
	u.root = mcts.NewRoot(u.pos.SideToMove())
	return u
}

// Run starts the UCI main loop, reading commands from standard input.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			// No long-running search goroutine outlives handleGo in this
			// synchronous loop, so stop is a no-op placeholder for protocol
			// compatibility — a future async search would cancel here.
		case "quit":
			os.Exit(0)
		case "setoption":
			u.handleSetOption(args)
		case "train":
			u.handleTrain()
		case "d":
			fmt.Println(u.pos.Dump())
		}
	}
}

// handleTrain switches this session over to self-play generation,
// writing training records under u.modelsDir exactly as the standalone
// "train" stdin mode in cmd/nczero does. It runs until the process is
// killed, the same way a "go" search runs to completion before control
// returns to the command loop.
func (u *UCI) handleTrain() {
	if err := os.MkdirAll(u.modelsDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "info string could not create models directory: %v\n", err)
		return
	}

	store, err := gamestore.Open(filepath.Join(u.modelsDir, "index.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "info string could not open game index store: %v\n", err)
		return
	}
	defer store.Close()

	ctx := context.Background()
	for {
		game, err := selfplay.Play(ctx, u.pool, u.parseMoveTime(nil))
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string self-play game failed: %v\n", err)
			continue
		}

		index, err := store.NextIndex()
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string could not allocate game index: %v\n", err)
			return
		}
		if err := selfplay.Write(u.modelsDir, index, game); err != nil {
			fmt.Fprintf(os.Stderr, "info string could not write game %d: %v\n", index, err)
			return
		}
		fmt.Printf("info string game %d written, %d moves, terminal %v\n", index, len(game.Moves), game.TerminalValue)
	}
}

func (u *UCI) handleUCI() {
	fmt.Println("id name nczero")
	fmt.Println("id author nczero contributors")
	fmt.Println()
	fmt.Printf("option name Threads type spin default %d min 1 max %d\n", runtime.NumCPU(), max(1, runtime.NumCPU()*4))
	fmt.Println("option name Batch type spin default 16 min 1 max 256")
	fmt.Println("uciok")
}

func (u *UCI) handleNewGame() {
	u.pos = position.NewPosition()
	u.root = mcts.NewRoot(u.pos.SideToMove())
}

// handlePosition parses "position [startpos|fen ...] [moves ...]".
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var moveStart int
	switch args[0] {
	case "startpos":
		u.pos = position.NewPosition()
		moveStart = 1
	case "fen":
		fenEnd := len(args)
		for i, a := range args[1:] {
			if a == "moves" {
				fenEnd = i + 1
				break
			}
		}
		pos, err := position.ParseFEN(strings.Join(args[1:fenEnd], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string invalid FEN: %v\n", err)
			return
		}
		u.pos = pos
		moveStart = fenEnd + 1
	default:
		return
	}

	for i, a := range args {
		if a == "moves" {
			moveStart = i + 1
			break
		}
	}

	u.root = mcts.NewRoot(u.pos.SideToMove())
	if moveStart >= len(args) {
		return
	}
	for _, moveStr := range args[moveStart:] {
		src, dst, promo, err := board.ParseUCI(moveStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string invalid move %s: %v\n", moveStr, err)
			return
		}
		var flags board.Move
		if promo != board.NoPieceType {
			flags |= board.FlagPromotion
		}
		loose := board.NewMove(src, dst, promo, flags)
		if _, ok := u.pos.MakeMatchedMove(loose); !ok {
			fmt.Fprintf(os.Stderr, "info string illegal move %s\n", moveStr)
			return
		}
	}
	u.root = mcts.NewRoot(u.pos.SideToMove())
}

// handleGo starts a timed PUCT search and prints bestmove on completion.
func (u *UCI) handleGo(args []string) {
	moveMS := u.parseMoveTime(args)

	ctx := context.Background()
	onInfo := func(elapsed time.Duration, nodes int) {
		fmt.Println(mcts.FormatInfo(elapsed, nodes))
	}
	chosen, ok := u.pool.Search(ctx, u.root, u.pos, moveMS, onInfo)
	if !ok {
		fmt.Println("bestmove 0000")
		return
	}
	fmt.Printf("bestmove %s\n", chosen.Action.String())
}

func (u *UCI) parseMoveTime(args []string) int {
	wtime, btime := -1, -1
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "movetime":
			if i+1 < len(args) {
				if v, err := strconv.Atoi(args[i+1]); err == nil {
					return v
				}
			}
		case "wtime":
			if i+1 < len(args) {
				wtime, _ = strconv.Atoi(args[i+1])
			}
		case "btime":
			if i+1 < len(args) {
				btime, _ = strconv.Atoi(args[i+1])
			}
		}
	}

	ourTime := wtime
	if u.pos.SideToMove() == board.Black {
		ourTime = btime
	}
	if ourTime > 0 {
		return ourTime / 10
	}
	return 5000
}

func (u *UCI) handleSetOption(args []string) {
	var name, value string
	readingName, readingValue := false, false
	for _, a := range args {
		switch a {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				name += a
			} else if readingValue {
				value += a
			}
		}
	}

	switch strings.ToLower(name) {
	case "threads":
		if n, err := strconv.Atoi(value); err == nil && n >= 1 {
			u.threads = n
			u.pool = mcts.NewPool(u.threads, evalstub.Stub{}, u.batch)
		}
	case "batch":
		if n, err := strconv.Atoi(value); err == nil && n >= 1 {
			u.batch = n
			u.pool.SetBatchSize(u.batch)
		}
	}
}
