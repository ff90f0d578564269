// Command nczero reads a single mode line from standard input — "uci" or
// "train" — and either enters the UCI protocol loop or runs self-play
// game generation, writing training data under models/latest/.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/hailam/nczero/internal/evalstub"
	"github.com/hailam/nczero/internal/gamestore"
	"github.com/hailam/nczero/internal/mcts"
	"github.com/hailam/nczero/internal/selfplay"
	"github.com/hailam/nczero/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	modelsDir  = flag.String("models", "models/latest", "directory for self-play output and the game index database")
	games      = flag.Int("games", 0, "number of self-play games to generate in train mode (0 = run until killed)")
	moveMS     = flag.Int("movetime", 2000, "milliseconds of search per self-play move")
	threads    = flag.Int("threads", runtime.NumCPU(), "number of search worker goroutines")
	batch      = flag.Int("batch", 16, "evaluator batch size")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		log.Fatal("expected a mode line (\"uci\" or \"train\") on standard input")
	}
	mode := strings.TrimSpace(scanner.Text())

	switch mode {
	case "uci":
		uci.New().Run()
	case "train":
		runTrain()
	default:
		log.Fatalf("unknown mode %q, expected \"uci\" or \"train\"", mode)
	}
}

func runTrain() {
	if err := os.MkdirAll(*modelsDir, 0o755); err != nil {
		log.Fatalf("could not create models directory: %v", err)
	}

	store, err := gamestore.Open(filepath.Join(*modelsDir, "index.db"))
	if err != nil {
		log.Fatalf("could not open game index store: %v", err)
	}
	defer store.Close()

	pool := mcts.NewPool(*threads, evalstub.Stub{}, *batch)
	ctx := context.Background()

	played := 0
	for *games == 0 || played < *games {
		game, err := selfplay.Play(ctx, pool, *moveMS)
		if err != nil {
			log.Printf("self-play game failed: %v", err)
			continue
		}

		index, err := store.NextIndex()
		if err != nil {
			log.Fatalf("could not allocate game index: %v", err)
		}
		if err := selfplay.Write(*modelsDir, index, game); err != nil {
			log.Fatalf("could not write game %d: %v", index, err)
		}

		played++
		fmt.Printf("info string game %d written, %d moves, terminal %v\n", index, len(game.Moves), game.TerminalValue)
	}
}
