package position

import "testing"

func TestFENRoundTrip(t *testing.T) {
	tests := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
	}

	for _, fen := range tests {
		t.Run(fen, func(t *testing.T) {
			pos, err := ParseFEN(fen)
			if err != nil {
				t.Fatalf("ParseFEN(%q): %v", fen, err)
			}
			if got := pos.ToFEN(); got != fen {
				t.Errorf("ToFEN() = %q, want %q", got, fen)
			}
		})
	}
}

func TestParseFENRejectsShortFields(t *testing.T) {
	_, err := ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -")
	if err == nil {
		t.Fatal("expected error for a 4-field FEN, got nil")
	}
}

func TestRepetitionDraw(t *testing.T) {
	pos := NewPosition()
	moves := []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8"}

	for _, uci := range moves {
		m, err := pos.ParseMove(uci)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", uci, err)
		}
		if !pos.MakeMove(m) {
			t.Fatalf("move %q was illegal", uci)
		}
	}

	if got := pos.NumRepetitions(); got != 3 {
		t.Errorf("NumRepetitions() = %d, want 3", got)
	}
	if !pos.IsDrawByHRM() {
		t.Error("expected IsDrawByHRM() to be true after threefold repetition")
	}
}

func TestInsufficientMaterialBareKings(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if !pos.IsDrawByHRM() {
		t.Error("expected bare kings to be an insufficient-material draw")
	}
}

func TestInsufficientMaterialLoneMinor(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/3NK3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if !pos.IsDrawByHRM() {
		t.Error("expected king+knight vs king to be an insufficient-material draw")
	}
}

func TestSufficientMaterialTwoKnights(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/2NNK3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.IsDrawByHRM() {
		t.Error("king+two knights vs king should not be declared an insufficient-material draw")
	}
}

func TestStalemate(t *testing.T) {
	pos, err := ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.HasLegalMoves() {
		t.Fatal("expected no legal moves in the stalemate position")
	}
	value, over := pos.IsGameOver()
	if !over {
		t.Fatal("expected IsGameOver() to report the game as over")
	}
	if value != 0 {
		t.Errorf("IsGameOver() value = %v, want 0 (stalemate)", value)
	}
}

func TestCheckmateBlackToMove(t *testing.T) {
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.HasLegalMoves() {
		t.Fatal("expected no legal moves in the checkmate position")
	}
	if !pos.InCheck() {
		t.Fatal("expected the black king to be in check")
	}
	value, over := pos.IsGameOver()
	if !over {
		t.Fatal("expected IsGameOver() to report the game as over")
	}
	if value != 1 {
		t.Errorf("IsGameOver() value = %v, want 1 (white wins, black to move and mated)", value)
	}
}

func TestNotCheckmateKingCanCapture(t *testing.T) {
	pos, err := ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if !pos.HasLegalMoves() {
		t.Error("expected the king to have a legal capturing move")
	}
	if _, over := pos.IsGameOver(); over {
		t.Error("expected IsGameOver() to be false, king can capture the rook")
	}
}

func TestMakeUnmakeRestoresPosition(t *testing.T) {
	pos := NewPosition()
	before := pos.ToFEN()
	beforeKey := pos.Key()

	m, err := pos.ParseMove("e2e4")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if !pos.MakeMove(m) {
		t.Fatal("e2e4 should be legal from the starting position")
	}
	if pos.ToFEN() == before {
		t.Fatal("position should have changed after MakeMove")
	}

	pos.UnmakeMove()
	if got := pos.ToFEN(); got != before {
		t.Errorf("after UnmakeMove ToFEN() = %q, want %q", got, before)
	}
	if pos.Key() != beforeKey {
		t.Errorf("after UnmakeMove Key() = %d, want %d", pos.Key(), beforeKey)
	}
}
