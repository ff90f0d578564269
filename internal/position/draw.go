package position

import "github.com/hailam/nczero/internal/board"

// NumRepetitions returns the number of times the current position's
// Zobrist key has occurred on the ply stack, including the current
// ply. Always at least 1.
func (p *Position) NumRepetitions() int {
	key := p.Key()
	count := 0
	for i := range p.ply {
		if p.ply[i].Key == key {
			count++
		}
	}
	return count
}

// IsDrawByHRM reports whether the game is drawn by the 50-move rule,
// threefold repetition, or insufficient mating material. The name is
// inherited from the reference engine's halfmove-rule-named method,
// which tests all three despite the name.
func (p *Position) IsDrawByHRM() bool {
	if p.HalfmoveClock() >= 100 {
		return true
	}
	if p.NumRepetitions() >= 3 {
		return true
	}
	return p.insufficientMaterial()
}

func (p *Position) insufficientMaterial() bool {
	b := p.Board()
	nonKing := b.GlobalOcc() &^ b.PieceOcc(board.King)
	if nonKing == 0 {
		return true
	}

	minors := b.PieceOcc(board.Knight) | b.PieceOcc(board.Bishop)
	if nonKing == minors && minors.PopCount() == 1 {
		return true
	}

	bishops := b.PieceOcc(board.Bishop)
	if nonKing == bishops && bishops.PopCount() >= 1 {
		allSameColor := true
		first := -1
		tmp := bishops
		for tmp != 0 {
			sq := tmp.PopLSB()
			parity := (sq.File() + sq.Rank()) & 1
			if first == -1 {
				first = parity
			} else if parity != first {
				allSameColor = false
				break
			}
		}
		if allSameColor {
			return true
		}
	}

	return false
}

// IsGameOver tests whether the game has ended at the current position.
// It returns the terminal value from White's point of view (-1 white
// loss, 0 draw, +1 white win) and true if the game is over; over is
// false if the game is ongoing.
func (p *Position) IsGameOver() (value float64, over bool) {
	if !p.HasLegalMoves() {
		if p.InCheck() {
			if p.side == board.White {
				return -1, true
			}
			return 1, true
		}
		return 0, true
	}
	if p.IsDrawByHRM() {
		return 0, true
	}
	return 0, false
}
