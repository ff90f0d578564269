package position

import "github.com/hailam/nczero/internal/board"

// InputPlanes is the flattened length of one POV's input tensor: 8x8
// squares of 85 bits (floats) each.
const InputPlanes = 8 * 8 * 85

const (
	headerFullmoveBits = 9
	headerHalfmoveBits = 6
	frameCount         = 5
	frameBits          = 14
	frameStart         = headerFullmoveBits + headerHalfmoveBits // 15
)

// povSquare maps a real board square into the index space a given
// POV's tensor is written in: identity for White, a full point
// reflection (r,f) -> (7-r,7-f) for Black. The mapping is its own
// inverse, so writeFrame uses it to find the real square that each
// tensor index describes.
func povSquare(sq board.Square, pov board.Color) board.Square {
	if pov == board.White {
		return sq
	}
	return sq.Rotate180()
}

// pieceIndexForPOV returns the 0-11 one-hot slot for piece from pov's
// perspective: pov's own pieces occupy indices 0-5 (by PieceType),
// the opponent's occupy 6-11.
func pieceIndexForPOV(piece board.Piece, pov board.Color) int {
	if piece.Color() == pov {
		return int(piece.Type())
	}
	return 6 + int(piece.Type())
}

// writeFrame recomputes the newest (slot 0) 14-bit history block for
// every square, from pov's point of view: a one-hot piece slot plus
// the saturated repetition count of the current position.
func (p *Position) writeFrame(pov board.Color) {
	reps := p.NumRepetitions() - 1
	if reps > 3 {
		reps = 3
	}
	if reps < 0 {
		reps = 0
	}
	repBits := uint16(reps) << 12

	for idx := 0; idx < 64; idx++ {
		realSq := povSquare(board.Square(idx), pov)
		piece := p.b.GetPiece(realSq)
		var bits uint16
		if piece != board.NoPiece {
			bits = 1 << uint(pieceIndexForPOV(piece, pov))
		}
		bits |= repBits
		p.frames[pov][idx][0] = bits
	}
}

// pushFrame shifts each square's five 14-bit history blocks one slot
// older, caching the evicted oldest block in the current State so
// popFrame (called by UnmakeMove) can restore it exactly, and zeroes
// the newest slot for writeFrame to fill.
func (p *Position) pushFrame() {
	st := p.top()
	for pov := 0; pov < 2; pov++ {
		for idx := 0; idx < 64; idx++ {
			f := &p.frames[pov][idx]
			st.discarded[pov][idx] = f[frameCount-1]
			for i := frameCount - 1; i > 0; i-- {
				f[i] = f[i-1]
			}
			f[0] = 0
		}
	}
}

// popFrame is pushFrame's exact inverse, used by UnmakeMove.
func (p *Position) popFrame() {
	st := p.top()
	for pov := 0; pov < 2; pov++ {
		for idx := 0; idx < 64; idx++ {
			f := &p.frames[pov][idx]
			for i := 0; i < frameCount-1; i++ {
				f[i] = f[i+1]
			}
			f[frameCount-1] = st.discarded[pov][idx]
		}
	}
}

// GetInput materializes the current (8,8,85) input tensor for pov as
// a flat []float32 of length InputPlanes, in row-major (rank, file)
// order over pov's own index space.
func (p *Position) GetInput(pov board.Color) []float32 {
	out := make([]float32, InputPlanes)

	fullmove := p.FullmoveNumber() & (1<<headerFullmoveBits - 1)
	halfmove := p.HalfmoveClock() & (1<<headerHalfmoveBits - 1)

	for idx := 0; idx < 64; idx++ {
		base := idx * 85
		for i := 0; i < headerFullmoveBits; i++ {
			if fullmove&(1<<i) != 0 {
				out[base+i] = 1
			}
		}
		for i := 0; i < headerHalfmoveBits; i++ {
			if halfmove&(1<<i) != 0 {
				out[base+headerFullmoveBits+i] = 1
			}
		}
		for slot := 0; slot < frameCount; slot++ {
			bits := p.frames[pov][idx][slot]
			slotBase := base + frameStart + slot*frameBits
			for b := 0; b < frameBits; b++ {
				if bits&(1<<uint(b)) != 0 {
					out[slotBase+b] = 1
				}
			}
		}
	}

	return out
}

// GetCurrentInput is a convenience wrapper for GetInput(SideToMove()),
// matching position::get_input() in the reference implementation.
func (p *Position) GetCurrentInput() []float32 {
	return p.GetInput(p.side)
}
