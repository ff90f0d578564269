package position

import (
	"fmt"

	"github.com/hailam/nczero/internal/board"
)

// MakeMove applies a pseudolegal move, pushing a new State. It returns
// true iff the side that just moved is not left in check (i.e. the
// move was legal); on false the caller must call UnmakeMove to restore
// the prior position, exactly as if the move had never been tried.
func (p *Position) MakeMove(m board.Move) bool {
	prev := p.top()
	us := p.side
	them := us.Other()

	st := State{
		LastMove:       m,
		EnPassant:      board.NoSquare,
		CastleRights:   prev.CastleRights,
		CapturedPiece:  board.NoPiece,
		CapturedSquare: board.NoSquare,
		HalfmoveClock:  prev.HalfmoveClock + 1,
		FullmoveNumber: prev.FullmoveNumber,
	}
	if us == board.Black {
		st.FullmoveNumber++
	}

	src, dstSq := m.Src(), m.Dst()
	moved := p.b.GetPiece(src)

	if moved.Type() == board.Pawn {
		st.HalfmoveClock = 0
	}

	switch {
	case m.IsCaptureEP():
		capSq := epCapturedSquare(dstSq, us)
		st.CapturedPiece = p.b.Remove(capSq)
		st.CapturedSquare = capSq
		st.HalfmoveClock = 0
	case m.IsCapture():
		st.CapturedPiece = p.b.Remove(dstSq)
		st.CapturedSquare = dstSq
		st.HalfmoveClock = 0
	}

	p.b.Remove(src)

	if m.IsCastleKS() || m.IsCastleQS() {
		rookFrom, rookTo := castleRookSquares(us, m.IsCastleKS())
		rook := p.b.Remove(rookFrom)
		p.b.Place(rookTo, rook)
	}

	if m.IsPromotion() {
		p.b.Place(dstSq, board.NewPiece(m.PromotionType(), us))
	} else {
		p.b.Place(dstSq, moved)
	}

	st.CastleRights &^= castleRevokeMask(src) | castleRevokeMask(dstSq)

	if m.IsPawnJump() {
		st.EnPassant = pawnJumpEPSquare(dstSq, us)
	}

	p.side = them
	p.ply = append(p.ply, st)
	p.top().Key = p.computeKey()
	p.top().InCheck = p.sideInCheck(them)

	p.pushFrame()
	p.writeFrame(board.White)
	p.writeFrame(board.Black)

	return !p.sideInCheck(us)
}

// UnmakeMove undoes the most recently made move (whether or not
// MakeMove returned true for it).
func (p *Position) UnmakeMove() {
	st := p.top()
	m := st.LastMove

	p.popFrame()

	them := p.side
	us := them.Other()
	p.side = us

	src, dstSq := m.Src(), m.Dst()

	if m.IsCastleKS() || m.IsCastleQS() {
		rookFrom, rookTo := castleRookSquares(us, m.IsCastleKS())
		rook := p.b.Remove(rookTo)
		p.b.Place(rookFrom, rook)
	}

	moved := p.b.Remove(dstSq)
	if m.IsPromotion() {
		moved = board.NewPiece(board.Pawn, us)
	}
	p.b.Place(src, moved)

	if st.CapturedPiece != board.NoPiece {
		p.b.Place(st.CapturedSquare, st.CapturedPiece)
	}

	p.ply = p.ply[:len(p.ply)-1]
}

// MakeMatchedMove matches a loosely-specified move (only src/dst/promo
// need to be correct) against the current pseudolegal move set and, if
// found and legal, plays it. This is slow (generates and scans the
// full move list) and intended for UCI input / tests, not search.
func (p *Position) MakeMatchedMove(m board.Move) (board.Move, bool) {
	var candidates board.MoveList
	if p.InCheck() {
		p.PseudolegalMovesEvasions(&candidates)
	} else {
		p.PseudolegalMoves(&candidates)
	}
	for i := 0; i < candidates.Len(); i++ {
		c := candidates.Get(i)
		if c.MatchesUCI(m) {
			if p.MakeMove(c) {
				return c, true
			}
			p.UnmakeMove()
			return board.NullMove, false
		}
	}
	return board.NullMove, false
}

// ParseMove parses a UCI move string against the current position,
// filling in capture/castle/en-passant/pawn-jump flags from board
// state, but does not apply it.
func (p *Position) ParseMove(s string) (board.Move, error) {
	src, dst, promo, err := board.ParseUCI(s)
	if err != nil {
		return board.NullMove, err
	}
	piece := p.b.GetPiece(src)
	if piece == board.NoPiece {
		return board.NullMove, fmt.Errorf("position: no piece on %s", src)
	}

	flags := board.Move(0)
	if promo != board.NoPieceType {
		flags |= board.FlagPromotion
	}
	if piece.Type() == board.King && absInt(int(dst)-int(src)) == 2 {
		if dst.File() == 6 {
			flags |= board.FlagCastleKS
		} else {
			flags |= board.FlagCastleQS
		}
	} else if piece.Type() == board.Pawn && dst == p.EnPassantSquare() && dst.File() != src.File() {
		flags |= board.FlagCapture | board.FlagCaptureEP
	} else if piece.Type() == board.Pawn && absInt(dst.Rank()-src.Rank()) == 2 {
		flags |= board.FlagPawnJump
	} else if p.b.GetPiece(dst) != board.NoPiece {
		flags |= board.FlagCapture
	}

	return board.NewMove(src, dst, promo, flags), nil
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func epCapturedSquare(dst board.Square, mover board.Color) board.Square {
	if mover == board.White {
		return board.NewSquare(dst.File(), dst.Rank()-1)
	}
	return board.NewSquare(dst.File(), dst.Rank()+1)
}

func pawnJumpEPSquare(dst board.Square, mover board.Color) board.Square {
	if mover == board.White {
		return board.NewSquare(dst.File(), dst.Rank()-1)
	}
	return board.NewSquare(dst.File(), dst.Rank()+1)
}

func castleRookSquares(c board.Color, kingSide bool) (from, to board.Square) {
	if c == board.White {
		if kingSide {
			return board.H1, board.F1
		}
		return board.A1, board.D1
	}
	if kingSide {
		return board.H8, board.F8
	}
	return board.A8, board.D8
}

// castleRevokeMask returns the castling rights a touch (by moving from
// or to) sq revokes: the king's home square revokes both rights for
// its color, and a rook's home square revokes that side's right.
func castleRevokeMask(sq board.Square) CastlingRights {
	switch sq {
	case board.E1:
		return CastleWhiteKS | CastleWhiteQS
	case board.H1:
		return CastleWhiteKS
	case board.A1:
		return CastleWhiteQS
	case board.E8:
		return CastleBlackKS | CastleBlackQS
	case board.H8:
		return CastleBlackKS
	case board.A8:
		return CastleBlackQS
	default:
		return NoCastling
	}
}
