package position

import (
	"fmt"
	"strings"

	"github.com/hailam/nczero/internal/board"
)

// StartFEN is the standard chess starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position owns a single board.Board plus the ply stack of States that
// make the board's history (castling rights, en passant, repetition,
// ...) addressable, and the rolling per-POV input tensors consumed by
// the neural evaluator.
type Position struct {
	b    board.Board
	ply  []State
	side board.Color

	frames [2][64][5]uint16
}

// NewPosition returns the standard chess starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic("position: start FEN must always parse: " + err.Error())
	}
	return pos
}

// Board returns the position's underlying board.
func (p *Position) Board() *board.Board { return &p.b }

// SideToMove returns the color to move.
func (p *Position) SideToMove() board.Color { return p.side }

func (p *Position) top() *State { return &p.ply[len(p.ply)-1] }

// LastMove returns the move that produced the current ply, or
// board.NullMove at the root.
func (p *Position) LastMove() board.Move { return p.top().LastMove }

// Capture reports whether the last move was a capture (including en
// passant).
func (p *Position) Capture() bool {
	if len(p.ply) <= 1 {
		return false
	}
	m := p.top().LastMove
	return m.IsCapture() || m.IsCaptureEP()
}

// EnPassantCapture reports whether the last move was an en passant capture.
func (p *Position) EnPassantCapture() bool {
	return len(p.ply) > 1 && p.top().LastMove.IsCaptureEP()
}

// Promotion reports whether the last move was a promotion.
func (p *Position) Promotion() bool {
	return len(p.ply) > 1 && p.top().LastMove.IsPromotion()
}

// Castle reports whether the last move was a castle.
func (p *Position) Castle() bool {
	return len(p.ply) > 1 && p.top().LastMove.IsCastle()
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.top().InCheck }

// HalfmoveClock returns the current halfmove clock (plies since the
// last pawn move or capture).
func (p *Position) HalfmoveClock() int { return p.top().HalfmoveClock }

// FullmoveNumber returns the current fullmove counter.
func (p *Position) FullmoveNumber() int { return p.top().FullmoveNumber }

// CastleRights returns the current castling rights.
func (p *Position) CastleRights() CastlingRights { return p.top().CastleRights }

// EnPassantSquare returns the current en passant target square, or
// board.NoSquare if none is available.
func (p *Position) EnPassantSquare() board.Square { return p.top().EnPassant }

// Key returns the position's Zobrist key, including castling rights,
// en passant file, and side-to-move bits on top of the board's
// piece-placement key.
func (p *Position) Key() uint64 { return p.top().Key }

// Clone deep-copies the position, including its ply stack and input
// tensors, so it can be driven independently by a search worker
// without synchronization.
func (p *Position) Clone() *Position {
	np := &Position{
		b:      p.b,
		side:   p.side,
		frames: p.frames,
	}
	np.ply = make([]State, len(p.ply))
	copy(np.ply, p.ply)
	return np
}

// lastMoveTags renders the descriptive tags (capture, en passant,
// promotion, castle) of the move that produced the current position, for
// Dump's "last move" line.
func (p *Position) lastMoveTags() string {
	var tags []string
	if p.EnPassantCapture() {
		tags = append(tags, "en passant")
	} else if p.Capture() {
		tags = append(tags, "capture")
	}
	if p.Promotion() {
		tags = append(tags, "promotion")
	}
	if p.Castle() {
		tags = append(tags, "castle")
	}
	if len(tags) == 0 {
		return ""
	}
	return " (" + strings.Join(tags, ", ") + ")"
}

// Dump renders a human-readable debug view of the position: the board,
// side to move, rights, and pseudolegal moves from here.
func (p *Position) Dump() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.b.GetPiece(board.NewSquare(file, rank))
			if piece == board.NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "last move:      %s%s\n", p.LastMove(), p.lastMoveTags())
	fmt.Fprintf(&sb, "side to move:   %s\n", p.side)
	fmt.Fprintf(&sb, "castle rights:  %s\n", p.CastleRights())
	fmt.Fprintf(&sb, "en passant:     %s\n", p.EnPassantSquare())
	fmt.Fprintf(&sb, "halfmove clock: %d\n", p.HalfmoveClock())
	fmt.Fprintf(&sb, "fullmove:       %d\n", p.FullmoveNumber())
	fmt.Fprintf(&sb, "key:            %016x\n", p.Key())

	var ml board.MoveList
	p.PseudolegalMoves(&ml)
	fmt.Fprintf(&sb, "pseudolegal moves (%d):", ml.Len())
	for i := 0; i < ml.Len(); i++ {
		fmt.Fprintf(&sb, " %s", ml.Get(i))
	}
	sb.WriteByte('\n')
	return sb.String()
}
