// Package position layers game history, move generation, and the
// neural-network input tensor on top of a single board.Board. It is
// the component that knows about castling rights, en passant, the
// halfmove/fullmove counters, repetition, and draw/game-over rules.
package position

import "github.com/hailam/nczero/internal/board"

// CastlingRights bits, matching the original engine's CASTLE_WHITE_K /
// CASTLE_WHITE_Q / CASTLE_BLACK_K / CASTLE_BLACK_Q constants.
type CastlingRights uint8

const (
	CastleWhiteKS CastlingRights = 1 << iota
	CastleWhiteQS
	CastleBlackKS
	CastleBlackQS

	NoCastling  CastlingRights = 0
	AllCastling CastlingRights = CastleWhiteKS | CastleWhiteQS | CastleBlackKS | CastleBlackQS
)

func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&CastleWhiteKS != 0 {
		s += "K"
	}
	if cr&CastleWhiteQS != 0 {
		s += "Q"
	}
	if cr&CastleBlackKS != 0 {
		s += "k"
	}
	if cr&CastleBlackQS != 0 {
		s += "q"
	}
	return s
}

// frameSnapshot is the 14-bit history block evicted by pushFrame when a
// ply is made, cached so unmakeMove's popFrame can restore it exactly.
type frameSnapshot [2][64]uint16

// State is one ply's worth of position metadata, pushed onto
// Position.ply by MakeMove and popped by UnmakeMove. It mirrors
// neocortex::position::State from the reference implementation.
type State struct {
	LastMove       board.Move
	EnPassant      board.Square // NoSquare if none
	CastleRights   CastlingRights
	CapturedPiece  board.Piece
	CapturedSquare board.Square
	HalfmoveClock  int
	FullmoveNumber int
	InCheck        bool
	Key            uint64

	discarded frameSnapshot
}
