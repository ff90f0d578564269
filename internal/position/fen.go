package position

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hailam/nczero/internal/board"
)

// ParseFEN parses a complete, strict six-field FEN string. Unlike some
// lenient parsers, a field count other than six is always a
// construction error — the last two fields (halfmove clock, fullmove
// number) are not optional here.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return nil, fmt.Errorf("position: FEN must have 6 fields, got %d: %q", len(fields), fen)
	}

	b := board.NewBoard()
	if err := b.FromUCI(fields[0]); err != nil {
		return nil, err
	}

	var side board.Color
	switch fields[1] {
	case "w":
		side = board.White
	case "b":
		side = board.Black
	default:
		return nil, fmt.Errorf("position: invalid side-to-move field %q", fields[1])
	}

	rights, err := parseCastleRights(fields[2])
	if err != nil {
		return nil, err
	}

	ep := board.NoSquare
	if fields[3] != "-" {
		ep, err = board.ParseSquare(fields[3])
		if err != nil {
			return nil, fmt.Errorf("position: invalid en passant field %q: %w", fields[3], err)
		}
	}

	hmc, err := strconv.Atoi(fields[4])
	if err != nil || hmc < 0 {
		return nil, fmt.Errorf("position: invalid halfmove clock field %q", fields[4])
	}

	fmn, err := strconv.Atoi(fields[5])
	if err != nil || fmn < 1 {
		return nil, fmt.Errorf("position: invalid fullmove number field %q", fields[5])
	}

	st := State{
		LastMove:       board.NullMove,
		EnPassant:      ep,
		CastleRights:   rights,
		CapturedPiece:  board.NoPiece,
		CapturedSquare: board.NoSquare,
		HalfmoveClock:  hmc,
		FullmoveNumber: fmn,
	}

	p := &Position{b: *b, side: side, ply: []State{st}}
	p.top().Key = p.computeKey()
	p.top().InCheck = p.sideInCheck(side)
	p.writeFrame(board.White)
	p.writeFrame(board.Black)

	return p, nil
}

func parseCastleRights(field string) (CastlingRights, error) {
	if field == "-" {
		return NoCastling, nil
	}
	var rights CastlingRights
	for _, c := range field {
		switch c {
		case 'K':
			rights |= CastleWhiteKS
		case 'Q':
			rights |= CastleWhiteQS
		case 'k':
			rights |= CastleBlackKS
		case 'q':
			rights |= CastleBlackQS
		default:
			return NoCastling, fmt.Errorf("position: invalid castling rights field %q", field)
		}
	}
	return rights, nil
}

// computeKey folds the board's piece-placement key together with
// castling rights, en passant file, and side-to-move.
func (p *Position) computeKey() uint64 {
	st := p.top()
	key := p.b.Key()
	key ^= board.ZobristCastling(uint8(st.CastleRights))
	if st.EnPassant == board.NoSquare {
		key ^= board.ZobristEnPassant(board.NoEnPassantFile)
	} else {
		key ^= board.ZobristEnPassant(st.EnPassant.File())
	}
	if p.side == board.Black {
		key ^= board.ZobristSideToMove()
	}
	return key
}

// ToFEN renders the position as a complete six-field FEN string.
func (p *Position) ToFEN() string {
	st := p.top()
	sideCh := "w"
	if p.side == board.Black {
		sideCh = "b"
	}
	ep := "-"
	if st.EnPassant != board.NoSquare {
		ep = st.EnPassant.String()
	}
	return fmt.Sprintf("%s %s %s %s %d %d",
		p.b.ToUCI(), sideCh, st.CastleRights, ep, st.HalfmoveClock, st.FullmoveNumber)
}
