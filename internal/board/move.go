package board

import "fmt"

// Move encodes a chess move in 32 bits:
//
//	bits 0-5:   src square (0-63)
//	bits 6-11:  dst square (0-63)
//	bits 12-14: promotion piece type (valid only when FlagPromotion is set)
//	bit  15:    FlagCapture
//	bit  16:    FlagCaptureEP
//	bit  17:    FlagPromotion
//	bit  18:    FlagCastleKS
//	bit  19:    FlagCastleQS
//	bit  20:    FlagPawnJump
//
// Flags are independent bits, not a mutually exclusive enum: a promoting
// capture sets both FlagCapture and FlagPromotion.
type Move uint32

// Move flag bits.
const (
	FlagCapture   Move = 1 << 15
	FlagCaptureEP Move = 1 << 16
	FlagPromotion Move = 1 << 17
	FlagCastleKS  Move = 1 << 18
	FlagCastleQS  Move = 1 << 19
	FlagPawnJump  Move = 1 << 20

	srcMask   Move = 0x3F
	dstShift       = 6
	dstMask   Move = 0x3F << dstShift
	promoShift     = 12
	promoMask Move = 0x7 << promoShift

	flagMask Move = FlagCapture | FlagCaptureEP | FlagPromotion | FlagCastleKS | FlagCastleQS | FlagPawnJump
)

// NullMove is the zero value, used where the original C++ uses move::null().
const NullMove Move = 0

// NewMove packs a move from its fields. promo is ignored unless
// FlagPromotion is set in flags.
func NewMove(src, dst Square, promo PieceType, flags Move) Move {
	m := Move(src) | Move(dst)<<dstShift | flags&flagMask
	if flags&FlagPromotion != 0 {
		m |= Move(promo) << promoShift
	}
	return m
}

// Src returns the origin square.
func (m Move) Src() Square { return Square(m & srcMask) }

// Dst returns the destination square.
func (m Move) Dst() Square { return Square((m & dstMask) >> dstShift) }

// PromotionType returns the promotion piece type. Only meaningful if
// IsPromotion is true.
func (m Move) PromotionType() PieceType { return PieceType((m & promoMask) >> promoShift) }

func (m Move) IsCapture() bool   { return m&FlagCapture != 0 }
func (m Move) IsCaptureEP() bool { return m&FlagCaptureEP != 0 }
func (m Move) IsPromotion() bool { return m&FlagPromotion != 0 }
func (m Move) IsCastleKS() bool  { return m&FlagCastleKS != 0 }
func (m Move) IsCastleQS() bool  { return m&FlagCastleQS != 0 }
func (m Move) IsCastle() bool    { return m&(FlagCastleKS|FlagCastleQS) != 0 }
func (m Move) IsPawnJump() bool  { return m&FlagPawnJump != 0 }

// MatchesUCI reports whether m and other describe the same UCI move,
// i.e. they agree on src/dst/promotion but may differ in other flag
// bits (used to match a user- or GUI-supplied move against a generated
// pseudolegal one).
func (m Move) MatchesUCI(other Move) bool {
	if m.Src() != other.Src() || m.Dst() != other.Dst() {
		return false
	}
	if m.IsPromotion() != other.IsPromotion() {
		return false
	}
	return !m.IsPromotion() || m.PromotionType() == other.PromotionType()
}

var promoChars = [6]byte{0, 'n', 'b', 'r', 'q', 0}

// String returns the UCI form of the move (e.g. "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NullMove {
		return "0000"
	}
	s := m.Src().String() + m.Dst().String()
	if m.IsPromotion() {
		s += string(promoChars[m.PromotionType()])
	}
	return s
}

// ParseUCI decodes the src/dst/promotion fields of a bare UCI move
// string (e.g. "e7e8q"). It has no access to board state, so it cannot
// fill in capture, castle, en-passant, or pawn-jump flags — callers
// with a position should prefer position.ParseMove, which derives
// those from the board before constructing the Move.
func ParseUCI(s string) (src, dst Square, promo PieceType, err error) {
	if len(s) != 4 && len(s) != 5 {
		return NoSquare, NoSquare, NoPieceType, fmt.Errorf("board: invalid UCI move %q", s)
	}
	src, err = ParseSquare(s[0:2])
	if err != nil {
		return NoSquare, NoSquare, NoPieceType, err
	}
	dst, err = ParseSquare(s[2:4])
	if err != nil {
		return NoSquare, NoSquare, NoPieceType, err
	}
	promo = NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoSquare, NoSquare, NoPieceType, fmt.Errorf("board: invalid promotion piece %q", string(s[4]))
		}
	}
	return src, dst, promo, nil
}

// MaxPseudolegalMoves bounds the pseudolegal move buffer, matching the
// original engine's MAX_PL_MOVES.
const MaxPseudolegalMoves = 100

// MoveList is a fixed-capacity move buffer sized for the worst-case
// pseudolegal move count, avoiding heap allocation during search.
type MoveList struct {
	moves [MaxPseudolegalMoves]Move
	count int
}

// Add appends m, silently dropping it once the list is already at
// MaxPseudolegalMoves capacity. 100 covers every reachable chess
// position's pseudolegal move count with room to spare, but the
// original engine only enforced that bound with a debug assert
// (position.h's MAX_PL_MOVES), which compiles away in release builds;
// this guard keeps the equivalent release-mode behavior from becoming
// an out-of-bounds panic instead.
func (ml *MoveList) Add(m Move) {
	if ml.count >= MaxPseudolegalMoves {
		return
	}
	ml.moves[ml.count] = m
	ml.count++
}

func (ml *MoveList) Len() int       { return ml.count }
func (ml *MoveList) Get(i int) Move { return ml.moves[i] }
func (ml *MoveList) Clear()         { ml.count = 0 }
func (ml *MoveList) Slice() []Move  { return ml.moves[:ml.count] }

func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}
