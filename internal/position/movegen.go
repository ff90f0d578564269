package position

import "github.com/hailam/nczero/internal/board"

// sideInCheck reports whether c's king is currently attacked.
func (p *Position) sideInCheck(c board.Color) bool {
	kingBB := p.b.PieceOcc(board.King) & p.b.ColorOcc(c)
	if kingBB == 0 {
		return false
	}
	ksq := kingBB.LSB()
	return p.b.AttacksOn(ksq)&p.b.ColorOcc(c.Other()) != 0
}

// checkers returns the bitboard of enemy pieces currently giving check
// to c's king.
func (p *Position) checkers(c board.Color) board.Bitboard {
	kingBB := p.b.PieceOcc(board.King) & p.b.ColorOcc(c)
	if kingBB == 0 {
		return 0
	}
	ksq := kingBB.LSB()
	return p.b.AttacksOn(ksq) & p.b.ColorOcc(c.Other())
}

func pawnStartRank(c board.Color) int {
	if c == board.White {
		return 1
	}
	return 6
}

func pawnPromoRank(c board.Color) int {
	if c == board.White {
		return 7
	}
	return 0
}

// PseudolegalMoves appends every pseudolegal move for the side to move
// to dst. It does not check whether the mover's own king ends up in
// check — LegalMoves / MakeMove do that via make+unmake.
func (p *Position) PseudolegalMoves(dst *board.MoveList) {
	us := p.side
	them := us.Other()
	occ := p.b.GlobalOcc()
	ourOcc := p.b.ColorOcc(us)
	theirOcc := p.b.ColorOcc(them)

	p.genPawnMoves(dst, us, occ, theirOcc)
	p.genPieceMoves(dst, board.Knight, us, ourOcc, occ)
	p.genPieceMoves(dst, board.Bishop, us, ourOcc, occ)
	p.genPieceMoves(dst, board.Rook, us, ourOcc, occ)
	p.genPieceMoves(dst, board.Queen, us, ourOcc, occ)
	p.genKingMoves(dst, us, ourOcc, occ)
	p.genCastles(dst, us, occ)
}

// PseudolegalMovesEvasions appends a restricted candidate set valid
// only when the side to move is in check: king moves off the attacked
// squares, captures of a single checker, and blocks of a single
// sliding checker. Used by the search worker as a cheaper alternative
// to PseudolegalMoves + legality filtering when in check.
func (p *Position) PseudolegalMovesEvasions(dst *board.MoveList) {
	us := p.side
	them := us.Other()
	occ := p.b.GlobalOcc()
	ourOcc := p.b.ColorOcc(us)
	theirOcc := p.b.ColorOcc(them)

	chk := p.checkers(us)
	p.genKingMoves(dst, us, ourOcc, occ)

	if chk.PopCount() != 1 {
		// Double check: only king moves can possibly be legal.
		return
	}
	checkerSq := chk.LSB()
	blockDsts := board.Between(p.kingSquare(us), checkerSq) | chk

	p.genPawnMovesTo(dst, us, occ, theirOcc, blockDsts, chk)
	p.genPieceMovesTo(dst, board.Knight, us, ourOcc, occ, blockDsts)
	p.genPieceMovesTo(dst, board.Bishop, us, ourOcc, occ, blockDsts)
	p.genPieceMovesTo(dst, board.Rook, us, ourOcc, occ, blockDsts)
	p.genPieceMovesTo(dst, board.Queen, us, ourOcc, occ, blockDsts)
}

func (p *Position) kingSquare(c board.Color) board.Square {
	return (p.b.PieceOcc(board.King) & p.b.ColorOcc(c)).LSB()
}

func (p *Position) genPieceMoves(dst *board.MoveList, pt board.PieceType, us board.Color, ourOcc, occ board.Bitboard) {
	p.genPieceMovesTo(dst, pt, us, ourOcc, occ, ^ourOcc)
}

func (p *Position) genPieceMovesTo(dst *board.MoveList, pt board.PieceType, us board.Color, ourOcc, occ, allowedDst board.Bitboard) {
	pieces := p.b.PieceOcc(pt) & ourOcc
	for pieces != 0 {
		from := pieces.PopLSB()
		var attacks board.Bitboard
		switch pt {
		case board.Knight:
			attacks = board.KnightAttacks(from)
		case board.Bishop:
			attacks = board.BishopAttacks(from, occ)
		case board.Rook:
			attacks = board.RookAttacks(from, occ)
		case board.Queen:
			attacks = board.QueenAttacks(from, occ)
		}
		targets := attacks &^ ourOcc & allowedDst
		for targets != 0 {
			to := targets.PopLSB()
			flags := board.Move(0)
			if p.b.GetPiece(to) != board.NoPiece {
				flags |= board.FlagCapture
			}
			dst.Add(board.NewMove(from, to, board.NoPieceType, flags))
		}
	}
}

func (p *Position) genKingMoves(dst *board.MoveList, us board.Color, ourOcc, occ board.Bitboard) {
	from := p.kingSquare(us)
	targets := board.KingAttacks(from) &^ ourOcc
	for targets != 0 {
		to := targets.PopLSB()
		flags := board.Move(0)
		if p.b.GetPiece(to) != board.NoPiece {
			flags |= board.FlagCapture
		}
		dst.Add(board.NewMove(from, to, board.NoPieceType, flags))
	}
}

func (p *Position) genCastles(dst *board.MoveList, us board.Color, occ board.Bitboard) {
	rights := p.CastleRights()
	them := us.Other()

	if us == board.White {
		if rights&CastleWhiteKS != 0 && occ&0x60 == 0 /* f1,g1 */ &&
			!p.b.MaskIsAttacked(0x70, them) /* e1,f1,g1 */ {
			dst.Add(board.NewMove(board.E1, board.G1, board.NoPieceType, board.FlagCastleKS))
		}
		if rights&CastleWhiteQS != 0 && occ&0x0E == 0 /* b1,c1,d1 */ &&
			!p.b.MaskIsAttacked(0x1C, them) /* c1,d1,e1 */ {
			dst.Add(board.NewMove(board.E1, board.C1, board.NoPieceType, board.FlagCastleQS))
		}
	} else {
		if rights&CastleBlackKS != 0 && occ&0x6000000000000000 == 0 /* f8,g8 */ &&
			!p.b.MaskIsAttacked(0x7000000000000000, them) /* e8,f8,g8 */ {
			dst.Add(board.NewMove(board.E8, board.G8, board.NoPieceType, board.FlagCastleKS))
		}
		if rights&CastleBlackQS != 0 && occ&0x0E00000000000000 == 0 /* b8,c8,d8 */ &&
			!p.b.MaskIsAttacked(0x1C00000000000000, them) /* c8,d8,e8 */ {
			dst.Add(board.NewMove(board.E8, board.C8, board.NoPieceType, board.FlagCastleQS))
		}
	}
}

func (p *Position) genPawnMoves(dst *board.MoveList, us board.Color, occ, theirOcc board.Bitboard) {
	p.genPawnMovesTo(dst, us, occ, theirOcc, board.Universe, board.Universe)
}

// genPawnMovesTo generates pawn pushes, jumps, and captures landing on
// allowedDst, plus any en passant capture whose destination is in
// allowedDst or whose captured pawn sits on epCheckMask. The two masks
// differ only during check evasions: the en passant destination square
// is empty, so it is never itself the checking piece, but capturing the
// pawn that just jumped there (epCheckMask = the checker square) still
// resolves the check even though the destination isn't a block square.
func (p *Position) genPawnMovesTo(dst *board.MoveList, us board.Color, occ, theirOcc, allowedDst, epCheckMask board.Bitboard) {
	pawns := p.b.PieceOcc(board.Pawn) & p.b.ColorOcc(us)
	promoRank := pawnPromoRank(us)
	startRank := pawnStartRank(us)

	addPawnMove := func(from, to board.Square, flags board.Move) {
		if to.Rank() == promoRank {
			for _, pt := range [4]board.PieceType{board.Queen, board.Rook, board.Bishop, board.Knight} {
				dst.Add(board.NewMove(from, to, pt, flags|board.FlagPromotion))
			}
			return
		}
		dst.Add(board.NewMove(from, to, board.NoPieceType, flags))
	}

	tmp := pawns
	for tmp != 0 {
		from := tmp.PopLSB()

		push1 := board.PawnPushes(from, us)
		if push1&occ == 0 {
			if push1&allowedDst != 0 {
				addPawnMove(from, push1.LSB(), 0)
			}
			if from.Rank() == startRank {
				var push2 board.Bitboard
				if us == board.White {
					push2 = push1.North()
				} else {
					push2 = push1.South()
				}
				if push2&occ == 0 && push2&allowedDst != 0 {
					dst.Add(board.NewMove(from, push2.LSB(), board.NoPieceType, board.FlagPawnJump))
				}
			}
		}

		attacks := board.PawnAttacks(from, us) & theirOcc & allowedDst
		for attacks != 0 {
			to := attacks.PopLSB()
			addPawnMove(from, to, board.FlagCapture)
		}

		epSq := p.EnPassantSquare()
		if epSq != board.NoSquare && board.PawnAttacks(from, us).IsSet(epSq) {
			capturedSq := board.NewSquare(epSq.File(), from.Rank())
			if allowedDst.IsSet(epSq) || epCheckMask.IsSet(capturedSq) {
				dst.Add(board.NewMove(from, epSq, board.NoPieceType, board.FlagCapture|board.FlagCaptureEP))
			}
		}
	}
}

// LegalMoves returns every legal move for the side to move, filtering
// pseudolegal candidates by make+unmake.
func (p *Position) LegalMoves() board.MoveList {
	var candidates, legal board.MoveList
	if p.InCheck() {
		p.PseudolegalMovesEvasions(&candidates)
	} else {
		p.PseudolegalMoves(&candidates)
	}
	for i := 0; i < candidates.Len(); i++ {
		m := candidates.Get(i)
		if ok := p.MakeMove(m); ok {
			legal.Add(m)
			p.UnmakeMove()
		} else {
			p.UnmakeMove()
		}
	}
	return legal
}

// HasLegalMoves reports whether the side to move has at least one
// legal move, stopping at the first one found.
func (p *Position) HasLegalMoves() bool {
	var candidates board.MoveList
	if p.InCheck() {
		p.PseudolegalMovesEvasions(&candidates)
	} else {
		p.PseudolegalMoves(&candidates)
	}
	for i := 0; i < candidates.Len(); i++ {
		m := candidates.Get(i)
		ok := p.MakeMove(m)
		p.UnmakeMove()
		if ok {
			return true
		}
	}
	return false
}
