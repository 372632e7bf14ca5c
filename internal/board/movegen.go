package board

import "log"

// DebugMoveValidation gates an extra Validate() call after every MakeMove,
// for tracking down a move generation or make/unmake bug. Off by default;
// toggled at runtime via the UCI "setoption name Debug" command.
var DebugMoveValidation bool

// GenerateLegalMoves generates exactly the legal moves for the side to
// move. Checkers and pins are precomputed (maintained incrementally by
// MakeMove/UnmakeMove), so this never falls back to a generate-then-
// make/unmake-and-test loop: each per-piece generator restricts its own
// candidate destinations against a push/capture mask derived from the
// current checkers, and against the pin ray when the piece is pinned.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()

	us := p.SideToMove
	ksq := p.KingSquare[us]

	p.generateKingMoves(ml, us, ksq)

	switch p.Checkers.PopCount() {
	case 0:
		p.generateCastlingMoves(ml, us)
		p.generateNonKingMoves(ml, us, ksq, Universe, Universe)
		p.generateEnPassant(ml, us, ksq, Universe, Universe)
	case 1:
		checkerSq := p.Checkers.LSB()
		captureMask := p.Checkers
		pushMask := Empty
		if isSlider(p.PieceAt(checkerSq).Type()) {
			pushMask = Between(ksq, checkerSq)
		}
		p.generateNonKingMoves(ml, us, ksq, pushMask, captureMask)
		p.generateEnPassant(ml, us, ksq, pushMask, captureMask)
	default:
		// Double check: only the king can move.
	}

	return ml
}

// GenerateLegalCaptures returns the legal captures and queen promotions
// from the current position, for use in quiescence search.
func (p *Position) GenerateLegalCaptures() *MoveList {
	all := p.GenerateLegalMoves()
	ml := NewMoveList()
	for i := 0; i < all.Len(); i++ {
		m := all.Get(i)
		if m.IsCapture() || m.Promotion() == Queen {
			ml.Add(m)
		}
	}
	return ml
}

// GeneratePseudoLegalMoves generates moves without the check-evasion
// masks. Everything else still applies: pinned pieces stay on their pin
// rays, king moves onto attacked squares, en passant that exposes the king
// and castling through attacked squares are excluded. So the result is a
// superset of the legal moves only when the side to move is in check, and
// equals them otherwise. It is never used by search or by
// GenerateLegalMoves itself.
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	us := p.SideToMove
	ksq := p.KingSquare[us]
	p.generateNonKingMoves(ml, us, ksq, Universe, Universe)
	p.generateEnPassant(ml, us, ksq, Universe, Universe)
	p.generateKingMoves(ml, us, ksq)
	p.generateCastlingMoves(ml, us)
	return ml
}

func isSlider(pt PieceType) bool {
	return pt == Bishop || pt == Rook || pt == Queen
}

// destMask returns the set of destinations a piece on `from` may move
// to, given the check-resolution mask and the pin ray (if any).
func (p *Position) destMask(from Square, ksq Square, pushMask, captureMask Bitboard) Bitboard {
	mask := pushMask | captureMask
	if p.Pinned&SquareBB(from) != 0 {
		mask &= Line(ksq, from)
	}
	return mask
}

func (p *Position) generateNonKingMoves(ml *MoveList, us Color, ksq Square, pushMask, captureMask Bitboard) {
	them := us.Other()
	occupied := p.AllOccupied
	enemies := p.Occupied[them]

	p.generatePawnMoves(ml, us, ksq, enemies, occupied, pushMask, captureMask)

	knights := p.Pieces[us][Knight]
	for knights != 0 {
		from := knights.PopLSB()
		attacks := KnightAttacks(from) & ^p.Occupied[us] & p.destMask(from, ksq, pushMask, captureMask)
		addMovesFromAttacks(ml, from, Knight, attacks, enemies)
	}

	bishops := p.Pieces[us][Bishop]
	for bishops != 0 {
		from := bishops.PopLSB()
		attacks := BishopAttacks(from, occupied) & ^p.Occupied[us] & p.destMask(from, ksq, pushMask, captureMask)
		addMovesFromAttacks(ml, from, Bishop, attacks, enemies)
	}

	rooks := p.Pieces[us][Rook]
	for rooks != 0 {
		from := rooks.PopLSB()
		attacks := RookAttacks(from, occupied) & ^p.Occupied[us] & p.destMask(from, ksq, pushMask, captureMask)
		addMovesFromAttacks(ml, from, Rook, attacks, enemies)
	}

	queens := p.Pieces[us][Queen]
	for queens != 0 {
		from := queens.PopLSB()
		attacks := QueenAttacks(from, occupied) & ^p.Occupied[us] & p.destMask(from, ksq, pushMask, captureMask)
		addMovesFromAttacks(ml, from, Queen, attacks, enemies)
	}
}

func addMovesFromAttacks(ml *MoveList, from Square, piece PieceType, attacks, enemies Bitboard) {
	for attacks != 0 {
		to := attacks.PopLSB()
		if enemies&SquareBB(to) != 0 {
			ml.Add(NewCapture(from, to, piece))
		} else {
			ml.Add(NewMove(from, to, piece))
		}
	}
}

// generatePawnMoves generates pawn pushes, captures, and promotions,
// each restricted to the check-resolution mask and pin ray.
func (p *Position) generatePawnMoves(ml *MoveList, us Color, ksq Square, enemies, occupied Bitboard, pushMask, captureMask Bitboard) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var promotionRank Bitboard
	if us == White {
		promotionRank = Rank8
	} else {
		promotionRank = Rank1
	}

	for bb := pawns; bb != 0; {
		from := bb.PopLSB()
		allowed := p.destMask(from, ksq, pushMask, captureMask)

		var push1, push2, attackL, attackR Bitboard
		fromBB := SquareBB(from)
		if us == White {
			push1 = fromBB.North() & empty
			push2 = (push1 & Rank3).North() & empty
			attackL = fromBB.NorthWest() & enemies
			attackR = fromBB.NorthEast() & enemies
		} else {
			push1 = fromBB.South() & empty
			push2 = (push1 & Rank6).South() & empty
			attackL = fromBB.SouthWest() & enemies
			attackR = fromBB.SouthEast() & enemies
		}

		if to := push1 & allowed; to != 0 {
			dest := to.LSB()
			if to&promotionRank != 0 {
				addPromotions(ml, from, dest, false)
			} else {
				ml.Add(NewMove(from, dest, Pawn))
			}
		}
		if push1 != 0 {
			if to := push2 & allowed; to != 0 {
				ml.Add(NewDoublePawnPush(from, to.LSB()))
			}
		}
		for _, caps := range [2]Bitboard{attackL, attackR} {
			if to := caps & allowed; to != 0 {
				dest := to.LSB()
				if to&promotionRank != 0 {
					addPromotions(ml, from, dest, true)
				} else {
					ml.Add(NewCapture(from, dest, Pawn))
				}
			}
		}
	}
}

// addPromotions adds all four promotion moves.
func addPromotions(ml *MoveList, from, to Square, isCapture bool) {
	ml.Add(NewPromotion(from, to, Queen, isCapture))
	ml.Add(NewPromotion(from, to, Rook, isCapture))
	ml.Add(NewPromotion(from, to, Bishop, isCapture))
	ml.Add(NewPromotion(from, to, Knight, isCapture))
}

// generateKingMoves generates king moves, each tested against the
// enemy's attack set with the king removed from the occupancy (so a
// king cannot "slide away" along the checker's own ray).
func (p *Position) generateKingMoves(ml *MoveList, us Color, from Square) {
	them := us.Other()
	occWithoutKing := p.AllOccupied &^ SquareBB(from)
	attacks := KingAttacks(from) & ^p.Occupied[us]
	enemies := p.Occupied[them]

	for attacks != 0 {
		to := attacks.PopLSB()
		if p.AttackersByColor(to, them, occWithoutKing) != 0 {
			continue
		}
		if enemies&SquareBB(to) != 0 {
			ml.Add(NewCapture(from, to, King))
		} else {
			ml.Add(NewMove(from, to, King))
		}
	}
}

// generateCastlingMoves generates castling moves. A side in check never
// reaches here when called from GenerateLegalMoves (guarded by the
// Checkers switch), but the explicit "king's own square not attacked"
// check below makes this safe to call unconditionally too.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()

	if us == White {
		if p.CastlingRights&WhiteKingSideCastle != 0 &&
			p.AllOccupied&((1<<F1)|(1<<G1)) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(F1, them) && !p.IsSquareAttacked(G1, them) {
			ml.Add(NewCastling(E1, G1))
		}
		if p.CastlingRights&WhiteQueenSideCastle != 0 &&
			p.AllOccupied&((1<<B1)|(1<<C1)|(1<<D1)) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(D1, them) && !p.IsSquareAttacked(C1, them) {
			ml.Add(NewCastling(E1, C1))
		}
	} else {
		if p.CastlingRights&BlackKingSideCastle != 0 &&
			p.AllOccupied&((1<<F8)|(1<<G8)) == 0 &&
			!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(F8, them) && !p.IsSquareAttacked(G8, them) {
			ml.Add(NewCastling(E8, G8))
		}
		if p.CastlingRights&BlackQueenSideCastle != 0 &&
			p.AllOccupied&((1<<B8)|(1<<C8)|(1<<D8)) == 0 &&
			!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(D8, them) && !p.IsSquareAttacked(C8, them) {
			ml.Add(NewCastling(E8, C8))
		}
	}
}

// generateEnPassant generates en passant captures, each validated by
// simulating the resulting occupancy (source and captured pawn removed,
// destination added) and checking that no slider then attacks the king.
// This single simulation catches both the ordinary pin case and the rare
// horizontal double-removal pin, without special-casing either.
func (p *Position) generateEnPassant(ml *MoveList, us Color, ksq Square, pushMask, captureMask Bitboard) {
	if p.EnPassant == NoSquare {
		return
	}
	them := us.Other()
	epSq := p.EnPassant
	var capturedSq Square
	if us == White {
		capturedSq = epSq - 8
	} else {
		capturedSq = epSq + 8
	}

	if p.Checkers != 0 {
		resolvesCheck := captureMask&SquareBB(capturedSq) != 0 || pushMask&SquareBB(epSq) != 0
		if !resolvesCheck {
			return
		}
	}

	epBB := SquareBB(epSq)
	var attackers Bitboard
	if us == White {
		attackers = (epBB.SouthWest() | epBB.SouthEast()) & p.Pieces[us][Pawn]
	} else {
		attackers = (epBB.NorthWest() | epBB.NorthEast()) & p.Pieces[us][Pawn]
	}

	for attackers != 0 {
		from := attackers.PopLSB()
		simOcc := (p.AllOccupied &^ SquareBB(from) &^ SquareBB(capturedSq)) | epBB
		sliders := (BishopAttacks(ksq, simOcc) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen])) |
			(RookAttacks(ksq, simOcc) & (p.Pieces[them][Rook] | p.Pieces[them][Queen]))
		if sliders != 0 {
			continue
		}
		ml.Add(NewEnPassant(from, epSq))
	}
}

// MakeMove applies a move to the position and returns undo information.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		CapturedPiece:  NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		Checkers:       p.Checkers,
		Pinned:         p.Pinned,
		Valid:          false,
	}

	us := p.SideToMove
	them := us.Other()
	from := m.From()
	to := m.To()
	piece := p.PieceAt(from)

	if piece == NoPiece {
		return undo
	}

	undo.Valid = true
	pt := piece.Type()

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	if m.IsEnPassant() {
		var capturedSq Square
		if us == White {
			capturedSq = to - 8
		} else {
			capturedSq = to + 8
		}
		undo.CapturedPiece = p.removePiece(capturedSq)
		p.Hash ^= zobristPiece[them][Pawn][capturedSq]
	} else if captured := p.PieceAt(to); captured != NoPiece {
		undo.CapturedPiece = captured
		p.removePiece(to)
		p.Hash ^= zobristPiece[them][captured.Type()][to]
	}

	p.movePiece(from, to)
	p.Hash ^= zobristPiece[us][pt][from]
	p.Hash ^= zobristPiece[us][pt][to]

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promoPt] |= SquareBB(to)
		p.Hash ^= zobristPiece[us][Pawn][to]
		p.Hash ^= zobristPiece[us][promoPt][to]
	}

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		p.movePiece(rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom]
		p.Hash ^= zobristPiece[us][Rook][rookTo]
	}

	if pt == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}
	p.Hash ^= zobristCastling[p.CastlingRights]

	if m.IsDoublePawnPush() {
		epSquare := Square((int(from) + int(to)) / 2)
		p.EnPassant = epSquare
		p.Hash ^= zobristEnPassant[epSquare.File()]
	}

	if pt == Pawn || undo.CapturedPiece != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.UpdateCheckers()
	p.Pinned = p.ComputePinned()
	p.History = append(p.History, p.Hash)

	if DebugMoveValidation {
		if err := p.Validate(); err != nil {
			log.Printf("MakeMove produced an invalid position (move=%s): %v", m, err)
		}
	}

	return undo
}

// UnmakeMove undoes a move using the stored undo information.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	if !undo.Valid {
		return
	}

	p.History = p.History[:len(p.History)-1]

	them := p.SideToMove
	us := them.Other()
	from := m.From()
	to := m.To()

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.Checkers = undo.Checkers
	p.Pinned = undo.Pinned
	p.SideToMove = us

	if us == Black {
		p.FullMoveNumber--
	}

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][promoPt] &^= SquareBB(to)
		p.Pieces[us][Pawn] |= SquareBB(to)
	}

	p.movePiece(to, from)

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		p.movePiece(rookTo, rookFrom)
	}

	if undo.CapturedPiece != NoPiece {
		if m.IsEnPassant() {
			var capturedSq Square
			if us == White {
				capturedSq = to - 8
			} else {
				capturedSq = to + 8
			}
			p.setPiece(undo.CapturedPiece, capturedSq)
		} else {
			p.setPiece(undo.CapturedPiece, to)
		}
	}
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	return p.GenerateLegalMoves().Len() > 0
}

// IsCheckmate returns true if the position is checkmate.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the position is stalemate.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw returns true if the position is a draw by the 50-move rule,
// insufficient material, stalemate, or repetition.
func (p *Position) IsDraw() bool {
	if p.IsStalemate() {
		return true
	}
	if p.HalfMoveClock >= 100 {
		return true
	}
	if p.IsRepetition() {
		return true
	}
	return p.IsInsufficientMaterial()
}

// IsInsufficientMaterial returns true if neither side can checkmate.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wKnights := p.Pieces[White][Knight].PopCount()
	wBishops := p.Pieces[White][Bishop].PopCount()
	bKnights := p.Pieces[Black][Knight].PopCount()
	bBishops := p.Pieces[Black][Bishop].PopCount()

	if wKnights+wBishops+bKnights+bBishops == 0 {
		return true
	}
	if wKnights+wBishops <= 1 && bKnights+bBishops == 0 {
		return true
	}
	if bKnights+bBishops <= 1 && wKnights+wBishops == 0 {
		return true
	}

	return false
}
