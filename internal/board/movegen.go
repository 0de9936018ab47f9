package board

// LegalMoves returns all legal moves for color c, in square order.
// Promotions appear once per promotion piece.
func (b *Board) LegalMoves(c Color) []*Move {
	moves := make([]*Move, 0, 48)
	for _, p := range b.Pieces(c) {
		moves = b.appendLegalMoves(moves, p)
	}
	return moves
}

// LegalMovesFor returns the legal moves of a single piece.
func (b *Board) LegalMovesFor(p *Piece) []*Move {
	return b.appendLegalMoves(nil, p)
}

// HasLegalMoves returns true if color c has at least one legal move.
func (b *Board) HasLegalMoves(c Color) bool {
	for _, p := range b.Pieces(c) {
		for _, to := range b.candidateSquares(p) {
			if b.CheckMove(p, to) {
				return true
			}
		}
		if p.Type == King && len(b.castleMoves(p)) > 0 {
			return true
		}
	}
	return false
}

// Captures returns the legal captures for color c, including en passant.
func (b *Board) Captures(c Color) []*Move {
	var out []*Move
	for _, m := range b.LegalMoves(c) {
		if m.Captured != nil {
			out = append(out, m)
		}
	}
	return out
}

func (b *Board) appendLegalMoves(dst []*Move, p *Piece) []*Move {
	for _, to := range b.candidateSquares(p) {
		if p.Type == Pawn && to.RelativeRank(p.Color) == 7 {
			for _, pt := range PromotionTypes {
				m := b.NewMove(p, to, pt)
				if b.isLegal(m) {
					dst = append(dst, m)
				}
			}
			continue
		}
		m := b.NewMove(p, to, NoPieceType)
		if b.isLegal(m) {
			dst = append(dst, m)
		}
	}
	if p.Type == King {
		dst = append(dst, b.castleMoves(p)...)
	}
	return dst
}

// candidateSquares lists the destinations a piece may reach before king
// safety is considered. Pawns use their movement squares: pushes onto
// empty squares and diagonals onto enemies or the en-passant target.
func (b *Board) candidateSquares(p *Piece) []Square {
	if p.Type != Pawn {
		return b.appendProtected(nil, p)
	}

	var out []Square
	for _, to := range pawnCaptures[p.Color][p.Square] {
		if occ := b.squares[to]; occ != nil {
			if occ.Color != p.Color {
				out = append(out, to)
			}
		} else if b.isEnPassantTarget(to, p.Color) {
			out = append(out, to)
		}
	}

	step := 8
	if p.Color == Black {
		step = -8
	}
	one := int(p.Square) + step
	if one < 0 || one > 63 || b.squares[one] != nil {
		return out
	}
	out = append(out, Square(one))
	two := one + step
	if !p.Moved && two >= 0 && two <= 63 && b.squares[two] == nil {
		out = append(out, Square(two))
	}
	return out
}

// isEnPassantTarget reports whether a pawn of color c may capture onto sq
// en passant.
func (b *Board) isEnPassantTarget(sq Square, c Color) bool {
	if sq != b.EnPassant || sq.RelativeRank(c) != 5 {
		return false
	}
	victim := b.squares[enPassantVictim(sq, c)]
	return victim != nil && victim.Type == Pawn && victim.Color != c
}

// CheckMove reports whether p may legally move to sq. Castling is checked
// separately by CheckCastle.
func (b *Board) CheckMove(p *Piece, to Square) bool {
	reachable := false
	for _, sq := range b.candidateSquares(p) {
		if sq == to {
			reachable = true
			break
		}
	}
	if !reachable {
		return false
	}
	return b.isLegal(b.NewMove(p, to, Queen))
}

// isLegal filters a candidate move for king safety. It trusts that the
// destination is reachable for the piece.
func (b *Board) isLegal(m *Move) bool {
	p := m.Piece
	if target := b.squares[m.To]; target != nil && (target.Type == King || target.Color == p.Color) {
		return false
	}

	enemy := p.Color.Other()
	king := b.kings[p.Color]
	if king == nil {
		return false
	}

	if p.Type == King {
		if b.IsAttackedBy(m.To, enemy) {
			return false
		}
		// A slider checking along the line the king retreats on does not
		// yet protect the square behind the king.
		if b.IsAttackedBy(king.Square, enemy) {
			return b.tryMove(m)
		}
		return true
	}

	attackers := b.AttackersOf(king.Square, enemy)
	switch len(attackers) {
	case 0:
		if b.IsPotentiallyAttackedBy(king.Square, enemy) {
			return b.tryMove(m)
		}
		return true
	case 1:
		checker := attackers[0]
		if m.Captured == checker || b.protects(checker, m.To) {
			return b.tryMove(m)
		}
		return false
	default:
		return false
	}
}

// tryMove applies m, checks whether the mover's king is attacked and
// reverses it.
func (b *Board) tryMove(m *Move) bool {
	c := m.Piece.Color
	b.MakeMove(m)
	safe := !b.IsAttackedBy(b.kings[c].Square, c.Other())
	b.UnmakeMove(m)
	return safe
}

// castleMoves returns the legal castling moves for king.
func (b *Board) castleMoves(king *Piece) []*Move {
	if king.Moved {
		return nil
	}
	var out []*Move
	for _, sq := range [2]Square{king.Square + 3, king.Square - 4} {
		if !sq.IsValid() || sq.Rank() != king.Square.Rank() {
			continue
		}
		rook := b.squares[sq]
		if rook == nil || !b.CheckCastle(king, rook) {
			continue
		}
		to := king.Square + 2
		if sq < king.Square {
			to = king.Square - 2
		}
		out = append(out, b.NewMove(king, to, NoPieceType))
	}
	return out
}

// CheckCastle reports whether king may castle with rook: neither has
// moved, the squares between them are empty, and the king is not in
// check and does not cross or land on an attacked square.
func (b *Board) CheckCastle(king, rook *Piece) bool {
	if king.Type != King || rook.Type != Rook || king.Color != rook.Color {
		return false
	}
	if king.Moved || rook.Moved || king.Square.Rank() != rook.Square.Rank() {
		return false
	}
	if king.Square.File() != 4 || king.Square.RelativeRank(king.Color) != 0 {
		return false
	}

	dir := 1
	if rook.Square < king.Square {
		dir = -1
	}
	for sq := int(king.Square) + dir; sq != int(rook.Square); sq += dir {
		if b.squares[sq] != nil {
			return false
		}
	}

	enemy := king.Color.Other()
	for i := 0; i <= 2; i++ {
		if b.IsAttackedBy(Square(int(king.Square)+i*dir), enemy) {
			return false
		}
	}
	return true
}
