package board

import "fmt"

// Move is a reversible move. The fields after Score record the state the
// move overwrites so UnmakeMove can restore it exactly.
type Move struct {
	Piece    *Piece
	From, To Square

	// Captured is the piece removed by the move. For en passant it stands
	// on EnPassantSquare rather than To.
	Captured        *Piece
	EnPassant       bool
	EnPassantSquare Square

	// Promotion is the piece that replaces the pawn on To.
	Promotion *Piece

	// Castling rook relocation.
	Rook             *Piece
	RookFrom, RookTo Square

	// Score orders moves during search.
	Score int

	prevSide      Color
	prevEnPassant Square
	prevPlies     int
	prevFullMove  int
	prevMoved     bool
	prevRookMoved bool
}

// NewMove builds a move of p to to, filling in the capture, en-passant and
// castling details from the current position. For pawns reaching the last
// rank it promotes to promo; promo is ignored otherwise.
func (b *Board) NewMove(p *Piece, to Square, promo PieceType) *Move {
	m := &Move{
		Piece:           p,
		From:            p.Square,
		To:              to,
		Captured:        b.squares[to],
		EnPassantSquare: NoSquare,
		RookFrom:        NoSquare,
		RookTo:          NoSquare,
	}

	switch p.Type {
	case Pawn:
		if m.Captured == nil && to == b.EnPassant && to.File() != m.From.File() {
			victim := b.squares[enPassantVictim(to, p.Color)]
			if victim != nil && victim.Type == Pawn && victim.Color != p.Color {
				m.Captured = victim
				m.EnPassant = true
				m.EnPassantSquare = victim.Square
			}
		}
		if to.RelativeRank(p.Color) == 7 {
			if promo == NoPieceType || promo == Pawn || promo == King {
				promo = Queen
			}
			m.Promotion = &Piece{Type: promo, Color: p.Color, Square: to, Moved: true}
		}
	case King:
		if d := int(to) - int(m.From); d == 2 || d == -2 {
			rookFrom, rookTo := castleRookSquares(m.From, to)
			if r := b.squares[rookFrom]; r != nil && r.Type == Rook && r.Color == p.Color {
				m.Rook = r
				m.RookFrom = rookFrom
				m.RookTo = rookTo
			}
		}
	}
	return m
}

func enPassantVictim(target Square, mover Color) Square {
	if mover == White {
		return target - 8
	}
	return target + 8
}

func castleRookSquares(kingFrom, kingTo Square) (Square, Square) {
	if kingTo > kingFrom {
		return kingFrom + 3, kingFrom + 1
	}
	return kingFrom - 4, kingFrom - 1
}

// MakeMove applies m and recomputes the attack map.
func (b *Board) MakeMove(m *Move) {
	p := m.Piece

	m.prevSide = b.SideToMove
	m.prevEnPassant = b.EnPassant
	m.prevPlies = b.plies
	m.prevFullMove = b.FullMoveNumber
	m.prevMoved = p.Moved

	if m.Captured != nil {
		b.squares[m.Captured.Square] = nil
	}
	b.squares[m.From] = nil
	p.Square = m.To
	p.Moved = true
	if m.Promotion != nil {
		b.squares[m.To] = m.Promotion
	} else {
		b.squares[m.To] = p
	}

	if m.Rook != nil {
		m.prevRookMoved = m.Rook.Moved
		b.squares[m.RookFrom] = nil
		b.squares[m.RookTo] = m.Rook
		m.Rook.Square = m.RookTo
		m.Rook.Moved = true
	}

	b.EnPassant = NoSquare
	if p.Type == Pawn {
		if d := int(m.To) - int(m.From); d == 16 || d == -16 {
			b.EnPassant = Square((int(m.From) + int(m.To)) / 2)
		}
	}

	if p.Type == Pawn || m.Captured != nil {
		b.plies = 0
	} else {
		b.plies++
	}
	if p.Color == Black {
		b.FullMoveNumber++
	}
	b.SideToMove = p.Color.Other()

	b.refresh()
}

// UnmakeMove reverses m, which must be the last move made.
func (b *Board) UnmakeMove(m *Move) {
	p := m.Piece

	if m.Rook != nil {
		b.squares[m.RookTo] = nil
		b.squares[m.RookFrom] = m.Rook
		m.Rook.Square = m.RookFrom
		m.Rook.Moved = m.prevRookMoved
	}

	b.squares[m.To] = nil
	p.Square = m.From
	p.Moved = m.prevMoved
	b.squares[m.From] = p
	if m.Captured != nil {
		b.squares[m.Captured.Square] = m.Captured
	}

	b.SideToMove = m.prevSide
	b.EnPassant = m.prevEnPassant
	b.plies = m.prevPlies
	b.FullMoveNumber = m.prevFullMove

	b.refresh()
}

// Made reports whether the move is currently applied.
func (m *Move) Made() bool {
	return m.Piece.Square != m.From
}

// IsCapture returns true if this move captures a piece.
func (m *Move) IsCapture() bool {
	return m.Captured != nil
}

// IsEnPassant returns true if this is an en passant capture.
func (m *Move) IsEnPassant() bool {
	return m.EnPassant
}

// IsCastle returns true if this is a castling move.
func (m *Move) IsCastle() bool {
	return m.Rook != nil
}

// IsPromotion returns true if this is a promotion move.
func (m *Move) IsPromotion() bool {
	return m.Promotion != nil
}

// IsCheck reports whether the move leaves the opponent in check.
func (m *Move) IsCheck(b *Board) bool {
	return m.probe(b, func() bool { return b.InCheck(m.Piece.Color.Other()) })
}

// IsCheckmate reports whether the move mates the opponent.
func (m *Move) IsCheckmate(b *Board) bool {
	return m.probe(b, func() bool { return b.Status().Result == Checkmate })
}

// IsDraw reports whether the move stalemates the opponent.
func (m *Move) IsDraw(b *Board) bool {
	return m.probe(b, func() bool { return b.Status().Result == Stalemate })
}

// probe evaluates f with m applied, making and unmaking it if needed.
func (m *Move) probe(b *Board, f func() bool) bool {
	if m.Made() {
		return f()
	}
	b.MakeMove(m)
	defer b.UnmakeMove(m)
	return f()
}

// Same reports whether two moves describe the same action.
func (m *Move) Same(o *Move) bool {
	if m.From != o.From || m.To != o.To {
		return false
	}
	if (m.Promotion == nil) != (o.Promotion == nil) {
		return false
	}
	return m.Promotion == nil || m.Promotion.Type == o.Promotion.Type
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m *Move) String() string {
	if m == nil {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.Promotion != nil {
		s += string(m.Promotion.Type.Char())
	}
	return s
}

// ParseMove finds the legal move for the side to move matching a UCI
// string. A pawn reaching the last rank without a suffix promotes to a
// queen.
func (b *Board) ParseMove(s string) (*Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return nil, &IllegalMoveError{Move: s, Reason: "malformed move"}
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return nil, fmt.Errorf("parse move %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return nil, fmt.Errorf("parse move %q: %w", s, err)
	}

	promo := Queen
	if len(s) == 5 {
		pt, _, ok := PieceFromChar(s[4])
		if !ok || pt == Pawn || pt == King {
			return nil, &IllegalMoveError{Move: s, Reason: "invalid promotion piece"}
		}
		promo = pt
	}

	p := b.At(from)
	if p == nil {
		return nil, &IllegalMoveError{Move: s, Reason: "no piece at " + from.String()}
	}
	if p.Color != b.SideToMove {
		return nil, &IllegalMoveError{Move: s, Reason: "not " + p.Color.String() + "'s turn"}
	}
	for _, m := range b.LegalMovesFor(p) {
		if m.To == to && (m.Promotion == nil || m.Promotion.Type == promo) {
			return m, nil
		}
	}
	return nil, &IllegalMoveError{Move: s, Reason: "not in the legal move set"}
}
