package board

import (
	"fmt"
	"strings"
)

// FiftyMovePlies is the number of plies without a capture or pawn move
// after which the game is drawn (a halfmove clock of 50).
const FiftyMovePlies = 100

// Board represents a complete chess position.
type Board struct {
	squares [64]*Piece
	kings   [2]*Piece // [Color]

	// Game state
	SideToMove     Color
	EnPassant      Square // Target square for en passant, NoSquare if none
	FullMoveNumber int    // Full move counter, starts at 1

	plies         int // Plies since last pawn move or capture
	fiftyMoveDraw bool

	Captured CapturedPieces

	attacks AttackMap
}

// NewEmptyBoard returns a board with no pieces and White to move.
// Callers place pieces with Place; kings are required before moves are
// generated.
func NewEmptyBoard() *Board {
	return &Board{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
		attacks:        newAttackMap(),
	}
}

// NewBoard creates the starting position.
func NewBoard() *Board {
	b, err := LoadPosition(StartFEN)
	if err != nil {
		panic(err)
	}
	return b
}

// Place puts p on its square, replacing any occupant, and refreshes the
// attack map.
func (b *Board) Place(p *Piece) {
	if old := b.squares[p.Square]; old != nil && b.kings[old.Color] == old {
		b.kings[old.Color] = nil
	}
	b.squares[p.Square] = p
	if p.Type == King {
		b.kings[p.Color] = p
	}
	b.refresh()
}

// Remove clears sq and refreshes the attack map.
func (b *Board) Remove(sq Square) *Piece {
	p := b.squares[sq]
	if p == nil {
		return nil
	}
	b.squares[sq] = nil
	if b.kings[p.Color] == p {
		b.kings[p.Color] = nil
	}
	b.refresh()
	return p
}

// Clear removes every piece and resets the clocks.
func (b *Board) Clear() {
	*b = *NewEmptyBoard()
}

// At returns the piece on sq, or nil if it is empty.
func (b *Board) At(sq Square) *Piece {
	if !sq.IsValid() {
		return nil
	}
	return b.squares[sq]
}

// IsEmpty returns true if the square is empty.
func (b *Board) IsEmpty(sq Square) bool {
	return b.squares[sq] == nil
}

// King returns the king of color c.
func (b *Board) King(c Color) *Piece {
	return b.kings[c]
}

// Pieces returns the pieces of color c in square order.
func (b *Board) Pieces(c Color) []*Piece {
	out := make([]*Piece, 0, 16)
	for _, p := range b.squares {
		if p != nil && p.Color == c {
			out = append(out, p)
		}
	}
	return out
}

// HalfMoveClock returns the fifty-move clock in moves: it grows by 0.5
// for every ply without a capture or pawn move.
func (b *Board) HalfMoveClock() float64 {
	return float64(b.plies) / 2
}

// HalfMovePlies returns the fifty-move clock counted in plies.
func (b *Board) HalfMovePlies() int {
	return b.plies
}

// SetHalfMovePlies sets the fifty-move clock, counted in plies.
func (b *Board) SetHalfMovePlies(n int) {
	b.plies = n
}

// FiftyMoveDraw reports whether a finalized move reached the fifty-move limit.
func (b *Board) FiftyMoveDraw() bool {
	return b.fiftyMoveDraw
}

// Clone creates a deep copy of the board. Pieces are copied, so moves
// generated on the original do not apply to the clone.
func (b *Board) Clone() *Board {
	nb := &Board{
		SideToMove:     b.SideToMove,
		EnPassant:      b.EnPassant,
		FullMoveNumber: b.FullMoveNumber,
		plies:          b.plies,
		fiftyMoveDraw:  b.fiftyMoveDraw,
		Captured:       b.Captured,
		attacks:        newAttackMap(),
	}
	for sq, p := range b.squares {
		if p == nil {
			continue
		}
		cp := p.clone()
		nb.squares[sq] = cp
		if b.kings[p.Color] == p {
			nb.kings[p.Color] = cp
		}
	}
	nb.refresh()
	return nb
}

// Validate checks that each side has exactly one king and that the side
// not to move is not in check.
func (b *Board) Validate() error {
	var count [2]int
	for _, p := range b.squares {
		if p != nil && p.Type == King {
			count[p.Color]++
		}
	}
	for c := White; c <= Black; c++ {
		if count[c] != 1 {
			return fmt.Errorf("%s must have exactly one king, found %d: %w", c, count[c], ErrInvalidPosition)
		}
	}
	if b.InCheck(b.SideToMove.Other()) {
		return fmt.Errorf("%s is in check but not to move: %w", b.SideToMove.Other(), ErrInvalidPosition)
	}
	return nil
}

// refresh re-establishes the attack map after any mutation.
func (b *Board) refresh() {
	b.attacks.recompute(b)
}

// String returns an ASCII rendering of the position.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteString(b.squares[rank*8+file].String())
			sb.WriteByte(' ')
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", b.SideToMove)
	fmt.Fprintf(&sb, "En passant: %s\n", b.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %.1f\n", b.HalfMoveClock())
	fmt.Fprintf(&sb, "Full move: %d\n", b.FullMoveNumber)
	fmt.Fprintf(&sb, "Hash: %016x\n", b.Hash())
	return sb.String()
}
