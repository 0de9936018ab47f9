package board

import (
	"fmt"
	"strings"
)

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// ParseColor accepts "w", "white", "b" and "black" in any case.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(s) {
	case "w", "white":
		return White, nil
	case "b", "black":
		return Black, nil
	}
	return NoColor, fmt.Errorf("unknown color %q", s)
}

// PieceType represents the type of a chess piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	chars := []byte{'p', 'n', 'b', 'r', 'q', 'k', ' '}
	if pt > NoPieceType {
		return ' '
	}
	return chars[pt]
}

// PieceValue is the material value of each piece type in centipawns.
// The king carries no material weight.
var PieceValue = [7]int{100, 300, 300, 500, 900, 0, 0}

// Value returns the material value of the piece type.
func (pt PieceType) Value() int {
	if pt > NoPieceType {
		return 0
	}
	return PieceValue[pt]
}

// PromotionTypes lists the promotion choices, strongest first.
var PromotionTypes = [4]PieceType{Queen, Rook, Bishop, Knight}

// Piece is a single man on the board. Moved is tracked for pawns, rooks
// and kings; it gates double pushes and castling.
type Piece struct {
	Type   PieceType
	Color  Color
	Square Square
	Moved  bool
}

// NewPiece creates an unmoved piece on sq.
func NewPiece(pt PieceType, c Color, sq Square) *Piece {
	return &Piece{Type: pt, Color: c, Square: sq}
}

// Char returns the FEN character (uppercase for White).
func (p *Piece) Char() byte {
	ch := p.Type.Char()
	if p.Color == White {
		ch -= 'a' - 'A'
	}
	return ch
}

// String returns the FEN character as a string.
func (p *Piece) String() string {
	if p == nil {
		return "."
	}
	return string(p.Char())
}

// IsSlider reports whether the piece attacks along rays.
func (p *Piece) IsSlider() bool {
	return p.Type == Bishop || p.Type == Rook || p.Type == Queen
}

// PieceFromChar parses a FEN piece character.
func PieceFromChar(c byte) (PieceType, Color, bool) {
	color := White
	if c >= 'a' && c <= 'z' {
		color = Black
		c -= 'a' - 'A'
	}
	switch c {
	case 'P':
		return Pawn, color, true
	case 'N':
		return Knight, color, true
	case 'B':
		return Bishop, color, true
	case 'R':
		return Rook, color, true
	case 'Q':
		return Queen, color, true
	case 'K':
		return King, color, true
	}
	return NoPieceType, NoColor, false
}

func (p *Piece) clone() *Piece {
	cp := *p
	return &cp
}
