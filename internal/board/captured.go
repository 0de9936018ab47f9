package board

import "fmt"

// CapturedPieces tallies captured men by the color they belonged to.
type CapturedPieces struct {
	counts [2][5]int // [Color][Pawn..Queen]
}

// Add records p as captured.
func (cp *CapturedPieces) Add(p *Piece) {
	if p.Type <= Queen {
		cp.counts[p.Color][p.Type]++
	}
}

// Count returns how many pieces of type pt and color c were captured.
func (cp *CapturedPieces) Count(c Color, pt PieceType) int {
	if pt > Queen || c > Black {
		return 0
	}
	return cp.counts[c][pt]
}

// Material returns the total value of color c's captured pieces.
func (cp *CapturedPieces) Material(c Color) int {
	total := 0
	for pt := Pawn; pt <= Queen; pt++ {
		total += cp.counts[c][pt] * pt.Value()
	}
	return total
}

// String lists the captured pieces of both colors as FEN characters.
func (cp *CapturedPieces) String() string {
	var out [2]string
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= Queen; pt++ {
			ch := (&Piece{Type: pt, Color: c}).String()
			for i := 0; i < cp.counts[c][pt]; i++ {
				out[c] += ch
			}
		}
	}
	return fmt.Sprintf("white: %s black: %s", out[White], out[Black])
}
