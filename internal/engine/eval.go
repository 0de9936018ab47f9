// Package engine implements the chess AI search engine.
package engine

import (
	"github.com/hailam/tilechess/internal/board"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 300
	BishopValue = 300
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 0
)

// Piece values array for quick lookup
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// Evaluate returns the material balance from c's point of view.
func Evaluate(b *board.Board, c board.Color) int {
	var material [2]int
	for sq := board.A1; sq <= board.H8; sq++ {
		if p := b.At(sq); p != nil {
			material[p.Color] += pieceValues[p.Type]
		}
	}
	return material[c] - material[c.Other()]
}

// EvaluatePosition is Evaluate under the name the AI interface uses.
func EvaluatePosition(b *board.Board, c board.Color) int {
	return Evaluate(b, c)
}
