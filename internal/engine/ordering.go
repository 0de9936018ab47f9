package engine

import (
	"golang.org/x/exp/slices"

	"github.com/hailam/tilechess/internal/board"
)

// scoreMove rates a move for ordering: MVV-LVA for captures, the new
// piece's value for promotions, and a penalty for stepping onto a square
// an enemy pawn guards.
func scoreMove(b *board.Board, m *board.Move) int {
	mover := pieceValues[m.Piece.Type]
	score := 0
	if m.Captured != nil {
		score = 10*pieceValues[m.Captured.Type] - mover
	}
	if m.Promotion != nil {
		score += pieceValues[m.Promotion.Type]
	}
	if b.DefendedByPawn(m.To, m.Piece.Color.Other()) {
		score -= mover
	}
	return score
}

// orderMoves scores moves and sorts them best first. Equal scores keep
// generation order.
func orderMoves(b *board.Board, moves []*board.Move) {
	for _, m := range moves {
		m.Score = scoreMove(b, m)
	}
	slices.SortStableFunc(moves, func(x, y *board.Move) int {
		return y.Score - x.Score
	})
}
