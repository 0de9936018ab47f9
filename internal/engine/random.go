package engine

import (
	"math/rand"

	"github.com/hailam/tilechess/internal/board"
)

// RandomMove picks a uniformly random legal move for c, or nil if there is
// none. Pawns reaching the last rank always become queens.
func RandomMove(b *board.Board, c board.Color, rng *rand.Rand) *board.Move {
	var moves []*board.Move
	for _, m := range b.LegalMoves(c) {
		if m.Promotion == nil || m.Promotion.Type == board.Queen {
			moves = append(moves, m)
		}
	}
	if len(moves) == 0 {
		return nil
	}
	return moves[rng.Intn(len(moves))]
}
