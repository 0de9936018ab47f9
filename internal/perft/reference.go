package perft

import (
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

// ReferenceCount is Count computed by dragontoothmg.
func ReferenceCount(fen string, depth int) uint64 {
	b := dragontoothmg.ParseFen(fen)
	return referenceCount(&b, depth)
}

func referenceCount(b *dragontoothmg.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		unapply := b.Apply(m)
		nodes += referenceCount(b, depth-1)
		unapply()
	}
	return nodes
}

// ReferenceDivide is Divide computed by dragontoothmg. Keys use the same
// lowercase UCI form as Move.String.
func ReferenceDivide(fen string, depth int) map[string]uint64 {
	out := make(map[string]uint64)
	if depth < 1 {
		return out
	}
	b := dragontoothmg.ParseFen(fen)
	for _, m := range b.GenerateLegalMoves() {
		key := strings.ToLower(m.String())
		unapply := b.Apply(m)
		out[key] = referenceCount(&b, depth-1)
		unapply()
	}
	return out
}
