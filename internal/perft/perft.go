// Package perft counts move-generation trees and cross-checks them against
// an independent generator.
package perft

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hailam/tilechess/internal/board"
)

// Stats tallies the leaf moves of a perft tree.
type Stats struct {
	Nodes      uint64
	Captures   uint64
	EnPassant  uint64
	Castles    uint64
	Promotions uint64
	Checks     uint64
	Checkmates uint64
	Stalemates uint64
}

func (s *Stats) add(o Stats) {
	s.Nodes += o.Nodes
	s.Captures += o.Captures
	s.EnPassant += o.EnPassant
	s.Castles += o.Castles
	s.Promotions += o.Promotions
	s.Checks += o.Checks
	s.Checkmates += o.Checkmates
	s.Stalemates += o.Stalemates
}

func (s Stats) String() string {
	return fmt.Sprintf("nodes=%d captures=%d ep=%d castles=%d promotions=%d checks=%d checkmates=%d stalemates=%d",
		s.Nodes, s.Captures, s.EnPassant, s.Castles, s.Promotions, s.Checks, s.Checkmates, s.Stalemates)
}

// Count returns the number of leaf nodes at the given depth.
func Count(b *board.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := b.LegalMoves(b.SideToMove)
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		b.MakeMove(m)
		nodes += Count(b, depth-1)
		b.UnmakeMove(m)
	}
	return nodes
}

// Run walks the tree to depth and classifies every move made at the last
// ply.
func Run(b *board.Board, depth int) Stats {
	var s Stats
	if depth <= 0 {
		s.Nodes = 1
		return s
	}

	for _, m := range b.LegalMoves(b.SideToMove) {
		b.MakeMove(m)
		if depth == 1 {
			s.Nodes++
			classify(b, m, &s)
		} else {
			s.add(Run(b, depth-1))
		}
		b.UnmakeMove(m)
	}
	return s
}

// classify expects m to have been made on b.
func classify(b *board.Board, m *board.Move, s *Stats) {
	if m.IsCapture() {
		s.Captures++
	}
	if m.IsEnPassant() {
		s.EnPassant++
	}
	if m.IsCastle() {
		s.Castles++
	}
	if m.IsPromotion() {
		s.Promotions++
	}

	check := b.InCheck(b.SideToMove)
	if check {
		s.Checks++
	}
	if !b.HasLegalMoves(b.SideToMove) {
		if check {
			s.Checkmates++
		} else {
			s.Stalemates++
		}
	}
}

// Divide returns the leaf count below each root move, keyed by UCI string.
func Divide(b *board.Board, depth int) map[string]uint64 {
	out := make(map[string]uint64)
	if depth < 1 {
		return out
	}
	for _, m := range b.LegalMoves(b.SideToMove) {
		b.MakeMove(m)
		out[m.String()] = Count(b, depth-1)
		b.UnmakeMove(m)
	}
	return out
}

// Mismatch is a root move whose subtree count differs from the reference.
type Mismatch struct {
	Move string
	Got  uint64
	Want uint64
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: got %d, want %d", m.Move, m.Got, m.Want)
}

// Verify compares Divide against the reference generator and returns the
// differing root moves, sorted by move. A move missing on one side shows
// up with a zero count.
func Verify(b *board.Board, depth int) []Mismatch {
	got := Divide(b, depth)
	want := ReferenceDivide(b.FEN(), depth)

	seen := maps.Clone(got)
	maps.Copy(seen, want)
	keys := maps.Keys(seen)
	slices.Sort(keys)

	var out []Mismatch
	for _, k := range keys {
		if got[k] != want[k] {
			out = append(out, Mismatch{Move: k, Got: got[k], Want: want[k]})
		}
	}
	return out
}

// FormatDivide renders a divide map one move per line in move order,
// followed by the total.
func FormatDivide(d map[string]uint64) string {
	keys := maps.Keys(d)
	slices.Sort(keys)

	var sb strings.Builder
	var total uint64
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %d\n", k, d[k])
		total += d[k]
	}
	fmt.Fprintf(&sb, "\nNodes searched: %d\n", total)
	return sb.String()
}
