package board

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

var testPositions = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2",
}

func mustFEN(t *testing.T, fen string) *Board {
	t.Helper()
	b, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN %q: %v", fen, err)
	}
	return b
}

func findMove(t *testing.T, b *Board, uci string) *Move {
	t.Helper()
	m, err := b.ParseMove(uci)
	if err != nil {
		t.Fatalf("ParseMove(%s): %v", uci, err)
	}
	return m
}

func TestMakeUnmakeRoundTrip(t *testing.T) {
	for _, fen := range testPositions {
		b := mustFEN(t, fen)
		for _, m := range b.LegalMoves(b.SideToMove) {
			before := b.Clone()
			hash := b.Hash()

			b.MakeMove(m)
			if !m.Made() {
				t.Errorf("%s: %v not reported as made", fen, m)
			}
			b.UnmakeMove(m)

			if m.Made() {
				t.Errorf("%s: %v still reported as made", fen, m)
			}
			if !reflect.DeepEqual(b, before) {
				t.Errorf("%s: board differs after make/unmake of %v", fen, m)
			}
			if b.Hash() != hash {
				t.Errorf("%s: hash changed after make/unmake of %v", fen, m)
			}
		}
	}
}

func TestNestedRoundTrip(t *testing.T) {
	b := mustFEN(t, testPositions[1])
	before := b.Clone()
	for _, m := range b.LegalMoves(b.SideToMove) {
		b.MakeMove(m)
		for _, r := range b.LegalMoves(b.SideToMove) {
			b.MakeMove(r)
			b.UnmakeMove(r)
		}
		b.UnmakeMove(m)
	}
	if !reflect.DeepEqual(b, before) {
		t.Error("board differs after nested make/unmake")
	}
}

func TestMovesNeverLeaveKingInCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, fen := range testPositions {
		b := mustFEN(t, fen)
		for ply := 0; ply < 40; ply++ {
			moves := b.LegalMoves(b.SideToMove)
			if len(moves) == 0 {
				break
			}
			for _, m := range moves {
				b.MakeMove(m)
				if b.InCheck(m.Piece.Color) {
					t.Errorf("%s: %v leaves %s in check", fen, m, m.Piece.Color)
				}
				b.UnmakeMove(m)
			}
			b.FinalizeMove(moves[rng.Intn(len(moves))])
		}
	}
}

func TestEnPassant(t *testing.T) {
	b := NewBoard()
	for _, uci := range []string{"e2e4", "a7a6", "e4e5", "d7d5"} {
		if err := b.ApplyFinalMove(findMove(t, b, uci)); err != nil {
			t.Fatalf("ApplyFinalMove(%s): %v", uci, err)
		}
	}
	if b.EnPassant != D6 {
		t.Fatalf("EnPassant = %v, want d6", b.EnPassant)
	}

	m := findMove(t, b, "e5d6")
	if !m.IsEnPassant() || m.Captured == nil || m.Captured.Square != D5 {
		t.Fatalf("e5d6 should capture the d5 pawn en passant, got %+v", m)
	}
	if err := b.ApplyFinalMove(m); err != nil {
		t.Fatalf("ApplyFinalMove(e5d6): %v", err)
	}

	if b.At(D5) != nil {
		t.Error("captured pawn still on d5")
	}
	if p := b.At(D6); p == nil || p.Type != Pawn || p.Color != White {
		t.Errorf("expected white pawn on d6, got %v", p)
	}
	if b.EnPassant != NoSquare {
		t.Errorf("EnPassant = %v, want none", b.EnPassant)
	}
	if n := b.Captured.Count(Black, Pawn); n != 1 {
		t.Errorf("captured black pawns = %d, want 1", n)
	}
}

func TestEnPassantExpires(t *testing.T) {
	b := mustFEN(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")
	for _, uci := range []string{"e1d1", "e8d8"} {
		if err := b.ApplyFinalMove(findMove(t, b, uci)); err != nil {
			t.Fatalf("ApplyFinalMove(%s): %v", uci, err)
		}
	}
	if _, err := b.ParseMove("e5d6"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("late en passant: err = %v, want ErrIllegalMove", err)
	}
}

func TestPromotion(t *testing.T) {
	b := mustFEN(t, "k7/4P3/8/8/8/8/8/4K3 w - - 0 1")

	pawn := b.At(E7)
	moves := b.LegalMovesFor(pawn)
	if len(moves) != 4 {
		t.Fatalf("expected 4 promotion moves, got %d", len(moves))
	}
	seen := map[PieceType]bool{}
	for _, m := range moves {
		seen[m.Promotion.Type] = true
	}
	for _, pt := range PromotionTypes {
		if !seen[pt] {
			t.Errorf("missing promotion to %s", pt)
		}
	}

	m := findMove(t, b, "e7e8q")
	if err := b.ApplyFinalMove(m); err != nil {
		t.Fatalf("ApplyFinalMove: %v", err)
	}
	queen := b.At(E8)
	if queen == nil || queen.Type != Queen || queen.Color != White {
		t.Fatalf("expected white queen on e8, got %v", queen)
	}
	if !b.InCheck(Black) {
		t.Error("promoted queen should give check along the 8th rank")
	}
	found := false
	for _, p := range b.Protectors(B8) {
		if p == queen {
			found = true
		}
	}
	if !found {
		t.Error("promoted queen missing from the attack map")
	}

	b.UnmakeMove(m)
	if b.At(E7) != pawn || b.At(E8) != nil {
		t.Error("unmake did not restore the pawn")
	}
}

func TestApplyFinalMoveRejectsStaleMove(t *testing.T) {
	b := NewBoard()
	knight := findMove(t, b, "g1f3")
	if err := b.ApplyFinalMove(knight); err != nil {
		t.Fatal(err)
	}
	for _, uci := range []string{"b8c6", "f3g5", "c6d4"} {
		if err := b.ApplyFinalMove(findMove(t, b, uci)); err != nil {
			t.Fatalf("ApplyFinalMove(%s): %v", uci, err)
		}
	}
	before := b.FEN()

	if err := b.ApplyFinalMove(knight); err == nil {
		t.Fatal("replaying a move whose piece moved on was accepted")
	}
	if got := b.FEN(); got != before {
		t.Errorf("board changed by rejected move:\n got %s\nwant %s", got, before)
	}
	if n := b.At(G5); n == nil || n.Type != Knight || n.Color != White {
		t.Errorf("knight left g5: %v", n)
	}
}

func TestApplyFinalMoveAfterMake(t *testing.T) {
	b := NewBoard()
	m := findMove(t, b, "e2e4")
	b.MakeMove(m)
	if err := b.ApplyFinalMove(m); err != nil {
		t.Fatalf("ApplyFinalMove on a made move: %v", err)
	}
	want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	if got := b.FEN(); got != want {
		t.Errorf("FEN() = %s, want %s", got, want)
	}
}

func TestUnderPromotionByParse(t *testing.T) {
	b := mustFEN(t, "k7/4P3/8/8/8/8/8/4K3 w - - 0 1")
	m := findMove(t, b, "e7e8n")
	if m.Promotion.Type != Knight {
		t.Errorf("promotion = %s, want Knight", m.Promotion.Type)
	}
	if m.String() != "e7e8n" {
		t.Errorf("String() = %s, want e7e8n", m)
	}
}

func TestCastling(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want []string
	}{
		{"both sides", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", []string{"e1g1", "e1c1"}},
		{"no rights", "r3k2r/8/8/8/8/8/8/R3K2R w kq - 0 1", nil},
		{"transit attacked", "r3k2r/8/8/8/8/8/5r2/R3K2R w KQkq - 0 1", []string{"e1c1"}},
		{"b-file attacked only", "1r2k3/8/8/8/8/8/8/R3K3 w Q - 0 1", []string{"e1c1"}},
		{"in check", "4k3/8/8/8/8/8/8/R3K2r w Q - 0 1", nil},
		{"blocked", "4k3/8/8/8/8/8/8/RN2K2R w KQ - 0 1", []string{"e1g1"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := mustFEN(t, tc.fen)
			var got []string
			for _, m := range b.LegalMovesFor(b.King(White)) {
				if m.IsCastle() {
					got = append(got, m.String())
				}
			}
			if len(got) != len(tc.want) {
				t.Fatalf("castles = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("castles = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestCastlingMovesRook(t *testing.T) {
	b := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	m := findMove(t, b, "e1g1")
	b.MakeMove(m)

	if r := b.At(F1); r == nil || r.Type != Rook {
		t.Error("rook not moved to f1")
	}
	if b.At(H1) != nil {
		t.Error("h1 not cleared")
	}
	if got := b.FEN(); got != "r3k2r/8/8/8/8/8/8/R4RK1 b kq - 1 1" {
		t.Errorf("FEN after O-O = %s", got)
	}

	b.UnmakeMove(m)
	if got := b.FEN(); got != "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1" {
		t.Errorf("FEN after unmake = %s", got)
	}
}

func TestFiftyMoveDraw(t *testing.T) {
	b := mustFEN(t, "1n2k3/8/8/8/8/8/8/1N2K3 w - - 0 1")
	cycle := []string{"e1d1", "e8d8", "d1e1", "d8e8"}

	for ply := 0; ply < FiftyMovePlies; ply++ {
		if b.IsGameOver() {
			t.Fatalf("game over after %d plies", ply)
		}
		uci := cycle[ply%len(cycle)]
		if err := b.ApplyFinalMove(findMove(t, b, uci)); err != nil {
			t.Fatalf("ply %d %s: %v", ply, uci, err)
		}
	}

	if b.HalfMoveClock() != 50 {
		t.Errorf("HalfMoveClock() = %v, want 50", b.HalfMoveClock())
	}
	got := b.Status()
	if got.Result != FiftyMoveDraw || !got.IsDraw() {
		t.Errorf("Status() = %v, want fifty-move draw", got)
	}
}

func TestFiftyMoveDrawFromFEN(t *testing.T) {
	tests := []struct {
		fen  string
		want Result
	}{
		{"1n2k3/8/8/8/8/8/8/1N2K3 w - - 99 80", Ongoing},
		{"1n2k3/8/8/8/8/8/8/1N2K3 w - - 100 80", FiftyMoveDraw},
		{"1n2k3/8/8/8/8/8/8/1N2K3 b - - 120 90", FiftyMoveDraw},
		// Mate on the board still outranks the clock.
		{"R6k/6pp/8/8/8/8/8/K7 b - - 100 80", Checkmate},
	}
	for _, tt := range tests {
		b := mustFEN(t, tt.fen)
		if got := b.Status().Result; got != tt.want {
			t.Errorf("%s: Status().Result = %v, want %v", tt.fen, got, tt.want)
		}
	}
}

func TestHalfMoveClockResets(t *testing.T) {
	b := NewBoard()
	if err := b.ApplyFinalMove(findMove(t, b, "g1f3")); err != nil {
		t.Fatal(err)
	}
	if b.HalfMoveClock() != 0.5 {
		t.Errorf("after knight move clock = %v, want 0.5", b.HalfMoveClock())
	}
	if err := b.ApplyFinalMove(findMove(t, b, "e7e5")); err != nil {
		t.Fatal(err)
	}
	if b.HalfMoveClock() != 0 {
		t.Errorf("after pawn move clock = %v, want 0", b.HalfMoveClock())
	}
	if b.FullMoveNumber != 2 {
		t.Errorf("FullMoveNumber = %d, want 2", b.FullMoveNumber)
	}
}

func TestApplyFinalMoveRejectsIllegal(t *testing.T) {
	b := NewBoard()
	bogus := b.NewMove(b.At(E2), E5, NoPieceType)

	err := b.ApplyFinalMove(bogus)
	var ime *IllegalMoveError
	if !errors.As(err, &ime) {
		t.Fatalf("err = %v, want *IllegalMoveError", err)
	}
	if b.FEN() != StartFEN {
		t.Errorf("board changed after illegal move: %s", b.FEN())
	}

	wrongSide := b.NewMove(b.At(E7), E5, NoPieceType)
	if err := b.ApplyFinalMove(wrongSide); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("moving out of turn: err = %v, want ErrIllegalMove", err)
	}
}

func TestMoveClassification(t *testing.T) {
	// Fool's mate: after 1.f3 e5 2.g4 the queen mates on h4.
	b := NewBoard()
	for _, uci := range []string{"f2f3", "e7e5", "g2g4"} {
		if err := b.ApplyFinalMove(findMove(t, b, uci)); err != nil {
			t.Fatal(err)
		}
	}
	m := findMove(t, b, "d8h4")
	if !m.IsCheck(b) || !m.IsCheckmate(b) {
		t.Error("Qh4 should be check and mate")
	}
	if m.IsDraw(b) || m.IsCapture() || m.IsCastle() || m.IsPromotion() {
		t.Error("Qh4 misclassified")
	}
	if m.Made() {
		t.Error("classification left the move applied")
	}
}
