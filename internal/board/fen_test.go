package board

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	for _, fen := range testPositions {
		b := mustFEN(t, fen)
		if got := ExportPosition(b); got != fen {
			t.Errorf("ExportPosition() = %s, want %s", got, fen)
		}
	}
}

func TestLoadPositionFlags(t *testing.T) {
	b := mustFEN(t, "r3k2r/8/8/8/4P3/8/P7/R3K2R w Kq - 3 20")

	tests := []struct {
		sq    Square
		moved bool
	}{
		{E1, false},
		{H1, false},
		{A1, true},
		{E8, false},
		{A8, false},
		{H8, true},
		{A2, false},
		{E4, true},
	}
	for _, tc := range tests {
		if got := b.At(tc.sq).Moved; got != tc.moved {
			t.Errorf("%s moved = %v, want %v", tc.sq, got, tc.moved)
		}
	}
	if b.HalfMovePlies() != 3 || b.FullMoveNumber != 20 {
		t.Errorf("clocks = %d/%d, want 3/20", b.HalfMovePlies(), b.FullMoveNumber)
	}
}

func TestLoadPositionStrictErrors(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		field int
	}{
		{"bad piece", "rnbqkbnr/ppppxppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 0},
		{"short rank", "rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 0},
		{"bad side", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1", 1},
		{"bad castling", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkz - 0 1", 2},
		{"bad en passant", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e5 0 1", 3},
		{"bad clock", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - x 1", 4},
		{"bad fullmove", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 0", 5},
		{"extra field", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1 x", 6},
		{"no king", "rnbq1bnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQ - 0 1", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadPosition(tc.fen)
			var ipe *InvalidPositionError
			if !errors.As(err, &ipe) {
				t.Fatalf("err = %v, want *InvalidPositionError", err)
			}
			if ipe.Field != tc.field {
				t.Errorf("field = %d, want %d", ipe.Field, tc.field)
			}
			if !errors.Is(err, ErrInvalidPosition) {
				t.Error("error does not match ErrInvalidPosition")
			}
		})
	}
}

func TestLoadPositionLenient(t *testing.T) {
	b, err := LoadPosition("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkqz - zz 1 extra", Lenient())
	if err != nil {
		t.Fatalf("lenient load failed: %v", err)
	}
	if b.SideToMove != White {
		t.Errorf("SideToMove = %s, want White", b.SideToMove)
	}
	if got := b.FEN(); got != StartFEN {
		t.Errorf("FEN() = %s, want %s", got, StartFEN)
	}

	if _, err := LoadPosition("8/8/8/8/8/8/8/8 w - - 0 1", Lenient()); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("missing kings: err = %v, want ErrInvalidPosition", err)
	}
}

func TestExportDerivesCastling(t *testing.T) {
	b := NewBoard()
	for _, uci := range []string{"h2h4", "a7a5", "h1h3", "a8a6"} {
		if err := b.ApplyFinalMove(findMove(t, b, uci)); err != nil {
			t.Fatal(err)
		}
	}
	want := "1nbqkbnr/1ppppppp/r7/p7/7P/7R/PPPPPPP1/RNBQKBN1 w Qk - 2 3"
	if got := b.FEN(); got != want {
		t.Errorf("FEN() = %s, want %s", got, want)
	}
}
