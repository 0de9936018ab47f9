package board

import "strings"

// Zobrist hash keys for position hashing.
// Uses PRNG with fixed seed for reproducibility.
var (
	zobristPiece      [2][7][64]uint64 // [Color][PieceType][Square]
	zobristEnPassant  [8]uint64        // One per file
	zobristCastling   [16]uint64       // All 16 castling combinations
	zobristSideToMove uint64           // XOR when black to move
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234) // Fixed seed

	// Piece keys
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}

	// En passant keys (one per file)
	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}

	// Castling keys (all 16 combinations)
	for i := 0; i < 16; i++ {
		zobristCastling[i] = rng.next()
	}

	// Side to move key
	zobristSideToMove = rng.next()
}

// Hash computes the Zobrist hash of the position from scratch. Castling
// rights enter through the moved flags of kings and home rooks.
func (b *Board) Hash() uint64 {
	var hash uint64

	// Hash pieces
	for sq, p := range b.squares {
		if p != nil {
			hash ^= zobristPiece[p.Color][p.Type][sq]
		}
	}

	// Hash side to move
	if b.SideToMove == Black {
		hash ^= zobristSideToMove
	}

	// Hash castling rights
	hash ^= zobristCastling[b.castlingIndex()]

	// Hash en passant
	if b.EnPassant != NoSquare {
		hash ^= zobristEnPassant[b.EnPassant.File()]
	}

	return hash
}

func (b *Board) castlingIndex() int {
	field, idx := b.castlingField(), 0
	for i, ch := range []byte("KQkq") {
		if strings.IndexByte(field, ch) >= 0 {
			idx |= 1 << i
		}
	}
	return idx
}
