package shogi

import (
	"errors"
	"fmt"
)

// Packed256 is a 256-bit encoding of a position holding the full set of
// forty pieces. Equal positions pack to equal values, so it can be used as
// a map key where a hash collision would matter.
type Packed256 struct {
	Words [4]uint64
}

func (p Packed256) String() string {
	return fmt.Sprintf("%016x%016x%016x%016x", p.Words[3], p.Words[2], p.Words[1], p.Words[0])
}

var (
	errBitOverflow  = errors.New("bitstream overflow")
	errBitUnderflow = errors.New("bitstream underflow")
	errInvalidCode  = errors.New("invalid piece code")
)

type huffCode struct {
	bits uint64
	n    int
}

// Indexed by unpromoted piece type; entry 0 of boardCodes is the empty
// square. A promotion bit follows every promotable piece.
var boardCodes = [numHandTypes]huffCode{
	{0b0, 1},
	FU: {0b01, 2},
	KY: {0b0011, 4},
	KE: {0b1011, 4},
	GI: {0b0111, 4},
	KI: {0b01111, 5},
	KA: {0b011111, 6},
	HI: {0b111111, 6},
}

var handCodes = [numHandTypes]huffCode{
	FU: {0b0, 1},
	KY: {0b001, 3},
	KE: {0b101, 3},
	GI: {0b011, 3},
	KI: {0b0111, 4},
	KA: {0b01111, 5},
	HI: {0b11111, 5},
}

type bitWriter struct {
	words [4]uint64
	pos   int
	err   error
}

func (w *bitWriter) writeBit(bit bool) {
	if w.err != nil {
		return
	}
	if w.pos >= 256 {
		w.err = errBitOverflow
		return
	}
	if bit {
		w.words[w.pos/64] |= 1 << uint(w.pos%64)
	}
	w.pos++
}

func (w *bitWriter) writeBits(value uint64, n int) {
	for i := 0; i < n; i++ {
		w.writeBit((value>>i)&1 == 1)
	}
}

func (w *bitWriter) writeCode(c huffCode) {
	w.writeBits(c.bits, c.n)
}

type bitReader struct {
	words [4]uint64
	pos   int
	err   error
}

func (r *bitReader) readBit() bool {
	if r.err != nil {
		return false
	}
	if r.pos >= 256 {
		r.err = errBitUnderflow
		return false
	}
	bit := (r.words[r.pos/64]>>uint(r.pos%64))&1 == 1
	r.pos++
	return bit
}

func (r *bitReader) readBits(n int) uint64 {
	var value uint64
	for i := 0; i < n; i++ {
		if r.readBit() {
			value |= 1 << i
		}
	}
	return value
}

// readCode returns the index into table of the next code.
func (r *bitReader) readCode(table *[numHandTypes]huffCode) int {
	var value uint64
	for n := 1; n <= 6; n++ {
		if r.readBit() {
			value |= 1 << (n - 1)
		}
		if r.err != nil {
			return -1
		}
		for i, c := range table {
			if c.n == n && c.bits == value {
				return i
			}
		}
	}
	r.err = errInvalidCode
	return -1
}

// Pack encodes the position: side to move, both king squares, every other
// square, then the hand pieces. It fails unless exactly forty pieces with
// one king per side are present.
func (p *Position) Pack() (Packed256, error) {
	var w bitWriter
	w.writeBit(p.turn == White)

	var kings [2]Square
	for c := Black; c <= White; c++ {
		sq, ok := p.kingSquare(c)
		if !ok {
			return Packed256{}, fmt.Errorf("pack: missing %s king", c)
		}
		kings[c] = sq
		w.writeBits(uint64(sq), 7)
	}

	for sq := Square(0); sq < NumSquares; sq++ {
		if sq == kings[Black] || sq == kings[White] {
			continue
		}
		pc := p.PieceOn(sq)
		if pc.IsEmpty() {
			w.writeCode(boardCodes[0])
			continue
		}
		if pc.Type == OU {
			return Packed256{}, fmt.Errorf("pack: extra king on %s", sq)
		}
		base := pc.Type.Demoted()
		w.writeCode(boardCodes[base])
		w.writeBit(pc.Color == White)
		if base.CanPromote() {
			w.writeBit(pc.Type.IsPromoted())
		}
	}

	for c := Black; c <= White; c++ {
		for t := FU; t <= HI; t++ {
			for i := 0; i < p.hands[c][t]; i++ {
				w.writeCode(handCodes[t])
				w.writeBit(c == White)
				if t.CanPromote() {
					w.writeBit(false)
				}
			}
		}
	}

	if w.err != nil {
		return Packed256{}, fmt.Errorf("pack: %w", w.err)
	}
	if w.pos != 256 {
		return Packed256{}, fmt.Errorf("pack: %d bits written, expected 256", w.pos)
	}
	return Packed256{Words: w.words}, nil
}

// Unpack decodes a value produced by Pack.
func Unpack(packed Packed256) (*Position, error) {
	r := &bitReader{words: packed.Words}
	pos := NewEmptyPosition()
	if r.readBit() {
		pos.SetSideToMove(White)
	}

	blackKing := Square(r.readBits(7))
	whiteKing := Square(r.readBits(7))
	if blackKing >= NumSquares || whiteKing >= NumSquares || blackKing == whiteKing {
		return nil, fmt.Errorf("unpack: bad king squares %d, %d", blackKing, whiteKing)
	}
	pos.Put(blackKing, Piece{Color: Black, Type: OU})
	pos.Put(whiteKing, Piece{Color: White, Type: OU})

	for sq := Square(0); sq < NumSquares; sq++ {
		if sq == blackKing || sq == whiteKing {
			continue
		}
		idx := r.readCode(&boardCodes)
		if r.err != nil {
			return nil, fmt.Errorf("unpack: square %s: %w", sq, r.err)
		}
		if idx == 0 {
			continue
		}
		t := PieceType(idx)
		c := Black
		if r.readBit() {
			c = White
		}
		if t.CanPromote() && r.readBit() {
			t = t.Promoted()
		}
		pos.Put(sq, Piece{Color: c, Type: t})
	}

	for r.pos < 256 {
		idx := r.readCode(&handCodes)
		c := Black
		if r.readBit() {
			c = White
		}
		t := PieceType(idx)
		if t.CanPromote() && r.readBit() {
			return nil, fmt.Errorf("unpack: promoted %s in hand", t)
		}
		if r.err != nil {
			return nil, fmt.Errorf("unpack: hand: %w", r.err)
		}
		if err := pos.SetHand(c, t, pos.Hand(c, t)+1); err != nil {
			return nil, fmt.Errorf("unpack: %w", err)
		}
	}
	return pos, nil
}
