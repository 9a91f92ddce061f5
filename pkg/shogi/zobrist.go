package shogi

import "math/rand"

// maxHandCount bounds hand counts; 18 pawns is the largest possible hand.
const maxHandCount = 18

var zobristBoard [2][numPieceTypes][NumSquares]uint64
var zobristHand [2][numHandTypes][maxHandCount + 1]uint64
var zobristSide uint64 // xor'ed in when White is to move

func init() {
	initZobrist()
}

func initZobrist() {
	// Fixed seed so keys are stable across runs and in test output.
	rnd := rand.New(rand.NewSource(0x5A0F1C))

	for c := 0; c < 2; c++ {
		for t := 1; t < numPieceTypes; t++ {
			for sq := 0; sq < NumSquares; sq++ {
				zobristBoard[c][t][sq] = rnd.Uint64()
			}
		}
	}
	for c := 0; c < 2; c++ {
		for t := int(FU); t < numHandTypes; t++ {
			for n := 0; n <= maxHandCount; n++ {
				zobristHand[c][t][n] = rnd.Uint64()
			}
		}
	}
	zobristSide = rnd.Uint64()
}

// ComputeZobrist recomputes the hash from scratch. Key() is maintained
// incrementally and always equals this value.
func (p *Position) ComputeZobrist() uint64 {
	var key uint64
	for sq := Square(0); sq < NumSquares; sq++ {
		pc := p.PieceOn(sq)
		if !pc.IsEmpty() {
			key ^= zobristBoard[pc.Color][pc.Type][sq]
		}
	}
	for c := Black; c <= White; c++ {
		for t := FU; t <= HI; t++ {
			key ^= zobristHand[c][t][p.hands[c][t]]
		}
	}
	if p.turn == White {
		key ^= zobristSide
	}
	return key
}
