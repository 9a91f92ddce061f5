package shogi

import "fmt"

type Color uint8

const (
	Black Color = iota
	White
)

// Flip returns the opponent color.
func (c Color) Flip() Color {
	return c ^ 1
}

// Sign returns the CSA side marker, "+" for Black and "-" for White.
func (c Color) Sign() string {
	if c == White {
		return "-"
	}
	return "+"
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

type PieceType uint8

const (
	NoPieceType PieceType = iota
	FU
	KY
	KE
	GI
	KI
	KA
	HI
	OU
	TO
	NY
	NK
	NG
	UM
	RY
)

const numPieceTypes = int(RY) + 1

// Hand counts are indexed by the unpromoted piece types FU..HI.
const numHandTypes = int(HI) + 1

var pieceTypeCodes = [numPieceTypes]string{
	"", "FU", "KY", "KE", "GI", "KI", "KA", "HI", "OU", "TO", "NY", "NK", "NG", "UM", "RY",
}

// handOrder is the order hand pieces are listed in CSA and SFEN output.
var handOrder = []PieceType{HI, KA, KI, GI, KE, KY, FU}

// ParsePieceType parses a two-letter CSA piece code such as "FU" or "RY".
func ParsePieceType(code string) (PieceType, bool) {
	for i, c := range pieceTypeCodes {
		if i > 0 && c == code {
			return PieceType(i), true
		}
	}
	return NoPieceType, false
}

func (t PieceType) String() string {
	if int(t) >= numPieceTypes {
		return fmt.Sprintf("PieceType(%d)", uint8(t))
	}
	return pieceTypeCodes[t]
}

func (t PieceType) CanPromote() bool {
	switch t {
	case FU, KY, KE, GI, KA, HI:
		return true
	default:
		return false
	}
}

func (t PieceType) IsPromoted() bool {
	return t >= TO && t <= RY
}

// Promoted returns the promoted form, or t itself when t cannot promote.
func (t PieceType) Promoted() PieceType {
	switch t {
	case FU:
		return TO
	case KY:
		return NY
	case KE:
		return NK
	case GI:
		return NG
	case KA:
		return UM
	case HI:
		return RY
	default:
		return t
	}
}

// Demoted returns the unpromoted form, or t itself when t is not promoted.
func (t PieceType) Demoted() PieceType {
	switch t {
	case TO:
		return FU
	case NY:
		return KY
	case NK:
		return KE
	case NG:
		return GI
	case UM:
		return KA
	case RY:
		return HI
	default:
		return t
	}
}

func isHandType(t PieceType) bool {
	return t >= FU && t <= HI
}

// Piece is a colored piece. The zero value is an empty square.
type Piece struct {
	Color Color
	Type  PieceType
}

func NewPiece(c Color, t PieceType) Piece {
	return Piece{Color: c, Type: t}
}

func (p Piece) IsEmpty() bool {
	return p.Type == NoPieceType
}

func (p Piece) Promoted() Piece {
	return Piece{Color: p.Color, Type: p.Type.Promoted()}
}

func (p Piece) Demoted() Piece {
	return Piece{Color: p.Color, Type: p.Type.Demoted()}
}

// String returns the CSA cell text, e.g. "+FU" or " * " for an empty square.
func (p Piece) String() string {
	if p.IsEmpty() {
		return " * "
	}
	return p.Color.Sign() + p.Type.String()
}

// Square is a board square numbered (file-1)*9 + (rank-1).
type Square uint8

const NumSquares = 81

func NewSquare(file, rank int) Square {
	return Square((file-1)*9 + (rank - 1))
}

func (s Square) File() int {
	return int(s)/9 + 1
}

func (s Square) Rank() int {
	return int(s)%9 + 1
}

func (s Square) String() string {
	return fmt.Sprintf("%d%d", s.File(), s.Rank())
}

func onBoard(file, rank int) bool {
	return file >= 1 && file <= 9 && rank >= 1 && rank <= 9
}
