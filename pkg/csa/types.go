package csa

import (
	"fmt"
	"time"

	"floodcheck/pkg/shogi"
)

type ActionKind int

const (
	Move ActionKind = iota
	Toryo
	Chudan
	Sennichite
	TimeUp
	IllegalMove
	IllegalActionBlack
	IllegalActionWhite
	Jishogi
	Kachi
	Hikiwake
	Matta
	Tsumi
	Fuzumi
	Error
)

var specialNames = map[string]ActionKind{
	"%TORYO":           Toryo,
	"%CHUDAN":          Chudan,
	"%SENNICHITE":      Sennichite,
	"%TIME_UP":         TimeUp,
	"%ILLEGAL_MOVE":    IllegalMove,
	"%+ILLEGAL_ACTION": IllegalActionBlack,
	"%-ILLEGAL_ACTION": IllegalActionWhite,
	"%JISHOGI":         Jishogi,
	"%KACHI":           Kachi,
	"%HIKIWAKE":        Hikiwake,
	"%MATTA":           Matta,
	"%TSUMI":           Tsumi,
	"%FUZUMI":          Fuzumi,
	"%ERROR":           Error,
}

func (k ActionKind) String() string {
	if k == Move {
		return "move"
	}
	for name, kind := range specialNames {
		if kind == k {
			return name
		}
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Square is a board coordinate as written in a record. The zero value is
// the "00" origin of a drop.
type Square struct {
	File int
	Rank int
}

func (s Square) IsZero() bool {
	return s == Square{}
}

func (s Square) String() string {
	return fmt.Sprintf("%d%d", s.File, s.Rank)
}

// Action is one entry of the move list. For a move, Piece is the piece as
// it stands after the move; a dropped piece has a zero From.
type Action struct {
	Kind  ActionKind
	Color shogi.Color
	From  Square
	To    Square
	Piece shogi.PieceType
}

func (a Action) IsDrop() bool {
	return a.Kind == Move && a.From.IsZero()
}

func (a Action) String() string {
	if a.Kind != Move {
		return a.Kind.String()
	}
	return a.Color.Sign() + a.From.String() + a.To.String() + a.Piece.String()
}

// MoveRecord is an action and the time consumed for it, when recorded.
type MoveRecord struct {
	Action Action
	Time   time.Duration
}

// Cell is one square of a start position; an empty square has
// shogi.NoPieceType.
type Cell struct {
	Color shogi.Color
	Piece shogi.PieceType
}

// InitialPosition is the position the record starts from.
type InitialPosition struct {
	Board [9][9]Cell // [rank-1][file-1]
	Hands [2][]shogi.PieceType
	Side  shogi.Color
}

func (p *InitialPosition) cell(file, rank int) *Cell {
	return &p.Board[rank-1][file-1]
}

type Record struct {
	Version string
	Names   [2]string
	Info    map[string]string
	Start   InitialPosition
	Moves   []MoveRecord
}

// Actions returns the move list without timing.
func (r *Record) Actions() []Action {
	actions := make([]Action, len(r.Moves))
	for i, m := range r.Moves {
		actions[i] = m.Action
	}
	return actions
}

// ParseError reports the line a record could not be parsed at.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csa: line %d: %s: %q", e.Line, e.Msg, e.Text)
}
