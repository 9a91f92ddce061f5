package csa

import (
	"strconv"
	"strings"
	"time"

	"floodcheck/pkg/shogi"
)

// Standard piece counts, used to resolve "00AL" hand tokens.
var fullSet = map[shogi.PieceType]int{
	shogi.FU: 18, shogi.KY: 4, shogi.KE: 4, shogi.GI: 4,
	shogi.KI: 4, shogi.KA: 2, shogi.HI: 2,
}

type parser struct {
	rec      *Record
	line     int
	text     string
	rowsSeen bool
	alColor  *shogi.Color
}

// Parse parses CSA record text. Comment lines are ignored, including the
// final-position annotation some servers append.
func Parse(text string) (*Record, error) {
	p := &parser{rec: &Record{Info: map[string]string{}}}
	for i, raw := range strings.Split(text, "\n") {
		p.line = i + 1
		line := strings.TrimRight(raw, "\r")
		if strings.HasPrefix(line, "'") {
			continue
		}
		for _, stmt := range strings.Split(line, ",") {
			p.text = stmt
			if err := p.statement(strings.TrimRight(stmt, " \t")); err != nil {
				return nil, err
			}
		}
	}
	if !p.rowsSeen {
		p.text = ""
		return nil, p.fail("record has no start position")
	}
	if p.alColor != nil {
		p.fillRemaining(*p.alColor)
	}
	return p.rec, nil
}

func (p *parser) fail(msg string) error {
	return &ParseError{Line: p.line, Text: p.text, Msg: msg}
}

func (p *parser) statement(s string) error {
	switch {
	case s == "":
		return nil
	case s[0] == 'V':
		p.rec.Version = s[1:]
		return nil
	case strings.HasPrefix(s, "N+"):
		p.rec.Names[shogi.Black] = s[2:]
		return nil
	case strings.HasPrefix(s, "N-"):
		p.rec.Names[shogi.White] = s[2:]
		return nil
	case s[0] == '$':
		key, value, ok := strings.Cut(s[1:], ":")
		if !ok {
			return p.fail("info line without ':'")
		}
		p.rec.Info[key] = value
		return nil
	case strings.HasPrefix(s, "PI"):
		return p.hirate(s[2:])
	case len(s) >= 2 && s[0] == 'P' && s[1] >= '1' && s[1] <= '9':
		return p.row(int(s[1]-'0'), s[2:])
	case strings.HasPrefix(s, "P+"):
		return p.placements(shogi.Black, s[2:])
	case strings.HasPrefix(s, "P-"):
		return p.placements(shogi.White, s[2:])
	case s == "+" || s == "-":
		if len(p.rec.Moves) > 0 {
			return p.fail("side to move after the move list")
		}
		p.rec.Start.Side = colorOf(s[0])
		return nil
	case s[0] == '+' || s[0] == '-':
		return p.move(s)
	case s[0] == 'T':
		return p.moveTime(s[1:])
	case s[0] == '%':
		return p.special(s)
	default:
		return p.fail("unknown statement")
	}
}

func colorOf(sign byte) shogi.Color {
	if sign == '-' {
		return shogi.White
	}
	return shogi.Black
}

// hirate sets the standard opening, minus any "XXPP" pieces listed.
func (p *parser) hirate(rest string) error {
	start := &p.rec.Start
	for rank := 1; rank <= 9; rank++ {
		for file := 1; file <= 9; file++ {
			*start.cell(file, rank) = Cell{}
		}
	}
	back := []shogi.PieceType{shogi.KY, shogi.KE, shogi.GI, shogi.KI, shogi.OU, shogi.KI, shogi.GI, shogi.KE, shogi.KY}
	for i, t := range back {
		*start.cell(9-i, 1) = Cell{Color: shogi.White, Piece: t}
		*start.cell(9-i, 9) = Cell{Color: shogi.Black, Piece: t}
	}
	for file := 1; file <= 9; file++ {
		*start.cell(file, 3) = Cell{Color: shogi.White, Piece: shogi.FU}
		*start.cell(file, 7) = Cell{Color: shogi.Black, Piece: shogi.FU}
	}
	*start.cell(8, 2) = Cell{Color: shogi.White, Piece: shogi.HI}
	*start.cell(2, 2) = Cell{Color: shogi.White, Piece: shogi.KA}
	*start.cell(8, 8) = Cell{Color: shogi.Black, Piece: shogi.KA}
	*start.cell(2, 8) = Cell{Color: shogi.Black, Piece: shogi.HI}

	if len(rest)%4 != 0 {
		return p.fail("PI removals must be 4 characters each")
	}
	for i := 0; i < len(rest); i += 4 {
		sq, ok := parseSquare(rest[i : i+2])
		if !ok || sq.IsZero() {
			return p.fail("bad square in PI")
		}
		t, ok := shogi.ParsePieceType(rest[i+2 : i+4])
		if !ok || start.cell(sq.File, sq.Rank).Piece != t {
			return p.fail("PI removes a piece that is not there")
		}
		*start.cell(sq.File, sq.Rank) = Cell{}
	}
	p.rowsSeen = true
	return nil
}

// row parses "P1-KY-KE..." with nine 3-character cells, file 9 first.
func (p *parser) row(rank int, cells string) error {
	if len(cells) < 27 {
		// Trailing blanks of an empty last cell are often trimmed.
		cells += strings.Repeat(" ", 27-len(cells))
	}
	if len(cells) != 27 {
		return p.fail("board row must have nine cells")
	}
	for i := 0; i < 9; i++ {
		text := cells[i*3 : i*3+3]
		file := 9 - i
		if text == " * " {
			*p.rec.Start.cell(file, rank) = Cell{}
			continue
		}
		if text[0] != '+' && text[0] != '-' {
			return p.fail("bad board cell " + strconv.Quote(text))
		}
		t, ok := shogi.ParsePieceType(text[1:])
		if !ok {
			return p.fail("unknown piece " + strconv.Quote(text[1:]))
		}
		*p.rec.Start.cell(file, rank) = Cell{Color: colorOf(text[0]), Piece: t}
	}
	p.rowsSeen = true
	return nil
}

// placements parses "P+00KA5955OU..." tokens: a square (00 for the hand)
// and a piece code, or "00AL" for every remaining piece.
func (p *parser) placements(c shogi.Color, tokens string) error {
	if len(tokens)%4 != 0 {
		return p.fail("placement tokens must be 4 characters each")
	}
	for i := 0; i < len(tokens); i += 4 {
		tok := tokens[i : i+4]
		if tok == "00AL" {
			color := c
			p.alColor = &color
			continue
		}
		sq, ok := parseSquare(tok[:2])
		if !ok {
			return p.fail("bad square " + strconv.Quote(tok[:2]))
		}
		t, ok := shogi.ParsePieceType(tok[2:])
		if !ok {
			return p.fail("unknown piece " + strconv.Quote(tok[2:]))
		}
		if sq.IsZero() {
			if _, ok := fullSet[t]; !ok {
				return p.fail("piece cannot be held in hand")
			}
			p.rec.Start.Hands[c] = append(p.rec.Start.Hands[c], t)
			continue
		}
		*p.rec.Start.cell(sq.File, sq.Rank) = Cell{Color: c, Piece: t}
	}
	return nil
}

// fillRemaining gives c every piece not already on the board or in a hand.
func (p *parser) fillRemaining(c shogi.Color) {
	left := make(map[shogi.PieceType]int, len(fullSet))
	for t, n := range fullSet {
		left[t] = n
	}
	start := &p.rec.Start
	for rank := 0; rank < 9; rank++ {
		for file := 0; file < 9; file++ {
			if t := start.Board[rank][file].Piece; t != shogi.NoPieceType {
				left[t.Demoted()]--
			}
		}
	}
	for _, hand := range start.Hands {
		for _, t := range hand {
			left[t]--
		}
	}
	for _, t := range []shogi.PieceType{shogi.HI, shogi.KA, shogi.KI, shogi.GI, shogi.KE, shogi.KY, shogi.FU} {
		for i := 0; i < left[t]; i++ {
			start.Hands[c] = append(start.Hands[c], t)
		}
	}
}

func parseSquare(s string) (Square, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return Square{}, false
	}
	sq := Square{File: int(s[0] - '0'), Rank: int(s[1] - '0')}
	if (sq.File == 0) != (sq.Rank == 0) {
		return Square{}, false
	}
	return sq, true
}

// move parses "+7776FU".
func (p *parser) move(s string) error {
	if len(s) != 7 {
		return p.fail("move must be 7 characters")
	}
	from, ok := parseSquare(s[1:3])
	if !ok {
		return p.fail("bad origin square")
	}
	to, ok := parseSquare(s[3:5])
	if !ok || to.IsZero() {
		return p.fail("bad destination square")
	}
	t, ok := shogi.ParsePieceType(s[5:7])
	if !ok {
		return p.fail("unknown piece " + strconv.Quote(s[5:7]))
	}
	p.rec.Moves = append(p.rec.Moves, MoveRecord{Action: Action{
		Kind:  Move,
		Color: colorOf(s[0]),
		From:  from,
		To:    to,
		Piece: t,
	}})
	return nil
}

// moveTime parses "T12", the seconds spent on the preceding action.
func (p *parser) moveTime(s string) error {
	if len(p.rec.Moves) == 0 {
		return p.fail("time without a preceding move")
	}
	secs, err := strconv.Atoi(s)
	if err != nil || secs < 0 {
		return p.fail("bad time")
	}
	p.rec.Moves[len(p.rec.Moves)-1].Time = time.Duration(secs) * time.Second
	return nil
}

// special parses "%TORYO" and friends. The acting side is the side to
// move at that point of the game.
func (p *parser) special(s string) error {
	kind, ok := specialNames[s]
	if !ok {
		return p.fail("unknown special move")
	}
	side := p.rec.Start.Side
	if len(p.rec.Moves)%2 == 1 {
		side = side.Flip()
	}
	p.rec.Moves = append(p.rec.Moves, MoveRecord{Action: Action{Kind: kind, Color: side}})
	return nil
}
