package floodgate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"floodcheck/pkg/shogi"
)

// ErrMalformedAnnotation is returned when a final-position annotation is
// present but cannot be read.
var ErrMalformedAnnotation = errors.New("malformed final-position annotation")

// FinalState is a position in the normalised shape used for comparison:
// board rows as raw text, each side's captured pieces as sorted piece
// codes, and the side to move.
type FinalState struct {
	Board [9]string
	Hands [2][]string
	Side  shogi.Color
}

func (s FinalState) String() string {
	var b strings.Builder
	for _, row := range s.Board {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	for c := shogi.Black; c <= shogi.White; c++ {
		fmt.Fprintf(&b, "P%s %s\n", c.Sign(), strings.Join(s.Hands[c], " "))
	}
	b.WriteString(s.Side.Sign())
	b.WriteByte('\n')
	return b.String()
}

// ExtractExpected finds the final-position annotation in a record: the
// comment lines from "'P1" through the first "'+" or "'-". ok is false when
// the record has none.
func ExtractExpected(text string) (state FinalState, ok bool, err error) {
	lines := splitLines(text)
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "'P1") {
			start = i
			break
		}
	}
	if start < 0 {
		return FinalState{}, false, nil
	}

	var block []string
	closed := false
	for _, line := range lines[start:] {
		if !strings.HasPrefix(line, "'") {
			break
		}
		block = append(block, line[1:])
		if line == "'+" || line == "'-" {
			closed = true
			break
		}
	}
	if !closed {
		return FinalState{}, true, fmt.Errorf("%w: no side-to-move line after 'P1", ErrMalformedAnnotation)
	}
	state, err = ParseFinalState(strings.Join(block, "\n"))
	if err != nil {
		return FinalState{}, true, err
	}
	return state, true, nil
}

// ParseFinalState normalises a CSA position block: nine board rows, the
// "P+" and "P-" hand lines and a final "+" or "-" line. Empty lines are
// ignored.
func ParseFinalState(block string) (FinalState, error) {
	var lines []string
	for _, line := range splitLines(block) {
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 10 {
		return FinalState{}, fmt.Errorf("%w: %d lines, need nine rows and a side", ErrMalformedAnnotation, len(lines))
	}

	var state FinalState
	copy(state.Board[:], lines[:9])
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "P+"):
			state.Hands[shogi.Black] = append(state.Hands[shogi.Black], handTokens(line)...)
		case strings.HasPrefix(line, "P-"):
			state.Hands[shogi.White] = append(state.Hands[shogi.White], handTokens(line)...)
		}
	}
	for c := range state.Hands {
		sort.Strings(state.Hands[c])
	}

	switch last := lines[len(lines)-1]; last {
	case "+":
		state.Side = shogi.Black
	case "-":
		state.Side = shogi.White
	default:
		return FinalState{}, fmt.Errorf("%w: last line %q is not a side to move", ErrMalformedAnnotation, last)
	}
	return state, nil
}

// handTokens returns the piece code of every 4-character "00XX" token
// after the 2-character header.
func handTokens(line string) []string {
	var pieces []string
	for i := 2; i+4 <= len(line); i += 4 {
		pieces = append(pieces, line[i+2:i+4])
	}
	return pieces
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines
}
