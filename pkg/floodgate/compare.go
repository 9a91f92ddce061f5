package floodgate

import (
	"fmt"
	"slices"
	"strings"

	"floodcheck/pkg/shogi"
)

type Facet string

const (
	FacetBoard Facet = "board"
	FacetHands Facet = "hands"
	FacetSide  Facet = "side"
)

// MismatchError reports a replay that ended somewhere other than the
// recorded final position.
type MismatchError struct {
	Facets   []Facet
	Expected FinalState
	Reached  FinalState
	Record   string
}

func (e *MismatchError) Error() string {
	names := make([]string, len(e.Facets))
	for i, f := range e.Facets {
		names[i] = string(f)
	}
	return fmt.Sprintf("final state mismatch (%s)\nexpected:\n%sreached:\n%srecord:\n%s",
		strings.Join(names, ", "), e.Expected, e.Reached, e.Record)
}

// ReachedState renders pos and normalises it the same way as an
// annotation.
func ReachedState(pos *shogi.Position) (FinalState, error) {
	return ParseFinalState(pos.String())
}

// Diff lists the facets in which s and other differ.
func (s FinalState) Diff(other FinalState) []Facet {
	var facets []Facet
	if s.Board != other.Board {
		facets = append(facets, FacetBoard)
	}
	if !slices.Equal(s.Hands[shogi.Black], other.Hands[shogi.Black]) ||
		!slices.Equal(s.Hands[shogi.White], other.Hands[shogi.White]) {
		facets = append(facets, FacetHands)
	}
	if s.Side != other.Side {
		facets = append(facets, FacetSide)
	}
	return facets
}

// Compare returns a *MismatchError carrying record when the states differ.
func Compare(expected, reached FinalState, record string) error {
	facets := expected.Diff(reached)
	if len(facets) == 0 {
		return nil
	}
	return &MismatchError{Facets: facets, Expected: expected, Reached: reached, Record: record}
}
