package floodgate

import (
	"fmt"

	"go.uber.org/zap"

	"floodcheck/pkg/csa"
	"floodcheck/pkg/shogi"
)

// DefaultRepetitionLimit is the occurrence count at which replay stops.
const DefaultRepetitionLimit = 4

// RepetitionTable counts how often each position, by hash, has occurred.
type RepetitionTable struct {
	counts map[uint64]int
}

func NewRepetitionTable() *RepetitionTable {
	return &RepetitionTable{counts: make(map[uint64]int)}
}

// Seed records the start position once.
func (t *RepetitionTable) Seed(key uint64) {
	t.counts[key] = 1
}

// Increment records one more occurrence of key and returns the new count.
func (t *RepetitionTable) Increment(key uint64) int {
	t.counts[key]++
	return t.counts[key]
}

func (t *RepetitionTable) Count(key uint64) int {
	return t.counts[key]
}

// Len returns the number of distinct positions seen.
func (t *RepetitionTable) Len() int {
	return len(t.counts)
}

type options struct {
	repetitionLimit int
	logger          *zap.Logger
}

type Option func(*options)

// WithRepetitionLimit sets the occurrence count that ends a replay.
// Values below 2 are ignored.
func WithRepetitionLimit(n int) Option {
	return func(o *options) {
		if n >= 2 {
			o.repetitionLimit = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{repetitionLimit: DefaultRepetitionLimit, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ReplayResult describes how a replay ended.
type ReplayResult struct {
	// Applied is the number of moves on the board when replay stopped.
	Applied int
	// Repetition is set when replay stopped on a repeated position; the
	// move that caused it has been undone.
	Repetition bool
	// StoppedAt is the 1-based index of that action, or 0.
	StoppedAt int
	Table     *RepetitionTable
}

// IllegalMoveError reports a move the engine refused.
type IllegalMoveError struct {
	Index int    // 1-based action index
	Key   uint64 // hash of the position the move was played from
	Move  shogi.Move
	Err   error
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("action %d: %s at position %016x: %v", e.Index, e.Move, e.Key, e.Err)
}

func (e *IllegalMoveError) Unwrap() error {
	return e.Err
}

// Replay plays actions on pos in order. Non-move actions are skipped. When
// a position occurs for the repetition-limit time, the move that produced
// it is undone and replay stops. pos is left in the final state.
func Replay(pos *shogi.Position, actions []csa.Action, opts ...Option) (ReplayResult, error) {
	o := buildOptions(opts)
	table := NewRepetitionTable()
	table.Seed(pos.Key())
	result := ReplayResult{Table: table}

	var moves []shogi.Move
	for i, action := range actions {
		m, ok := TranslateAction(action, pos)
		if !ok {
			continue
		}
		before := pos.Key()
		if err := pos.DoMove(m); err != nil {
			result.Applied = len(moves)
			return result, &IllegalMoveError{Index: i + 1, Key: before, Move: m, Err: err}
		}
		moves = append(moves, m)
		o.logger.Debug("move",
			zap.Int("index", i+1),
			zap.Stringer("move", m),
			zap.String("key", fmt.Sprintf("%016x", pos.Key())),
		)
		if table.Increment(pos.Key()) >= o.repetitionLimit {
			last := moves[len(moves)-1]
			if err := pos.UndoMove(last); err != nil {
				return result, fmt.Errorf("undo %s: %w", last, err)
			}
			moves = moves[:len(moves)-1]
			result.Repetition = true
			result.StoppedAt = i + 1
			break
		}
	}
	result.Applied = len(moves)
	return result, nil
}
