// Package game plays a fixed set of weighted dice together and records the
// outcome table of the most recent play.
package game

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/montecarlo/internal/game/dice"
)

var (
	// ErrInvalidArgument is returned for an empty dice list, a non-positive
	// roll count or an unsupported table form.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoResultsYet is returned when results are read before any successful play.
	ErrNoResultsYet = errors.New("no results yet")
)

// Option configures a Game.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	workers int
	seed    *int64
}

// WithLogger sets the logger used for play events.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithWorkers bounds how many dice roll concurrently during Play. Defaults to
// GOMAXPROCS. Dice sharing one Source always roll one after another, in
// position order, whatever the worker count.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithSeed makes every play reproducible: each Play derives one seeded
// stream per die position from a game-level stream seeded with seed, ignoring
// the dice's own sources.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = &seed }
}

// Game rolls an ordered list of dice together.
//
// Invariant: len(dice) >= 1. Once a play succeeds, results has exactly
// numRolls rows and len(dice) columns, and column j holds outcomes of dice[j].
type Game[F cmp.Ordered] struct {
	dice    []*dice.Die[F]
	logger  *zap.Logger
	workers int
	seeds   *dice.SeededSource

	// playMu serializes plays so seed derivation happens in call order.
	playMu sync.Mutex

	mu      sync.RWMutex
	results WideTable[F]
	playID  uuid.UUID
}

// New creates a Game over ds. Dice are not required to share a face set.
//
// Precondition: ds must be non-empty and contain no nil dice.
// Postcondition: Returns a Game with no results, or an error wrapping
// ErrInvalidArgument.
func New[F cmp.Ordered](ds []*dice.Die[F], opts ...Option) (*Game[F], error) {
	if len(ds) == 0 {
		return nil, fmt.Errorf("game: %w: must provide a non-empty list of dice", ErrInvalidArgument)
	}
	for i, d := range ds {
		if d == nil {
			return nil, fmt.Errorf("game: %w: die %d is nil", ErrInvalidArgument, i)
		}
	}

	o := options{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		return nil, fmt.Errorf("game: %w: workers must be >= 1, got %d", ErrInvalidArgument, o.workers)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	g := &Game[F]{
		dice:    append([]*dice.Die[F](nil), ds...),
		logger:  o.logger,
		workers: o.workers,
	}
	if o.seed != nil {
		g.seeds = dice.NewSeededSource(*o.seed)
	}
	return g, nil
}

// Play rolls every die n times and replaces the stored results.
//
// Precondition: n > 0.
// Postcondition: On success the results table has n rows and one column per
// die. On error the previous results, if any, are unchanged; the error wraps
// ErrInvalidArgument or the failing die's error (e.g. dice.ErrInvalidState).
func (g *Game[F]) Play(n int) error {
	if n <= 0 {
		return fmt.Errorf("game: %w: number of rolls must be a positive integer, got %d", ErrInvalidArgument, n)
	}

	g.playMu.Lock()
	defer g.playMu.Unlock()

	start := time.Now()

	sources := make([]dice.Source, len(g.dice))
	for j, d := range g.dice {
		if g.seeds != nil {
			sources[j] = dice.NewSeededSource(g.seeds.Int64())
		} else {
			sources[j] = d.Source()
		}
	}

	columns := make([][]F, len(g.dice))
	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for _, group := range groupBySource(sources) {
		eg.Go(func() error {
			// Dice sharing a source roll in position order so a seeded
			// shared stream is consumed deterministically.
			for _, j := range group {
				out, err := g.dice[j].RollWith(n, sources[j])
				if err != nil {
					return fmt.Errorf("game: rolling die %d: %w", j, err)
				}
				columns[j] = out
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	table := make(WideTable[F], n)
	for i := range table {
		row := make([]F, len(columns))
		for j, col := range columns {
			row[j] = col[i]
		}
		table[i] = row
	}
	id := uuid.New()

	g.mu.Lock()
	g.results = table
	g.playID = id
	g.mu.Unlock()

	g.logger.Debug("game played",
		zap.String("play_id", id.String()),
		zap.Int("rolls", n),
		zap.Int("dice", len(g.dice)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// groupBySource partitions die positions by shared Source, in order of first
// position. Sources whose dynamic type is not comparable get their own group.
func groupBySource(sources []dice.Source) [][]int {
	var groups [][]int
	index := make(map[dice.Source]int)
	for j, src := range sources {
		if reflect.TypeOf(src).Comparable() {
			if k, ok := index[src]; ok {
				groups[k] = append(groups[k], j)
				continue
			}
			index[src] = len(groups)
		}
		groups = append(groups, []int{j})
	}
	return groups
}

// Show returns a copy of the most recent results in the requested form.
//
// Postcondition: Returns ErrNoResultsYet before the first successful play,
// whatever the form, and ErrInvalidArgument for an unknown form. The returned table never aliases
// internal state.
func (g *Game[F]) Show(form Form) (Table[F], error) {
	switch form {
	case FormWide:
		w, err := g.Wide()
		if err != nil {
			return nil, err
		}
		return w, nil
	case FormNarrow:
		n, err := g.Narrow()
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		g.mu.RLock()
		played := g.results != nil
		g.mu.RUnlock()
		if !played {
			return nil, fmt.Errorf("game: %w: no game has been played yet", ErrNoResultsYet)
		}
		return nil, fmt.Errorf("game: %w: form must be %q or %q, got %q", ErrInvalidArgument, FormWide, FormNarrow, form)
	}
}

// Wide returns a copy of the most recent results with one row per roll.
func (g *Game[F]) Wide() (WideTable[F], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.results == nil {
		return nil, fmt.Errorf("game: %w: no game has been played yet", ErrNoResultsYet)
	}
	return g.results.Clone(), nil
}

// Narrow returns the most recent results with one row per (roll, die) pair.
func (g *Game[F]) Narrow() (NarrowTable[F], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.results == nil {
		return nil, fmt.Errorf("game: %w: no game has been played yet", ErrNoResultsYet)
	}
	return g.results.Narrow(), nil
}

// PlayID identifies the most recent successful play; uuid.Nil before the
// first one.
func (g *Game[F]) PlayID() uuid.UUID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.playID
}

// Dice returns a copy of the game's dice list. The dice themselves are shared.
func (g *Game[F]) Dice() []*dice.Die[F] {
	return append([]*dice.Die[F](nil), g.dice...)
}

// NumDice returns the number of dice in the game.
func (g *Game[F]) NumDice() int {
	return len(g.dice)
}
