package scenario

import (
	"cmp"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/montecarlo/internal/game"
	"github.com/cory-johannsen/montecarlo/internal/game/analysis"
	"github.com/cory-johannsen/montecarlo/internal/game/dice"
)

// RunOptions holds the defaults a scenario falls back on.
type RunOptions struct {
	// DefaultRolls is used when the scenario's Rolls is 0.
	DefaultRolls int
	// Workers bounds concurrent die rolls; 0 keeps the game default.
	Workers int
	// Seed seeds the play when the scenario has no seed; nil means unseeded.
	Seed *int64
	// Logger receives run events; nil disables logging.
	Logger *zap.Logger
}

// Tally is one distinct outcome tuple and its number of rolls.
type Tally struct {
	Outcome []string
	Count   int
}

// FaceTally is one face and its number of occurrences.
type FaceTally struct {
	Face  string
	Count int
}

// Report summarizes one scenario play with faces rendered as strings.
type Report struct {
	ScenarioID   string
	Name         string
	PlayID       uuid.UUID
	Rolls        int
	Dice         int
	Jackpot      int
	FaceTotals   []FaceTally
	Combinations []Tally
	Permutations []Tally
}

// Run builds the scenario's dice, plays them once and analyzes the result.
//
// Precondition: s must not be nil; opts.DefaultRolls must be > 0 when s.Rolls is 0.
// Postcondition: Returns a Report whose Combinations and Permutations counts
// each sum to Rolls, or an error.
func Run(s *Scenario, opts RunOptions) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	kind, err := s.ResolvedKind()
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindInt:
		return run(s, opts, strconv.Atoi)
	case KindFloat:
		return run(s, opts, func(f string) (float64, error) { return strconv.ParseFloat(f, 64) })
	default:
		return run(s, opts, func(f string) (string, error) { return f, nil })
	}
}

func run[F cmp.Ordered](s *Scenario, opts RunOptions, parse func(string) (F, error)) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("scenario", s.ID))

	rolls := s.Rolls
	if rolls == 0 {
		rolls = opts.DefaultRolls
	}

	ds, err := buildDice(s, parse, logger)
	if err != nil {
		return nil, err
	}

	gameOpts := []game.Option{game.WithLogger(logger)}
	if opts.Workers > 0 {
		gameOpts = append(gameOpts, game.WithWorkers(opts.Workers))
	}
	switch {
	case s.Seed != nil:
		gameOpts = append(gameOpts, game.WithSeed(*s.Seed))
	case opts.Seed != nil:
		gameOpts = append(gameOpts, game.WithSeed(*opts.Seed))
	}

	g, err := game.New(ds, gameOpts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.ID, err)
	}
	if err := g.Play(rolls); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.ID, err)
	}
	a, err := analysis.New(g)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.ID, err)
	}

	report := &Report{
		ScenarioID:   s.ID,
		Name:         s.Name,
		PlayID:       a.PlayID(),
		Rolls:        a.Rolls(),
		Dice:         g.NumDice(),
		Jackpot:      a.Jackpot(),
		Combinations: tallies(a.ComboCount()),
		Permutations: tallies(a.PermutationCount()),
	}
	for _, ft := range a.FaceTotals() {
		report.FaceTotals = append(report.FaceTotals, FaceTally{Face: fmt.Sprint(ft.Face), Count: ft.Count})
	}

	logger.Info("scenario run",
		zap.String("play_id", report.PlayID.String()),
		zap.Int("rolls", report.Rolls),
		zap.Int("dice", report.Dice),
		zap.Int("jackpots", report.Jackpot),
		zap.Int("combinations", len(report.Combinations)),
		zap.Int("permutations", len(report.Permutations)),
	)
	return report, nil
}

func buildDice[F cmp.Ordered](s *Scenario, parse func(string) (F, error), logger *zap.Logger) ([]*dice.Die[F], error) {
	var ds []*dice.Die[F]
	for i, spec := range s.Dice {
		faces := make([]F, len(spec.Faces))
		for k, raw := range spec.Faces {
			f, err := parse(raw)
			if err != nil {
				return nil, fmt.Errorf("scenario %q: dice[%d] face %q: %w", s.ID, i, raw, err)
			}
			faces[k] = f
		}
		for range max(spec.Count, 1) {
			d, err := dice.New(faces, dice.WithLogger(logger))
			if err != nil {
				return nil, fmt.Errorf("scenario %q: dice[%d]: %w", s.ID, i, err)
			}
			for raw, w := range spec.Weights {
				f, err := parse(raw)
				if err != nil {
					return nil, fmt.Errorf("scenario %q: dice[%d] weight face %q: %w", s.ID, i, raw, err)
				}
				if err := d.SetWeight(f, w); err != nil {
					return nil, fmt.Errorf("scenario %q: dice[%d]: %w", s.ID, i, err)
				}
			}
			ds = append(ds, d)
		}
	}
	return ds, nil
}

func tallies[F cmp.Ordered](counts []analysis.OutcomeCount[F]) []Tally {
	out := make([]Tally, len(counts))
	for i, c := range counts {
		outcome := make([]string, len(c.Outcome))
		for k, v := range c.Outcome {
			outcome[k] = fmt.Sprint(v)
		}
		out[i] = Tally{Outcome: outcome, Count: c.Count}
	}
	return out
}
