// Package analysis computes descriptive statistics over one play of a game.
package analysis

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/cory-johannsen/montecarlo/internal/game"
)

// ErrInvalidArgument is returned when an Analyzer cannot be built from its input.
var ErrInvalidArgument = errors.New("invalid argument")

// Analyzer is a read-only snapshot of one play.
//
// Invariant: results is a private copy; later plays of the source game are
// not observed.
type Analyzer[F cmp.Ordered] struct {
	results game.WideTable[F]
	playID  uuid.UUID
}

// New snapshots the most recent results of g.
//
// Precondition: g must be non-nil and have completed at least one play.
// Postcondition: Returns an Analyzer, or an error wrapping ErrInvalidArgument
// (and game.ErrNoResultsYet when g has not been played).
func New[F cmp.Ordered](g *game.Game[F]) (*Analyzer[F], error) {
	if g == nil {
		return nil, fmt.Errorf("analysis: %w: game must not be nil", ErrInvalidArgument)
	}
	wide, err := g.Wide()
	if err != nil {
		return nil, fmt.Errorf("analysis: %w: %w", ErrInvalidArgument, err)
	}
	return &Analyzer[F]{results: wide, playID: g.PlayID()}, nil
}

// FromTable builds an Analyzer over a copy of w.
//
// Precondition: w must have at least one row, every row the same non-zero
// length, and no NaN cells.
func FromTable[F cmp.Ordered](w game.WideTable[F]) (*Analyzer[F], error) {
	if len(w) == 0 {
		return nil, fmt.Errorf("analysis: %w: table has no rows", ErrInvalidArgument)
	}
	width := len(w[0])
	if width == 0 {
		return nil, fmt.Errorf("analysis: %w: table has no columns", ErrInvalidArgument)
	}
	for i, row := range w {
		if len(row) != width {
			return nil, fmt.Errorf("analysis: %w: row %d has %d columns, want %d", ErrInvalidArgument, i, len(row), width)
		}
		for j, v := range row {
			if v != v { // NaN
				return nil, fmt.Errorf("analysis: %w: cell (%d, %d) is NaN", ErrInvalidArgument, i, j)
			}
		}
	}
	return &Analyzer[F]{results: w.Clone()}, nil
}

// Results returns a copy of the snapshot.
func (a *Analyzer[F]) Results() game.WideTable[F] {
	return a.results.Clone()
}

// PlayID is the play the snapshot was taken from; uuid.Nil for FromTable.
func (a *Analyzer[F]) PlayID() uuid.UUID {
	return a.playID
}

// Rolls returns the number of rolls in the snapshot.
func (a *Analyzer[F]) Rolls() int {
	return len(a.results)
}

// Jackpot counts the rolls on which every die showed the same face.
//
// Postcondition: 0 <= result <= Rolls(); equals Rolls() for a single die.
func (a *Analyzer[F]) Jackpot() int {
	n := 0
	for _, row := range a.results {
		if allEqual(row) {
			n++
		}
	}
	return n
}

func allEqual[F cmp.Ordered](row []F) bool {
	for _, v := range row[1:] {
		if v != row[0] {
			return false
		}
	}
	return true
}

// FaceCounts is a rolls × faces table of how many dice showed each face.
//
// Invariant: len(Counts) == rolls; every row has len(Faces) entries.
type FaceCounts[F cmp.Ordered] struct {
	// Faces are the distinct outcomes seen anywhere in the play, in order of
	// first appearance scanning rolls then dice.
	Faces []F
	// Counts[i][k] is how many dice showed Faces[k] on roll i.
	Counts [][]int
}

// Count returns how many dice showed face on roll i; 0 when face was never seen.
//
// Precondition: 0 <= i < len(fc.Counts).
func (fc FaceCounts[F]) Count(i int, face F) int {
	k := slices.Index(fc.Faces, face)
	if k < 0 {
		return 0
	}
	return fc.Counts[i][k]
}

// Row returns roll i's counts keyed by face, including zero entries.
func (fc FaceCounts[F]) Row(i int) map[F]int {
	out := make(map[F]int, len(fc.Faces))
	for k, f := range fc.Faces {
		out[f] = fc.Counts[i][k]
	}
	return out
}

// Totals sums each face column over every roll.
func (fc FaceCounts[F]) Totals() []int {
	totals := make([]int, len(fc.Faces))
	for _, row := range fc.Counts {
		for k, c := range row {
			totals[k] += c
		}
	}
	return totals
}

// FaceCountsPerRoll counts faces per roll against the global set of faces
// seen in the play, so every row has the same columns.
//
// Postcondition: every row sums to the number of dice.
func (a *Analyzer[F]) FaceCountsPerRoll() FaceCounts[F] {
	faces, col := a.uniqueFaces()
	counts := make([][]int, len(a.results))
	for i, row := range a.results {
		c := make([]int, len(faces))
		for _, v := range row {
			c[col[v]]++
		}
		counts[i] = c
	}
	return FaceCounts[F]{Faces: faces, Counts: counts}
}

// FaceTotal is one face's number of occurrences across a play.
type FaceTotal[F cmp.Ordered] struct {
	Face  F
	Count int
}

// FaceTotals returns how often each face appeared in the whole play, in first
// appearance order.
func (a *Analyzer[F]) FaceTotals() []FaceTotal[F] {
	fc := a.FaceCountsPerRoll()
	totals := fc.Totals()
	out := make([]FaceTotal[F], len(fc.Faces))
	for k, f := range fc.Faces {
		out[k] = FaceTotal[F]{Face: f, Count: totals[k]}
	}
	return out
}

func (a *Analyzer[F]) uniqueFaces() ([]F, map[F]int) {
	var faces []F
	col := make(map[F]int)
	for _, row := range a.results {
		for _, v := range row {
			if _, ok := col[v]; !ok {
				col[v] = len(faces)
				faces = append(faces, v)
			}
		}
	}
	return faces, col
}

// OutcomeCount is a distinct roll outcome and how many rolls produced it.
type OutcomeCount[F cmp.Ordered] struct {
	Outcome []F
	Count   int
}

// ComboCount groups rolls by their sorted outcomes, so die order is ignored.
//
// Postcondition: counts sum to Rolls(); ordered by descending count, ties in
// order of first appearance.
func (a *Analyzer[F]) ComboCount() []OutcomeCount[F] {
	return a.group(func(row []F) []F {
		key := slices.Clone(row)
		slices.Sort(key)
		return key
	})
}

// PermutationCount groups rolls by their outcomes in die order.
//
// Postcondition: counts sum to Rolls(); ordered as in ComboCount.
func (a *Analyzer[F]) PermutationCount() []OutcomeCount[F] {
	return a.group(func(row []F) []F { return slices.Clone(row) })
}

func (a *Analyzer[F]) group(keyOf func([]F) []F) []OutcomeCount[F] {
	_, col := a.uniqueFaces()
	var out []OutcomeCount[F]
	pos := make(map[string]int)
	for _, row := range a.results {
		outcome := keyOf(row)
		k := encodeKey(outcome, col)
		if i, ok := pos[k]; ok {
			out[i].Count++
			continue
		}
		pos[k] = len(out)
		out = append(out, OutcomeCount[F]{Outcome: outcome, Count: 1})
	}
	slices.SortStableFunc(out, func(x, y OutcomeCount[F]) int {
		return cmp.Compare(y.Count, x.Count)
	})
	return out
}

// encodeKey maps an outcome tuple to a comparable string via each face's
// global column index.
func encodeKey[F cmp.Ordered](outcome []F, col map[F]int) string {
	var b strings.Builder
	for i, v := range outcome {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(col[v]))
	}
	return b.String()
}
