package game

import (
	"cmp"
	"fmt"
	"strings"
)

// Form selects the layout returned by Game.Show.
type Form string

const (
	// FormWide lays results out with one row per roll and one column per die.
	FormWide Form = "wide"
	// FormNarrow lays results out with one row per (roll, die) pair.
	FormNarrow Form = "narrow"
)

// ParseForm maps "wide" and "narrow" to their Form.
//
// Postcondition: Returns ErrInvalidArgument for any other value.
func ParseForm(s string) (Form, error) {
	switch f := Form(s); f {
	case FormWide, FormNarrow:
		return f, nil
	default:
		return "", fmt.Errorf("game: %w: form must be %q or %q, got %q", ErrInvalidArgument, FormWide, FormNarrow, s)
	}
}

// Table is a copy of a play's results in either layout. Concrete values are
// WideTable or NarrowTable.
type Table[F cmp.Ordered] interface {
	// Form reports the layout of the table.
	Form() Form
	// Len returns the number of rows.
	Len() int
}

// WideTable holds one row per roll; row i, column j is the face die j showed
// on roll i.
//
// Invariant: every row has the same length, the number of dice.
type WideTable[F cmp.Ordered] [][]F

// Form implements Table.
func (WideTable[F]) Form() Form { return FormWide }

// Len returns the number of rolls.
func (w WideTable[F]) Len() int { return len(w) }

// Dice returns the number of columns.
func (w WideTable[F]) Dice() int {
	if len(w) == 0 {
		return 0
	}
	return len(w[0])
}

// Column returns a copy of die j's outcomes in roll order.
//
// Precondition: 0 <= j < w.Dice().
func (w WideTable[F]) Column(j int) []F {
	col := make([]F, len(w))
	for i, row := range w {
		col[i] = row[j]
	}
	return col
}

// Clone returns a deep copy of w.
func (w WideTable[F]) Clone() WideTable[F] {
	out := make(WideTable[F], len(w))
	for i, row := range w {
		out[i] = append([]F(nil), row...)
	}
	return out
}

// Narrow flattens w row-major into a NarrowTable.
func (w WideTable[F]) Narrow() NarrowTable[F] {
	out := make(NarrowTable[F], 0, len(w)*w.Dice())
	for i, row := range w {
		for j, v := range row {
			out = append(out, NarrowRow[F]{Roll: i, Die: j, Outcome: v})
		}
	}
	return out
}

// String renders w as a plain text grid.
func (w WideTable[F]) String() string {
	var b strings.Builder
	b.WriteString("roll")
	for j := 0; j < w.Dice(); j++ {
		fmt.Fprintf(&b, "\t%d", j)
	}
	for i, row := range w {
		fmt.Fprintf(&b, "\n%d", i)
		for _, v := range row {
			fmt.Fprintf(&b, "\t%v", v)
		}
	}
	return b.String()
}

// NarrowRow is one (roll, die) cell of a play.
type NarrowRow[F cmp.Ordered] struct {
	Roll    int
	Die     int
	Outcome F
}

// NarrowTable holds one row per (roll, die) pair, ordered by roll and then by
// die.
type NarrowTable[F cmp.Ordered] []NarrowRow[F]

// Form implements Table.
func (NarrowTable[F]) Form() Form { return FormNarrow }

// Len returns the number of (roll, die) rows.
func (n NarrowTable[F]) Len() int { return len(n) }
