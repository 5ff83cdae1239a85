package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cory-johannsen/montecarlo/internal/scenario"
)

// writeReport renders r as aligned text. top limits the combination and
// permutation tables; 0 prints every row.
func writeReport(w io.Writer, r *scenario.Report, top int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	title := r.ScenarioID
	if r.Name != "" {
		title = fmt.Sprintf("%s (%s)", r.Name, r.ScenarioID)
	}
	fmt.Fprintf(tw, "== %s\n", title)
	fmt.Fprintf(tw, "play\t%s\n", r.PlayID)
	fmt.Fprintf(tw, "rolls\t%d\n", r.Rolls)
	fmt.Fprintf(tw, "dice\t%d\n", r.Dice)
	fmt.Fprintf(tw, "jackpots\t%d\n", r.Jackpot)

	fmt.Fprintln(tw, "\nface\tcount")
	for _, ft := range r.FaceTotals {
		fmt.Fprintf(tw, "%s\t%d\n", ft.Face, ft.Count)
	}

	writeTallies(tw, "combination", r.Combinations, top)
	writeTallies(tw, "permutation", r.Permutations, top)

	return tw.Flush()
}

func writeTallies(w io.Writer, label string, ts []scenario.Tally, top int) {
	fmt.Fprintf(w, "\n%s\tcount\n", label)
	shown := ts
	if top > 0 && len(ts) > top {
		shown = ts[:top]
	}
	for _, t := range shown {
		fmt.Fprintf(w, "(%s)\t%d\n", strings.Join(t.Outcome, ", "), t.Count)
	}
	if len(shown) < len(ts) {
		fmt.Fprintf(w, "... %d more\t\n", len(ts)-len(shown))
	}
}
