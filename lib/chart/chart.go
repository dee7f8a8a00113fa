package chart

import (
	"errors"
	"io"
	"sort"

	"brutto-netto/lib/batch"
	"brutto-netto/lib/money"
)

const (
	Title  = "Zarobki brutto do netto"
	XLabel = "Brutto"
	YLabel = "Netto"
)

var ErrNoData = errors.New("no data to plot")

type Pair struct {
	Gross float64
	Net   float64
}

// Renderer draws gross (x axis) against net (y axis), it returns ErrNoData
// instead of drawing an empty chart.
type Renderer interface {
	Render(w io.Writer, pairs []Pair) error
}

// FromRecords keeps only records with a usable net amount, sorted by gross.
func FromRecords(records []batch.Record) []Pair {
	var pairs []Pair
	for _, r := range records {
		if r.Outcome != batch.Success {
			continue
		}
		gross, err := money.Parse(r.Gross)
		if err != nil {
			continue
		}
		net, err := money.Parse(r.Net)
		if err != nil {
			continue
		}
		pairs = append(pairs, Pair{Gross: gross, Net: net})
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Gross < pairs[j].Gross
	})
	return pairs
}
