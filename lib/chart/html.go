package chart

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HTML renders a standalone page with an echarts bar chart.
type HTML struct{}

func (HTML) Render(w io.Writer, pairs []Pair) error {
	if len(pairs) == 0 {
		return ErrNoData
	}

	labels := make([]string, len(pairs))
	data := make([]opts.BarData, len(pairs))
	for i, p := range pairs {
		labels[i] = formatAmount(p.Gross)
		data[i] = opts.BarData{Value: p.Net}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: Title}),
		charts.WithTitleOpts(opts.Title{Title: Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: XLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: YLabel}),
	)
	bar.SetXAxis(labels).AddSeries(YLabel, data)

	return bar.Render(w)
}
