package chart

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal draws one horizontal bar per pair, the bar length is
// proportional to the net amount.
type Terminal struct {
	// width of the longest bar in cells, defaults to 40
	Width int
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true)
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	valueStyle = lipgloss.NewStyle().Bold(true)
)

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (t Terminal) Render(w io.Writer, pairs []Pair) error {
	if len(pairs) == 0 {
		return ErrNoData
	}
	width := t.Width
	if width <= 0 {
		width = 40
	}

	maxNet := 0.0
	labelWidth := len(XLabel)
	for _, p := range pairs {
		if p.Net > maxNet {
			maxNet = p.Net
		}
		labelWidth = max(labelWidth, len(formatAmount(p.Gross)))
	}

	var out strings.Builder
	out.WriteString(titleStyle.Render(Title))
	out.WriteString("\n")
	out.WriteString(labelStyle.Render(fmt.Sprintf("%*s │ %s", labelWidth, XLabel, YLabel)))
	out.WriteString("\n")

	for _, p := range pairs {
		cells := 0
		if maxNet > 0 {
			cells = int(p.Net / maxNet * float64(width))
		}
		if cells == 0 && p.Net > 0 {
			cells = 1
		}
		fmt.Fprintf(
			&out,
			"%*s │ %s %s\n",
			labelWidth, formatAmount(p.Gross),
			barStyle.Render(strings.Repeat("█", cells)),
			valueStyle.Render(formatAmount(p.Net)),
		)
	}

	_, err := io.WriteString(w, out.String())
	return err
}
