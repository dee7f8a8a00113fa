package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"brutto-netto/lib/batch"
	"brutto-netto/lib/chart"

	"github.com/jedib0t/go-pretty/v6/table"
)

const header = "[brutto, netto, input]"

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

type jsonRecord struct {
	Input   string  `json:"input"`
	Gross   string  `json:"gross"`
	Net     *string `json:"net"`
	Outcome string  `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

func toJson(r batch.Record) jsonRecord {
	out := jsonRecord{
		Input:   r.Input,
		Gross:   r.Gross,
		Outcome: r.Outcome.String(),
	}
	if r.Outcome == batch.Success {
		net := r.Net
		out.Net = &net
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func printRecords(w io.Writer, format string, records []batch.Record) error {
	switch format {
	case outputJson:
		out := make([]jsonRecord, len(records))
		for i, r := range records {
			out[i] = toJson(r)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case outputTable:
		t := newTable(w)
		t.AppendHeader(table.Row{"brutto", "netto", "input"})
		for _, r := range records {
			t.AppendRow(table.Row{r.Gross, r.NetOrMarker(), r.Input})
		}
		t.Render()
		return nil
	default:
		_, err := fmt.Fprintln(w, header)
		if err != nil {
			return err
		}
		for _, r := range records {
			_, err = fmt.Fprintln(w, r.String())
			if err != nil {
				return err
			}
		}
		return nil
	}
}

func renderChart(w io.Writer, s settings, records []batch.Record) error {
	if s.Chart == chartNone {
		return nil
	}
	pairs := chart.FromRecords(records)
	if len(pairs) == 0 {
		_, err := fmt.Fprintln(w, chart.ErrNoData.Error())
		return err
	}

	if s.Chart == chartTerminal {
		fmt.Fprintln(w)
		return chart.Terminal{}.Render(w, pairs)
	}

	f, err := os.Create(s.ChartOut)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()
	err = chart.HTML{}.Render(f, pairs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "chart written to %s\n", s.ChartOut)
	return err
}
