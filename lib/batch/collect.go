package batch

import (
	"fmt"
)

// Record is a single row of the aggregated output.
type Record struct {
	Gross   string
	Net     string
	Input   string
	Outcome Outcome
	Err     error
}

// NetOrMarker is the net amount, or the outcome's name when there is none,
// so "no data" can never be mistaken for a net salary of zero.
func (r Record) NetOrMarker() string {
	if r.Outcome == Success {
		return r.Net
	}
	return r.Outcome.String()
}

func (r Record) String() string {
	gross := r.Gross
	if gross == "" {
		gross = "-"
	}
	return fmt.Sprintf("(%s, %s, %q)", gross, r.NetOrMarker(), r.Input)
}

// Collect folds a result set into records, keeping arrival order. Every
// result produces exactly one record.
func Collect(set ResultSet) []Record {
	records := make([]Record, len(set))
	for i, result := range set {
		records[i] = Record{
			Gross:   result.Entry.Amount,
			Input:   result.Entry.Raw,
			Outcome: result.Outcome,
			Err:     result.Err,
		}
		if result.Outcome == Success {
			records[i].Net = result.Net
		}
	}
	return records
}

type Summary struct {
	Total     int
	Succeeded int
	TimedOut  int
	Failed    int
	Invalid   int
}

func Summarize(records []Record) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.Outcome {
		case Success:
			s.Succeeded++
		case Timeout:
			s.TimedOut++
		case Failed:
			s.Failed++
		case Invalid:
			s.Invalid++
		}
	}
	return s
}
