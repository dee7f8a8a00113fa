package batch

import (
	"errors"
	"fmt"
	"time"

	"brutto-netto/lib/money"
)

var (
	ErrEmptyBatch    = errors.New("no amounts to convert")
	ErrInvalidAmount = errors.New("amount contains no digits")
)

type Outcome int

const (
	Success Outcome = iota
	// no answer arrived within the task timeout
	Timeout
	// network, protocol or parse failure of the calculator
	Failed
	// the input sanitized to nothing and was never submitted
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case Failed:
		return "error"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Entry is a single amount to convert, it keeps the original input around
// so results can be correlated back to it.
type Entry struct {
	// position in the submitted slice
	Index  int
	Raw    string
	Amount string
}

// NewEntries sanitizes every raw input, entries that sanitize to nothing
// are kept and reported as Invalid once the batch runs.
func NewEntries(raw []string) []Entry {
	entries := make([]Entry, len(raw))
	for i, r := range raw {
		entries[i] = Entry{
			Index:  i,
			Raw:    r,
			Amount: money.Sanitize(r),
		}
	}
	return entries
}

type Result struct {
	Entry   Entry
	Outcome Outcome
	// only set on Success
	Net     string
	Err     error
	Elapsed time.Duration
}

// ResultSet holds results in the order they arrived in, not the order they
// were submitted in.
type ResultSet []Result
