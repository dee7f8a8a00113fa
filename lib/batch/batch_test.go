package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"brutto-netto/lib/scrapers/wynagrodzenia"
	"brutto-netto/lib/scrapers/wynagrodzenia/wynagrodzeniatest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

type fakeResponse struct {
	net   string
	err   error
	delay time.Duration
	// ignores cancellation and never answers
	hang bool
}

type fakeCalculator struct {
	responses map[string]fakeResponse
	calls     atomic.Int64
	inflight  atomic.Int64
	peak      atomic.Int64
}

func (f *fakeCalculator) Calculate(ctx context.Context, amount string) (string, error) {
	f.calls.Add(1)
	current := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.peak.Load()
		if current <= peak || f.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	res, ok := f.responses[amount]
	if !ok {
		return "", fmt.Errorf("unexpected amount %q", amount)
	}
	if res.hang {
		select {}
	}
	if res.delay > 0 {
		select {
		case <-time.After(res.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return res.net, res.err
}

func recordsByInput(records []Record) map[string]Record {
	out := map[string]Record{}
	for _, r := range records {
		out[r.Input] = r
	}
	return out
}

func TestRunCorrelatesResults(t *testing.T) {
	calc := &fakeCalculator{responses: map[string]fakeResponse{
		"4000":    {net: "2907.96", delay: time.Millisecond * 150},
		"50000":   {net: "32637.25", delay: time.Millisecond * 10},
		"9999.99": {net: "7140.38", delay: time.Millisecond * 80},
		"2239":    {net: "1666.14"},
	}}
	runner := NewRunner(calc, Options{TaskTimeout: time.Second * 5})

	inputs := []string{"4000", "50000", "9999.99", "2239 PLN", "4000,00 zł"}
	calc.responses["4000.00"] = fakeResponse{net: "2907.96"}

	set, err := runner.Run(context.Background(), NewEntries(inputs))
	require.NoError(t, err)
	require.Len(t, set, len(inputs))

	records := Collect(set)
	expected := []Record{
		{Gross: "4000", Net: "2907.96", Input: "4000", Outcome: Success},
		{Gross: "50000", Net: "32637.25", Input: "50000", Outcome: Success},
		{Gross: "9999.99", Net: "7140.38", Input: "9999.99", Outcome: Success},
		{Gross: "2239", Net: "1666.14", Input: "2239 PLN", Outcome: Success},
		{Gross: "4000.00", Net: "2907.96", Input: "4000,00 zł", Outcome: Success},
	}
	diff := cmp.Diff(
		expected,
		records,
		cmpopts.SortSlices(func(a, b Record) bool {
			return a.Input < b.Input
		}),
		cmpopts.IgnoreFields(Record{}, "Err"),
	)
	if diff != "" {
		t.Fatal(diff)
	}

	// the slowest answer arrives last
	require.Equal(t, "4000", set[len(set)-1].Entry.Raw)
}

func TestRunDropCents(t *testing.T) {
	calc := &fakeCalculator{responses: map[string]fakeResponse{
		"2555": {net: "1855.37"},
		"1900": {net: "1407.87"},
	}}
	runner := NewRunner(calc, Options{DropCents: true})

	set, err := runner.Run(context.Background(), NewEntries([]string{"2555,44", "1900.", ",50"}))
	require.NoError(t, err)

	records := recordsByInput(Collect(set))
	require.Equal(t, Record{Gross: "2555", Net: "1855", Input: "2555,44", Outcome: Success}, records["2555,44"])
	require.Equal(t, Record{Gross: "1900", Net: "1407", Input: "1900.", Outcome: Success}, records["1900."])

	// nothing is left once the cents are gone
	require.Equal(t, Invalid, records[",50"].Outcome)
	require.ErrorIs(t, records[",50"].Err, ErrInvalidAmount)
	require.EqualValues(t, 2, calc.calls.Load())
}

func TestRunEmptyBatch(t *testing.T) {
	calc := &fakeCalculator{}
	runner := NewRunner(calc, Options{})

	_, err := runner.Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyBatch)

	_, err = runner.Start(context.Background(), []Entry{})
	require.ErrorIs(t, err, ErrEmptyBatch)

	require.Zero(t, calc.calls.Load())
}

func TestRunTimeout(t *testing.T) {
	calc := &fakeCalculator{responses: map[string]fakeResponse{
		"1000": {net: "700"},
		"2000": {net: "1400", delay: time.Millisecond * 20},
		"3000": {hang: true},
		"4000": {net: "2800", delay: time.Minute},
	}}
	timeout := time.Millisecond * 300
	runner := NewRunner(calc, Options{TaskTimeout: timeout})

	start := time.Now()
	set, err := runner.Run(context.Background(), NewEntries([]string{"1000", "2000", "3000", "4000"}))
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Len(t, set, 4)

	// timeouts don't stack up since tasks run concurrently
	require.Less(t, elapsed, timeout*3)

	records := recordsByInput(Collect(set))
	require.Equal(t, Success, records["1000"].Outcome)
	require.Equal(t, Success, records["2000"].Outcome)
	require.Equal(t, Timeout, records["3000"].Outcome)
	require.Equal(t, Timeout, records["4000"].Outcome)
	require.Equal(t, "timeout", records["3000"].NetOrMarker())
	require.Empty(t, records["3000"].Net)

	// successes are not held back by the stuck tasks
	require.Equal(t, Success, set[0].Outcome)
	require.Equal(t, Success, set[1].Outcome)
}

func TestRunFailuresAndInvalid(t *testing.T) {
	calc := &fakeCalculator{responses: map[string]fakeResponse{
		"1000": {err: fmt.Errorf("%w: boom", wynagrodzenia.ErrProtocol)},
		"2000": {net: "1400"},
	}}
	runner := NewRunner(calc, Options{TaskTimeout: time.Second})

	set, err := runner.Run(context.Background(), NewEntries([]string{"1000", "PLN", "2000"}))
	require.NoError(t, err)
	require.Len(t, set, 3)

	records := recordsByInput(Collect(set))
	require.Equal(t, Failed, records["1000"].Outcome)
	require.ErrorIs(t, records["1000"].Err, wynagrodzenia.ErrProtocol)
	require.Equal(t, "error", records["1000"].NetOrMarker())

	require.Equal(t, Invalid, records["PLN"].Outcome)
	require.ErrorIs(t, records["PLN"].Err, ErrInvalidAmount)
	require.Equal(t, `(-, invalid, "PLN")`, records["PLN"].String())

	require.Equal(t, Success, records["2000"].Outcome)

	// the invalid entry never reaches the calculator
	require.Equal(t, int64(2), calc.calls.Load())

	require.Equal(t, Summary{Total: 3, Succeeded: 1, Failed: 1, Invalid: 1}, Summarize(Collect(set)))
}

func TestRunMaxConcurrency(t *testing.T) {
	responses := map[string]fakeResponse{}
	var inputs []string
	for i := 1; i <= 6; i++ {
		amount := fmt.Sprint(i * 1000)
		responses[amount] = fakeResponse{net: fmt.Sprint(i * 700), delay: time.Millisecond * 50}
		inputs = append(inputs, amount)
	}
	calc := &fakeCalculator{responses: responses}
	runner := NewRunner(calc, Options{TaskTimeout: time.Second * 5, MaxConcurrency: 2})

	set, err := runner.Run(context.Background(), NewEntries(inputs))
	require.NoError(t, err)
	require.Len(t, set, 6)
	for _, result := range set {
		require.Equal(t, Success, result.Outcome)
	}
	require.LessOrEqual(t, calc.peak.Load(), int64(2))
}

func TestShutdownCancelsTasks(t *testing.T) {
	calc := &fakeCalculator{responses: map[string]fakeResponse{
		"1000": {net: "700", delay: time.Minute},
	}}
	runner := NewRunner(calc, Options{TaskTimeout: time.Minute})

	b, err := runner.Start(context.Background(), NewEntries([]string{"1000"}))
	require.NoError(t, err)

	b.Shutdown()
	b.Shutdown()

	set := b.Await()
	require.Len(t, set, 1)
	require.Equal(t, Failed, set[0].Outcome)
	require.True(t, errors.Is(set[0].Err, context.Canceled))

	_, ok := b.Next()
	require.False(t, ok)
}

func TestConcurrentBatches(t *testing.T) {
	calc := &fakeCalculator{responses: map[string]fakeResponse{
		"1000": {net: "700", delay: time.Millisecond * 20},
		"2000": {net: "1400", delay: time.Millisecond * 10},
	}}
	runner := NewRunner(calc, Options{TaskTimeout: time.Second})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := runner.Run(context.Background(), NewEntries([]string{"1000", "2000"}))
			if err != nil {
				t.Error(err)
				return
			}
			if len(set) != 2 {
				t.Errorf("expected 2 results, got %d", len(set))
			}
		}()
	}
	wg.Wait()
}

func TestRunAgainstStubCalculator(t *testing.T) {
	server := wynagrodzeniatest.NewServer(map[string]string{
		"4000": "2907",
		"2239": "1666",
	})
	defer server.Close()

	client, err := wynagrodzenia.NewClient(wynagrodzenia.ClientOptions{BaseUrl: server.Url()})
	require.NoError(t, err)

	set, err := NewRunner(client, Options{}).Run(
		context.Background(),
		NewEntries([]string{"4000", "2239 PLN"}),
	)
	require.NoError(t, err)

	diff := cmp.Diff(
		[]Record{
			{Gross: "4000", Net: "2907", Input: "4000", Outcome: Success},
			{Gross: "2239", Net: "1666", Input: "2239 PLN", Outcome: Success},
		},
		Collect(set),
		cmpopts.SortSlices(func(a, b Record) bool {
			return a.Input < b.Input
		}),
	)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestRunAgainstSlowStubCalculator(t *testing.T) {
	server := wynagrodzeniatest.NewServer(map[string]string{
		"4000": "2907",
		"2239": "1666",
	})
	defer server.Close()
	server.SetDelay("2239", time.Minute)

	client, err := wynagrodzenia.NewClient(wynagrodzenia.ClientOptions{BaseUrl: server.Url()})
	require.NoError(t, err)

	set, err := NewRunner(client, Options{TaskTimeout: time.Millisecond * 500}).Run(
		context.Background(),
		NewEntries([]string{"4000", "2239 PLN"}),
	)
	require.NoError(t, err)

	records := recordsByInput(Collect(set))
	require.Equal(t, Success, records["4000"].Outcome)
	require.Equal(t, "2907", records["4000"].Net)
	require.Equal(t, Timeout, records["2239 PLN"].Outcome)
}
