package batch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"brutto-netto/lib/money"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

const DefaultTaskTimeout = time.Second * 10

// Calculator converts one canonical gross amount into a net amount.
type Calculator interface {
	Calculate(ctx context.Context, amount string) (string, error)
}

type Options struct {
	// how long each task may take before it is recorded as a timeout and
	// its request cancelled, defaults to DefaultTaskTimeout
	TaskTimeout time.Duration
	// upper bound of tasks in flight, 0 starts every task at once
	MaxConcurrency int
	// submit and report whole units only, see money.Truncate
	DropCents bool
}

type Runner struct {
	calc Calculator
	opts Options
}

func NewRunner(calc Calculator, opts Options) *Runner {
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = DefaultTaskTimeout
	}
	return &Runner{calc: calc, opts: opts}
}

// Run starts a batch, waits for all of its results and shuts it down.
func (r *Runner) Run(ctx context.Context, entries []Entry) (ResultSet, error) {
	b, err := r.Start(ctx, entries)
	if err != nil {
		return nil, err
	}
	defer b.Shutdown()
	return b.Await(), nil
}

// Batch is a single run over a set of entries. It owns the tasks' context
// and the results channel, so any number of batches can run side by side.
//
// Results have exactly one consumer: either call Next until it returns
// false, or call Await.
type Batch struct {
	calc      Calculator
	timeout   time.Duration
	dropCents bool
	sem       *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	total    int
	received int
	results  chan Result
	wg       sync.WaitGroup
	shutdown sync.Once
}

// Start spawns one task per entry and returns immediately, an empty slice
// of entries is rejected before anything is started.
func (r *Runner) Start(ctx context.Context, entries []Entry) (*Batch, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}

	ctx, cancel := context.WithCancel(ctx)
	b := &Batch{
		calc:      r.calc,
		timeout:   r.opts.TaskTimeout,
		dropCents: r.opts.DropCents,
		ctx:       ctx,
		cancel:    cancel,
		total:     len(entries),
		results:   make(chan Result, len(entries)),
	}
	if r.opts.MaxConcurrency > 0 {
		b.sem = semaphore.NewWeighted(int64(r.opts.MaxConcurrency))
	}

	slog.DebugContext(
		ctx, "starting batch",
		"entries", len(entries),
		"task_timeout", b.timeout,
		"max_concurrency", r.opts.MaxConcurrency,
	)

	for _, entry := range entries {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.results <- b.process(entry)
		}()
	}

	return b, nil
}

// Next blocks until another result arrives, ok is false once every entry
// has been accounted for.
func (b *Batch) Next() (result Result, ok bool) {
	if b.received >= b.total {
		return Result{}, false
	}
	result = <-b.results
	b.received++
	return result, true
}

// Await collects every remaining result in arrival order.
func (b *Batch) Await() ResultSet {
	set := make(ResultSet, 0, b.total-b.received)
	for {
		result, ok := b.Next()
		if !ok {
			return set
		}
		set = append(set, result)
	}
}

// Shutdown cancels every task still in flight and waits for them to report.
// It is safe to call more than once.
func (b *Batch) Shutdown() {
	b.shutdown.Do(b.cancel)
	b.wg.Wait()
}

type answer struct {
	net string
	err error
}

func (b *Batch) process(entry Entry) (result Result) {
	if b.dropCents {
		entry.Amount = money.Truncate(entry.Amount)
	}

	ctx, span := tracer.Start(b.ctx, "batch:process", trace.WithAttributes(
		attribute.String("input", entry.Raw),
		attribute.String("amount", entry.Amount),
	))
	defer span.End()

	result = Result{Entry: entry}
	start := time.Now()
	defer func() {
		result.Elapsed = time.Since(start)
		record(ctx, span, result)
	}()

	if !strings.ContainsAny(entry.Amount, "0123456789") {
		result.Outcome = Invalid
		result.Err = ErrInvalidAmount
		return result
	}

	if b.sem != nil {
		err := b.sem.Acquire(ctx, 1)
		if err != nil {
			result.Outcome = Failed
			result.Err = err
			return result
		}
		defer b.sem.Release(1)
		// the timeout only starts once the task is actually running
		start = time.Now()
	}

	taskCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	// a late answer lands in the buffer and is dropped
	done := make(chan answer, 1)
	go func() {
		net, err := b.calc.Calculate(taskCtx, entry.Amount)
		done <- answer{net: net, err: err}
	}()

	select {
	case a := <-done:
		switch {
		case a.err == nil:
			result.Outcome = Success
			result.Net = a.net
			if b.dropCents {
				result.Net = money.Truncate(a.net)
			}
		case isTaskTimeout(ctx, taskCtx):
			result.Outcome = Timeout
			result.Err = a.err
		default:
			result.Outcome = Failed
			result.Err = a.err
		}
	case <-taskCtx.Done():
		if isTaskTimeout(ctx, taskCtx) {
			result.Outcome = Timeout
		} else {
			result.Outcome = Failed
		}
		result.Err = taskCtx.Err()
	}

	return result
}

// the task's own deadline fired, as opposed to the batch being cancelled
func isTaskTimeout(batchCtx, taskCtx context.Context) bool {
	return batchCtx.Err() == nil && errors.Is(taskCtx.Err(), context.DeadlineExceeded)
}

func record(ctx context.Context, span trace.Span, result Result) {
	outcome := attribute.String("outcome", result.Outcome.String())
	calculationCounter.Add(ctx, 1, metric.WithAttributes(outcome))
	calculationDuration.Record(ctx, result.Elapsed.Seconds(), metric.WithAttributes(outcome))
	span.SetAttributes(outcome)

	switch result.Outcome {
	case Success:
		span.SetAttributes(attribute.String("net", result.Net))
		slog.DebugContext(
			ctx, "amount converted",
			"input", result.Entry.Raw,
			"gross", result.Entry.Amount,
			"net", result.Net,
			"elapsed", result.Elapsed,
		)
	case Timeout:
		span.SetStatus(codes.Error, "timed out")
		slog.WarnContext(
			ctx, "calculation timed out",
			"input", result.Entry.Raw,
			"elapsed", result.Elapsed,
		)
	default:
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Outcome.String())
		slog.WarnContext(
			ctx, "calculation failed",
			"input", result.Entry.Raw,
			"outcome", result.Outcome.String(),
			"err", result.Err,
		)
	}
}
