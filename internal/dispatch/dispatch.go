// Package dispatch runs blocking work on background goroutines and hands
// results back to a single foreground context.
package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Foreground runs posted functions one at a time, in order, on the context
// that owns presentation state.
type Foreground interface {
	Post(fn func())
}

type Dispatcher struct {
	fg      Foreground
	workers *semaphore.Weighted
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// New returns a dispatcher that runs at most workers jobs at once.
func New(fg Foreground, workers int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		fg:      fg,
		workers: semaphore.NewWeighted(int64(workers)),
		logger:  logger.With("component", "dispatch"),
	}
}

// Submit runs work on its own goroutine and posts done to the foreground
// exactly once. Work cannot be cancelled after submission; ctx is only
// passed through to work.
func Submit[T any](d *Dispatcher, ctx context.Context, work func(context.Context) (T, error), done func(T, error)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// acquire ignores ctx so a submitted job always runs and reports
		_ = d.workers.Acquire(context.Background(), 1)
		value, err := work(ctx)
		d.workers.Release(1)

		if err != nil {
			d.logger.Debug("background job failed", "err", err)
		}
		d.fg.Post(func() { done(value, err) })
	}()
}

// Wait blocks until every submitted job has posted its result.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Loop is a channel-backed Foreground for callers without their own event
// loop, such as one-shot commands and tests.
type Loop struct {
	queue chan func()
}

func NewLoop(buffer int) *Loop {
	return &Loop{queue: make(chan func(), buffer)}
}

func (l *Loop) Post(fn func()) {
	l.queue <- fn
}

// Run executes posted functions until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// RunOnce executes the next posted function, blocking until one arrives or
// ctx is done. It reports whether a function ran.
func (l *Loop) RunOnce(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case fn := <-l.queue:
		fn()
		return true
	}
}
