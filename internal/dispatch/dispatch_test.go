package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitPostsResultOnForeground(t *testing.T) {
	loop := NewLoop(4)
	d := New(loop, 1, nil)

	var got int
	var gotErr error
	Submit(d, context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	}, func(value int, err error) {
		got, gotErr = value, err
	})
	d.Wait()

	if got != 0 {
		t.Fatalf("done ran before the foreground drained")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if !loop.RunOnce(ctx) {
		t.Fatalf("expected a posted callback")
	}
	if got != 42 || gotErr != nil {
		t.Fatalf("expected 42 and no error, got %d, %v", got, gotErr)
	}
}

func TestSubmitDeliversEachResultOnce(t *testing.T) {
	const jobs = 50
	loop := NewLoop(jobs)
	d := New(loop, 4, nil)

	counts := make([]int, jobs)
	for i := 0; i < jobs; i++ {
		Submit(d, context.Background(), func(ctx context.Context) (int, error) {
			if i%5 == 0 {
				return 0, errors.New("failed")
			}
			return i, nil
		}, func(value int, err error) {
			counts[i]++
		})
	}
	d.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	for loop.RunOnce(ctx) {
	}
	for i, n := range counts {
		if n != 1 {
			t.Fatalf("job %d delivered %d times", i, n)
		}
	}
}

func TestSubmitBoundsConcurrency(t *testing.T) {
	const workers = 2
	loop := NewLoop(10)
	d := New(loop, workers, nil)

	var running, peak atomic.Int32
	for i := 0; i < 10; i++ {
		Submit(d, context.Background(), func(ctx context.Context) (struct{}, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return struct{}{}, nil
		}, func(struct{}, error) {})
	}
	d.Wait()

	if p := peak.Load(); p > workers {
		t.Fatalf("expected at most %d concurrent jobs, saw %d", workers, p)
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	loop := NewLoop(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	ran := make(chan struct{})
	loop.Post(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatalf("posted function did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("run did not stop")
	}
}
