package tasksync

import (
	"context"
	"testing"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/dispatch"
)

func dispatchLoop() *dispatch.Loop {
	return dispatch.NewLoop(16)
}

func newDispatcher(loop *dispatch.Loop) *dispatch.Dispatcher {
	return dispatch.New(loop, 2, nil)
}

// drain runs exactly want posted callbacks and fails if another is queued.
func drain(t *testing.T, loop *dispatch.Loop, want int) {
	t.Helper()
	for i := 0; i < want; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		ran := loop.RunOnce(ctx)
		cancel()
		if !ran {
			t.Fatalf("expected callback %d of %d", i+1, want)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if loop.RunOnce(ctx) {
		t.Fatalf("unexpected extra callback")
	}
}
