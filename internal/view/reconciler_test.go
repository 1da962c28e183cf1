package view

import (
	"sync"
	"testing"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"pgregory.net/rapid"
)

func keys(ids ...int64) []model.Key {
	out := make([]model.Key, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Key(id))
	}
	return out
}

func equalKeys(a, b []model.Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyComputesRefreshInsertRemove(t *testing.T) {
	r := NewReconciler()
	first := r.Apply([]model.Task{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"}})
	if !equalKeys(first.Inserted, keys(1, 2, 3)) || len(first.Refresh) != 0 || len(first.Removed) != 0 {
		t.Fatalf("unexpected first update: %+v", first)
	}

	second := r.Apply([]model.Task{{ID: 3, Title: "c2"}, {ID: 4, Title: "d"}, {ID: 1, Title: "a"}})
	if !equalKeys(second.Order, keys(3, 4, 1)) {
		t.Fatalf("unexpected order: %v", second.Order)
	}
	if !equalKeys(second.Refresh, keys(3, 1)) {
		t.Fatalf("unexpected refresh: %v", second.Refresh)
	}
	if !equalKeys(second.Inserted, keys(4)) {
		t.Fatalf("unexpected inserted: %v", second.Inserted)
	}
	if !equalKeys(second.Removed, keys(2)) {
		t.Fatalf("unexpected removed: %v", second.Removed)
	}
	if got := r.Snapshot().ByID[3].Title; got != "c2" {
		t.Fatalf("expected refreshed title, got %q", got)
	}
}

func TestApplyDuplicateKeepsFirstPositionLastValue(t *testing.T) {
	r := NewReconciler()
	update := r.Apply([]model.Task{
		{ID: 1, Title: "first"},
		{ID: 2, Title: "other"},
		{ID: 1, Title: "last"},
	})
	if !equalKeys(update.Order, keys(1, 2)) {
		t.Fatalf("unexpected order: %v", update.Order)
	}
	task, ok := r.Snapshot().At(0)
	if !ok || task.Title != "last" {
		t.Fatalf("expected last occurrence at first position, got %+v", task)
	}
}

func TestApplyEmptyClearsSnapshot(t *testing.T) {
	r := NewReconciler()
	r.Apply([]model.Task{{ID: 1}, {ID: 2}})
	update := r.Apply(nil)
	if !equalKeys(update.Removed, keys(1, 2)) {
		t.Fatalf("unexpected removed: %v", update.Removed)
	}
	if r.Snapshot().Len() != 0 {
		t.Fatalf("expected empty snapshot")
	}
}

func TestSnapshotLookup(t *testing.T) {
	r := NewReconciler()
	r.Apply([]model.Task{{ID: 7, Title: "x"}, {ID: 9, Title: "y"}})
	snap := r.Snapshot()
	if snap.IndexOf(9) != 1 || snap.IndexOf(5) != -1 {
		t.Fatalf("unexpected index lookups")
	}
	if _, ok := snap.At(2); ok {
		t.Fatalf("expected out of range")
	}
}

func TestApplyInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		genList := rapid.SliceOf(rapid.Custom(func(rt *rapid.T) model.Task {
			return model.Task{
				ID:    rapid.Int64Range(1, 8).Draw(rt, "id"),
				Title: rapid.StringMatching(`[a-z]{0,4}`).Draw(rt, "title"),
			}
		}))
		before := genList.Draw(rt, "before")
		after := genList.Draw(rt, "after")

		r := NewReconciler()
		r.Apply(before)
		prev := r.Snapshot()
		update := r.Apply(after)

		seen := map[model.Key]bool{}
		for _, key := range update.Order {
			if seen[key] {
				rt.Fatalf("duplicate key %d in order", key)
			}
			seen[key] = true
		}
		if len(update.Order) != len(update.ByID) {
			rt.Fatalf("order has %d keys, table has %d", len(update.Order), len(update.ByID))
		}
		if len(update.Refresh)+len(update.Inserted) != len(update.Order) {
			rt.Fatalf("refresh and inserted do not cover the order")
		}
		for _, key := range update.Refresh {
			if _, ok := prev.ByID[key]; !ok {
				rt.Fatalf("refreshed key %d was not displayed before", key)
			}
		}
		for _, key := range update.Inserted {
			if _, ok := prev.ByID[key]; ok {
				rt.Fatalf("inserted key %d was already displayed", key)
			}
		}
		for _, key := range update.Removed {
			if _, ok := update.ByID[key]; ok {
				rt.Fatalf("removed key %d is still displayed", key)
			}
		}
		if len(update.Refresh)+len(update.Removed) != prev.Len() {
			rt.Fatalf("refresh and removed do not cover the previous order")
		}

		last := map[model.Key]model.Task{}
		for _, task := range after {
			last[task.Key()] = task
		}
		for key, task := range last {
			if update.ByID[key] != task {
				rt.Fatalf("key %d shows %+v, want last occurrence %+v", key, update.ByID[key], task)
			}
		}
	})
}

func TestSnapshotReadsDuringApply(t *testing.T) {
	r := NewReconciler()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			r.Apply([]model.Task{{ID: int64(i)}, {ID: int64(i + 1)}})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := r.Snapshot()
			if len(snap.Order) != len(snap.ByID) {
				t.Errorf("observed inconsistent snapshot")
				return
			}
		}
	}()
	wg.Wait()
}
