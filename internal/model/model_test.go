package model

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func taskGenerator(ids *rapid.Generator[int64]) *rapid.Generator[Task] {
	return rapid.Custom(func(t *rapid.T) Task {
		return Task{
			ID:          ids.Draw(t, "id"),
			Title:       rapid.StringMatching(`[A-Za-z ]{0,20}`).Draw(t, "title"),
			Description: rapid.StringMatching(`[A-Za-z ]{0,20}`).Draw(t, "description"),
			CreatedAt:   time.Unix(rapid.Int64Range(0, 1<<32).Draw(t, "created"), 0),
			Completed:   rapid.Bool().Draw(t, "completed"),
		}
	})
}

func TestIdentityIgnoresOtherFields(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.Int64().Draw(t, "id")
		a := taskGenerator(rapid.Just(id)).Draw(t, "a")
		b := taskGenerator(rapid.Just(id)).Draw(t, "b")

		if !a.SameAs(b) || !b.SameAs(a) {
			t.Fatalf("expected tasks with id %d to be the same", id)
		}
		if a.Key() != b.Key() {
			t.Fatalf("expected equal keys, got %d and %d", a.Key(), b.Key())
		}

		set := map[Key]Task{a.Key(): a}
		if _, ok := set[b.Key()]; !ok {
			t.Fatalf("expected set to contain task with id %d", id)
		}
		set[b.Key()] = b
		if len(set) != 1 {
			t.Fatalf("expected 1 entry after adding same id twice, got %d", len(set))
		}
		if stored := set[a.Key()]; stored.Title != b.Title {
			t.Fatalf("expected latest value to be stored, got %q", stored.Title)
		}
	})
}

func TestDistinctIDsAreDistinctTasks(t *testing.T) {
	a := Task{ID: 1, Title: "same"}
	b := Task{ID: 2, Title: "same"}
	if a.SameAs(b) {
		t.Fatalf("expected tasks with different ids to differ")
	}
}

func TestDedupeFirstAndLast(t *testing.T) {
	tasks := []Task{
		{ID: 1, Title: "first one"},
		{ID: 2, Title: "two"},
		{ID: 1, Title: "second one"},
	}

	first := DedupeFirst(tasks)
	if len(first) != 2 || first[0].Title != "first one" || first[1].ID != 2 {
		t.Fatalf("unexpected DedupeFirst result: %+v", first)
	}

	last := DedupeLast(tasks)
	if len(last) != 2 || last[0].Title != "second one" || last[1].ID != 2 {
		t.Fatalf("unexpected DedupeLast result: %+v", last)
	}
}

func TestDedupeKeepsOneRowPerKey(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tasks := rapid.SliceOf(taskGenerator(rapid.Int64Range(1, 8))).Draw(t, "tasks")
		distinct := map[Key]bool{}
		for _, task := range tasks {
			distinct[task.Key()] = true
		}
		for _, deduped := range [][]Task{DedupeFirst(tasks), DedupeLast(tasks)} {
			seen := map[Key]bool{}
			for _, task := range deduped {
				if seen[task.Key()] {
					t.Fatalf("duplicate key %d after dedupe", task.ID)
				}
				seen[task.Key()] = true
			}
			if len(seen) != len(distinct) {
				t.Fatalf("expected %d keys, got %d", len(distinct), len(seen))
			}
		}
	})
}
