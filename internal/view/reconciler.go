// Package view turns successive task lists into keyed snapshots and the
// refresh, insert and remove sets a list widget needs to update in place.
package view

import (
	"sync/atomic"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Snapshot is an immutable view of one list: a duplicate-free display order
// and the task shown for each key.
type Snapshot struct {
	Order []model.Key
	ByID  map[model.Key]model.Task
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Order)
}

// At returns the task displayed at index.
func (s *Snapshot) At(index int) (model.Task, bool) {
	if s == nil || index < 0 || index >= len(s.Order) {
		return model.Task{}, false
	}
	task, ok := s.ByID[s.Order[index]]
	return task, ok
}

// IndexOf returns the display position of key, or -1.
func (s *Snapshot) IndexOf(key model.Key) int {
	if s == nil {
		return -1
	}
	for i, k := range s.Order {
		if k == key {
			return i
		}
	}
	return -1
}

// Update describes how one Apply changed the displayed list.
type Update struct {
	Order    []model.Key
	ByID     map[model.Key]model.Task
	Refresh  []model.Key
	Inserted []model.Key
	Removed  []model.Key
}

type Reconciler struct {
	current atomic.Pointer[Snapshot]
}

func NewReconciler() *Reconciler {
	r := &Reconciler{}
	r.current.Store(&Snapshot{ByID: map[model.Key]model.Task{}})
	return r
}

// Snapshot returns the latest published snapshot.
func (r *Reconciler) Snapshot() *Snapshot {
	return r.current.Load()
}

// Apply builds a snapshot from tasks and publishes it. A key repeated in
// tasks shows the values of its last occurrence at the position of its
// first.
func (r *Reconciler) Apply(tasks []model.Task) Update {
	prev := r.current.Load()

	byID := make(map[model.Key]model.Task, len(tasks))
	order := make([]model.Key, 0, len(tasks))
	for _, task := range tasks {
		key := task.Key()
		if _, seen := byID[key]; !seen {
			order = append(order, key)
		}
		byID[key] = task
	}

	update := Update{Order: order, ByID: byID}
	for _, key := range order {
		if _, ok := prev.ByID[key]; ok {
			update.Refresh = append(update.Refresh, key)
		} else {
			update.Inserted = append(update.Inserted, key)
		}
	}
	for _, key := range prev.Order {
		if _, ok := byID[key]; !ok {
			update.Removed = append(update.Removed, key)
		}
	}

	r.current.Store(&Snapshot{Order: order, ByID: byID})
	return update
}
