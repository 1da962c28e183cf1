package model

import "time"

// Key is the identity of a task. Two tasks with the same Key are the same
// task regardless of their other fields.
type Key int64

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Completed   bool      `json:"completed"`
}

func (t Task) Key() Key {
	return Key(t.ID)
}

// SameAs reports whether t and other are the same task. Only the id is compared.
func (t Task) SameAs(other Task) bool {
	return t.Key() == other.Key()
}

// RemoteTask is a task as served by the remote list endpoint.
type RemoteTask struct {
	ID        int    `json:"id"`
	Todo      string `json:"todo"`
	Completed bool   `json:"completed"`
	UserID    int    `json:"userId"`
}

// DedupeFirst keeps the first task seen for each key, preserving order.
func DedupeFirst(tasks []Task) []Task {
	seen := make(map[Key]struct{}, len(tasks))
	result := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if _, ok := seen[task.Key()]; ok {
			continue
		}
		seen[task.Key()] = struct{}{}
		result = append(result, task)
	}
	return result
}

// DedupeLast keeps one task per key, taking the values of the last
// occurrence. Keys are ordered by their first appearance.
func DedupeLast(tasks []Task) []Task {
	index := make(map[Key]int, len(tasks))
	result := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if i, ok := index[task.Key()]; ok {
			result[i] = task
			continue
		}
		index[task.Key()] = len(result)
		result = append(result, task)
	}
	return result
}
