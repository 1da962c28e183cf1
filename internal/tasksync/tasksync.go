// Package tasksync decides whether the task list comes from the local store
// or is first hydrated from the remote source, and routes mutations to the
// store.
package tasksync

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/errs"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Store is the subset of the record store the orchestrator uses.
type Store interface {
	FetchAll(ctx context.Context) []model.Task
	Search(ctx context.Context, query string) []model.Task
	Get(ctx context.Context, id int64) (model.Task, error)
	Exists(ctx context.Context) bool
	NextID(ctx context.Context) int64
	Save(ctx context.Context, task model.Task) error
	SaveBatch(ctx context.Context, tasks []model.Task) error
	Update(ctx context.Context, task model.Task) error
	Delete(ctx context.Context, id int64) error
	ToggleCompleted(ctx context.Context, id int64) error
}

type RemoteSource interface {
	FetchRemoteTasks(ctx context.Context) ([]model.RemoteTask, error)
}

const (
	msgDelete = "could not delete task"
	msgUpdate = "could not update task"
	msgCreate = "could not create task"
	msgSave   = "could not save task"
	msgLoad   = "could not load tasks"
)

type Orchestrator struct {
	store  Store
	source RemoteSource
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Orchestrator)

// WithClock sets the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func New(store Store, source RemoteSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  store,
		source: source,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "tasksync")
	return o
}

// Load returns the local list, hydrating from the remote source first when
// the store is empty.
func (o *Orchestrator) Load(ctx context.Context) ([]model.Task, error) {
	if o.store.Exists(ctx) {
		return o.store.FetchAll(ctx), nil
	}
	return o.hydrate(ctx)
}

func (o *Orchestrator) hydrate(ctx context.Context) ([]model.Task, error) {
	if o.source == nil {
		return o.store.FetchAll(ctx), nil
	}
	remote, err := o.source.FetchRemoteTasks(ctx)
	if err != nil {
		o.logger.Warn("hydration failed", "err", err)
		return nil, errs.Wrap(errs.RemoteFetch, msgLoad, err)
	}

	now := o.now()
	tasks := make([]model.Task, 0, len(remote))
	for _, item := range remote {
		tasks = append(tasks, model.Task{
			ID:          int64(item.ID),
			Title:       item.Todo,
			Description: item.Todo,
			CreatedAt:   now,
			Completed:   item.Completed,
		})
	}
	// a failed batch leaves the store as it was; the re-read reports that state
	if err := o.store.SaveBatch(ctx, tasks); err != nil {
		o.logger.Error("save hydrated tasks", "count", len(tasks), "err", err)
	} else {
		o.logger.Info("hydrated from remote", "count", len(tasks))
	}
	return o.store.FetchAll(ctx), nil
}

// Get reads one task from the local store.
func (o *Orchestrator) Get(ctx context.Context, id int64) (model.Task, error) {
	return o.store.Get(ctx, id)
}

func (o *Orchestrator) Delete(ctx context.Context, id int64) ([]model.Task, error) {
	if err := o.store.Delete(ctx, id); err != nil {
		return nil, mutationError(msgDelete, err)
	}
	return o.Load(ctx)
}

func (o *Orchestrator) ToggleCompleted(ctx context.Context, id int64) ([]model.Task, error) {
	if err := o.store.ToggleCompleted(ctx, id); err != nil {
		return nil, mutationError(msgUpdate, err)
	}
	return o.Load(ctx)
}

// Search matches the trimmed query against the local store only. An empty
// query returns the full local list.
func (o *Orchestrator) Search(ctx context.Context, query string) ([]model.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return o.store.FetchAll(ctx), nil
	}
	return o.store.Search(ctx, query), nil
}

func (o *Orchestrator) Create(ctx context.Context, title, description string) ([]model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errs.New(errs.Validation, "title is required")
	}
	task := model.Task{
		ID:          o.store.NextID(ctx),
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   o.now(),
	}
	if err := o.store.Save(ctx, task); err != nil {
		return nil, mutationError(msgCreate, err)
	}
	return o.Load(ctx)
}

func (o *Orchestrator) Edit(ctx context.Context, task model.Task) ([]model.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, errs.New(errs.Validation, "title is required")
	}
	if err := o.store.Update(ctx, task); err != nil {
		return nil, mutationError(msgSave, err)
	}
	return o.Load(ctx)
}

// mutationError keeps the store's code so callers can still tell a missing
// task from a failed write.
func mutationError(message string, err error) error {
	return errs.Wrap(errs.CodeOf(err), message, err)
}
