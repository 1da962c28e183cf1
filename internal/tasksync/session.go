package tasksync

import (
	"context"

	"github.com/Joseda-hg/lazytodo/internal/dispatch"
	"github.com/Joseda-hg/lazytodo/internal/errs"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Listener receives request outcomes on the dispatcher's foreground.
// Exactly one of the two methods fires per request.
type Listener interface {
	OnListUpdated(tasks []model.Task)
	OnError(message string)
}

// Session runs orchestrator requests in the background.
type Session struct {
	o        *Orchestrator
	d        *dispatch.Dispatcher
	listener Listener
}

func (o *Orchestrator) Async(d *dispatch.Dispatcher, l Listener) *Session {
	return &Session{o: o, d: d, listener: l}
}

func (s *Session) Load() {
	s.run(s.o.Load)
}

func (s *Session) Delete(id int64) {
	s.run(func(ctx context.Context) ([]model.Task, error) {
		return s.o.Delete(ctx, id)
	})
}

func (s *Session) ToggleCompleted(id int64) {
	s.run(func(ctx context.Context) ([]model.Task, error) {
		return s.o.ToggleCompleted(ctx, id)
	})
}

func (s *Session) Search(query string) {
	s.run(func(ctx context.Context) ([]model.Task, error) {
		return s.o.Search(ctx, query)
	})
}

func (s *Session) Create(title, description string) {
	s.run(func(ctx context.Context) ([]model.Task, error) {
		return s.o.Create(ctx, title, description)
	})
}

func (s *Session) Edit(task model.Task) {
	s.run(func(ctx context.Context) ([]model.Task, error) {
		return s.o.Edit(ctx, task)
	})
}

func (s *Session) run(work func(context.Context) ([]model.Task, error)) {
	dispatch.Submit(s.d, context.Background(), work, func(tasks []model.Task, err error) {
		if err != nil {
			s.listener.OnError(errs.MessageOf(err))
			return
		}
		if tasks == nil {
			tasks = []model.Task{}
		}
		s.listener.OnListUpdated(tasks)
	})
}
