package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/errs"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/dustin/go-humanize"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.tmpl").Funcs(template.FuncMap{
	"ago": humanize.Time,
}).ParseFS(templateFS, "templates/index.tmpl"))

// requestTimeout bounds each handler's work, hydration included.
const requestTimeout = 30 * time.Second

// Service is the task API the server exposes.
type Service interface {
	Load(ctx context.Context) ([]model.Task, error)
	Search(ctx context.Context, query string) ([]model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	Create(ctx context.Context, title, description string) ([]model.Task, error)
	Edit(ctx context.Context, task model.Task) ([]model.Task, error)
	ToggleCompleted(ctx context.Context, id int64) ([]model.Task, error)
	Delete(ctx context.Context, id int64) ([]model.Task, error)
}

type Server struct {
	tasks  Service
	logger *slog.Logger
}

func NewServer(tasks Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{tasks: tasks, logger: logger.With("component", "web")}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/api/tasks", s.apiTasksHandler)
	mux.HandleFunc("/api/tasks/", s.apiTaskHandler)
	return mux
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	tasks, err := s.list(ctx, query)

	data := struct {
		Query string
		Total int
		Tasks []model.Task
		Error string
	}{Query: query, Total: len(tasks), Tasks: tasks}
	if err != nil {
		data.Error = errs.MessageOf(err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("render index", "err", err)
	}
}

func (s *Server) apiTasksHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		tasks, err := s.list(ctx, r.URL.Query().Get("q"))
		s.respondList(w, tasks, err)
	case http.MethodPost:
		var body struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := decodeBody(w, r, &body); err != nil {
			s.writeError(w, err)
			return
		}
		tasks, err := s.tasks.Create(ctx, body.Title, body.Description)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(tasks)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) apiTaskHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tasks/"), "/")
	idPart, action, _ := strings.Cut(rest, "/")
	id, err := parseID(idPart)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch {
	case action == "toggle":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		tasks, err := s.tasks.ToggleCompleted(ctx, id)
		s.respondList(w, tasks, err)
	case action != "":
		s.writeError(w, errs.New(errs.NotFound, "unknown action"))
	case r.Method == http.MethodGet:
		task, err := s.tasks.Get(ctx, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, task)
	case r.Method == http.MethodPut:
		s.editTask(ctx, w, r, id)
	case r.Method == http.MethodDelete:
		tasks, err := s.tasks.Delete(ctx, id)
		s.respondList(w, tasks, err)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// editTask applies the fields present in the body on top of the stored task.
func (s *Server) editTask(ctx context.Context, w http.ResponseWriter, r *http.Request, id int64) {
	var body struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Completed   *bool   `json:"completed"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if body.Title != nil {
		task.Title = *body.Title
	}
	if body.Description != nil {
		task.Description = *body.Description
	}
	if body.Completed != nil {
		task.Completed = *body.Completed
	}

	tasks, err := s.tasks.Edit(ctx, task)
	s.respondList(w, tasks, err)
}

func (s *Server) list(ctx context.Context, query string) ([]model.Task, error) {
	if strings.TrimSpace(query) != "" {
		return s.tasks.Search(ctx, query)
	}
	return s.tasks.Load(ctx)
}

func (s *Server) respondList(w http.ResponseWriter, tasks []model.Task, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, tasks)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := decoder.Decode(dst); err != nil {
		return errs.Wrap(errs.Validation, "invalid request body", err)
	}
	return nil
}

func parseID(value string) (int64, error) {
	if value == "" {
		return 0, errs.New(errs.NotFound, "missing id")
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errs.Wrap(errs.NotFound, fmt.Sprintf("invalid id %q", value), err)
	}
	return id, nil
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errs.CodeOf(err)
	status := errs.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": errs.MessageOf(err)})
}
