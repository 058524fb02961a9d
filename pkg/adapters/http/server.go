package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arborworks/arbor"
	"github.com/arborworks/arbor/internal/presentation/graph"
	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/schema"
)

// Engine defines the interface for the arbor pipeline core.
type Engine interface {
	Execute(ctx context.Context, name string, params map[string]any, cfg arbor.RunConfig) (*arbor.Run, error)
	Validate(ctx context.Context, name string) error
	Definitions(ctx context.Context) ([]string, error)
	Document(ctx context.Context, name string) (*schema.Document, error)
	Runs(ctx context.Context) ([]string, error)
	RunRecord(ctx context.Context, runID string) (*domain.RunRecord, error)
	DeleteRun(ctx context.Context, runID string) error
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Server exposes the engine over REST plus SSE.
type Server struct {
	Engine  Engine
	Streams *StreamManager
}

// NewServer creates a server around the engine. Use Hooks to stream run
// events to SSE subscribers and Handler to mount the routes.
func NewServer(engine Engine) *Server {
	return &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine) http.Handler {
	return NewServer(engine).Handler()
}

// Handler mounts the REST and SSE routes.
func (s *Server) Handler() http.Handler {
	server := s

	r := chi.NewRouter()

	r.Get("/healthz", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/definitions", server.ListDefinitions)
	r.Get("/definitions/{name}", server.GetDefinition)
	r.Get("/definitions/{name}/graph", server.GetGraph)
	r.Post("/definitions/{name}/validate", server.ValidateDefinition)
	r.Post("/definitions/{name}/runs", server.CreateRun)

	r.Get("/runs", server.ListRuns)
	r.Get("/runs/{id}", server.GetRun)
	r.Delete("/runs/{id}", server.DeleteRun)

	r.Get("/events", server.SubscribeEvents)

	return enableCORS(r)
}

// Hooks returns lifecycle hooks that broadcast run events to SSE
// subscribers. Wire them into the engine via arbor.WithLifecycleHooks.
func (s *Server) Hooks() domain.LifecycleHooks {
	broadcast := func(runID string, payload any) {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return
		}
		s.Streams.Broadcast(runID, string(bytes))
	}
	return domain.LifecycleHooks{
		OnNodeStart:   func(_ context.Context, evt *domain.NodeEvent) { broadcast(evt.RunID, evt) },
		OnNodeFinish:  func(_ context.Context, evt *domain.NodeEvent) { broadcast(evt.RunID, evt) },
		OnRunFinish:   func(_ context.Context, evt *domain.RunEvent) { broadcast(evt.RunID, evt) },
		OnAfterFinish: func(_ context.Context, evt *domain.RunEvent) { broadcast(evt.RunID, evt) },
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RunRequest is the body of POST /definitions/{name}/runs.
type RunRequest struct {
	Params            map[string]any `json:"params"`
	ExecuteAfterNodes bool           `json:"execute_after_nodes"`
	AwaitAfterNodes   bool           `json:"await_after_nodes"`
}

// CreateRun handles POST /definitions/{name}/runs.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("CreateRun: Invalid request body", "error", err)
		return
	}

	params, err := arbor.SanitizeParams(body.Params)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid params: %v", err), http.StatusBadRequest)
		slog.Warn("CreateRun: Params rejected", "error", err)
		return
	}

	run, err := s.Engine.Execute(r.Context(), name, params, arbor.RunConfig{
		ExecuteAfterNodes: body.ExecuteAfterNodes,
		AwaitAfterNodes:   body.AwaitAfterNodes,
	})
	if err != nil && run == nil {
		s.writeError(w, "CreateRun", err)
		return
	}

	// A failed run still has a record worth returning.
	record := run.Record()
	status := http.StatusCreated
	if record.Status == domain.RunStatusFailed {
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(record); err != nil {
		slog.Error("CreateRun response encode failed", "error", err)
	}
}

// ListDefinitions handles GET /definitions.
func (s *Server) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	names, err := s.Engine.Definitions(r.Context())
	if err != nil {
		s.writeError(w, "ListDefinitions", err)
		return
	}
	writeJSON(w, map[string]any{"definitions": names})
}

// GetDefinition handles GET /definitions/{name}.
func (s *Server) GetDefinition(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Engine.Document(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, "GetDefinition", err)
		return
	}
	writeJSON(w, doc)
}

// GetGraph handles GET /definitions/{name}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Engine.Document(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, "GetGraph", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(doc.Nodes, nil))
}

// ValidateDefinition handles POST /definitions/{name}/validate.
func (s *Server) ValidateDefinition(w http.ResponseWriter, r *http.Request) {
	err := s.Engine.Validate(r.Context(), chi.URLParam(r, "name"))
	if err == nil {
		writeJSON(w, map[string]any{"valid": true})
		return
	}

	var cfg *domain.ConfigurationError
	if errors.As(err, &cfg) {
		writeJSON(w, map[string]any{"valid": false, "problems": cfg.Problems})
		return
	}
	s.writeError(w, "ValidateDefinition", err)
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Runs(r.Context())
	if err != nil {
		s.writeError(w, "ListRuns", err)
		return
	}
	writeJSON(w, map[string]any{"runs": ids})
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	record, err := s.Engine.RunRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "GetRun", err)
		return
	}
	writeJSON(w, record)
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteRun(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "DeleteRun", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"app":     "arbor-http",
		"version": strings.TrimSpace(arbor.Version),
	})
}

// SubscribeEvents handles GET /events (SSE).
// Without a run_id query param it streams definition reload signals; with
// one it streams that run's lifecycle events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		slog.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	runID := r.URL.Query().Get("run_id")

	// Definition hot reload (no run)
	if runID == "" {
		slog.Info("SSE: Subscribing to definition reloads")
		events, err := s.Engine.Watch(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: reload\ndata: definitions changed\n\n")
				flusher.Flush()
			}
		}
	}

	// Run-scoped subscription
	slog.Info("SSE: Subscribing to run events", "run_id", runID)

	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			slog.Info("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrDefinitionNotFound), errors.Is(err, domain.ErrRunNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		var agg *schema.AggregateError
		if errors.As(err, &agg) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var cfg *domain.ConfigurationError
		if errors.As(err, &cfg) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error(op+" failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
