package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/cmap-bc/pkg/bc"
	"github.com/ritzau/cmap-bc/pkg/cycles"
	"github.com/ritzau/cmap-bc/pkg/lens"
	"github.com/ritzau/cmap-bc/pkg/logging"
	"github.com/ritzau/cmap-bc/pkg/model"
	"github.com/ritzau/cmap-bc/pkg/pipeline"
	"github.com/ritzau/cmap-bc/pkg/pubsub"
	"github.com/ritzau/cmap-bc/pkg/store"
)

//go:embed static/*
var staticFiles embed.FS

// Source provides the state of the extraction pipeline
type Source interface {
	Status() pubsub.RunStatus
	Last() *pipeline.Result
}

// StatusResponse is returned by /api/status
type StatusResponse struct {
	pubsub.RunStatus
	Error    string    `json:"error,omitempty"`
	Finished time.Time `json:"finished,omitempty"`
}

// DiagnosticsResponse is returned by /api/diagnostics
type DiagnosticsResponse struct {
	Warnings    []bc.Diagnostic `json:"warnings"`
	Unreachable []string        `json:"unreachable"`
	Cycles      []string        `json:"cycles"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	source    Source
	publisher pubsub.Publisher
	store     *store.Store // optional
	log       *logging.Logger
}

// NewServer creates a new web server. The store may be nil, in which case
// the /api/concepts routes answer 503.
func NewServer(source Source, publisher pubsub.Publisher, db *store.Store) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		source:    source,
		publisher: publisher,
		store:     db,
		log:       logging.New("web"),
	}
	s.setupRoutes()
	return s
}

// Handler returns the router. API routes log every request.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(logging.RequestIDMiddleware)

	// SSE subscription endpoints
	api.HandleFunc("/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/concept", s.handleConcept).Methods("GET")
	api.HandleFunc("/diagnostics", s.handleDiagnostics).Methods("GET")
	api.HandleFunc("/graph", s.handleGraph).Methods("GET")

	// Stored concepts, more specific routes first
	api.HandleFunc("/concepts/{id}/subsets/{code}", s.handleStoredSubset).Methods("GET")
	api.HandleFunc("/concepts/{id}", s.handleStoredConcept).Methods("GET")
	api.HandleFunc("/concepts", s.handleStoredConcepts).Methods("GET")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicStatus && topic != pubsub.TopicConcept {
		http.Error(w, "unknown topic "+topic, http.StatusNotFound)
		return
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the stream (Safari)
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				s.log.Warn("writing SSE event", "topic", topic, "error", err)
				return
			}
			flush(w)
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{RunStatus: s.source.Status()}
	if last := s.source.Last(); last != nil {
		resp.Finished = last.Finished
		if last.Err != nil {
			resp.Error = last.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConcept(w http.ResponseWriter, r *http.Request) {
	last := s.source.Last()
	if last == nil || last.Concept == nil {
		http.Error(w, "no biomedical concept extracted", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, last.Concept)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	last := s.source.Last()
	if last == nil {
		http.Error(w, "no extraction run yet", http.StatusNotFound)
		return
	}

	resp := DiagnosticsResponse{
		Warnings:    last.Diagnostics,
		Unreachable: vertexIDs(last.Unreachable),
		Cycles:      cycleStrings(last.Cycles),
	}
	if resp.Warnings == nil {
		resp.Warnings = []bc.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGraph takes an optional focus (comma separated vertex ids) and depth
// to return only the neighbourhood of the focused concepts
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	last := s.source.Last()
	if last == nil || last.Graph == nil {
		writeJSON(w, http.StatusOK, &model.Snapshot{Nodes: []*model.Node{}, Edges: []*model.Edge{}})
		return
	}

	focus := r.URL.Query().Get("focus")
	if focus == "" {
		writeJSON(w, http.StatusOK, last.Graph.Snapshot())
		return
	}

	depth := 1
	if raw := r.URL.Query().Get("depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 {
			http.Error(w, "invalid depth "+raw, http.StatusBadRequest)
			return
		}
		depth = d
	}
	snap, err := lens.Focus(last.Graph, strings.Split(focus, ","), depth)
	if errors.Is(err, lens.ErrUnknownVertex) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleStoredConcepts(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	if role := r.URL.Query().Get("role"); role != "" {
		ids, err := s.store.ConceptsWithRole(r.Context(), role)
		if err != nil {
			s.storeError(w, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, ids)
		return
	}

	entries, err := s.store.List(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStoredConcept(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	c, err := s.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleStoredSubset(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	vars := mux.Vars(r)
	subset, err := s.store.Subset(r.Context(), vars["id"], vars["code"])
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subset)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		http.Error(w, "no concept database configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.log.Error("store query failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// Start serves on the port until ctx is cancelled
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("stopping web server")
		if err := s.publisher.Close(); err != nil {
			s.log.Warn("closing publisher", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("encoding response", "error", err)
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func vertexIDs(vs []*model.Vertex) []string {
	ids := make([]string, 0, len(vs))
	for _, v := range vs {
		ids = append(ids, v.ID)
	}
	return ids
}

func cycleStrings(cs []cycles.ConceptCycle) []string {
	result := make([]string, 0, len(cs))
	for _, c := range cs {
		result = append(result, c.String())
	}
	return result
}
