// Package server exposes the search pipeline over HTTP: a streaming SSE
// endpoint, a non-streaming variant, and saved-search reads.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hireloop/talent-search/internal/model"
	"github.com/hireloop/talent-search/internal/pipeline"
	"github.com/hireloop/talent-search/internal/store"
)

// Runner runs one search end to end, emitting progress events.
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options, emit pipeline.EmitFunc) (*model.SearchRecord, error)
}

// Reader reads persisted searches.
type Reader interface {
	GetSearch(ctx context.Context, id string) (*model.SearchRecord, error)
	ListSearches(ctx context.Context, filter store.SearchFilter) ([]model.SearchRecord, error)
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers.
type Server struct {
	runner Runner
	reader Reader
}

// New creates a Server.
func New(runner Runner, reader Reader) *Server {
	return &Server{runner: runner, reader: reader}
}

// Router builds the HTTP routing table.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/search-and-rank-stream", s.handleSearchStream)
	r.Post("/search-and-rank", s.handleSearch)
	r.Get("/search/{id}", s.handleGetSearch)
	r.Get("/searches", s.handleListSearches)

	return r
}

// searchRequest is the body of both search endpoints. connected_to is the
// sentinel "all" or a comma-separated list of connection owners. Ranking
// defaults to enabled.
type searchRequest struct {
	Query       string `json:"query"`
	ConnectedTo string `json:"connected_to"`
	Ranking     *bool  `json:"ranking,omitempty"`
}

func (req *searchRequest) options() pipeline.Options {
	ranking := true
	if req.Ranking != nil {
		ranking = *req.Ranking
	}
	return pipeline.Options{
		Query:          req.Query,
		ConnectedTo:    splitConnected(req.ConnectedTo),
		RankingEnabled: ranking,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.reader.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

// handleSearchStream streams progress events as SSE data frames and closes
// after the terminal event.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearchRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(ev model.ProgressEvent) {
		payload, err := json.Marshal(ev)
		if err != nil {
			zap.L().Error("failed to encode progress event", zap.Error(err))
			return
		}
		if _, err := w.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
			return
		}
		flusher.Flush()
	}

	if _, err := s.runner.Run(r.Context(), req.options(), emit); err != nil {
		// The terminal event already carried the failure to the client.
		zap.L().Warn("streaming search finished with error", zap.Error(err))
	}
}

// handleSearch is the non-streaming variant: progress events are discarded
// and the completed record is returned in one JSON body.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearchRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rec, err := s.runner.Run(r.Context(), req.options(), func(model.ProgressEvent) {})
	if err != nil && rec == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	// A record without an ID means persistence failed but results exist.
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetSearch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.reader.GetSearch(r.Context(), id)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "search not found"})
			return
		}
		zap.L().Error("failed to load search", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	filter := store.SearchFilter{Query: r.URL.Query().Get("q")}

	recs, err := s.reader.ListSearches(r.Context(), filter)
	if err != nil {
		zap.L().Error("failed to list searches", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if recs == nil {
		recs = []model.SearchRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func decodeSearchRequest(r *http.Request) (*searchRequest, error) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, eris.New("invalid request body")
	}
	if req.Query == "" {
		return nil, eris.New("query is required")
	}
	return &req, nil
}

// splitConnected parses the connected_to field. The "all" sentinel and
// an empty string both mean no filter; the persisted record carries
// usernames only.
func splitConnected(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		p := strings.TrimSpace(part)
		if p == "" || strings.EqualFold(p, "all") {
			continue
		}
		out = append(out, p)
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}
