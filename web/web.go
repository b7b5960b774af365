package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Isabellarossi/edgedb/normalize"
	"github.com/Isabellarossi/edgedb/server"
	"github.com/Isabellarossi/edgedb/service"
)

//go:embed static
var staticFS embed.FS

const maxQueryBytes = 1 << 20

// Server serves the edgeql-norm web UI and API endpoints.
type Server struct {
	httpServer *http.Server
	svc        *service.Service
	top        server.TopLister
}

// New creates a new web Server backed by the given Service.
// top may be nil if statistics are not configured.
func New(svc *service.Service, top server.TopLister) *Server {
	s := &Server{
		svc: svc,
		top: top,
	}

	mux := http.NewServeMux()

	sub, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /", http.FileServer(http.FS(sub)))
	mux.HandleFunc("GET /api/events", s.handleSSE)
	mux.HandleFunc("POST /api/normalize", s.handleNormalize)
	mux.HandleFunc("GET /api/top", s.handleTop)

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Serve starts the HTTP server on the given listener.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	return nil
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type eventJSON struct {
	ID          string   `json:"id"`
	Query       string   `json:"query"`
	Key         string   `json:"key,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Variables   []string `json:"variables"`
	Types       []string `json:"types"`
	NamedArgs   bool     `json:"named_args"`
	FirstArg    *int     `json:"first_arg"`
	Outcome     string   `json:"outcome"`
	Skipped     string   `json:"skipped,omitempty"`
	Hot         bool     `json:"hot,omitempty"`
	Error       string   `json:"error,omitempty"`
	ErrorKind   string   `json:"error_kind,omitempty"`
	StartTime   string   `json:"start_time"`
	DurationUs  float64  `json:"duration_us"`
}

func eventToJSON(ev service.Event) eventJSON {
	vars := make([]string, len(ev.Variables))
	copy(vars, ev.Variables)
	types := make([]string, len(ev.Types))
	copy(types, ev.Types)

	out := eventJSON{
		ID:         ev.ID,
		Query:      ev.Query,
		Key:        ev.Key,
		Variables:  vars,
		Types:      types,
		NamedArgs:  ev.NamedArgs,
		Outcome:    ev.Outcome.String(),
		Skipped:    ev.Skipped,
		Hot:        ev.Hot,
		Error:      ev.Error,
		ErrorKind:  ev.ErrorKind,
		StartTime:  ev.StartTime.Format(time.RFC3339Nano),
		DurationUs: float64(ev.Duration.Nanoseconds()) / 1000,
	}
	if ev.Outcome != service.OutcomeError {
		out.Fingerprint = fmt.Sprintf("%016x", ev.Fingerprint)
	}
	if ev.FirstArg >= 0 {
		first := ev.FirstArg
		out.FirstArg = &first
	}
	return out
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	flusher.Flush() // send headers immediately

	ch, unsub := s.svc.Subscribe()
	defer unsub()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(eventToJSON(ev))
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

type normalizeRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Line  int    `json:"line,omitempty"`
	Col   int    `json:"column,omitempty"`
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{
			Error: "invalid request body: " + err.Error(),
		})
		return
	}

	_, ev, err := s.svc.Normalize(r.Context(), req.Query)
	if err != nil {
		var nerr *normalize.Error
		if !errors.As(err, &nerr) {
			writeJSON(w, http.StatusInternalServerError, &errorResponse{Error: err.Error()})
			return
		}
		code := http.StatusBadRequest
		if nerr.Kind == normalize.KindAssertion {
			code = http.StatusInternalServerError
		}
		writeJSON(w, code, &errorResponse{
			Error: nerr.Message,
			Kind:  nerr.Kind.String(),
			Line:  nerr.Pos.Line,
			Col:   nerr.Pos.Column,
		})
		return
	}

	writeJSON(w, http.StatusOK, eventToJSON(ev))
}

type keyStatJSON struct {
	Fingerprint string `json:"fingerprint"`
	Key         string `json:"key"`
	Variables   int    `json:"variables"`
	Hits        int64  `json:"hits"`
	LastSeen    string `json:"last_seen"`
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	if s.top == nil {
		writeJSON(w, http.StatusServiceUnavailable, &errorResponse{
			Error: "statistics are not configured (set EDGEQL_NORM_DSN)",
		})
		return
	}

	n := server.DefaultTop
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, &errorResponse{Error: "n must be a positive integer"})
			return
		}
		n = v
	}

	rows, err := s.top.Top(r.Context(), n)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, &errorResponse{Error: err.Error()})
		return
	}

	out := make([]keyStatJSON, len(rows))
	for i, row := range rows {
		out[i] = keyStatJSON{
			Fingerprint: fmt.Sprintf("%016x", row.Fingerprint),
			Key:         row.Key,
			Variables:   row.Variables,
			Hits:        row.Hits,
			LastSeen:    row.LastSeen.Format(time.RFC3339Nano),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}
