// Package server is the HTTP front end for the summary pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"gistify/internal/apperr"
	"gistify/internal/domain"
)

const (
	maxRequestBytes   = 1 << 20
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

type Runner interface {
	Run(ctx context.Context, req domain.SummaryRequest) (domain.SummaryResult, error)
}

type Server struct {
	addr     string
	webUIDir string
	runner   Runner
	log      *slog.Logger
}

func New(addr string, webUIDir string, runner Runner, log *slog.Logger) *Server {
	return &Server{
		addr:     addr,
		webUIDir: webUIDir,
		runner:   runner,
		log:      log,
	}
}

type summarizeRequest struct {
	URL   *string `json:"url"`
	Level *int    `json:"level"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /summarize", s.handleSummarize)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /web_ui/", http.StripPrefix("/web_ui/", http.FileServer(http.Dir(s.webUIDir))))

	return withCORS(mux)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	s.log.InfoContext(ctx, "HTTP server is listening",
		"addr", ln.Addr().String(),
		"webUIDir", s.webUIDir)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err = <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err = <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	s.log.InfoContext(ctx, "HTTP server is stopped",
		"addr", s.addr)

	return nil
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body summarizeRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&body); err != nil {
		s.log.InfoContext(ctx, "Malformed request body",
			"error", err)

		s.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Detail: "Invalid request body"})

		return
	}

	if body.URL == nil {
		s.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Detail: "Field 'url' is required"})
		return
	}

	req := domain.SummaryRequest{
		URL:   *body.URL,
		Level: domain.DefaultLevel,
	}
	if body.Level != nil {
		req.Level = *body.Level
	}

	result, err := s.runner.Run(ctx, req)
	if err != nil {
		appErr := apperr.From(err)
		s.writeJSON(ctx, w, appErr.Kind.HTTPStatus(), errorResponse{Detail: appErr.Message})

		return
	}

	s.writeJSON(ctx, w, http.StatusOK, result)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.webUIDir, "index.html"))
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WarnContext(ctx, "Failed to write response",
			"error", err,
			"status", status)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
