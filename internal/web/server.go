// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package web serves the essay pipeline over HTTP: an HTML form, the page
// that renders a generated essay, and a JSON endpoint.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/pdiddy/essay-engine/internal/generate"
	"github.com/pdiddy/essay-engine/internal/pipeline"
	"github.com/pdiddy/essay-engine/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"paragraphs": paragraphs,
}).ParseFS(templateFS, "templates/*.html"))

// Runner runs one essay generation. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, topic string, source types.Source, style types.Style) (*pipeline.Result, error)
}

// Server holds the handler dependencies.
type Server struct {
	runner Runner
	log    io.Writer
}

// NewServer returns a Server that runs requests through runner and writes
// one access line per request to log.
func NewServer(runner Runner, log io.Writer) *Server {
	if log == nil {
		log = io.Discard
	}
	return &Server{runner: runner, log: log}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.formHandler).Methods(http.MethodGet)
	r.HandleFunc("/generate_essay", s.essayPageHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/essays", s.essayAPIHandler).Methods(http.MethodPost)
	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)
	r.Use(s.accessLog)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	fmt.Fprintf(s.log, "listening on %s\n", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

// EssayRequest is the validated input of one generation.
type EssayRequest struct {
	Topic  string
	Source types.Source
	Style  types.Style
}

// ErrInvalidRequest marks request validation failures, reported as 400.
var ErrInvalidRequest = errors.New("invalid request")

// parseRequest validates raw form or JSON fields.
func parseRequest(topic, journal, style string) (EssayRequest, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return EssayRequest{}, fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	src, err := types.ParseSource(journal)
	if err != nil {
		return EssayRequest{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	st, err := types.ParseStyle(style)
	if err != nil {
		return EssayRequest{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return EssayRequest{Topic: topic, Source: src, Style: st}, nil
}

// statusFor maps a run error to an HTTP status.
func statusFor(err error) int {
	var ge *generate.GenerationError
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &ge):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// paragraphs splits essay text on blank lines for rendering.
func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
