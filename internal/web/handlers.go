// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"encoding/json"
	"net/http"

	"github.com/pdiddy/essay-engine/internal/pipeline"
	"github.com/pdiddy/essay-engine/pkg/types"
)

type formPage struct {
	Topic   string
	Journal string
	Style   string
	Error   string
	Sources []types.Source
}

type essayPage struct {
	Topic      string
	HasEssay   bool
	Essay      string
	References []string
	Failures   []failure
	FetchError string
}

type failure struct {
	Title string `json:"title"`
	Error string `json:"error"`
}

// EssayResponse is the JSON body returned by POST /api/essays.
type EssayResponse struct {
	State      string    `json:"state"`
	Essay      string    `json:"essay,omitempty"`
	Message    string    `json:"message,omitempty"`
	References []string  `json:"references"`
	Failures   []failure `json:"failures"`
	FetchError string    `json:"fetch_error,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) formHandler(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "form.html", formPage{
		Journal: string(types.SourceArxiv),
		Style:   string(types.StyleMLA),
		Sources: types.Sources,
	})
}

func (s *Server) essayPageHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	topic, journal, style := r.PostFormValue("topic"), r.PostFormValue("journal"), r.PostFormValue("style")
	req, err := parseRequest(topic, journal, style)
	if err != nil {
		s.render(w, http.StatusBadRequest, "form.html", formPage{
			Topic: topic, Journal: journal, Style: style,
			Error: err.Error(), Sources: types.Sources,
		})
		return
	}

	res, err := s.runner.Run(r.Context(), req.Topic, req.Source, req.Style)
	if err != nil {
		s.render(w, statusFor(err), "form.html", formPage{
			Topic: topic, Journal: journal, Style: style,
			Error: "essay generation failed: " + err.Error(), Sources: types.Sources,
		})
		return
	}

	page := essayPage{
		Topic:      req.Topic,
		HasEssay:   res.HasEssay(),
		Essay:      res.EssayText(),
		References: res.References,
		Failures:   failures(res),
	}
	if res.FetchErr != nil {
		page.FetchError = res.FetchErr.Error()
	}
	s.render(w, http.StatusOK, "essay.html", page)
}

func (s *Server) essayAPIHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Topic   string `json:"topic"`
		Journal string `json:"journal"`
		Style   string `json:"style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	req, err := parseRequest(body.Topic, body.Journal, body.Style)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := s.runner.Run(r.Context(), req.Topic, req.Source, req.Style)
	if err != nil {
		s.writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, newEssayResponse(res))
}

func newEssayResponse(res *pipeline.Result) EssayResponse {
	resp := EssayResponse{
		State:      string(res.State),
		References: res.References,
		Failures:   failures(res),
		RunID:      res.RunID,
	}
	if resp.References == nil {
		resp.References = []string{}
	}
	if res.HasEssay() {
		resp.Essay = res.Essay
	} else {
		resp.Message = types.NoEssayMessage
	}
	if res.FetchErr != nil {
		resp.FetchError = res.FetchErr.Error()
	}
	return resp
}

func failures(res *pipeline.Result) []failure {
	out := []failure{}
	for _, o := range res.Failures() {
		out = append(out, failure{Title: o.Record.Title, Error: o.Err.Error()})
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		s.logf("template %s: %v", name, err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logf("encoding JSON response: %v", err)
	}
}
