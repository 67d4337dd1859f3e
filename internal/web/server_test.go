// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/essay-engine/internal/generate"
	"github.com/pdiddy/essay-engine/internal/pipeline"
	"github.com/pdiddy/essay-engine/pkg/types"
)

type call struct {
	topic  string
	source types.Source
	style  types.Style
}

type fakeRunner struct {
	res   *pipeline.Result
	err   error
	calls []call
}

func (f *fakeRunner) Run(_ context.Context, topic string, source types.Source, style types.Style) (*pipeline.Result, error) {
	f.calls = append(f.calls, call{topic, source, style})
	return f.res, f.err
}

func doneResult() *pipeline.Result {
	return &pipeline.Result{
		State:      pipeline.StateDone,
		Essay:      "First paragraph.\n\nSecond <paragraph>.",
		References: []string{`A. Smith. "Graph Theory." 2020, http://x.`},
		Outcomes: []types.RetrievalOutcome{
			{Record: types.PaperRecord{Title: "Graph Theory"}, Text: "text"},
			{Record: types.PaperRecord{Title: "Missing Paper"}, Err: errors.New("download: 404")},
		},
		RunID: "run-1",
	}
}

func emptyResult() *pipeline.Result {
	return &pipeline.Result{State: pipeline.StateEmpty, References: []string{}}
}

func newTestServer(r Runner) (*httptest.Server, *bytes.Buffer) {
	var log bytes.Buffer
	ts := httptest.NewServer(NewServer(r, &log).Handler())
	return ts, &log
}

func postJSON(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/essays", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealthz(t *testing.T) {
	ts, log := newTestServer(&fakeRunner{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, log.String(), "GET /healthz 200")
}

func TestFormPage(t *testing.T) {
	ts, _ := newTestServer(&fakeRunner{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	body.ReadFrom(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body.String(), `action="/generate_essay"`)
	for _, s := range types.Sources {
		assert.Contains(t, body.String(), `value="`+string(s)+`"`)
	}
}

func TestAPIEssayDone(t *testing.T) {
	runner := &fakeRunner{res: doneResult()}
	ts, _ := newTestServer(runner)
	defer ts.Close()

	resp, out := postJSON(t, ts, `{"topic":"graph theory","journal":"ARXIV","style":"APA"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "done", out["state"])
	assert.Equal(t, "First paragraph.\n\nSecond <paragraph>.", out["essay"])
	assert.Equal(t, "run-1", out["run_id"])
	assert.Len(t, out["references"], 1)

	failures, ok := out["failures"].([]any)
	require.True(t, ok)
	require.Len(t, failures, 1)
	assert.Equal(t, "Missing Paper", failures[0].(map[string]any)["title"])

	require.Len(t, runner.calls, 1)
	assert.Equal(t, call{"graph theory", types.SourceArxiv, types.StyleAPA}, runner.calls[0])
}

func TestAPIEssayEmpty(t *testing.T) {
	ts, _ := newTestServer(&fakeRunner{res: emptyResult()})
	defer ts.Close()

	resp, out := postJSON(t, ts, `{"topic":"t","journal":"pubmed","style":"mla"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "empty", out["state"])
	assert.Equal(t, types.NoEssayMessage, out["message"])
	assert.NotContains(t, out, "essay")
	assert.Equal(t, []any{}, out["references"])
}

func TestAPIValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad json", `{`, "invalid request body"},
		{"empty topic", `{"topic":"  ","journal":"arxiv","style":"mla"}`, "topic is required"},
		{"bad journal", `{"topic":"t","journal":"jstor","style":"mla"}`, "unsupported journal"},
		{"bad style", `{"topic":"t","journal":"arxiv","style":"chicago"}`, "unsupported style"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{res: doneResult()}
			ts, _ := newTestServer(runner)
			defer ts.Close()

			resp, out := postJSON(t, ts, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, out["error"], tt.want)
			assert.Empty(t, runner.calls)
		})
	}
}

func TestAPIGenerationErrorIsBadGateway(t *testing.T) {
	runner := &fakeRunner{err: &generate.GenerationError{Stage: generate.StageCompose, Err: errors.New("overloaded")}}
	ts, _ := newTestServer(runner)
	defer ts.Close()

	resp, out := postJSON(t, ts, `{"topic":"t","journal":"arxiv","style":"mla"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, out["error"], "compose")
}

func TestEssayPage(t *testing.T) {
	ts, log := newTestServer(&fakeRunner{res: doneResult()})
	defer ts.Close()

	resp, err := http.PostForm(ts.URL+"/generate_essay", url.Values{
		"topic": {"graph theory"}, "journal": {"arxiv"}, "style": {"mla"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	page := body.String()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, page, "<p>First paragraph.</p>")
	assert.Contains(t, page, "<p>Second &lt;paragraph&gt;.</p>", "essay text is escaped")
	assert.Contains(t, page, "Graph Theory")
	assert.Contains(t, page, "Missing Paper: download: 404")
	assert.Contains(t, log.String(), "POST /generate_essay 200")
}

func TestEssayPageEmpty(t *testing.T) {
	ts, _ := newTestServer(&fakeRunner{res: emptyResult()})
	defer ts.Close()

	resp, err := http.PostForm(ts.URL+"/generate_essay", url.Values{
		"topic": {"t"}, "journal": {"scholar"}, "style": {"apa"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	assert.Contains(t, body.String(), types.NoEssayMessage)
}

func TestEssayPageValidationError(t *testing.T) {
	runner := &fakeRunner{res: doneResult()}
	ts, _ := newTestServer(runner)
	defer ts.Close()

	resp, err := http.PostForm(ts.URL+"/generate_essay", url.Values{
		"topic": {""}, "journal": {"arxiv"}, "style": {"mla"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, runner.calls)
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(&fakeRunner{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/essays")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWriteJSONLogsEncodeError(t *testing.T) {
	var log bytes.Buffer
	s := NewServer(&fakeRunner{}, &log)
	rec := httptest.NewRecorder()

	s.writeJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})
	assert.Contains(t, log.String(), "encoding JSON response")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(ErrInvalidRequest))
	assert.Equal(t, http.StatusBadGateway, statusFor(&generate.GenerationError{Err: errors.New("x")}))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("other")))
}

func TestParagraphs(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, paragraphs("a\n\n\n\n b c \n\n"))
	assert.Nil(t, paragraphs("  "))
}
