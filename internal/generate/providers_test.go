// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/essay-engine/pkg/types"
)

func TestOpenAIGeneratorComplete(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-3.5-turbo",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"A concise summary."}}]}`)
	}))
	defer ts.Close()

	g := NewOpenAIGenerator(types.AIConfig{APIKey: "sk-test", BaseURL: ts.URL + "/"})
	out, err := g.Complete(context.Background(), Request{System: "sys", Prompt: "user", MaxTokens: 2000, Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "A concise summary.", out)

	assert.Equal(t, "gpt-3.5-turbo", body["model"])
	assert.Equal(t, float64(2000), body["max_tokens"])
	assert.Equal(t, 0.5, body["temperature"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestOpenAIGeneratorEmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer ts.Close()

	g := NewOpenAIGenerator(types.AIConfig{APIKey: "k", BaseURL: ts.URL + "/"})
	_, err := g.Complete(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAIGeneratorAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer ts.Close()

	g := NewOpenAIGenerator(types.AIConfig{APIKey: "k", BaseURL: ts.URL + "/"})
	_, err := g.Complete(context.Background(), Request{Prompt: "p"})
	assert.ErrorContains(t, err, "calling OpenAI API")
}

func TestAnthropicGeneratorComplete(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"Essay part one. "},{"type":"text","text":"Part two."}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`)
	}))
	defer ts.Close()

	g := NewAnthropicGenerator(types.AIConfig{APIKey: "ak-test", Model: "claude-test", BaseURL: ts.URL + "/"})
	out, err := g.Complete(context.Background(), Request{System: "be academic", Prompt: "write", MaxTokens: 3000, Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "Essay part one. Part two.", out)

	assert.Equal(t, "claude-test", body["model"])
	assert.Equal(t, float64(3000), body["max_tokens"])
	sys, ok := body["system"].([]any)
	require.True(t, ok)
	assert.Equal(t, "be academic", sys[0].(map[string]any)["text"])
}

func TestAnthropicGeneratorNoText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],
			"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`)
	}))
	defer ts.Close()

	g := NewAnthropicGenerator(types.AIConfig{APIKey: "k", BaseURL: ts.URL + "/"})
	_, err := g.Complete(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}
