package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/llm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"content": content}}},
	})
	return string(b)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 2 * time.Second}, quietLogger())
}

func TestExtract_SendsContractAndReturnsContent(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer key")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, completion(`{"ocrText":"t","extractedData":{}}`))
	})

	res, err := c.Extract(context.Background(), llm.ExtractRequest{
		FileName: "w2.png",
		Data:     []byte("img"),
		Prompt:   llm.BuildPrompt(constants.W2),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Content) != `{"ocrText":"t","extractedData":{}}` {
		t.Fatalf("unexpected content %s", res.Content)
	}
	if res.Method != ProcessingMethod {
		t.Fatalf("unexpected method %s", res.Method)
	}
	if got["model"] != "gpt-4.1-mini" || got["max_tokens"] != float64(3000) {
		t.Fatalf("unexpected request body: %v", got)
	}
	if rf, _ := got["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", got["response_format"])
	}
	msgs := got["messages"].([]any)
	parts := msgs[0].(map[string]any)["content"].([]any)
	if parts[1].(map[string]any)["type"] != "image_url" {
		t.Fatalf("png should be sent as image_url, got %v", parts[1])
	}
}

func TestExtract_PDFSentAsFilePart(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, completion(`{"extractedData":{}}`))
	})
	if _, err := c.Extract(context.Background(), llm.ExtractRequest{FileName: "f.pdf", Data: []byte("%PDF"), Prompt: llm.BuildPrompt(constants.W2)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	part := got["messages"].([]any)[0].(map[string]any)["content"].([]any)[1].(map[string]any)
	file := part["file"].(map[string]any)
	if part["type"] != "file" || file["filename"] != "f.pdf" {
		t.Fatalf("unexpected pdf part %v", part)
	}
}

func TestExtract_FailureKinds(t *testing.T) {
	cases := []struct {
		name string
		h    http.HandlerFunc
		kind error
	}{
		{"non-2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }, llm.ErrTransport},
		{"empty", func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, completion("")) }, llm.ErrEmptyResponse},
		{"no choices", func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, `{"choices":[]}`) }, llm.ErrEmptyResponse},
		{"not json", func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, completion("sorry, I cannot")) }, llm.ErrInvalidJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.h)
			_, err := c.Extract(context.Background(), llm.ExtractRequest{FileName: "a.pdf", Prompt: llm.BuildPrompt(constants.Other)})
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestExtract_TimeoutIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, quietLogger())

	_, err := c.Extract(context.Background(), llm.ExtractRequest{FileName: "a.pdf", Prompt: llm.BuildPrompt(constants.Other)})
	if !errors.Is(err, llm.ErrTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}
}
