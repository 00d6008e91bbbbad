package vertex

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/vertexai/genai"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/llm"
)

type generateFunc func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)

func (f generateFunc) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return f(ctx, parts...)
}

func candidate(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}}}
}

func newTestClient(gen generateFunc) *Client {
	return &Client{
		cfg:    Config{Model: "gemini-test", Timeout: time.Second},
		model:  gen,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestExtract_SendsDocumentAndPrompt(t *testing.T) {
	var got []genai.Part
	c := newTestClient(func(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
		got = parts
		return candidate(genai.Text("```json\n{\"ocrText\":\"t\","), genai.Text("\"extractedData\":{}}\n```")), nil
	})

	prompt := llm.BuildPrompt(constants.W2)
	res, err := c.Extract(context.Background(), llm.ExtractRequest{FileName: "w2.pdf", Data: []byte("%PDF"), Prompt: prompt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Content) != `{"ocrText":"t","extractedData":{}}` {
		t.Fatalf("unexpected content %s", res.Content)
	}
	if res.Method != ProcessingMethod || res.Model != "gemini-test" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(got) != 2 {
		t.Fatalf("parts = %d, want 2", len(got))
	}
	blob, ok := got[0].(genai.Blob)
	if !ok || blob.MIMEType != constants.MimePDF || string(blob.Data) != "%PDF" {
		t.Fatalf("unexpected document part %#v", got[0])
	}
	if txt, ok := got[1].(genai.Text); !ok || string(txt) != prompt.Instructions {
		t.Fatalf("unexpected prompt part %#v", got[1])
	}
}

func TestExtract_FailureKinds(t *testing.T) {
	cases := []struct {
		name string
		resp *genai.GenerateContentResponse
		err  error
		kind error
	}{
		{"transport", nil, errors.New("rpc error: code = Unavailable"), llm.ErrTransport},
		{"nil response", nil, nil, llm.ErrEmptyResponse},
		{"no candidates", &genai.GenerateContentResponse{}, nil, llm.ErrEmptyResponse},
		{"no content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}, nil, llm.ErrEmptyResponse},
		{"only blobs", candidate(genai.Blob{MIMEType: "image/png", Data: []byte("x")}), nil, llm.ErrEmptyResponse},
		{"not json", candidate(genai.Text("sorry, I cannot")), nil, llm.ErrInvalidJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(func(context.Context, ...genai.Part) (*genai.GenerateContentResponse, error) {
				return tc.resp, tc.err
			})
			_, err := c.Extract(context.Background(), llm.ExtractRequest{FileName: "a.png", Prompt: llm.BuildPrompt(constants.Other)})
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestExtract_AppliesTimeout(t *testing.T) {
	c := newTestClient(func(ctx context.Context, _ ...genai.Part) (*genai.GenerateContentResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c.cfg.Timeout = 20 * time.Millisecond

	_, err := c.Extract(context.Background(), llm.ExtractRequest{FileName: "a.png", Prompt: llm.BuildPrompt(constants.Other)})
	if !errors.Is(err, llm.ErrTransport) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected transport failure with deadline, got %v", err)
	}
}
