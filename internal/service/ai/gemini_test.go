package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeminiClient(srv *httptest.Server) *GeminiClient {
	client := NewGeminiClient("test-key", "gemini-2.5-flash")
	client.baseURL = srv.URL
	client.httpClient = srv.Client()
	return client
}

func TestGenerateSendsPromptAndConfig(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hi"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	client := newTestGeminiClient(srv)
	resp, err := client.Generate(context.Background(), "the prompt", GenerationConfig{Temperature: 0.6, MaxOutputTokens: 1024})

	require.NoError(t, err)
	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Equal(t, "the prompt", gotBody.Contents[0].Parts[0].Text)
	assert.Equal(t, 1024, gotBody.GenerationConfig.MaxOutputTokens)

	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "STOP", resp.Candidates[0].FinishReason)
	assert.Equal(t, "hi", extractText(resp))
}

func TestGenerateKeepsRawBody(t *testing.T) {
	const body = `{"candidates":[{"content":{"parts":[{"text":"hello"}]},"finishReason":"MAX_TOKENS"}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	resp, err := newTestGeminiClient(srv).Generate(context.Background(), "p", GenerationConfig{})

	require.NoError(t, err)
	assert.Equal(t, body, string(resp.Raw))
	assert.Equal(t, "MAX_TOKENS", finishReason(resp))
}

func TestGenerateUnrecognizedShapeIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":"oops"}`))
	}))
	defer srv.Close()

	resp, err := newTestGeminiClient(srv).Generate(context.Background(), "p", GenerationConfig{})

	require.NoError(t, err)
	assert.Empty(t, resp.Candidates)
	assert.Equal(t, `{"candidates":"oops"}`, string(resp.Raw))
	// The dump path hands this straight to the sanitizer.
	assert.Equal(t, `{"candidates":"oops"}`, extractText(resp))
}

func TestGenerateNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota"}}`))
	}))
	defer srv.Close()

	_, err := newTestGeminiClient(srv).Generate(context.Background(), "p", GenerationConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestGenerateErrorBodyCanDriveRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"request exceeds MAX_TOKENS limit"}}`))
	}))
	defer srv.Close()

	_, err := newTestGeminiClient(srv).Generate(context.Background(), "p", GenerationConfig{})

	require.Error(t, err)
	assert.True(t, mentionsMaxTokens(err))
}
