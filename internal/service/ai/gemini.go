package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GenerationConfig bounds a single generation call.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Response is the variant-shaped payload returned by the generation service.
// At most one of the recognized shapes is usually populated; Raw always holds
// the undecoded body so dump fallbacks and operator logging can see everything
// the service sent.
type Response struct {
	Text       string      `json:"text"`
	Outputs    []Output    `json:"outputs"`
	Candidates []Candidate `json:"candidates"`

	Raw json.RawMessage `json:"-"`
}

// Output is one element of the "outputs" response shape.
type Output struct {
	Content      json.RawMessage `json:"content"`
	FinishReason string          `json:"finishReason"`
}

// Candidate is one element of the "candidates" response shape.
type Candidate struct {
	Content      json.RawMessage `json:"content"`
	FinishReason string          `json:"finishReason"`
}

// Generator is the outbound boundary to the text-generation service.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (*Response, error)
}

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Gemini generateContent REST endpoint. The raw body
// is decoded into the variant Response rather than a vendor SDK type so the
// invoker can probe whichever shape actually arrived.
//
// No request timeout is configured: a hung upstream call hangs the request
// until the client disconnects and the request context is canceled.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a client for the given model.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGeminiBaseURL,
		httpClient: &http.Client{},
	}
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

// Generate sends one generation call and decodes the response body.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (*Response, error) {
	payload, err := json.Marshal(generateRequest{
		Contents:         []requestContent{{Parts: []requestPart{{Text: prompt}}}},
		GenerationConfig: cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.baseURL, "/"), c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The body stays in the error text: the retry cycle keys on upstream
		// failures that mention a max-tokens condition.
		return nil, fmt.Errorf("generation request failed with status %d: %s", resp.StatusCode, body)
	}

	// A body that does not match any known shape is still a response, not a
	// transport failure: the invoker falls back to dumping Raw and the
	// sanitizer takes it from there.
	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		out = Response{}
	}
	out.Raw = body
	return &out, nil
}
