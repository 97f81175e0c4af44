package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/freshpick/smartshop/backend/internal/config"
)

// Dumps of unrecognized response bodies are capped before they become
// assistant text; the sanitizer always catches them anyway.
const maxDumpChars = 2000

// Outcome is the normalized result of one invocation cycle.
type Outcome struct {
	// Text is the extracted assistant text, unsanitized.
	Text string
	// FinishReason is the finish reason of the accepted response, empty when
	// none was populated.
	FinishReason string
	// Truncated is latched as soon as any attempt in the cycle saw a
	// truncation signal, even if the accepted response finished clean.
	Truncated bool
	// Response is the accepted variant-shaped response, kept for the
	// sanitizer's fallback scan and operator logging.
	Response *Response
}

// Service runs generation calls with the bounded retry policy and owns the
// output sanitizer.
type Service struct {
	generator Generator
	cfg       config.AIConfig
	sanitizer *Sanitizer
	log       *logrus.Logger
}

// NewService creates the generation service around a Generator.
func NewService(generator Generator, cfg config.AIConfig, log *logrus.Logger) *Service {
	return &Service{
		generator: generator,
		cfg:       cfg,
		sanitizer: NewSanitizer(cfg.SanitizeThreshold, log),
		log:       log,
	}
}

// Invoke runs the bounded retry cycle: at most one retry, taken only on a
// truncation signal, with the output-token ceiling raised on the second
// attempt. The second attempt's response is accepted regardless of its finish
// reason; any non-truncation error fails the cycle immediately.
func (s *Service) Invoke(ctx context.Context, prompt string) (Outcome, error) {
	genCfg := GenerationConfig{
		Temperature:     s.cfg.Temperature,
		MaxOutputTokens: s.cfg.MaxOutputTokens,
	}

	truncated := false
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := s.generator.Generate(ctx, prompt, genCfg)
		if err != nil {
			if attempt == 0 && mentionsMaxTokens(err) {
				s.log.WithError(err).Warn("[ai] generation error mentions max tokens, retrying with larger ceiling")
				truncated = true
				genCfg.MaxOutputTokens = s.cfg.RetryMaxOutputTokens
				continue
			}
			return Outcome{}, fmt.Errorf("generate content: %w", err)
		}

		outcome := newOutcome(resp)
		if attempt == 0 && outcome.Truncated {
			s.log.WithField("finishReason", outcome.FinishReason).Warn("[ai] output truncated, retrying with larger ceiling")
			truncated = true
			genCfg.MaxOutputTokens = s.cfg.RetryMaxOutputTokens
			continue
		}
		outcome.Truncated = outcome.Truncated || truncated
		return outcome, nil
	}

	return Outcome{}, errors.New("generation failed after retry")
}

// Sanitize cleans assistant text through the service's sanitizer.
func (s *Service) Sanitize(text string, resp *Response) string {
	return s.sanitizer.Sanitize(text, resp)
}

func newOutcome(resp *Response) Outcome {
	reason := finishReason(resp)
	return Outcome{
		Text:         extractText(resp),
		FinishReason: reason,
		Truncated:    isTruncationReason(reason),
		Response:     resp,
	}
}

// extractText pulls assistant text out of whichever response shape is
// present, in fixed priority order: top-level text, the first output's
// content, the first candidate's content, then a capped dump of the whole
// body.
func extractText(resp *Response) string {
	if resp.Text != "" {
		return resp.Text
	}
	if len(resp.Outputs) > 0 && present(resp.Outputs[0].Content) {
		if text, ok := contentText(resp.Outputs[0].Content); ok {
			return text
		}
		return string(resp.Outputs[0].Content)
	}
	if len(resp.Candidates) > 0 && present(resp.Candidates[0].Content) {
		if text, ok := contentText(resp.Candidates[0].Content); ok {
			return text
		}
		return string(resp.Candidates[0].Content)
	}

	dump := string(resp.Raw)
	if len(dump) > maxDumpChars {
		dump = dump[:maxDumpChars]
	}
	return dump
}

// contentText extracts natural-language text from the content shapes the
// service is known to return: a bare string, a parts container, a list of
// text parts, or a single text object. ok is false when the content is
// structured in some other way and must be stringified.
func contentText(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var container struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}
	if err := json.Unmarshal(raw, &container); err == nil && len(container.Parts) > 0 {
		var b strings.Builder
		for _, part := range container.Parts {
			b.WriteString(part.Text)
		}
		if b.Len() > 0 {
			return b.String(), true
		}
	}

	var list []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0].Text != "" {
		return list[0].Text, true
	}

	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Text != "" {
		return obj.Text, true
	}

	return "", false
}

// finishReason reads the first populated finish-reason location.
func finishReason(resp *Response) string {
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		return resp.Candidates[0].FinishReason
	}
	if len(resp.Outputs) > 0 && resp.Outputs[0].FinishReason != "" {
		return resp.Outputs[0].FinishReason
	}
	return ""
}

func isTruncationReason(reason string) bool {
	return strings.EqualFold(reason, "MAX_TOKENS")
}

func mentionsMaxTokens(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "max_tokens") || strings.Contains(msg, "max tokens")
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
