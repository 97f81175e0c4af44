package ai

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// FallbackReply replaces assistant text that could not be salvaged from a raw
// payload dump.
const FallbackReply = "[Sorry — assistant returned an internal message. Please try again or ask to continue.]"

const defaultLengthThreshold = 16000

// Sanitizer hides raw payload dumps from clients, substituting the closest
// safe text found in the response or a fixed apology. Raw payloads only ever
// reach the operator log.
type Sanitizer struct {
	lengthThreshold int
	log             *logrus.Logger
}

// NewSanitizer creates a sanitizer with the given absurd-length threshold;
// values <= 0 fall back to the default.
func NewSanitizer(lengthThreshold int, log *logrus.Logger) *Sanitizer {
	if lengthThreshold <= 0 {
		lengthThreshold = defaultLengthThreshold
	}
	return &Sanitizer{lengthThreshold: lengthThreshold, log: log}
}

// Sanitize returns text unchanged when it is clean. Dump-like text is
// replaced by the first safe string found in the response outputs, or by
// FallbackReply. Sanitize is idempotent: clean text and already-substituted
// fallback text pass through untouched.
func (s *Sanitizer) Sanitize(text string, resp *Response) string {
	if !s.looksLikeDump(text) {
		return text
	}

	s.logRawResponse(resp)

	if resp != nil {
		for _, out := range resp.Outputs {
			candidate, ok := contentText(out.Content)
			if !ok || strings.TrimSpace(candidate) == "" {
				continue
			}
			if !s.looksLikeDump(candidate) {
				return candidate
			}
		}
	}

	return FallbackReply
}

// looksLikeDump classifies text as a raw payload dump: JSON-ish leading
// character, internal response markers, or absurd length. The fixed fallback
// string is exempt so repeated sanitization never reclassifies it.
func (s *Sanitizer) looksLikeDump(text string) bool {
	if text == FallbackReply {
		return false
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return true
	}
	if strings.Contains(text, `"candidates"`) || strings.Contains(text, `"finishReason"`) {
		return true
	}
	return len(text) > s.lengthThreshold
}

func (s *Sanitizer) logRawResponse(resp *Response) {
	entry := s.log.WithField("subsystem", "sanitizer")
	if resp != nil && len(resp.Raw) > 0 {
		entry = entry.WithField("raw", string(resp.Raw))
	}
	entry.Warn("assistant text looked like a raw payload dump; hiding it from the client")
}
