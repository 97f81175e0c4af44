package ai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSanitizer(threshold int) (*Sanitizer, *logtest.Hook) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewSanitizer(threshold, log), hook
}

func TestSanitizeLeavesCleanTextAlone(t *testing.T) {
	s, hook := newTestSanitizer(0)

	text := "Try the roasted chickpeas, they match your low-sugar preference."
	assert.Equal(t, text, s.Sanitize(text, nil))
	assert.Empty(t, hook.Entries)
}

func TestSanitizeReplacesJSONLikeText(t *testing.T) {
	s, _ := newTestSanitizer(0)

	for _, text := range []string{
		`{"candidates":[{"content":"x"}]}`,
		`  {"anything": 1}`,
		`["a","b"]`,
	} {
		assert.Equal(t, FallbackReply, s.Sanitize(text, nil), "input: %s", text)
	}
}

func TestSanitizeReplacesMarkerText(t *testing.T) {
	s, _ := newTestSanitizer(0)

	assert.Equal(t, FallbackReply, s.Sanitize(`the model said "finishReason" was STOP`, nil))
	assert.Equal(t, FallbackReply, s.Sanitize(`leaked "candidates" list follows`, nil))
}

func TestSanitizeReplacesAbsurdlyLongText(t *testing.T) {
	s, _ := newTestSanitizer(64)

	long := strings.Repeat("very long reply ", 10)
	require.Greater(t, len(long), 64)
	assert.Equal(t, FallbackReply, s.Sanitize(long, nil))
}

func TestSanitizeUsesSafeOutputFallback(t *testing.T) {
	s, _ := newTestSanitizer(0)

	dumpContent, _ := json.Marshal(`{"still":"a dump"}`)
	safeContent, _ := json.Marshal("Here is a friendly answer instead.")
	resp := &Response{
		Outputs: []Output{
			{Content: dumpContent},
			{Content: safeContent},
		},
	}

	got := s.Sanitize(`{"sdk":"dump"}`, resp)
	assert.Equal(t, "Here is a friendly answer instead.", got)
}

func TestSanitizeFallsBackToApology(t *testing.T) {
	s, _ := newTestSanitizer(0)

	dumpContent, _ := json.Marshal(`{"still":"a dump"}`)
	resp := &Response{Outputs: []Output{{Content: dumpContent}}}

	assert.Equal(t, FallbackReply, s.Sanitize(`{"sdk":"dump"}`, resp))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	s, _ := newTestSanitizer(0)

	for _, text := range []string{
		"a perfectly normal reply",
		`{"payload":"dump"}`,
		FallbackReply,
	} {
		once := s.Sanitize(text, nil)
		twice := s.Sanitize(once, nil)
		assert.Equal(t, once, twice, "input: %s", text)
	}
}

func TestSanitizeLogsRawPayloadServerSideOnly(t *testing.T) {
	s, hook := newTestSanitizer(0)

	raw := []byte(`{"candidates":[{"finishReason":"STOP","content":"secret"}]}`)
	resp := &Response{Raw: raw}

	got := s.Sanitize(`{"leak":"attempt"}`, resp)

	assert.Equal(t, FallbackReply, got)
	assert.NotContains(t, got, "secret")

	require.NotEmpty(t, hook.Entries)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, string(raw), entry.Data["raw"])
}
