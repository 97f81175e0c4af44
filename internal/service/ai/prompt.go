package ai

import (
	"fmt"
	"strings"

	"github.com/freshpick/smartshop/backend/internal/model/chat"
	"github.com/freshpick/smartshop/backend/internal/service/preferences"
)

const noPreferenceInstruction = "You are a helpful personal shopping assistant. No explicit user preferences were found. Ask clarifying questions if needed."

// SystemInstruction renders the assistant framing for a preference lookup
// result. Unrecognized collaborator payloads are stringified into the
// instruction verbatim, unescaped; the prompt-injection exposure this opens
// is inherited behavior, kept intentionally.
func SystemInstruction(prefs preferences.Result) string {
	if len(prefs.Labels) > 0 {
		return preferenceInstruction(strings.Join(prefs.Labels, ", "))
	}
	if prefs.Raw != nil {
		return preferenceInstruction(fmt.Sprintf("%v", prefs.Raw))
	}
	return noPreferenceInstruction
}

func preferenceInstruction(text string) string {
	return fmt.Sprintf("You are a helpful personal shopping assistant. User preferences: %s. Always keep these preferences in mind when giving recommendations (e.g., prefer items that match preferences). Ask clarifying questions if required. Be concise and friendly.", text)
}

// BuildPrompt renders the upstream request payload from the system
// instruction and the recent turns. The exact framing is part of the wire
// contract with the model; do not reformat.
func BuildPrompt(systemInstruction string, turns []chat.Turn) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\nConversation:\n")
	for _, turn := range turns {
		if turn.Role == chat.RoleUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(turn.Content)
		b.WriteByte('\n')
	}
	b.WriteString("Assistant:")
	return b.String()
}
