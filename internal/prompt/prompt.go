// Package prompt assembles the context string sent to the completion service.
package prompt

import (
	"strings"

	"github.com/nsharma/gptchat/internal/domain"
)

// HistoryWindow is how many trailing messages of a chat's history are kept
// when assembling context. Older messages are dropped, not summarized.
const HistoryWindow = 10

// closing is the directive appended after the conversation transcript.
const closing = "\n\nPlease continue this conversation and stay on topic."

// Build renders the recent history plus the new user utterance as a single
// prompt. On the first turn (empty window) the prompt is exactly the
// utterance with no framing. Pure function.
func Build(history []domain.Message, text string) string {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	if len(history) == 0 {
		return text
	}

	var b strings.Builder
	for _, msg := range history {
		b.WriteString(roleLabel(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(text)
	b.WriteString(closing)
	return b.String()
}

func roleLabel(role domain.Role) string {
	if role == domain.RoleUser {
		return "User"
	}
	return "Assistant"
}
