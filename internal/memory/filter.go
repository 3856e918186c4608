package memory

import (
	"strings"

	"github.com/tablemind/recall/internal/provider"
)

// FilterTranscript reduces a turn transcript to the human-readable
// conversation: user turns and assistant turns that carry text. Tool-role
// messages, assistant messages whose only content was a tool invocation,
// and system messages are all dropped — they add noise and token cost
// without extraction value.
func FilterTranscript(msgs []provider.LLMMessage) []provider.LLMMessage {
	var filtered []provider.LLMMessage
	for _, m := range msgs {
		switch m.Role {
		case provider.MessageRoleUser:
			filtered = append(filtered, m)
		case provider.MessageRoleAssistant:
			if strings.TrimSpace(m.Content) != "" {
				filtered = append(filtered, m)
			}
		}
	}
	return filtered
}
