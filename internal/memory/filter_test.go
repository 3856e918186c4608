package memory

import (
	"encoding/json"
	"testing"

	"github.com/tablemind/recall/internal/provider"
)

func TestFilterTranscript(t *testing.T) {
	t.Parallel()

	transcript := []provider.LLMMessage{
		{Role: provider.MessageRoleSystem, Content: "You are a dining assistant."},
		{Role: provider.MessageRoleUser, Content: "Find me a vegetarian place near Midtown"},
		{Role: provider.MessageRoleAssistant, Content: "", ToolCalls: []provider.ToolCall{
			{ID: "t1", Name: "search_restaurants", Arguments: json.RawMessage(`{"query":"vegetarian midtown"}`)},
		}},
		{Role: provider.MessageRoleTool, Content: `{"results":["Green Table","Sprout"]}`, ToolID: "t1"},
		{Role: provider.MessageRoleAssistant, Content: "Green Table in Midtown has a great vegetarian menu."},
	}

	filtered := FilterTranscript(transcript)

	if len(filtered) != 2 {
		t.Fatalf("filtered length = %d, want 2", len(filtered))
	}
	if filtered[0].Role != provider.MessageRoleUser {
		t.Errorf("filtered[0].Role = %q, want user", filtered[0].Role)
	}
	if filtered[1].Role != provider.MessageRoleAssistant || filtered[1].Content == "" {
		t.Errorf("filtered[1] = %+v, want assistant with text", filtered[1])
	}
}

func TestFilterTranscript_WhitespaceOnlyAssistant(t *testing.T) {
	t.Parallel()

	filtered := FilterTranscript([]provider.LLMMessage{
		{Role: provider.MessageRoleAssistant, Content: "  \n\t"},
	})
	if len(filtered) != 0 {
		t.Errorf("whitespace-only assistant message kept: %+v", filtered)
	}
}

func TestFilterTranscript_Empty(t *testing.T) {
	t.Parallel()

	if got := FilterTranscript(nil); got != nil {
		t.Errorf("FilterTranscript(nil) = %v, want nil", got)
	}
}
