package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tablemind/recall/internal/memory"
	"github.com/tablemind/recall/internal/privacy"
	"github.com/tablemind/recall/internal/provider"
)

type noopExtractor struct{}

func (noopExtractor) Extract(context.Context, []provider.LLMMessage, []string) (memory.ExtractionResult, error) {
	return memory.ExtractionResult{}, nil
}

func newTestServer(t *testing.T) (*Server, *memory.InMemoryStore) {
	t.Helper()

	store := memory.NewInMemoryStore()
	engine := memory.NewEngine(store, noopExtractor{}, privacy.NewGate())
	return New(store, engine, "test", nil), store
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is not text: %T", res.Content[0])
	}
	return text.Text
}

func TestHandleStore(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)

	res, err := s.handleStore(context.Background(), callRequest("memory_store", map[string]any{
		"content":    "User is vegetarian",
		"category":   "dietary",
		"importance": float64(9),
	}))
	if err != nil {
		t.Fatalf("handleStore: %v", err)
	}
	if res.IsError {
		t.Fatalf("result is error: %s", resultText(t, res))
	}
	if store.Len() != 1 {
		t.Errorf("store.Len = %d, want 1", store.Len())
	}

	// Duplicate is reported as a tool error, not a protocol error.
	res, err = s.handleStore(context.Background(), callRequest("memory_store", map[string]any{
		"content":  "User is vegetarian",
		"category": "dietary",
	}))
	if err != nil {
		t.Fatalf("handleStore: %v", err)
	}
	if !res.IsError {
		t.Error("duplicate store did not report an error result")
	}
}

func TestHandleStore_PrivacyRejected(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)

	res, err := s.handleStore(context.Background(), callRequest("memory_store", map[string]any{
		"content":  "SSN is 123-45-6789",
		"category": "personal",
	}))
	if err != nil {
		t.Fatalf("handleStore: %v", err)
	}
	if !res.IsError {
		t.Error("sensitive store did not report an error result")
	}
	if store.Len() != 0 {
		t.Errorf("sensitive fact stored: Len = %d", store.Len())
	}
}

func TestHandleStore_MissingArgs(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	res, err := s.handleStore(context.Background(), callRequest("memory_store", map[string]any{}))
	if err != nil {
		t.Fatalf("handleStore: %v", err)
	}
	if !res.IsError {
		t.Error("missing content did not report an error result")
	}
}

func TestHandleRecall(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)
	ctx := context.Background()
	if _, err := store.Add(ctx, "User is vegetarian", memory.CategoryDietary, 9, memory.SourceExtracted); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(ctx, "User loves Thai food", memory.CategoryCuisine, 6, memory.SourceExtracted); err != nil {
		t.Fatalf("Add: %v", err)
	}

	res, err := s.handleRecall(ctx, callRequest("memory_recall", map[string]any{}))
	if err != nil {
		t.Fatalf("handleRecall: %v", err)
	}
	if res.IsError {
		t.Fatalf("result is error: %s", resultText(t, res))
	}

	var payload struct {
		Facts []recalledFact `json:"facts"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Facts) != 2 {
		t.Fatalf("facts = %d, want 2", len(payload.Facts))
	}
	// Highest importance first.
	if payload.Facts[0].Content != "User is vegetarian" {
		t.Errorf("facts[0] = %+v", payload.Facts[0])
	}

	// Recall bumps access metadata.
	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	for _, f := range all {
		if f.AccessCount != 1 {
			t.Errorf("fact %q AccessCount = %d, want 1", f.Content, f.AccessCount)
		}
	}
}

func TestHandleRecall_Limit(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := store.Add(ctx, "fact "+string(rune('a'+i)), memory.CategoryPersonal, 5, memory.SourceExtracted); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	res, err := s.handleRecall(ctx, callRequest("memory_recall", map[string]any{"limit": float64(2)}))
	if err != nil {
		t.Fatalf("handleRecall: %v", err)
	}

	var payload struct {
		Facts []recalledFact `json:"facts"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Facts) != 2 {
		t.Errorf("facts = %d, want 2", len(payload.Facts))
	}
}

func TestHandleForget(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)
	ctx := context.Background()
	if _, err := store.Add(ctx, "User loves sushi", memory.CategoryCuisine, 7, memory.SourceExtracted); err != nil {
		t.Fatalf("Add: %v", err)
	}

	res, err := s.handleForget(ctx, callRequest("memory_forget", map[string]any{"fragment": "sushi"}))
	if err != nil {
		t.Fatalf("handleForget: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "Forgot 1 fact") {
		t.Errorf("text = %q", text)
	}
	if store.Len() != 0 {
		t.Errorf("store.Len = %d, want 0", store.Len())
	}

	// Nothing left to match.
	res, err = s.handleForget(ctx, callRequest("memory_forget", map[string]any{"fragment": "sushi"}))
	if err != nil {
		t.Fatalf("handleForget: %v", err)
	}
	if got := resultText(t, res); got != "Nothing matched." {
		t.Errorf("text = %q", got)
	}
}
