package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tablemind/recall/internal/memory"
	"github.com/tablemind/recall/internal/privacy"
	"github.com/tablemind/recall/internal/provider"
)

type noopExtractor struct{}

func (noopExtractor) Extract(context.Context, []provider.LLMMessage, []string) (memory.ExtractionResult, error) {
	return memory.ExtractionResult{}, nil
}

func newTestGateway(t *testing.T) (*Gateway, *memory.InMemoryStore) {
	t.Helper()

	store := memory.NewInMemoryStore()
	engine := memory.NewEngine(store, noopExtractor{}, privacy.NewGate())

	g, err := New(Config{
		Listen:    "127.0.0.1:0",
		AuthToken: "secret",
	}, store, engine, nil, NewMetrics(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g, store
}

func doRequest(t *testing.T, g *Gateway, method, target, token string, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	g.buildRouter().ServeHTTP(rec, req)
	return rec
}

func TestGateway_Health(t *testing.T) {
	t.Parallel()

	g, store := newTestGateway(t)
	if _, err := store.Add(context.Background(), "User is vegetarian", memory.CategoryDietary, 9, memory.SourceExtracted); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec := doRequest(t, g, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Facts != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGateway_AuthRequired(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t)

	if rec := doRequest(t, g, http.MethodGet, "/api/facts", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}
	if rec := doRequest(t, g, http.MethodGet, "/api/facts", "wrong", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
	if rec := doRequest(t, g, http.MethodGet, "/api/facts", "secret", ""); rec.Code != http.StatusOK {
		t.Errorf("good token: status = %d, want 200", rec.Code)
	}
}

func TestGateway_NoTokenDisablesAPI(t *testing.T) {
	t.Parallel()

	store := memory.NewInMemoryStore()
	engine := memory.NewEngine(store, noopExtractor{}, privacy.NewGate())
	g, err := New(Config{Listen: "127.0.0.1:0"}, store, engine, nil, NewMetrics(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if rec := doRequest(t, g, http.MethodGet, "/api/facts", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when api is unmounted", rec.Code)
	}
	if rec := doRequest(t, g, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestGateway_ListFacts(t *testing.T) {
	t.Parallel()

	g, store := newTestGateway(t)
	ctx := context.Background()
	if _, err := store.Add(ctx, "low importance", memory.CategoryPersonal, 1, memory.SourceExtracted); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(ctx, "high importance", memory.CategoryPersonal, 10, memory.SourceExtracted); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec := doRequest(t, g, http.MethodGet, "/api/facts", "secret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Facts []factView `json:"facts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Facts) != 2 {
		t.Fatalf("facts = %d, want 2", len(resp.Facts))
	}
	if resp.Facts[0].Content != "high importance" {
		t.Errorf("facts not sorted by score: %+v", resp.Facts)
	}
	if resp.Facts[0].Score <= resp.Facts[1].Score {
		t.Errorf("scores not descending: %v, %v", resp.Facts[0].Score, resp.Facts[1].Score)
	}

	// Listing must not bump access metadata.
	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	for _, f := range all {
		if f.AccessCount != 0 {
			t.Errorf("listing bumped access count on %q", f.Content)
		}
	}
}

func TestGateway_RememberFact(t *testing.T) {
	t.Parallel()

	g, store := newTestGateway(t)

	body := `{"content":"User is allergic to peanuts","category":"dietary","importance":10}`
	rec := doRequest(t, g, http.MethodPost, "/api/facts", "secret", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if store.Len() != 1 {
		t.Errorf("store.Len = %d", store.Len())
	}

	// Duplicate is a conflict.
	rec = doRequest(t, g, http.MethodPost, "/api/facts", "secret", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	// Sensitive content is a conflict too.
	rec = doRequest(t, g, http.MethodPost, "/api/facts", "secret",
		`{"content":"SSN 123-45-6789","category":"personal","importance":5}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("sensitive status = %d, want 409", rec.Code)
	}

	// Unknown category is a bad request.
	rec = doRequest(t, g, http.MethodPost, "/api/facts", "secret",
		`{"content":"x","category":"mood","importance":5}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad category status = %d, want 400", rec.Code)
	}
}

func TestGateway_ForgetFacts(t *testing.T) {
	t.Parallel()

	g, store := newTestGateway(t)
	ctx := context.Background()
	if _, err := store.Add(ctx, "User loves sushi", memory.CategoryCuisine, 7, memory.SourceExtracted); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec := doRequest(t, g, http.MethodDelete, "/api/facts?fragment=sushi", "secret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Removed []factView `json:"removed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Removed) != 1 {
		t.Errorf("removed = %d, want 1", len(resp.Removed))
	}
	if store.Len() != 0 {
		t.Errorf("store.Len = %d, want 0", store.Len())
	}

	// Missing fragment is a bad request.
	if rec := doRequest(t, g, http.MethodDelete, "/api/facts", "secret", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing fragment status = %d, want 400", rec.Code)
	}
}

func TestGateway_StatsAndSessions(t *testing.T) {
	t.Parallel()

	g, store := newTestGateway(t)
	ctx := context.Background()
	if _, err := store.Add(ctx, "User is vegetarian", memory.CategoryDietary, 9, memory.SourceExtracted); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec := doRequest(t, g, http.MethodGet, "/api/stats", "secret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Total != 1 || stats.ByCategory["dietary"] != 1 || stats.Session != 1 {
		t.Errorf("stats = %+v", stats)
	}

	rec = doRequest(t, g, http.MethodPost, "/api/sessions", "secret", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("sessions status = %d", rec.Code)
	}
	var sess map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess["session"] != 2 {
		t.Errorf("session = %d, want 2", sess["session"])
	}
}

func TestGateway_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t)
	g.metrics.FactStored()
	g.metrics.FactsForgotten(2)

	rec := doRequest(t, g, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "recall_facts_stored_total 1") {
		t.Errorf("metrics missing stored counter:\n%s", body)
	}
	if !strings.Contains(body, "recall_facts_forgotten_total 2") {
		t.Errorf("metrics missing forgotten counter:\n%s", body)
	}
}

func TestNew_InvalidListen(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}, memory.NewInMemoryStore(), nil, nil, nil, nil); err == nil {
		t.Error("New succeeded with empty listen address")
	}
}
