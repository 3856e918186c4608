package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/tablemind/recall/internal/memory"
)

// factView is the JSON shape of a fact in API responses, with the live
// score computed at request time.
type factView struct {
	ID             string  `json:"id"`
	Content        string  `json:"content"`
	Category       string  `json:"category"`
	Importance     int     `json:"importance"`
	Source         string  `json:"source"`
	CreatedAt      string  `json:"created_at"`
	LastAccessedAt string  `json:"last_accessed_at"`
	AccessCount    int     `json:"access_count"`
	SessionID      int64   `json:"session_id"`
	Score          float64 `json:"score"`
}

func newFactView(f memory.Fact, now time.Time) factView {
	return factView{
		ID:             f.ID,
		Content:        f.Content,
		Category:       string(f.Category),
		Importance:     f.Importance,
		Source:         string(f.Source),
		CreatedAt:      f.CreatedAt.Format(time.RFC3339),
		LastAccessedAt: f.LastAccessedAt.Format(time.RFC3339),
		AccessCount:    f.AccessCount,
		SessionID:      f.SessionID,
		Score:          memory.Score(f, now),
	}
}

// handleListFacts returns GET /api/facts: all facts sorted by descending
// score. Listing does not bump access metadata.
func (g *Gateway) handleListFacts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		facts, err := g.store.All(r.Context())
		if err != nil {
			g.writeError(w, http.StatusInternalServerError, err)
			return
		}

		now := time.Now()
		views := make([]factView, 0, len(facts))
		for _, f := range facts {
			views = append(views, newFactView(f, now))
		}
		sort.Slice(views, func(a, b int) bool { return views[a].Score > views[b].Score })

		writeJSON(w, http.StatusOK, map[string]any{"facts": views})
	}
}

// rememberRequest is the body of POST /api/facts.
type rememberRequest struct {
	Content    string `json:"content"`
	Category   string `json:"category"`
	Importance int    `json:"importance"`
}

// handleRememberFact stores an explicit fact via the engine, so it passes
// the same privacy gate and deduplication as extracted facts.
func (g *Gateway) handleRememberFact() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rememberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			g.writeError(w, http.StatusBadRequest, err)
			return
		}

		category, err := memory.ParseCategory(req.Category)
		if err != nil {
			g.writeError(w, http.StatusBadRequest, err)
			return
		}

		fact, err := g.engine.Remember(r.Context(), req.Content, category, req.Importance)
		switch {
		case errors.Is(err, memory.ErrPrivacyRejected) || errors.Is(err, memory.ErrDuplicateFact):
			g.writeError(w, http.StatusConflict, err)
			return
		case errors.Is(err, memory.ErrEmptyContent) || errors.Is(err, memory.ErrInvalidImportance):
			g.writeError(w, http.StatusBadRequest, err)
			return
		case err != nil:
			g.writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusCreated, newFactView(fact, time.Now()))
	}
}

// handleForgetFacts handles DELETE /api/facts?fragment=..., removing every
// fact whose content contains the fragment.
func (g *Gateway) handleForgetFacts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fragment := r.URL.Query().Get("fragment")
		if fragment == "" {
			g.writeError(w, http.StatusBadRequest, errors.New("fragment query parameter is required"))
			return
		}

		removed, err := g.engine.Forget(r.Context(), fragment)
		if err != nil {
			g.writeError(w, http.StatusInternalServerError, err)
			return
		}

		now := time.Now()
		views := make([]factView, 0, len(removed))
		for _, f := range removed {
			views = append(views, newFactView(f, now))
		}
		writeJSON(w, http.StatusOK, map[string]any{"removed": views})
	}
}

// statsResponse is the JSON response for GET /api/stats.
type statsResponse struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	Session    int64          `json:"session"`
}

func (g *Gateway) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := g.store.CountByCategory(r.Context())
		if err != nil {
			g.writeError(w, http.StatusInternalServerError, err)
			return
		}
		session, err := g.store.CurrentSession(r.Context())
		if err != nil {
			g.writeError(w, http.StatusInternalServerError, err)
			return
		}

		resp := statsResponse{
			Total:      g.store.Len(),
			ByCategory: make(map[string]int, len(counts)),
			Session:    session,
		}
		for category, n := range counts {
			resp.ByCategory[string(category)] = n
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleNewSession handles POST /api/sessions, starting a new session.
// Facts persist; only the session counter advances.
func (g *Gateway) handleNewSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := g.store.BeginSession(r.Context())
		if err != nil {
			g.writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"session": session})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (g *Gateway) writeError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		g.logger.Error("gateway request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
