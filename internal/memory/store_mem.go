package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a thread-safe, in-memory implementation of Store.
// It offers no durability and exists for tests and ephemeral runs; the
// persistent implementation lives in modules/memory/sqlite.
type InMemoryStore struct {
	mu      sync.RWMutex
	facts   []Fact
	session int64
	now     func() time.Time
}

// NewInMemoryStore creates an empty store with the session counter at 1.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		session: 1,
		now:     time.Now,
	}
}

// Compile-time interface check.
var _ Store = (*InMemoryStore)(nil)

// Add constructs and stores a new fact.
func (s *InMemoryStore) Add(_ context.Context, content string, category Category, importance int, source Source) (Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	fact := Fact{
		ID:             uuid.NewString(),
		Content:        content,
		Category:       category,
		Importance:     importance,
		Source:         source,
		CreatedAt:      now,
		LastAccessedAt: now,
		AccessCount:    0,
		SessionID:      s.session,
	}
	if err := fact.Validate(); err != nil {
		return Fact{}, err
	}

	s.facts = append(s.facts, fact)
	return fact, nil
}

// Deduplicate returns the first same-category fact overlapping content by
// case-insensitive substring containment in either direction.
func (s *InMemoryStore) Deduplicate(_ context.Context, content string, category Category) (*Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidate := strings.ToLower(content)
	for i := range s.facts {
		if s.facts[i].Category != category {
			continue
		}
		existing := strings.ToLower(s.facts[i].Content)
		if strings.Contains(candidate, existing) || strings.Contains(existing, candidate) {
			match := s.facts[i]
			return &match, nil
		}
	}
	return nil, nil
}

// ForgetByContent removes every fact containing fragment (case-insensitive)
// and returns the removed set.
func (s *InMemoryStore) ForgetByContent(_ context.Context, fragment string) ([]Fact, error) {
	if fragment == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(fragment)
	var removed []Fact
	kept := s.facts[:0]
	for i := range s.facts {
		if strings.Contains(strings.ToLower(s.facts[i].Content), needle) {
			removed = append(removed, s.facts[i])
			continue
		}
		kept = append(kept, s.facts[i])
	}
	s.facts = kept
	return removed, nil
}

// All returns a snapshot copy of every stored fact.
func (s *InMemoryStore) All(_ context.Context) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]Fact, len(s.facts))
	copy(snapshot, s.facts)
	return snapshot, nil
}

// TopForInjection returns the limit highest-scoring facts and bumps their
// access metadata.
func (s *InMemoryStore) TopForInjection(_ context.Context, limit int) ([]Fact, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	order := make([]int, len(s.facts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return Score(s.facts[order[a]], now) > Score(s.facts[order[b]], now)
	})

	if limit > len(order) {
		limit = len(order)
	}

	selected := make([]Fact, 0, limit)
	for _, idx := range order[:limit] {
		s.facts[idx].LastAccessedAt = now
		s.facts[idx].AccessCount++
		selected = append(selected, s.facts[idx])
	}
	return selected, nil
}

// CountByCategory returns fact counts keyed by category.
func (s *InMemoryStore) CountByCategory(_ context.Context) (map[Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[Category]int)
	for i := range s.facts {
		counts[s.facts[i].Category]++
	}
	return counts, nil
}

// ClearAll removes every fact, leaving the session counter untouched.
func (s *InMemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.facts = nil
	return nil
}

// CurrentSession returns the active session number.
func (s *InMemoryStore) CurrentSession(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, nil
}

// BeginSession increments and returns the session counter.
func (s *InMemoryStore) BeginSession(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session++
	return s.session, nil
}

// Len returns the total number of stored facts.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts)
}
