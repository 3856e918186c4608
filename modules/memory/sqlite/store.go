package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tablemind/recall/internal/memory"
)

// Add constructs and persists a new fact with the current session ID.
func (s *Store) Add(ctx context.Context, content string, category memory.Category, importance int, source memory.Source) (memory.Fact, error) {
	session, err := s.CurrentSession(ctx)
	if err != nil {
		return memory.Fact{}, err
	}

	now := s.now().UTC()
	fact := memory.Fact{
		ID:             uuid.NewString(),
		Content:        content,
		Category:       category,
		Importance:     importance,
		Source:         source,
		CreatedAt:      now,
		LastAccessedAt: now,
		AccessCount:    0,
		SessionID:      session,
	}
	if err := fact.Validate(); err != nil {
		return memory.Fact{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO facts (id, content, category, importance, source, created_at, last_accessed_at, access_count, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fact.ID, fact.Content, string(fact.Category), fact.Importance, string(fact.Source),
		fact.CreatedAt.Format(time.RFC3339Nano),
		fact.LastAccessedAt.Format(time.RFC3339Nano),
		fact.AccessCount, fact.SessionID,
	)
	if err != nil {
		return memory.Fact{}, fmt.Errorf("sqlite: insert fact: %w", err)
	}

	return fact, nil
}

// Deduplicate returns the first same-category fact overlapping content by
// case-insensitive substring containment in either direction.
func (s *Store) Deduplicate(ctx context.Context, content string, category memory.Category) (*memory.Fact, error) {
	facts, err := s.factsByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	candidate := strings.ToLower(content)
	for i := range facts {
		existing := strings.ToLower(facts[i].Content)
		if strings.Contains(candidate, existing) || strings.Contains(existing, candidate) {
			match := facts[i]
			return &match, nil
		}
	}
	return nil, nil
}

// ForgetByContent removes every fact containing fragment (case-insensitive)
// and returns the removed set.
func (s *Store) ForgetByContent(ctx context.Context, fragment string) ([]memory.Fact, error) {
	if fragment == "" {
		return nil, nil
	}

	// LIKE is case-insensitive for ASCII in SQLite; escape its wildcards
	// so user text is matched literally.
	pattern := "%" + escapeLike(fragment) + "%"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin forget: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, selectFacts+` WHERE content LIKE ? ESCAPE '\'`, pattern)
	if err != nil {
		return nil, fmt.Errorf("sqlite: find forgettable facts: %w", err)
	}
	removed, err := scanFacts(rows)
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM facts WHERE content LIKE ? ESCAPE '\'`, pattern); err != nil {
		return nil, fmt.Errorf("sqlite: delete facts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit forget: %w", err)
	}
	return removed, nil
}

// All returns a full unordered snapshot of the stored facts.
func (s *Store) All(ctx context.Context) ([]memory.Fact, error) {
	rows, err := s.db.QueryContext(ctx, selectFacts)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list facts: %w", err)
	}
	return scanFacts(rows)
}

// TopForInjection returns the limit highest-scoring facts and bumps their
// access metadata transactionally.
func (s *Store) TopForInjection(ctx context.Context, limit int) ([]memory.Fact, error) {
	if limit <= 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin selection: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, selectFacts)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list facts: %w", err)
	}
	facts, err := scanFacts(rows)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sort.SliceStable(facts, func(a, b int) bool {
		return memory.Score(facts[a], now) > memory.Score(facts[b], now)
	})

	if limit > len(facts) {
		limit = len(facts)
	}
	selected := facts[:limit]

	for i := range selected {
		selected[i].LastAccessedAt = now
		selected[i].AccessCount++
		if _, err := tx.ExecContext(ctx,
			"UPDATE facts SET last_accessed_at = ?, access_count = ? WHERE id = ?",
			now.Format(time.RFC3339Nano), selected[i].AccessCount, selected[i].ID,
		); err != nil {
			return nil, fmt.Errorf("sqlite: bump access metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit selection: %w", err)
	}
	return selected, nil
}

// CountByCategory returns fact counts keyed by category.
func (s *Store) CountByCategory(ctx context.Context) (map[memory.Category]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT category, COUNT(*) FROM facts GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("sqlite: count by category: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[memory.Category]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scan count: %w", err)
		}
		counts[memory.Category(category)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: count rows: %w", err)
	}
	return counts, nil
}

// ClearAll removes every fact. The session counter in meta is untouched.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM facts"); err != nil {
		return fmt.Errorf("sqlite: clear facts: %w", err)
	}
	return nil
}

// CurrentSession returns the active session number.
func (s *Store) CurrentSession(ctx context.Context) (int64, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaSessionKey).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("sqlite: read session counter: %w", err)
	}
	session, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sqlite: parse session counter %q: %w", value, err)
	}
	return session, nil
}

// BeginSession increments and returns the session counter.
func (s *Store) BeginSession(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin session bump: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var value string
	if err := tx.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaSessionKey).Scan(&value); err != nil {
		return 0, fmt.Errorf("sqlite: read session counter: %w", err)
	}
	session, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sqlite: parse session counter %q: %w", value, err)
	}

	session++
	if _, err := tx.ExecContext(ctx,
		"UPDATE meta SET value = ? WHERE key = ?",
		strconv.FormatInt(session, 10), metaSessionKey,
	); err != nil {
		return 0, fmt.Errorf("sqlite: write session counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit session bump: %w", err)
	}
	return session, nil
}

// Len returns the total number of stored facts.
func (s *Store) Len() int {
	var count int
	if err := s.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM facts").Scan(&count); err != nil {
		s.logger.Error("count facts failed", "error", err)
		return 0
	}
	return count
}

const selectFacts = `SELECT id, content, category, importance, source, created_at, last_accessed_at, access_count, session_id FROM facts`

func (s *Store) factsByCategory(ctx context.Context, category memory.Category) ([]memory.Fact, error) {
	rows, err := s.db.QueryContext(ctx, selectFacts+" WHERE category = ?", string(category))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list facts by category: %w", err)
	}
	return scanFacts(rows)
}

func scanFacts(rows *sql.Rows) ([]memory.Fact, error) {
	defer func() { _ = rows.Close() }()

	var facts []memory.Fact
	for rows.Next() {
		var (
			fact       memory.Fact
			category   string
			source     string
			createdAt  string
			lastAccess string
		)
		if err := rows.Scan(&fact.ID, &fact.Content, &category, &fact.Importance, &source, &createdAt, &lastAccess, &fact.AccessCount, &fact.SessionID); err != nil {
			return nil, fmt.Errorf("sqlite: scan fact: %w", err)
		}
		fact.Category = memory.Category(category)
		fact.Source = memory.Source(source)

		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse created_at %q: %w", createdAt, err)
		}
		fact.CreatedAt = t

		t, err = time.Parse(time.RFC3339Nano, lastAccess)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse last_accessed_at %q: %w", lastAccess, err)
		}
		fact.LastAccessedAt = t

		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan fact rows: %w", err)
	}
	return facts, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}
