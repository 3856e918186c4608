package memory

import "context"

// DefaultInjectionLimit caps how many facts are rendered into the system
// context per turn.
const DefaultInjectionLimit = 15

// Store manages long-term memory facts.
//
// The store performs no privacy or deduplication checks of its own; callers
// are responsible for running the privacy gate and Deduplicate before Add.
// Implementations must be safe for concurrent use within a single process;
// multiple processes writing the same backing store are not supported.
type Store interface {
	// Add constructs and persists a new fact with the current session ID,
	// CreatedAt = LastAccessedAt = now, and AccessCount = 0. The write is
	// durable before Add returns.
	Add(ctx context.Context, content string, category Category, importance int, source Source) (Fact, error)

	// Deduplicate returns the first stored fact of the same category whose
	// content is a case-insensitive substring of content, or vice versa.
	// Returns nil when no stored fact overlaps. Intentionally simple
	// containment matching, sufficient for fact sets of tens of entries.
	Deduplicate(ctx context.Context, content string, category Category) (*Fact, error)

	// ForgetByContent removes every fact whose content contains fragment
	// (case-insensitive) and returns the removed set. Empty result when
	// nothing matches.
	ForgetByContent(ctx context.Context, fragment string) ([]Fact, error)

	// All returns a full unordered snapshot of the stored facts.
	All(ctx context.Context) ([]Fact, error)

	// TopForInjection scores every fact, sorts descending, and returns the
	// top limit facts. As a side effect it bumps LastAccessedAt to now and
	// AccessCount by one on every returned fact; selection reinforces
	// future recall. Facts not selected are left untouched.
	TopForInjection(ctx context.Context, limit int) ([]Fact, error)

	// CountByCategory returns the number of stored facts per category.
	CountByCategory(ctx context.Context) (map[Category]int, error)

	// ClearAll removes every fact. Session state is preserved.
	ClearAll(ctx context.Context) error

	// CurrentSession returns the active session number.
	CurrentSession(ctx context.Context) (int64, error)

	// BeginSession increments the session counter and returns the new
	// number. Facts persist across sessions; only transcripts reset.
	BeginSession(ctx context.Context) (int64, error)

	// Len returns the total number of stored facts.
	Len() int
}
