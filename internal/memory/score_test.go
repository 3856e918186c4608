package memory

import (
	"math"
	"testing"
	"time"
)

func baseFact(importance, accessCount int, lastAccess time.Time) Fact {
	return Fact{
		ID:             "f1",
		Content:        "User is vegetarian",
		Category:       CategoryDietary,
		Importance:     importance,
		Source:         SourceExtracted,
		CreatedAt:      lastAccess.Add(-24 * time.Hour),
		LastAccessedAt: lastAccess,
		AccessCount:    accessCount,
	}
}

func TestScore_MonotonicDecay(t *testing.T) {
	t.Parallel()

	now := time.Now()
	recent := baseFact(5, 3, now.Add(-1*time.Hour))
	stale := baseFact(5, 3, now.Add(-200*time.Hour))

	if Score(recent, now) <= Score(stale, now) {
		t.Errorf("recently accessed fact must score strictly higher: recent=%f stale=%f",
			Score(recent, now), Score(stale, now))
	}
}

func TestScore_MonotonicImportance(t *testing.T) {
	t.Parallel()

	now := time.Now()
	last := now.Add(-10 * time.Hour)
	for imp := 2; imp <= 10; imp++ {
		lower := baseFact(imp-1, 0, last)
		higher := baseFact(imp, 0, last)
		if Score(higher, now) <= Score(lower, now) {
			t.Errorf("importance %d must outscore %d", imp, imp-1)
		}
	}
}

func TestScore_MonotonicAccessCount(t *testing.T) {
	t.Parallel()

	now := time.Now()
	last := now.Add(-10 * time.Hour)
	rarely := baseFact(5, 1, last)
	often := baseFact(5, 50, last)

	if Score(often, now) <= Score(rarely, now) {
		t.Errorf("frequently accessed fact must score higher: often=%f rarely=%f",
			Score(often, now), Score(rarely, now))
	}
}

func TestScore_RecencyHalfLife(t *testing.T) {
	t.Parallel()

	// 0.995^h halves at h = ln(2)/ln(1/0.995) ≈ 138.3 hours.
	halfLife := math.Log(2) / -math.Log(recencyDecayBase)
	if halfLife < 138 || halfLife > 139 {
		t.Errorf("decay half-life = %f hours, want ≈138.3", halfLife)
	}

	now := time.Now()
	fresh := baseFact(5, 0, now)
	halved := baseFact(5, 0, now.Add(-time.Duration(halfLife*float64(time.Hour))))

	// Only the recency term differs; the gap must be half its weight.
	gap := Score(fresh, now) - Score(halved, now)
	if math.Abs(gap-weightRecency/2) > 0.001 {
		t.Errorf("score gap at half-life = %f, want %f", gap, weightRecency/2)
	}
}

func TestScore_FutureAccessClamped(t *testing.T) {
	t.Parallel()

	now := time.Now()
	// Clock skew can leave LastAccessedAt slightly in the future; the
	// recency term must not exceed its weight.
	f := baseFact(5, 0, now.Add(5*time.Minute))
	max := weightImportance*0.5 + weightRecency + weightFrequency*0
	if got := Score(f, now); got > max+1e-9 {
		t.Errorf("Score = %f, want <= %f", got, max)
	}
}
