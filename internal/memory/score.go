package memory

import (
	"math"
	"time"
)

// Scoring weights. Importance is the LLM-assigned priority signal, the
// recency term is an exponential decay with a half-life of roughly 138
// hours so stale facts fade without being deleted, and the frequency term
// gives diminishing-returns weight to facts that keep proving relevant.
const (
	weightImportance = 0.4
	weightRecency    = 0.4
	weightFrequency  = 0.2

	// recencyDecayBase is applied per hour since last access.
	recencyDecayBase = 0.995
)

// Score computes a fact's retrieval score at the given instant:
//
//	0.4*(importance/10) + 0.4*(0.995^hoursSinceAccess) + 0.2*(log(1+accessCount)/10)
//
// The result is monotonic non-increasing in elapsed time and monotonic
// non-decreasing in importance and access count.
func Score(f Fact, now time.Time) float64 {
	hours := now.Sub(f.LastAccessedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return weightImportance*(float64(f.Importance)/10) +
		weightRecency*math.Pow(recencyDecayBase, hours) +
		weightFrequency*(math.Log1p(float64(f.AccessCount))/10)
}
