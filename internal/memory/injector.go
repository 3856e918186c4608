package memory

import (
	"context"
	"strings"
)

// promptHeader precedes the injected fact block in the system context.
const promptHeader = "## What I remember about this user"

// InjectMemory selects the top-scoring facts from the store and returns
// their contents, ready for inclusion in the system prompt. Selection bumps
// each returned fact's access metadata.
//
// When maxTokens > 0 and an estimator is supplied, facts are added in score
// order until the token budget is reached; the limit cap applies first
// either way. Returns nil if the store is nil or empty.
func InjectMemory(ctx context.Context, store Store, limit, maxTokens int, estimator TokenEstimator) ([]string, error) {
	if store == nil || limit <= 0 {
		return nil, nil
	}

	facts, err := store.TopForInjection(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return nil, nil
	}

	budgeted := maxTokens > 0 && estimator != nil

	var contents []string
	usedTokens := 0
	for i := range facts {
		if budgeted {
			tokens := estimator.Estimate(facts[i].Content)
			if usedTokens+tokens > maxTokens {
				break
			}
			usedTokens += tokens
		}
		contents = append(contents, facts[i].Content)
	}
	return contents, nil
}

// FormatFacts renders fact contents as a header plus one bulleted line per
// fact. Returns an empty string when there are no facts.
func FormatFacts(contents []string) string {
	if len(contents) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n")
	for _, content := range contents {
		b.WriteString("- ")
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String()
}

// PromptBlock renders the store's top facts as a single prompt section.
// Equivalent to FormatFacts(InjectMemory(...)) with no token budget.
func PromptBlock(ctx context.Context, store Store, limit int) (string, error) {
	contents, err := InjectMemory(ctx, store, limit, 0, nil)
	if err != nil {
		return "", err
	}
	return FormatFacts(contents), nil
}
