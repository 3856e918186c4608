package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/tablemind/recall/internal/provider"
)

// Typed extraction errors. Both mean "no new facts this turn" to the
// orchestrator; neither must interrupt the conversation or touch stored
// facts.
var (
	// ErrExtractionFailed wraps provider/network failures.
	ErrExtractionFailed = errors.New("memory: extraction failed")

	// ErrInvalidExtraction marks a payload that failed structural validation.
	ErrInvalidExtraction = errors.New("memory: invalid extraction payload")
)

// ExtractedFact is one candidate fact proposed by the model.
type ExtractedFact struct {
	Content    string `json:"content" jsonschema:"required" jsonschema_description:"A single self-contained statement about the user."`
	Category   string `json:"category" jsonschema:"required,enum=dietary,enum=cuisine,enum=restaurant,enum=location,enum=dining-style,enum=personal"`
	Importance int    `json:"importance" jsonschema:"required,minimum=1,maximum=10" jsonschema_description:"How important this fact is for future conversations, 1-10."`
}

// ExtractionResult is the structured output of one extraction call.
type ExtractionResult struct {
	Facts []ExtractedFact `json:"facts"`
	// ForgetRequests are free-text fragments identifying facts the user
	// asked to remove or that the conversation contradicted.
	ForgetRequests []string `json:"forget_requests"`
}

// extractionSchema is the JSON Schema the provider is asked to constrain
// its output to, derived once from the result struct.
var extractionSchema = generateSchema[ExtractionResult]()

func generateSchema[T any]() json.RawMessage {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	raw, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		panic(fmt.Sprintf("memory: reflect extraction schema: %v", err))
	}
	return raw
}

// Extractor analyzes a conversation transcript and proposes facts to store
// and fragments to forget.
type Extractor interface {
	Extract(ctx context.Context, transcript []provider.LLMMessage, known []string) (ExtractionResult, error)
}

// LLMExtractor uses an LLM to analyze transcripts. The completion call is
// schema-constrained, and the returned payload is validated again locally;
// the provider's own constraint enforcement is never trusted alone.
type LLMExtractor struct {
	provider provider.Provider
	logger   *slog.Logger
}

// NewLLMExtractor creates an extractor backed by the given provider.
// A nil logger disables logging.
func NewLLMExtractor(p provider.Provider, logger *slog.Logger) *LLMExtractor {
	if logger == nil {
		logger = slog.New(nopHandler{})
	}
	return &LLMExtractor{provider: p, logger: logger}
}

// Compile-time interface check.
var _ Extractor = (*LLMExtractor)(nil)

const extractionInstructions = `You maintain long-term memory about a user for a dining assistant.
Analyze the conversation and extract durable facts about the user: dietary
restrictions, cuisine preferences, favorite or disliked restaurants, where
they live or dine, dining style, and personal details relevant to dining.

Rules:
- Only extract facts stated or clearly implied by the user.
- Do not re-propose facts that are already known (listed below).
- If the user retracts or contradicts a known fact, emit a forget request
  containing a distinctive fragment of the old fact instead.
- Rate importance 1-10: allergies and hard restrictions are 8-10, strong
  preferences 5-7, incidental details 1-4.
- Return empty arrays when there is nothing worth remembering.`

// Extract runs one schema-constrained extraction call over the filtered
// transcript.
func (e *LLMExtractor) Extract(ctx context.Context, transcript []provider.LLMMessage, known []string) (ExtractionResult, error) {
	filtered := FilterTranscript(transcript)
	if len(filtered) == 0 {
		return ExtractionResult{}, nil
	}

	temperature := 0.0
	resp, err := e.provider.Complete(ctx, provider.CompletionRequest{
		Messages: []provider.LLMMessage{
			{Role: provider.MessageRoleSystem, Content: extractionInstructions},
			{Role: provider.MessageRoleUser, Content: buildExtractionPrompt(filtered, known)},
		},
		ResponseSchema: extractionSchema,
		Temperature:    &temperature,
	})
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	return e.validate(resp.Content)
}

// buildExtractionPrompt renders the known facts and the conversation turns
// into a single user message.
func buildExtractionPrompt(filtered []provider.LLMMessage, known []string) string {
	var b strings.Builder

	b.WriteString("Known facts (do not re-propose):\n")
	if len(known) == 0 {
		b.WriteString("(none)\n")
	}
	for _, fact := range known {
		b.WriteString("- ")
		b.WriteString(fact)
		b.WriteString("\n")
	}

	b.WriteString("\nConversation:\n")
	for _, m := range filtered {
		switch m.Role {
		case provider.MessageRoleUser:
			b.WriteString("User: ")
		case provider.MessageRoleAssistant:
			b.WriteString("Assistant: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// validate parses the raw payload and applies the local validation pass.
// An unparseable or ill-typed payload is an ErrInvalidExtraction; individual
// entries that violate field constraints are dropped with a log line.
func (e *LLMExtractor) validate(raw string) (ExtractionResult, error) {
	payload := stripCodeFence(raw)
	if strings.TrimSpace(payload) == "" {
		return ExtractionResult{}, fmt.Errorf("%w: empty response", ErrInvalidExtraction)
	}

	var parsed ExtractionResult
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return ExtractionResult{}, fmt.Errorf("%w: %w", ErrInvalidExtraction, err)
	}

	var result ExtractionResult
	for _, f := range parsed.Facts {
		f.Content = strings.TrimSpace(f.Content)
		if f.Content == "" {
			e.logger.Warn("dropping extracted fact with empty content")
			continue
		}
		if _, err := ParseCategory(f.Category); err != nil {
			e.logger.Warn("dropping extracted fact", "reason", "unknown category", "category", f.Category)
			continue
		}
		if f.Importance < 1 || f.Importance > 10 {
			e.logger.Warn("dropping extracted fact", "reason", "importance out of range", "importance", f.Importance)
			continue
		}
		result.Facts = append(result.Facts, f)
	}

	for _, fragment := range parsed.ForgetRequests {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		result.ForgetRequests = append(result.ForgetRequests, fragment)
	}

	return result, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models emit even under a response schema.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// NopExtractor is a no-op extractor for when memory extraction is disabled.
type NopExtractor struct{}

// Compile-time interface check.
var _ Extractor = (*NopExtractor)(nil)

// Extract always returns an empty result, implementing graceful degradation.
func (NopExtractor) Extract(_ context.Context, _ []provider.LLMMessage, _ []string) (ExtractionResult, error) {
	return ExtractionResult{}, nil
}
