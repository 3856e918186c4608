package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tablemind/recall/internal/privacy"
	"github.com/tablemind/recall/internal/provider"
)

// Phase identifies where the engine is in its per-turn lifecycle.
type Phase int

// Engine phases, in turn order.
const (
	PhaseIdle Phase = iota
	PhaseInjecting
	PhaseConversing
	PhaseExtracting
	PhaseStoring
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInjecting:
		return "injecting"
	case PhaseConversing:
		return "conversing"
	case PhaseExtracting:
		return "extracting"
	case PhaseStoring:
		return "storing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// TurnRunner is the external conversation loop. The engine only prepends
// its rendered block to the system context and reads the returned
// transcript.
type TurnRunner interface {
	RunTurn(ctx context.Context, systemContext, userMessage string) ([]provider.LLMMessage, error)
}

// Recorder receives storage-decision events for observability. All methods
// must be safe for concurrent use.
type Recorder interface {
	FactStored()
	FactsForgotten(n int)
	PrivacyRejected()
	DedupSkipped()
	ExtractionFailed()
}

// nopRecorder discards all events.
type nopRecorder struct{}

func (nopRecorder) FactStored()        {}
func (nopRecorder) FactsForgotten(int) {}
func (nopRecorder) PrivacyRejected()   {}
func (nopRecorder) DedupSkipped()      {}
func (nopRecorder) ExtractionFailed()  {}

// nopHandler is a slog.Handler that discards all log records.
// Enabled returns false so slog skips formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// TurnReport summarizes the storage decisions of one turn. Rejections and
// dedup skips are deliberate no-ops counted separately from failures.
type TurnReport struct {
	Stored          int
	Forgotten       int
	PrivacyRejected int
	DedupSkipped    int

	// ExtractionErr records a failed extraction. The turn still succeeded
	// from the user's point of view; only this report and the log know.
	ExtractionErr error
}

// Engine drives the three-phase memory pipeline around the external
// conversation loop: inject stored facts into the system context, hand off
// to the conversation, then extract and store new facts from the
// transcript. One engine serves one conversation session at a time;
// phases never overlap.
type Engine struct {
	store     Store
	extractor Extractor
	gate      *privacy.Gate
	logger    *slog.Logger
	recorder  Recorder
	tracer    trace.Tracer

	limit     int
	maxTokens int
	estimator TokenEstimator

	mu    sync.Mutex
	phase Phase
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithLogger injects a structured logger. Nil disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder injects an observability recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithInjectionLimit overrides the per-turn fact cap. Values above
// DefaultInjectionLimit are clamped to it.
func WithInjectionLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 && limit <= DefaultInjectionLimit {
			e.limit = limit
		}
	}
}

// WithTokenBudget bounds the injected block by estimated tokens.
func WithTokenBudget(maxTokens int, estimator TokenEstimator) Option {
	return func(e *Engine) {
		e.maxTokens = maxTokens
		e.estimator = estimator
	}
}

// NewEngine creates an Engine over the given store, extractor, and privacy
// gate.
func NewEngine(store Store, extractor Extractor, gate *privacy.Gate, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		extractor: extractor,
		gate:      gate,
		logger:    slog.New(nopHandler{}),
		recorder:  nopRecorder{},
		tracer:    otel.Tracer("recall/memory"),
		limit:     DefaultInjectionLimit,
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Phase returns the engine's current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine) transition(to Phase) {
	e.mu.Lock()
	from := e.phase
	e.phase = to
	e.mu.Unlock()
	e.logger.Debug("phase transition", "from", from.String(), "to", to.String())
}

// Inject renders the top-scoring facts and prepends them to systemContext.
// If the store is empty the context is returned unchanged. Selection bumps
// access metadata on every injected fact.
func (e *Engine) Inject(ctx context.Context, systemContext string) (string, error) {
	ctx, span := e.tracer.Start(ctx, "memory.inject")
	defer span.End()

	e.transition(PhaseInjecting)
	defer e.transition(PhaseIdle)

	contents, err := InjectMemory(ctx, e.store, e.limit, e.maxTokens, e.estimator)
	if err != nil {
		return "", fmt.Errorf("memory: inject: %w", err)
	}
	span.SetAttributes(attribute.Int("memory.facts_injected", len(contents)))

	block := FormatFacts(contents)
	if block == "" {
		return systemContext, nil
	}
	if systemContext == "" {
		return block, nil
	}
	return block + "\n" + systemContext, nil
}

// Ingest runs the extract and store phases over a completed turn
// transcript.
//
// Extraction failures are recoverable: they are logged, counted, and
// recorded on the report, and the turn proceeds having stored nothing.
// Store write failures are fatal and propagate, with the report reflecting
// whatever completed before the failure. Deletions are applied before
// additions so a correction within one turn cannot transiently create a
// contradictory pair.
func (e *Engine) Ingest(ctx context.Context, transcript []provider.LLMMessage) (TurnReport, error) {
	var report TurnReport

	ctx, span := e.tracer.Start(ctx, "memory.ingest")
	defer span.End()

	e.transition(PhaseExtracting)
	defer e.transition(PhaseIdle)

	known, err := e.knownContents(ctx)
	if err != nil {
		return report, err
	}

	result, err := e.extractor.Extract(ctx, transcript, known)
	if err != nil {
		e.logger.Warn("extraction failed, storing nothing this turn",
			"error", err,
			"retryable", provider.IsRetryable(err),
		)
		e.recorder.ExtractionFailed()
		report.ExtractionErr = err
		return report, nil
	}

	e.transition(PhaseStoring)

	// Deletions first.
	for _, fragment := range result.ForgetRequests {
		removed, err := e.store.ForgetByContent(ctx, fragment)
		if err != nil {
			return report, fmt.Errorf("memory: forget %q: %w", fragment, err)
		}
		if len(removed) > 0 {
			e.recorder.FactsForgotten(len(removed))
			report.Forgotten += len(removed)
			e.logger.Info("facts forgotten", "fragment", fragment, "count", len(removed))
		}
	}

	for _, candidate := range result.Facts {
		stored, err := e.storeCandidate(ctx, candidate, SourceExtracted, &report)
		if err != nil {
			return report, err
		}
		if stored {
			report.Stored++
		}
	}

	span.SetAttributes(
		attribute.Int("memory.stored", report.Stored),
		attribute.Int("memory.forgotten", report.Forgotten),
	)
	return report, nil
}

// RunTurn drives one full turn: inject, hand off to the conversation loop,
// then ingest the transcript. The transcript is returned alongside the
// report so the caller can display the reply regardless of what the
// ingest phase decided.
func (e *Engine) RunTurn(ctx context.Context, runner TurnRunner, systemContext, userMessage string) ([]provider.LLMMessage, TurnReport, error) {
	injected, err := e.Inject(ctx, systemContext)
	if err != nil {
		return nil, TurnReport{}, err
	}

	e.transition(PhaseConversing)
	transcript, err := runner.RunTurn(ctx, injected, userMessage)
	e.transition(PhaseIdle)
	if err != nil {
		return nil, TurnReport{}, fmt.Errorf("memory: conversation turn: %w", err)
	}

	report, err := e.Ingest(ctx, transcript)
	return transcript, report, err
}

// Remember stores an explicit user-issued fact, subject to the same privacy
// gate and deduplication as extracted facts. Returns ErrPrivacyRejected or
// ErrDuplicateFact when the content is deliberately not stored.
func (e *Engine) Remember(ctx context.Context, content string, category Category, importance int) (Fact, error) {
	if res := e.gate.Check(content); !res.Safe {
		e.recorder.PrivacyRejected()
		e.logger.Info("remember rejected by privacy gate", "flagged", res.Flagged)
		return Fact{}, fmt.Errorf("%w: %v", ErrPrivacyRejected, res.Flagged)
	}

	match, err := e.store.Deduplicate(ctx, content, category)
	if err != nil {
		return Fact{}, fmt.Errorf("memory: deduplicate: %w", err)
	}
	if match != nil {
		e.recorder.DedupSkipped()
		return Fact{}, fmt.Errorf("%w: overlaps %q", ErrDuplicateFact, match.Content)
	}

	fact, err := e.store.Add(ctx, content, category, importance, SourceExplicit)
	if err != nil {
		return Fact{}, fmt.Errorf("memory: add fact: %w", err)
	}
	e.recorder.FactStored()
	return fact, nil
}

// Forget removes facts matching fragment on explicit user command.
func (e *Engine) Forget(ctx context.Context, fragment string) ([]Fact, error) {
	removed, err := e.store.ForgetByContent(ctx, fragment)
	if err != nil {
		return nil, fmt.Errorf("memory: forget %q: %w", fragment, err)
	}
	if len(removed) > 0 {
		e.recorder.FactsForgotten(len(removed))
	}
	return removed, nil
}

// storeCandidate routes one extracted candidate through the privacy gate
// and deduplication, then persists it. Gate rejections and dedup matches
// are logged no-ops, not errors; only store failures propagate.
func (e *Engine) storeCandidate(ctx context.Context, candidate ExtractedFact, source Source, report *TurnReport) (bool, error) {
	if res := e.gate.Check(candidate.Content); !res.Safe {
		e.recorder.PrivacyRejected()
		report.PrivacyRejected++
		e.logger.Info("fact rejected by privacy gate",
			"flagged", res.Flagged,
			"category", candidate.Category,
		)
		return false, nil
	}

	category := Category(candidate.Category)
	match, err := e.store.Deduplicate(ctx, candidate.Content, category)
	if err != nil {
		return false, fmt.Errorf("memory: deduplicate: %w", err)
	}
	if match != nil {
		e.recorder.DedupSkipped()
		report.DedupSkipped++
		e.logger.Info("duplicate fact skipped",
			"content", candidate.Content,
			"existing", match.Content,
		)
		return false, nil
	}

	fact, err := e.store.Add(ctx, candidate.Content, category, candidate.Importance, source)
	if err != nil {
		return false, fmt.Errorf("memory: add fact: %w", err)
	}
	e.recorder.FactStored()
	e.logger.Info("fact stored",
		"content", fact.Content,
		"category", string(fact.Category),
		"importance", fact.Importance,
	)
	return true, nil
}

// knownContents lists the contents of every stored fact, used to steer the
// extractor away from re-proposing known facts.
func (e *Engine) knownContents(ctx context.Context) ([]string, error) {
	facts, err := e.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: list facts: %w", err)
	}
	contents := make([]string, 0, len(facts))
	for i := range facts {
		contents = append(contents, facts[i].Content)
	}
	return contents, nil
}
