package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/codex-cli/internal/logger"
)

// TimeoutMessage is the assistant turn recorded when generation runs out of time.
const TimeoutMessage = "I could not generate a response in time. Please try again, perhaps with a shorter or more specific question."

// GenerationFailedMessage is the assistant turn recorded when neither the
// generator nor the fallback produced text for retrieved context.
const GenerationFailedMessage = "I found related material in your documents but could not generate a response. Please try again."

// OrchestratorConfig holds per-conversation tuning.
type OrchestratorConfig struct {
	TopK              int
	MinScore          float64
	ContextBudget     int
	HistoryLimit      int
	HistoryWindow     int
	GenerationTimeout time.Duration
	Temperature       float64
}

// OrchestratorConfigFromSettings extracts orchestrator tuning from settings.
func OrchestratorConfigFromSettings(s *domain.AppSettings) OrchestratorConfig {
	return OrchestratorConfig{
		TopK:              s.Retrieval.TopK,
		MinScore:          s.Retrieval.MinScore,
		ContextBudget:     s.Conversation.ContextBudget,
		HistoryLimit:      s.Conversation.HistoryLimit,
		HistoryWindow:     s.Conversation.HistoryWindow,
		GenerationTimeout: s.Conversation.GenerationTimeout,
		Temperature:       s.LLM.Temperature,
	}
}

// OrchestratorDeps are the collaborators of an Orchestrator.
// Store and Metrics are optional.
type OrchestratorDeps struct {
	Retriever driving.RetrievalService
	Generator driven.Generator
	Fallback  driven.Generator
	Prompts   driven.PromptStore
	Index     driven.VectorIndex
	Store     driven.ConversationStore
	Metrics   driven.Metrics
}

func (d OrchestratorDeps) validate() error {
	switch {
	case d.Retriever == nil:
		return fmt.Errorf("%w: retriever is required", domain.ErrInvalidInput)
	case d.Generator == nil:
		return fmt.Errorf("%w: generator is required", domain.ErrInvalidInput)
	case d.Fallback == nil:
		return fmt.Errorf("%w: fallback generator is required", domain.ErrInvalidInput)
	case d.Prompts == nil:
		return fmt.Errorf("%w: prompt store is required", domain.ErrInvalidInput)
	case d.Index == nil:
		return fmt.Errorf("%w: vector index is required", domain.ErrInvalidInput)
	}
	return nil
}

// Orchestrator runs the question answering loop for one conversation.
//
// It is Idle or Generating. Submit moves it to Generating for the whole
// turn; a second Submit in that state fails with domain.ErrBusy without
// touching the history.
type Orchestrator struct {
	deps OrchestratorDeps
	cfg  OrchestratorConfig

	mu         sync.Mutex
	generating bool
	state      *domain.ConversationState
}

// NewOrchestrator creates an orchestrator that owns state.
func NewOrchestrator(state *domain.ConversationState, deps OrchestratorDeps, cfg OrchestratorConfig) (*Orchestrator, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: conversation state is required", domain.ErrInvalidInput)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	d := domain.DefaultAppSettings()
	defaults := OrchestratorConfigFromSettings(&d)
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.ContextBudget <= 0 {
		cfg.ContextBudget = defaults.ContextBudget
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaults.HistoryLimit
	}
	if cfg.HistoryWindow <= 0 || cfg.HistoryWindow > cfg.HistoryLimit {
		cfg.HistoryWindow = min(defaults.HistoryWindow, cfg.HistoryLimit)
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaults.GenerationTimeout
	}
	return &Orchestrator{deps: deps, cfg: cfg, state: state}, nil
}

// Mode returns the active mode.
func (o *Orchestrator) Mode() domain.Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Mode
}

// SetMode switches the template used by the next submitted query.
// It may be called while a query is generating.
func (o *Orchestrator) SetMode(mode domain.Mode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, mode)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Mode = mode
	return nil
}

// History returns a copy of the turn log.
func (o *Orchestrator) History() []domain.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Turns()
}

// Generating reports whether a query is in flight.
func (o *Orchestrator) Generating() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generating
}

// Reset clears the history. It fails with domain.ErrBusy while generating.
func (o *Orchestrator) Reset(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generating {
		return domain.ErrBusy
	}
	if o.deps.Store != nil {
		if err := o.deps.Store.Reset(ctx, o.state.ID); err != nil {
			return fmt.Errorf("reset conversation %s: %w", o.state.ID, err)
		}
	}
	o.state.Reset()
	return nil
}

// Submit answers a question. Unless the call is rejected (empty text or
// domain.ErrBusy) exactly one user turn and one assistant turn are appended,
// and the returned answer is well formed even when err is non-nil.
func (o *Orchestrator) Submit(ctx context.Context, text string) (domain.Answer, error) {
	return o.SubmitInMode(ctx, text, "")
}

// SubmitInMode is Submit after switching to mode. The switch only happens
// once the query is accepted; an empty mode keeps the current one.
func (o *Orchestrator) SubmitInMode(ctx context.Context, text string, mode domain.Mode) (domain.Answer, error) {
	question := strings.TrimSpace(text)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if mode != "" && !mode.IsValid() {
		return domain.Answer{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, mode)
	}

	o.mu.Lock()
	if o.generating {
		o.mu.Unlock()
		o.deps.Metrics.IncBusy()
		return domain.Answer{}, domain.ErrBusy
	}
	o.generating = true
	if mode != "" {
		o.state.Mode = mode
	}
	mode = o.state.Mode
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.generating = false
		o.mu.Unlock()
	}()

	logger.Section("Conversation Turn")
	logger.Debug("Conversation %s, mode %s: %q", o.state.ID, mode, question)

	o.append(ctx, domain.Turn{Role: domain.RoleUser, Text: question, Mode: mode})

	answer, err := o.answer(ctx, question, mode)
	answer.ConversationID = o.state.ID
	answer.Mode = mode

	o.append(ctx, domain.Turn{
		Role:      domain.RoleAssistant,
		Text:      answer.Text,
		Citations: answer.Citations,
		Mode:      mode,
		Degraded:  answer.Degraded,
	})
	return answer, err
}

// answer produces the assistant reply. It never returns an empty answer.
func (o *Orchestrator) answer(ctx context.Context, question string, mode domain.Mode) (domain.Answer, error) {
	if o.deps.Index.Size() == 0 {
		logger.Info("No documents indexed, asking for uploads")
		o.deps.Metrics.IncFallback(driven.FallbackNoDocuments)
		return domain.Answer{Text: o.prompt(driven.PromptDocumentUpload)}, nil
	}

	result, err := o.deps.Retriever.Retrieve(ctx, question, o.cfg.TopK, o.cfg.MinScore)
	if err != nil {
		if ctx.Err() != nil {
			return o.timedOut(ctx.Err())
		}
		logger.Warn("Retrieval failed, answering without context: %v", err)
		o.deps.Metrics.IncFallback(driven.FallbackEmbedding)
		return domain.Answer{Text: o.prompt(driven.PromptNoContext), Degraded: true}, nil
	}
	if len(result) == 0 {
		logger.Info("No chunk cleared the score floor %.2f", o.cfg.MinScore)
		o.deps.Metrics.IncFallback(driven.FallbackNoContext)
		return domain.Answer{Text: o.prompt(driven.PromptNoContext)}, nil
	}

	builder := promptBuilder{
		system: o.prompt(driven.PromptSystem),
		mode:   o.prompt(driven.ModePrompt(mode)),
	}
	history := o.exchanges()
	prompt, included := builder.fit(history, result, question, o.cfg.ContextBudget)
	logger.Debug("Prompt: %d chunks of %d kept, %d exchanges of history", len(included), len(result), len(history))

	opts := driven.GenerateOptions{
		MaxTokens:   mode.MaxTokens(),
		Temperature: o.cfg.Temperature,
		Mode:        mode,
		Context:     included,
	}

	genCtx, cancel := context.WithTimeout(ctx, o.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	text, genErr := o.deps.Generator.Generate(genCtx, prompt, opts)
	o.deps.Metrics.ObserveGeneration(o.deps.Generator.ModelName(), time.Since(start), genErr)

	if genErr == nil && strings.TrimSpace(text) != "" {
		return domain.Answer{Text: strings.TrimSpace(text), Citations: citations(included)}, nil
	}
	if ctx.Err() != nil || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
		return o.timedOut(genErr)
	}
	if genErr == nil {
		genErr = fmt.Errorf("%w: empty response", domain.ErrGenerationUnavailable)
	}

	logger.Warn("Generation failed, using %s fallback: %v", o.deps.Fallback.ModelName(), genErr)
	o.deps.Metrics.IncFallback(driven.FallbackGeneration)
	fallback, err := o.deps.Fallback.Generate(context.WithoutCancel(ctx), prompt, opts)
	if err != nil || strings.TrimSpace(fallback) == "" {
		logger.Warn("Fallback generation failed: %v", err)
		return domain.Answer{Text: GenerationFailedMessage, Degraded: true}, nil
	}
	return domain.Answer{Text: fallback, Citations: citations(included), Degraded: true}, nil
}

func (o *Orchestrator) timedOut(cause error) (domain.Answer, error) {
	logger.Warn("Generation timed out after %s", o.cfg.GenerationTimeout)
	o.deps.Metrics.IncFallback(driven.FallbackTimeout)
	err := domain.ErrTimeout
	if cause != nil {
		err = fmt.Errorf("%w: %w", domain.ErrTimeout, cause)
	}
	return domain.Answer{Text: TimeoutMessage, Degraded: true}, err
}

// exchanges returns the bounded history rendered into the prompt.
func (o *Orchestrator) exchanges() []domain.Exchange {
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := o.state.Exchanges(o.cfg.HistoryLimit)
	if len(kept) > o.cfg.HistoryWindow {
		kept = kept[len(kept)-o.cfg.HistoryWindow:]
	}
	return kept
}

// append records a turn in memory and, when configured, in the store.
// A store failure is logged; the in-memory history stays authoritative
// for the running process.
func (o *Orchestrator) append(ctx context.Context, turn domain.Turn) {
	turn.CreatedAt = time.Now()
	o.mu.Lock()
	o.state.Append(turn)
	o.mu.Unlock()

	if o.deps.Store == nil {
		return
	}
	if err := o.deps.Store.AppendTurn(context.WithoutCancel(ctx), o.state.ID, turn); err != nil {
		logger.Warn("Failed to persist %s turn for %s: %v", turn.Role, o.state.ID, err)
	}
}

// prompt loads a template. The store falls back to built-in defaults,
// so an error here means the name itself is unknown.
func (o *Orchestrator) prompt(name string) string {
	text, err := o.deps.Prompts.Load(name)
	if err != nil {
		logger.Warn("Load prompt %s: %v", name, err)
		return ""
	}
	return strings.TrimSpace(text)
}
