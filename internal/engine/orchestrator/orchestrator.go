// Package orchestrator ties the engine together: cache lookup, snapshot
// aggregation, remote or local generation, and conversation bookkeeping.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"finquery-engine/internal/common/config"
	stderrors "finquery-engine/internal/common/errors"
	"finquery-engine/internal/common/logger"
	"finquery-engine/internal/common/metrics"
	"finquery-engine/internal/engine/cache"
	"finquery-engine/internal/engine/memory"
	"finquery-engine/internal/finance"
)

// Aggregator produces a snapshot for a user. It never fails; data problems
// degrade to an empty snapshot.
type Aggregator interface {
	Aggregate(ctx context.Context, userID string) *finance.Snapshot
}

// LocalGenerator is the in-process answer path.
type LocalGenerator interface {
	Generate(question string, snap *finance.Snapshot, history []memory.Message) (string, error)
}

// RemoteGenerator is the hosted answer path, used when the engine runs in
// remote mode.
type RemoteGenerator interface {
	Generate(ctx context.Context, question, userID string) (string, error)
}

// Orchestrator answers one question per call. Safe for concurrent use.
type Orchestrator struct {
	mode          string
	responseCache *cache.Cache[string]
	contextCache  *cache.Cache[*finance.Snapshot]
	conversations *memory.ConversationMemory
	aggregator    Aggregator
	local         LocalGenerator
	remote        RemoteGenerator
	aggTimeout    time.Duration
	logger        logger.Logger
}

func New(cfg config.EngineConfig, agg Aggregator, local LocalGenerator, remote RemoteGenerator, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		mode: cfg.Mode,
		responseCache: cache.New[string](
			time.Duration(cfg.ResponseCacheTTL)*time.Millisecond, cfg.ResponseCacheMaxSize),
		contextCache: cache.New[*finance.Snapshot](
			time.Duration(cfg.ContextCacheTTL)*time.Millisecond, cfg.ContextCacheMaxSize),
		conversations: memory.New(
			cfg.MemoryMaxMessages, cfg.MemoryMaxUsers,
			time.Duration(cfg.MemoryIdleTimeout)*time.Millisecond),
		aggregator: agg,
		local:      local,
		remote:     remote,
		aggTimeout: time.Duration(cfg.AggregationTimeout) * time.Millisecond,
		logger:     log,
	}
}

// AnswerQuestion serves one question for one user. It fails only when every
// generation path is exhausted, and then with a generic message.
func (o *Orchestrator) AnswerQuestion(ctx context.Context, question, userID string) (string, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		metrics.QuestionsFailed.WithLabelValues(string(stderrors.ErrCodeInvalidQuestion)).Inc()
		return "", stderrors.NewInvalidQuestionError("question text is empty")
	}

	key := responseCacheKey(userID, question)
	if answer, ok := o.responseCache.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("response", "hit").Inc()
		metrics.QuestionsProcessed.WithLabelValues("cache").Inc()
		return answer, nil
	}
	metrics.CacheLookups.WithLabelValues("response", "miss").Inc()

	snap := o.snapshot(ctx, userID)
	history := o.conversations.History(userID)

	answer, path, err := o.generate(ctx, question, userID, snap, history)
	if err != nil {
		metrics.QuestionsFailed.WithLabelValues(string(stderrors.ErrCodeGenerationExhausted)).Inc()
		o.logger.Error("all generation paths failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return "", stderrors.NewGenerationExhaustedError()
	}

	// Success bookkeeping: cache the answer, then record the exchange in
	// question-then-answer order. Failed requests write nothing.
	o.responseCache.Put(key, answer)
	o.conversations.Append(userID, memory.RoleUser, question)
	o.conversations.Append(userID, memory.RoleAssistant, answer)

	metrics.QuestionsProcessed.WithLabelValues(path).Inc()
	metrics.QuestionDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	return answer, nil
}

// generate runs the remote path when configured, falling back to local
// generation on any remote failure.
func (o *Orchestrator) generate(ctx context.Context, question, userID string, snap *finance.Snapshot, history []memory.Message) (string, string, error) {
	if o.mode == config.EngineModeRemote && o.remote != nil {
		answer, err := o.remote.Generate(ctx, question, userID)
		if err == nil {
			return answer, "remote", nil
		}
		metrics.LocalFallbacks.Inc()
		o.logger.Warn("remote generation failed, falling back to local", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	answer, err := o.local.Generate(question, snap, history)
	if err != nil {
		return "", "", err
	}
	return answer, "local", nil
}

// snapshot returns the cached context for the user, aggregating a fresh one
// on a miss.
func (o *Orchestrator) snapshot(ctx context.Context, userID string) *finance.Snapshot {
	if snap, ok := o.contextCache.Get(userID); ok {
		metrics.CacheLookups.WithLabelValues("context", "hit").Inc()
		return snap
	}
	metrics.CacheLookups.WithLabelValues("context", "miss").Inc()

	if o.aggTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.aggTimeout)
		defer cancel()
	}
	snap := o.aggregator.Aggregate(ctx, userID)
	o.contextCache.Put(userID, snap)
	return snap
}

// ClearConversation resets the user's transcript so the next question starts
// a fresh conversation.
func (o *Orchestrator) ClearConversation(userID string) {
	o.conversations.Clear(userID)
}

// History exposes the user's current transcript.
func (o *Orchestrator) History(userID string) []memory.Message {
	return o.conversations.History(userID)
}

// responseCacheKey normalizes the question so trivially different phrasings
// of the same text share a cache entry.
func responseCacheKey(userID, question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	normalized = strings.TrimRight(normalized, "?!. ")
	return userID + "::" + normalized
}
