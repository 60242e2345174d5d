// internal/engine/engine.go

// Package engine is the orchestration entry point composing the parser, the
// gated fetch, and the optional scoring/aggregation/suggestion post-passes.
package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"spendquery/internal/aggregate"
	"spendquery/internal/common/errors"
	"spendquery/internal/common/logger"
	"spendquery/internal/common/observability"
	"spendquery/internal/conversation"
	"spendquery/internal/query"
	"spendquery/internal/scoring"
	"spendquery/internal/spending"
)

// Fetcher performs one gated award search. Implemented by spending.Client,
// which owns rate limiting and retries internally.
type Fetcher interface {
	Search(ctx context.Context, parsed query.ParsedQuery) ([]*spending.Record, error)
}

// Options toggles the optional post-processing passes. All default to off so
// callers wanting raw records are unaffected.
type Options struct {
	SortByRelevance     bool
	AggregateResults    bool
	IncludeExplanations bool
	GroupBy             aggregate.GroupBy
	ConversationID      string
}

// Result is the orchestration outcome. When a terminal upstream failure
// occurs, Diagnostic is set, Records is nil, and no error is returned; the
// caller renders Diagnostic to the end user as-is.
type Result struct {
	InvocationID string                     `json:"invocationId"`
	Query        query.ParsedQuery          `json:"query"`
	Records      []*spending.Record         `json:"records"`
	Explanations []scoring.MatchExplanation `json:"explanations,omitempty"`
	Aggregations []aggregate.Bucket         `json:"aggregations,omitempty"`
	Suggestions  []string                   `json:"suggestions,omitempty"`
	Diagnostic   string                     `json:"diagnostic,omitempty"`
}

// Engine wires the query pipeline together. Stateless apart from the
// injected collaborators; safe for concurrent invocations.
type Engine struct {
	fetcher Fetcher
	store   *conversation.Store
	logger  logger.Logger
	obs     *observability.Observability
}

func New(fetcher Fetcher, store *conversation.Store, log logger.Logger, obs *observability.Observability) *Engine {
	return &Engine{fetcher: fetcher, store: store, logger: log, obs: obs}
}

// RefineAndExecute parses the raw query, fetches matching records, and runs
// the requested post-passes. Only infrastructure failures (context
// cancellation, conversation store errors) return a non-nil error; upstream
// terminal failures become a human-readable Diagnostic.
func (e *Engine) RefineAndExecute(ctx context.Context, rawQuery string, opts Options) (*Result, error) {
	result := &Result{InvocationID: uuid.NewString()}

	ctx, span := e.obs.StartSpan(ctx, "engine.refine_and_execute",
		attribute.String("invocation_id", result.InvocationID))
	defer span.End()

	result.Query = query.Parse(rawQuery)
	for _, diag := range result.Query.Diagnostics {
		e.logger.Debug("query diagnostic", map[string]interface{}{
			"invocation_id": result.InvocationID,
			"diagnostic":    diag,
		})
	}

	conversationCtx, err := e.loadConversation(ctx, opts.ConversationID)
	if err != nil {
		return nil, err
	}

	records, err := e.fetcher.Search(ctx, result.Query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		diagnostic, ok := diagnose(err)
		if !ok {
			return nil, err
		}
		e.logger.Warn("search failed", map[string]interface{}{
			"invocation_id": result.InvocationID,
			"error":         err.Error(),
		})
		result.Diagnostic = diagnostic
		return result, nil
	}
	result.Records = records

	preferences := conversation.ExtractPreferences(conversationCtx)

	if opts.SortByRelevance || opts.IncludeExplanations {
		explanations := e.scoreRecords(result.Query, records, preferences)
		if opts.SortByRelevance {
			sortByScore(result.Records, explanations)
		}
		if opts.IncludeExplanations {
			result.Explanations = explanations
		}
	}

	if opts.AggregateResults {
		result.Aggregations = aggregate.Aggregate(result.Records, opts.GroupBy)
	}

	result.Suggestions = conversation.SuggestRefinements(result.Query, len(records), conversationCtx)

	if err := e.recordTurn(ctx, opts.ConversationID, rawQuery, result.Query, len(records)); err != nil {
		// Losing a history write degrades future suggestions only.
		e.logger.Warn("conversation turn not recorded", map[string]interface{}{
			"conversation_id": opts.ConversationID,
			"error":           err.Error(),
		})
	}

	return result, nil
}

func (e *Engine) loadConversation(ctx context.Context, conversationID string) (*conversation.Context, error) {
	if conversationID == "" || e.store == nil {
		return nil, nil
	}
	return e.store.Turns(ctx, conversationID)
}

func (e *Engine) recordTurn(ctx context.Context, conversationID, rawQuery string, parsed query.ParsedQuery, resultCount int) error {
	if conversationID == "" || e.store == nil {
		return nil
	}
	return e.store.AppendTurn(ctx, conversationID, conversation.Turn{
		Query:          rawQuery,
		FiltersApplied: conversation.FiltersAppliedFrom(parsed),
		ResultCount:    resultCount,
	})
}

// scoreRecords scores every record and writes the score back onto it so the
// ranked order is visible in raw output too.
func (e *Engine) scoreRecords(parsed query.ParsedQuery, records []*spending.Record, preferences map[string]string) []scoring.MatchExplanation {
	explanations := make([]scoring.MatchExplanation, len(records))
	for i, rec := range records {
		explanations[i] = scoring.Score(parsed, rec.ScoringFields(), preferences)
		rec.RelevanceScore = explanations[i].Score
	}
	return explanations
}

// sortByScore orders records and their explanations together by descending
// score, stable so equally scored records keep upstream order.
func sortByScore(records []*spending.Record, explanations []scoring.MatchExplanation) {
	indices := make([]int, len(records))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return explanations[indices[a]].Score > explanations[indices[b]].Score
	})

	sortedRecords := make([]*spending.Record, len(records))
	sortedExplanations := make([]scoring.MatchExplanation, len(explanations))
	for pos, idx := range indices {
		sortedRecords[pos] = records[idx]
		sortedExplanations[pos] = explanations[idx]
	}
	copy(records, sortedRecords)
	copy(explanations, sortedExplanations)
}

// diagnose maps a terminal upstream failure to the message shown to the end
// user, distinguishing transient unavailability from a request the upstream
// rejected outright.
func diagnose(err error) (string, bool) {
	var exhausted *errors.RetriesExhaustedError
	if stderrors.As(err, &exhausted) {
		return fmt.Sprintf(
			"The spending data service is currently unavailable. The request was retried %d times without success; please try again in a few minutes.",
			exhausted.Attempts), true
	}

	var upstream *errors.UpstreamError
	if stderrors.As(err, &upstream) {
		return fmt.Sprintf(
			"The spending data service rejected this request (status %d). Try rephrasing the query or removing filters.",
			upstream.StatusCode), true
	}

	var cfg *errors.ConfigurationError
	if stderrors.As(err, &cfg) {
		return "The query could not be executed due to a service configuration problem: " + cfg.Message, true
	}

	return "", false
}
