// internal/tools/search-awards/handler.go

// Package searchawards is the general award search tool: free-text query in,
// optionally scored, ranked, and aggregated award records out.
package searchawards

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"spendquery/internal/aggregate"
	"spendquery/internal/common/logger"
	"spendquery/internal/common/metrics"
	"spendquery/internal/common/observability"
	"spendquery/internal/engine"
)

type Handler struct {
	config *Config
	engine *engine.Engine
	logger logger.Logger
	obs    *observability.Observability
}

func NewHandler(config *Config, eng *engine.Engine, log logger.Logger, obs *observability.Observability) *Handler {
	return &Handler{
		config: config,
		engine: eng,
		logger: log.WithFields(map[string]interface{}{"tool": ToolName}),
		obs:    obs,
	}
}

// Handle runs one tool invocation. The raw body has already passed schema
// validation; decode failures here still return an error rather than panic.
func (h *Handler) Handle(ctx context.Context, rawInput []byte) (*Output, error) {
	start := time.Now()

	var input Input
	if err := json.Unmarshal(rawInput, &input); err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	result, err := h.engine.RefineAndExecute(ctx, input.Query, engine.Options{
		SortByRelevance:     input.SortByRelevance,
		IncludeExplanations: input.IncludeExplanations,
		AggregateResults:    input.AggregateResults,
		GroupBy:             aggregate.GroupBy(input.GroupBy),
		ConversationID:      input.ConversationID,
	})

	outcome := "success"
	if err != nil || (result != nil && result.Diagnostic != "") {
		outcome = "failure"
	}
	metrics.ToolInvocationsTotal.WithLabelValues(ToolName, outcome).Inc()
	metrics.ToolDurationSeconds.WithLabelValues(ToolName).Observe(time.Since(start).Seconds())
	h.obs.RecordInvocation(ctx, ToolName, outcome)
	h.obs.RecordDuration(ctx, ToolName, time.Since(start))

	if err != nil {
		return nil, err
	}

	output := &Output{
		InvocationID: result.InvocationID,
		ResultCount:  len(result.Records),
		Records:      result.Records,
		Explanations: result.Explanations,
		Aggregations: result.Aggregations,
		Suggestions:  result.Suggestions,
		Diagnostics:  result.Query.Diagnostics,
		Diagnostic:   result.Diagnostic,
	}
	output.Summary = buildSummary(input.Query, output)

	h.logger.Info("tool invocation completed", map[string]interface{}{
		"invocation_id": output.InvocationID,
		"result_count":  output.ResultCount,
		"outcome":       outcome,
	})
	return output, nil
}

func buildSummary(rawQuery string, out *Output) string {
	if out.Diagnostic != "" {
		return out.Diagnostic
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d award(s) for %q.", out.ResultCount, rawQuery)
	if len(out.Records) > 0 {
		top := out.Records[0]
		fmt.Fprintf(&b, " Top result: %s ($%.2f).",
			orUnknown(top.GetRecipientName()), top.GetAwardAmount())
	}
	if len(out.Suggestions) > 0 {
		fmt.Fprintf(&b, " The result set is large; consider: %s.",
			strings.Join(out.Suggestions, "; "))
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
