// internal/tools/spending-by-recipient/handler.go

// Package spendingbyrecipient rolls matching awards up by recipient or
// industry classification and summarizes the top groups.
package spendingbyrecipient

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

// summaryBuckets bounds how many groups the text summary names.
const summaryBuckets = 5

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

func (h *Handler) Handle(ctx context.Context, rawInput []byte) (*Output, error) {
	start := time.Now()

	var input Input
	if err := json.Unmarshal(rawInput, &input); err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}

	groupBy := aggregate.GroupByRecipient
	if input.GroupBy == string(aggregate.GroupByIndustry) {
		groupBy = aggregate.GroupByIndustry
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	result, err := h.engine.RefineAndExecute(ctx, input.Query, engine.Options{
		AggregateResults: true,
		GroupBy:          groupBy,
		ConversationID:   input.ConversationID,
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
		Buckets:      result.Aggregations,
		Suggestions:  result.Suggestions,
		Diagnostic:   result.Diagnostic,
	}
	output.Summary = buildSummary(input.Query, groupBy, output)

	h.logger.Info("tool invocation completed", map[string]interface{}{
		"invocation_id": output.InvocationID,
		"result_count":  output.ResultCount,
		"buckets":       len(output.Buckets),
		"outcome":       outcome,
	})
	return output, nil
}

func buildSummary(rawQuery string, groupBy aggregate.GroupBy, out *Output) string {
	if out.Diagnostic != "" {
		return out.Diagnostic
	}
	if len(out.Buckets) == 0 {
		return fmt.Sprintf("No awards found for %q.", rawQuery)
	}

	dimension := "recipient"
	if groupBy == aggregate.GroupByIndustry {
		dimension = "industry"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d award(s) for %q across %d %s group(s).",
		out.ResultCount, rawQuery, len(out.Buckets), dimension)
	for i, bucket := range out.Buckets {
		if i == summaryBuckets {
			break
		}
		fmt.Fprintf(&b, " %d. %s: $%.2f across %d award(s).",
			i+1, bucket.GroupKey, bucket.TotalAmount, bucket.RecordCount)
	}
	return b.String()
}
