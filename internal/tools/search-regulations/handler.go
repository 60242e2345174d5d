// internal/tools/search-regulations/handler.go

// Package searchregulations searches the loaded regulation corpus, scoring
// section matches with the same relevance contract as award search.
package searchregulations

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spendquery/internal/common/logger"
	"spendquery/internal/common/metrics"
	"spendquery/internal/common/observability"
	"spendquery/internal/query"
	"spendquery/internal/regulations"
	"spendquery/internal/scoring"
)

type Handler struct {
	config *Config
	corpus *regulations.Corpus
	logger logger.Logger
	obs    *observability.Observability
}

func NewHandler(config *Config, corpus *regulations.Corpus, log logger.Logger, obs *observability.Observability) *Handler {
	return &Handler{
		config: config,
		corpus: corpus,
		logger: log.WithFields(map[string]interface{}{"tool": ToolName}),
		obs:    obs,
	}
}

// Handle serves either a direct section lookup or a keyword search. The
// corpus is in memory, so no timeout or rate limiting applies here.
func (h *Handler) Handle(ctx context.Context, rawInput []byte) (*Output, error) {
	start := time.Now()

	var input Input
	if err := json.Unmarshal(rawInput, &input); err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}

	var output *Output
	if input.SectionID != "" {
		output = h.lookup(input.SectionID)
	} else {
		output = h.search(input)
	}

	metrics.ToolInvocationsTotal.WithLabelValues(ToolName, "success").Inc()
	metrics.ToolDurationSeconds.WithLabelValues(ToolName).Observe(time.Since(start).Seconds())
	h.obs.RecordInvocation(ctx, ToolName, "success")
	h.obs.RecordDuration(ctx, ToolName, time.Since(start))

	h.logger.Info("tool invocation completed", map[string]interface{}{
		"result_count": output.ResultCount,
		"section_id":   input.SectionID,
	})
	return output, nil
}

func (h *Handler) lookup(sectionID string) *Output {
	section, ok := h.corpus.GetSection(sectionID)
	if !ok {
		return &Output{Summary: fmt.Sprintf("No regulation section with id %q.", sectionID)}
	}
	return &Output{
		Summary:     fmt.Sprintf("%s %s: %s", section.Part, section.ID, section.Title),
		ResultCount: 1,
		Sections: []regulations.ScoredSection{{
			Section:     section,
			Explanation: scoring.MatchExplanation{Score: 100, Reasoning: "direct section lookup"},
		}},
	}
}

func (h *Handler) search(input Input) *Output {
	parsed := query.Parse(input.Query)
	matches := h.corpus.Search(parsed)

	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > len(matches) {
		limit = len(matches)
	}

	return &Output{
		Summary:     fmt.Sprintf("Found %d regulation section(s) matching %q.", len(matches), input.Query),
		ResultCount: len(matches),
		Sections:    matches[:limit],
		Diagnostics: parsed.Diagnostics,
	}
}
