// internal/tools/search-awards/models.go
package searchawards

import (
	"spendquery/internal/aggregate"
	"spendquery/internal/scoring"
	"spendquery/internal/spending"
)

// Input is the tool request body.
type Input struct {
	Query               string `json:"query"`
	ConversationID      string `json:"conversationId,omitempty"`
	SortByRelevance     bool   `json:"sortByRelevance,omitempty"`
	IncludeExplanations bool   `json:"includeExplanations,omitempty"`
	AggregateResults    bool   `json:"aggregateResults,omitempty"`
	GroupBy             string `json:"groupBy,omitempty"`
}

// Output is the tool response body. When Diagnostic is set the search did
// not complete and the remaining fields are empty.
type Output struct {
	InvocationID string                     `json:"invocationId"`
	Summary      string                     `json:"summary"`
	ResultCount  int                        `json:"resultCount"`
	Records      []*spending.Record         `json:"records,omitempty"`
	Explanations []scoring.MatchExplanation `json:"explanations,omitempty"`
	Aggregations []aggregate.Bucket         `json:"aggregations,omitempty"`
	Suggestions  []string                   `json:"suggestions,omitempty"`
	Diagnostics  []string                   `json:"diagnostics,omitempty"`
	Diagnostic   string                     `json:"diagnostic,omitempty"`
}
