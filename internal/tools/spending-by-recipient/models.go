// internal/tools/spending-by-recipient/models.go
package spendingbyrecipient

import "spendquery/internal/aggregate"

// Input is the tool request body. GroupBy defaults to recipient; the only
// other accepted value is industryClassification.
type Input struct {
	Query          string `json:"query"`
	GroupBy        string `json:"groupBy,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

// Output is the tool response body.
type Output struct {
	InvocationID string             `json:"invocationId"`
	Summary      string             `json:"summary"`
	ResultCount  int                `json:"resultCount"`
	Buckets      []aggregate.Bucket `json:"buckets,omitempty"`
	Suggestions  []string           `json:"suggestions,omitempty"`
	Diagnostic   string             `json:"diagnostic,omitempty"`
}
