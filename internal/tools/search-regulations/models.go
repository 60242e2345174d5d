// internal/tools/search-regulations/models.go
package searchregulations

import "spendquery/internal/regulations"

// Input is the tool request body.
type Input struct {
	Query     string `json:"query"`
	SectionID string `json:"sectionId,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Output is the tool response body. A SectionID lookup returns exactly one
// section or a not-found summary.
type Output struct {
	Summary     string                      `json:"summary"`
	ResultCount int                         `json:"resultCount"`
	Sections    []regulations.ScoredSection `json:"sections,omitempty"`
	Diagnostics []string                    `json:"diagnostics,omitempty"`
}
