// internal/conversation/context.go

// Package conversation tracks prior query turns and derives advisory signals
// from them: refinement suggestions for oversized result sets and
// most-frequent filter preferences for the relevance scorer's boost.
package conversation

import (
	"fmt"
	"sort"

	"spendquery/internal/query"
)

// Turn is one completed query in a conversation. Consumed read-only here.
type Turn struct {
	Query          string            `json:"query"`
	FiltersApplied map[string]string `json:"filtersApplied,omitempty"`
	ResultCount    int               `json:"resultCount"`
}

// Context is the ordered turn history for one conversation identifier.
type Context struct {
	ConversationID string `json:"conversationId"`
	Turns          []Turn `json:"turns"`
}

// suggestionThreshold is the result count above which refinement suggestions
// trigger.
const suggestionThreshold = 50

// refinementDimensions is the ranked candidate list. Dimensions already
// constrained by the current query are omitted from suggestions.
var refinementDimensions = []struct {
	name       string
	suggestion string
}{
	{"setAside", "narrow by set-aside type, e.g. setaside:SBA for small business awards"},
	{"awardType", "narrow by award type, e.g. type:A for definitive contracts"},
	{"state", "narrow by place of performance, e.g. scope:domestic"},
	{"fiscalYear", "narrow by fiscal year to a recent period"},
	{"amount", "narrow by amount range, e.g. amount:100K-1M"},
}

// SuggestRefinements returns ranked suggestion strings when resultCount
// exceeds the threshold, filtered to dimensions the current query has not
// already constrained. Below the threshold it returns nil.
func SuggestRefinements(parsed query.ParsedQuery, resultCount int, conversationCtx *Context) []string {
	if resultCount <= suggestionThreshold {
		return nil
	}

	var suggestions []string
	for _, dim := range refinementDimensions {
		if parsed.HasFilter(dim.name) {
			continue
		}
		if conversationCtx != nil && dimensionUsedBefore(conversationCtx, dim.name) {
			// Lead with what the user has reached for in prior turns.
			suggestions = append([]string{fmt.Sprintf("%s (used in a previous query)", dim.suggestion)}, suggestions...)
			continue
		}
		suggestions = append(suggestions, dim.suggestion)
	}
	return suggestions
}

// ExtractPreferences returns the most frequent value per filter name across
// prior turns. Only filters applied in at least two turns qualify; the
// result is advisory input to scoring, never auto-applied to a query.
func ExtractPreferences(conversationCtx *Context) map[string]string {
	if conversationCtx == nil || len(conversationCtx.Turns) == 0 {
		return nil
	}

	counts := make(map[string]map[string]int)
	for _, turn := range conversationCtx.Turns {
		for name, value := range turn.FiltersApplied {
			if value == "" {
				continue
			}
			if counts[name] == nil {
				counts[name] = make(map[string]int)
			}
			counts[name][value]++
		}
	}

	prefs := make(map[string]string)
	for name, values := range counts {
		best, bestCount := "", 0
		keys := make([]string, 0, len(values))
		for v := range values {
			keys = append(keys, v)
		}
		sort.Strings(keys)
		for _, v := range keys {
			if values[v] > bestCount {
				best, bestCount = v, values[v]
			}
		}
		if bestCount >= 2 {
			prefs[name] = best
		}
	}
	if len(prefs) == 0 {
		return nil
	}
	return prefs
}

func dimensionUsedBefore(conversationCtx *Context, dimension string) bool {
	for _, turn := range conversationCtx.Turns {
		if _, ok := turn.FiltersApplied[dimension]; ok {
			return true
		}
	}
	return false
}

// FiltersAppliedFrom flattens a parsed query's filter set into the
// name/value map recorded on a Turn.
func FiltersAppliedFrom(parsed query.ParsedQuery) map[string]string {
	applied := make(map[string]string)
	f := parsed.Filters
	if f.Agency != "" {
		applied["agency"] = f.Agency
	}
	if f.SubAgency != "" {
		applied["subAgency"] = f.SubAgency
	}
	if f.RecipientName != "" {
		applied["recipient"] = f.RecipientName
	}
	if f.PlaceOfPerformanceScope != "" {
		applied["state"] = f.PlaceOfPerformanceScope
	}
	if len(f.AwardTypes) > 0 {
		applied["awardType"] = f.AwardTypes[0]
	}
	if len(f.SetAsideTypes) > 0 {
		applied["setAside"] = f.SetAsideTypes[0]
	}
	if f.AmountMin != nil || f.AmountMax != nil {
		applied["amount"] = "range"
	}
	if len(applied) == 0 {
		return nil
	}
	return applied
}
