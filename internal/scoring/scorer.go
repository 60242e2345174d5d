// internal/scoring/scorer.go

// Package scoring computes 0-100 relevance scores with human-readable match
// explanations. Scoring is a pure function over one record's fields; callers
// batch and sort.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"spendquery/internal/query"
)

// Weights for each match component. Description contributions accumulate per
// distinct matched keyword up to descriptionCap.
const (
	weightRecipientExact   = 40
	weightRecipientPartial = 20
	weightDescriptionPerKW = 15
	descriptionCap         = 45
	weightIndustry         = 10
	weightConversation     = 5

	maxScore = 100
)

// Fields is the projection of a record that scoring consumes. Absent source
// fields must be passed as empty strings, never skipped.
type Fields struct {
	Recipient                 string
	Description               string
	IndustryDescription       string
	ProductServiceDescription string
	Agency                    string
}

// MatchExplanation is the scored outcome for one record.
type MatchExplanation struct {
	Score         int      `json:"score"`
	MatchedFields []string `json:"matchedFields"`
	Reasoning     string   `json:"reasoning"`
}

// component is one weighted contribution, kept for reasoning order.
type component struct {
	points int
	reason string
}

// Score evaluates one record's fields against a parsed query. A zero-match
// record scores 0 with an empty matchedFields set, which is valid output.
// preferences, when non-nil, carries the most-frequent filter values from
// prior conversation turns and may add a flat boost.
func Score(parsed query.ParsedQuery, fields Fields, preferences map[string]string) MatchExplanation {
	keywords := activeKeywords(parsed)

	var components []component
	matched := make(map[string]bool)

	recipient := strings.ToLower(fields.Recipient)
	if recipient != "" {
		if exact, partial := recipientMatch(recipient, keywords, parsed.Filters.RecipientName); exact {
			components = append(components, component{weightRecipientExact, "exact recipient name match"})
			matched["recipient"] = true
		} else if partial {
			components = append(components, component{weightRecipientPartial, "partial recipient name match"})
			matched["recipient"] = true
		}
	}

	if pts, hits := descriptionMatch(fields.Description, keywords); pts > 0 {
		components = append(components, component{pts,
			fmt.Sprintf("description matched %d keyword(s)", hits)})
		matched["description"] = true
	}

	if fieldContainsAny(fields.IndustryDescription, keywords) {
		components = append(components, component{weightIndustry, "industry classification match"})
		matched["naicsDescription"] = true
	}
	if fieldContainsAny(fields.ProductServiceDescription, keywords) {
		components = append(components, component{weightIndustry, "product/service classification match"})
		matched["pscDescription"] = true
	}

	if boost := conversationBoost(fields, preferences); boost > 0 {
		components = append(components, component{boost, "matches prior conversation preference"})
	}

	total := 0
	for _, c := range components {
		total += c.points
	}
	if total > maxScore {
		total = maxScore
	}

	return MatchExplanation{
		Score:         total,
		MatchedFields: sortedKeys(matched),
		Reasoning:     buildReasoning(components),
	}
}

// activeKeywords returns lowercased keyword texts, excluding NOT terms so a
// negated keyword never contributes positive relevance.
func activeKeywords(parsed query.ParsedQuery) []string {
	var out []string
	for _, term := range parsed.Keywords {
		if term.Relation == query.RelationNot {
			continue
		}
		out = append(out, strings.ToLower(term.Text))
	}
	return out
}

// recipientMatch checks the recipient name against both the keyword sequence
// joined as a phrase and the explicit recipient filter. Exact means full
// string equality; partial means substring in either direction.
func recipientMatch(recipient string, keywords []string, recipientFilter string) (exact, partial bool) {
	candidates := make([]string, 0, len(keywords)+2)
	if recipientFilter != "" {
		candidates = append(candidates, strings.ToLower(recipientFilter))
	}
	if len(keywords) > 1 {
		candidates = append(candidates, strings.Join(keywords, " "))
	}
	candidates = append(candidates, keywords...)

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if c == recipient {
			return true, false
		}
		if strings.Contains(recipient, c) || strings.Contains(c, recipient) {
			partial = true
		}
	}
	return false, partial
}

// descriptionMatch counts distinct keywords present in the description and
// weights them, capped so a keyword-stuffed description cannot dominate.
func descriptionMatch(description string, keywords []string) (points, hits int) {
	desc := strings.ToLower(description)
	if desc == "" {
		return 0, 0
	}
	seen := make(map[string]bool)
	for _, kw := range keywords {
		if kw != "" && !seen[kw] && strings.Contains(desc, kw) {
			seen[kw] = true
			hits++
		}
	}
	points = hits * weightDescriptionPerKW
	if points > descriptionCap {
		points = descriptionCap
	}
	return points, hits
}

func fieldContainsAny(field string, keywords []string) bool {
	f := strings.ToLower(field)
	if f == "" {
		return false
	}
	for _, kw := range keywords {
		if kw != "" && strings.Contains(f, kw) {
			return true
		}
	}
	return false
}

// conversationBoost adds a flat bonus when the record matches an agency or
// recipient value the user filtered on repeatedly in prior turns.
func conversationBoost(fields Fields, preferences map[string]string) int {
	if len(preferences) == 0 {
		return 0
	}
	if pref := preferences["agency"]; pref != "" &&
		strings.EqualFold(fields.Agency, pref) {
		return weightConversation
	}
	if pref := preferences["recipient"]; pref != "" &&
		strings.Contains(strings.ToLower(fields.Recipient), strings.ToLower(pref)) {
		return weightConversation
	}
	return 0
}

// buildReasoning lists the fired components in descending contribution order.
func buildReasoning(components []component) string {
	if len(components) == 0 {
		return "no fields matched"
	}
	sorted := make([]component, len(components))
	copy(sorted, components)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].points > sorted[j].points
	})
	parts := make([]string, 0, len(sorted))
	for _, c := range sorted {
		parts = append(parts, fmt.Sprintf("%s (+%d)", c.reason, c.points))
	}
	return strings.Join(parts, "; ")
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
