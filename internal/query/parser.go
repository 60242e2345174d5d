// internal/query/parser.go

// Package query turns a free-text tool query into a structured filter set.
// Parsing is a deterministic pure function: unknown filter names and
// malformed values degrade to plain keywords instead of failing the parse.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Relation is the boolean relation of a keyword term to the previous one.
type Relation string

const (
	RelationAnd Relation = "AND"
	RelationOr  Relation = "OR"
	RelationNot Relation = "NOT"
)

// Term is one keyword with its boolean relation. Adjacent bare terms default
// to AND.
type Term struct {
	Text     string   `json:"text"`
	Relation Relation `json:"relation"`
}

// Filters is the structured filter set recognized by the spending API
// builders. Pointer fields distinguish "absent" from zero.
type Filters struct {
	Agency                  string   `json:"agency,omitempty"`
	SubAgency               string   `json:"subAgency,omitempty"`
	AmountMin               *float64 `json:"amountMin,omitempty"`
	AmountMax               *float64 `json:"amountMax,omitempty"`
	AwardTypes              []string `json:"awardTypes,omitempty"`
	RecipientName           string   `json:"recipientName,omitempty"`
	PlaceOfPerformanceScope string   `json:"placeOfPerformanceScope,omitempty"`
	SetAsideTypes           []string `json:"setAsideTypes,omitempty"`
	SortByDate              bool     `json:"sortByDate,omitempty"`
}

// Validate checks the cross-field invariants. Parse output always passes;
// the check exists for filter sets built programmatically.
func (f Filters) Validate() error {
	if f.AmountMin != nil && f.AmountMax != nil && *f.AmountMin > *f.AmountMax {
		return fmt.Errorf("amount minimum %v exceeds maximum %v", *f.AmountMin, *f.AmountMax)
	}
	return nil
}

// ParsedQuery is the structured form of a raw query string.
type ParsedQuery struct {
	Keywords    []Term   `json:"keywords"`
	Filters     Filters  `json:"filters"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// KeywordTexts returns the plain keyword strings, all relations included.
func (q ParsedQuery) KeywordTexts() []string {
	out := make([]string, 0, len(q.Keywords))
	for _, t := range q.Keywords {
		out = append(out, t.Text)
	}
	return out
}

// HasFilter reports whether a refinement dimension is already constrained.
// Recognized names mirror the suggestion dimensions: setAside, awardType,
// state, fiscalYear, amount.
func (q ParsedQuery) HasFilter(name string) bool {
	switch name {
	case "setAside":
		return len(q.Filters.SetAsideTypes) > 0
	case "awardType":
		return len(q.Filters.AwardTypes) > 0
	case "state":
		return q.Filters.PlaceOfPerformanceScope != ""
	case "amount":
		return q.Filters.AmountMin != nil || q.Filters.AmountMax != nil
	case "agency":
		return q.Filters.Agency != ""
	case "recipient":
		return q.Filters.RecipientName != ""
	default:
		return false
	}
}

// agencyAliases resolves the common shorthand for the big federal
// departments. Unresolved aliases pass through as literal agency names; the
// table is deliberately not a closed set.
var agencyAliases = map[string]string{
	"dod":      "Department of Defense",
	"dhs":      "Department of Homeland Security",
	"hhs":      "Department of Health and Human Services",
	"va":       "Department of Veterans Affairs",
	"gsa":      "General Services Administration",
	"nasa":     "National Aeronautics and Space Administration",
	"doe":      "Department of Energy",
	"dot":      "Department of Transportation",
	"ed":       "Department of Education",
	"doj":      "Department of Justice",
	"usda":     "Department of Agriculture",
	"treasury": "Department of the Treasury",
	"state":    "Department of State",
	"epa":      "Environmental Protection Agency",
	"sba":      "Small Business Administration",
}

// ResolveAgencyAlias maps a shorthand to its canonical agency name,
// returning the input unchanged when unknown.
func ResolveAgencyAlias(alias string) string {
	if canonical, ok := agencyAliases[strings.ToLower(alias)]; ok {
		return canonical
	}
	return alias
}

// Parse converts a raw query string into a ParsedQuery. It never returns an
// error: an empty query yields empty keywords and no filters, and malformed
// filter tokens are degraded to plain keywords with a diagnostic recorded.
func Parse(rawQuery string) ParsedQuery {
	parsed := ParsedQuery{Keywords: []Term{}}

	nextRelation := RelationAnd
	for _, token := range tokenize(rawQuery) {
		// Boolean operators set the relation of the following term.
		switch strings.ToUpper(token) {
		case "AND":
			nextRelation = RelationAnd
			continue
		case "OR":
			nextRelation = RelationOr
			continue
		case "NOT":
			nextRelation = RelationNot
			continue
		}

		if name, value, ok := splitFilterToken(token); ok {
			if applyFilter(&parsed, name, value, token) {
				continue
			}
			// Unknown or malformed filters fall through as keywords.
		}

		parsed.Keywords = append(parsed.Keywords, Term{Text: token, Relation: nextRelation})
		nextRelation = RelationAnd
	}

	return parsed
}

// tokenize splits on whitespace while keeping double-quoted phrases atomic.
// Quotes are stripped from the resulting tokens.
func tokenize(raw string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range raw {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// splitFilterToken splits a name:value token. The name must be non-empty and
// contain no spaces; the value may be empty (rejected later).
func splitFilterToken(token string) (name, value string, ok bool) {
	idx := strings.Index(token, ":")
	if idx <= 0 || idx == len(token)-1 {
		return "", "", false
	}
	return strings.ToLower(token[:idx]), token[idx+1:], true
}

// applyFilter populates the filter set for a recognized name. It returns
// false for unrecognized names and for malformed values, in which case the
// caller keeps the original token as a keyword.
func applyFilter(parsed *ParsedQuery, name, value, original string) bool {
	switch name {
	case "agency":
		parsed.Filters.Agency = ResolveAgencyAlias(value)
	case "subagency":
		parsed.Filters.SubAgency = value
	case "recipient":
		parsed.Filters.RecipientName = value
	case "scope":
		parsed.Filters.PlaceOfPerformanceScope = strings.ToLower(value)
	case "type", "awardtype":
		parsed.Filters.AwardTypes = appendDistinct(parsed.Filters.AwardTypes, splitList(value))
	case "setaside":
		parsed.Filters.SetAsideTypes = appendDistinct(parsed.Filters.SetAsideTypes, splitList(value))
	case "sort":
		if strings.EqualFold(value, "date") {
			parsed.Filters.SortByDate = true
		} else {
			return false
		}
	case "amount":
		min, max, err := parseAmountRange(value)
		if err != nil {
			parsed.Diagnostics = append(parsed.Diagnostics,
				fmt.Sprintf("malformed amount filter %q kept as keyword: %v", original, err))
			return false
		}
		parsed.Filters.AmountMin = min
		parsed.Filters.AmountMax = max
	default:
		return false
	}
	return true
}

// parseAmountRange parses "100K-1M" style values. A bare amount sets only the
// lower bound. Suffixes K, M and B are recognized, case-insensitive.
func parseAmountRange(value string) (min, max *float64, err error) {
	lo, hi, found := strings.Cut(value, "-")

	minVal, err := parseAmount(lo)
	if err != nil {
		return nil, nil, err
	}
	min = &minVal

	if !found {
		return min, nil, nil
	}

	maxVal, err := parseAmount(hi)
	if err != nil {
		return nil, nil, err
	}
	if maxVal < minVal {
		return nil, nil, fmt.Errorf("minimum %v exceeds maximum %v", minVal, maxVal)
	}
	max = &maxVal

	return min, max, nil
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	multiplier := 1.0
	switch s[len(s)-1] {
	case 'k', 'K':
		multiplier = 1_000
		s = s[:len(s)-1]
	case 'm', 'M':
		multiplier = 1_000_000
		s = s[:len(s)-1]
	case 'b', 'B':
		multiplier = 1_000_000_000
		s = s[:len(s)-1]
	}

	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative amount: %v", n)
	}
	return n * multiplier, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func appendDistinct(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range add {
		if !seen[s] {
			existing = append(existing, s)
			seen[s] = true
		}
	}
	return existing
}
