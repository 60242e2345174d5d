// internal/query/parser_test.go
package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_KeywordsAndFilters(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		validate func(t *testing.T, parsed ParsedQuery)
	}{
		{
			name: "keywords with agency alias and amount range",
			raw:  "software agency:dod amount:100K-1M",
			validate: func(t *testing.T, parsed ParsedQuery) {
				assert.Equal(t, "Department of Defense", parsed.Filters.Agency)
				require.NotNil(t, parsed.Filters.AmountMin)
				require.NotNil(t, parsed.Filters.AmountMax)
				assert.Equal(t, 100000.0, *parsed.Filters.AmountMin)
				assert.Equal(t, 1000000.0, *parsed.Filters.AmountMax)
				assert.Equal(t, []string{"software"}, parsed.KeywordTexts())
				assert.Empty(t, parsed.Diagnostics)
			},
		},
		{
			name: "empty query",
			raw:  "",
			validate: func(t *testing.T, parsed ParsedQuery) {
				assert.Empty(t, parsed.Keywords)
				assert.Equal(t, Filters{}, parsed.Filters)
			},
		},
		{
			name: "quoted phrase is one token",
			raw:  `"cloud computing" services`,
			validate: func(t *testing.T, parsed ParsedQuery) {
				assert.Equal(t, []string{"cloud computing", "services"}, parsed.KeywordTexts())
			},
		},
		{
			name: "boolean relations",
			raw:  "laptops OR tablets NOT refurbished printers",
			validate: func(t *testing.T, parsed ParsedQuery) {
				require.Len(t, parsed.Keywords, 4)
				assert.Equal(t, Term{Text: "laptops", Relation: RelationAnd}, parsed.Keywords[0])
				assert.Equal(t, Term{Text: "tablets", Relation: RelationOr}, parsed.Keywords[1])
				assert.Equal(t, Term{Text: "refurbished", Relation: RelationNot}, parsed.Keywords[2])
				assert.Equal(t, Term{Text: "printers", Relation: RelationAnd}, parsed.Keywords[3])
			},
		},
		{
			name: "unknown filter name kept as keyword",
			raw:  "widgets color:blue",
			validate: func(t *testing.T, parsed ParsedQuery) {
				assert.Equal(t, []string{"widgets", "color:blue"}, parsed.KeywordTexts())
			},
		},
		{
			name: "unresolved agency alias passes through",
			raw:  "agency:FCC",
			validate: func(t *testing.T, parsed ParsedQuery) {
				assert.Equal(t, "FCC", parsed.Filters.Agency)
				assert.Empty(t, parsed.Keywords)
			},
		},
		{
			name: "recipient scope setaside type and sort",
			raw:  "laptops recipient:Dell scope:domestic setaside:SDVOSBC type:A,B sort:date",
			validate: func(t *testing.T, parsed ParsedQuery) {
				assert.Equal(t, "Dell", parsed.Filters.RecipientName)
				assert.Equal(t, "domestic", parsed.Filters.PlaceOfPerformanceScope)
				assert.Equal(t, []string{"SDVOSBC"}, parsed.Filters.SetAsideTypes)
				assert.Equal(t, []string{"A", "B"}, parsed.Filters.AwardTypes)
				assert.True(t, parsed.Filters.SortByDate)
				assert.Equal(t, []string{"laptops"}, parsed.KeywordTexts())
			},
		},
		{
			name: "bare amount sets lower bound only",
			raw:  "amount:1M",
			validate: func(t *testing.T, parsed ParsedQuery) {
				require.NotNil(t, parsed.Filters.AmountMin)
				assert.Equal(t, 1000000.0, *parsed.Filters.AmountMin)
				assert.Nil(t, parsed.Filters.AmountMax)
			},
		},
		{
			name: "billion suffix and plain numbers",
			raw:  "amount:500-2B",
			validate: func(t *testing.T, parsed ParsedQuery) {
				require.NotNil(t, parsed.Filters.AmountMin)
				require.NotNil(t, parsed.Filters.AmountMax)
				assert.Equal(t, 500.0, *parsed.Filters.AmountMin)
				assert.Equal(t, 2000000000.0, *parsed.Filters.AmountMax)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, Parse(tt.raw))
		})
	}
}

func TestParse_MalformedAmountDegradesToKeyword(t *testing.T) {
	parsed := Parse("amount:abc-def")

	assert.Nil(t, parsed.Filters.AmountMin)
	assert.Nil(t, parsed.Filters.AmountMax)
	assert.Contains(t, parsed.KeywordTexts(), "amount:abc-def")
	require.Len(t, parsed.Diagnostics, 1)
	assert.Contains(t, parsed.Diagnostics[0], "amount:abc-def")
}

func TestParse_InvertedAmountRangeDegradesToKeyword(t *testing.T) {
	parsed := Parse("amount:1M-100K")

	assert.Nil(t, parsed.Filters.AmountMin)
	assert.Contains(t, parsed.KeywordTexts(), "amount:1M-100K")
	assert.NotEmpty(t, parsed.Diagnostics)
}

func TestParse_SubAgency(t *testing.T) {
	parsed := Parse(`subagency:"Defense Logistics Agency"`)
	assert.Equal(t, "Defense Logistics Agency", parsed.Filters.SubAgency)
}

func TestResolveAgencyAlias(t *testing.T) {
	assert.Equal(t, "Department of Defense", ResolveAgencyAlias("DoD"))
	assert.Equal(t, "National Aeronautics and Space Administration", ResolveAgencyAlias("nasa"))
	assert.Equal(t, "Department of Wizardry", ResolveAgencyAlias("Department of Wizardry"))
}

func TestHasFilter(t *testing.T) {
	parsed := Parse("laptops setaside:SBA amount:100K scope:domestic")

	assert.True(t, parsed.HasFilter("setAside"))
	assert.True(t, parsed.HasFilter("amount"))
	assert.True(t, parsed.HasFilter("state"))
	assert.False(t, parsed.HasFilter("awardType"))
	assert.False(t, parsed.HasFilter("agency"))
	assert.False(t, parsed.HasFilter("fiscalYear"))
}
