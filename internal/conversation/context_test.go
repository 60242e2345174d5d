// internal/conversation/context_test.go
package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendquery/internal/query"
)

func TestSuggestRefinements_BelowThresholdReturnsNothing(t *testing.T) {
	parsed := query.Parse("laptops")

	assert.Nil(t, SuggestRefinements(parsed, 50, nil))
	assert.Nil(t, SuggestRefinements(parsed, 0, nil))
}

func TestSuggestRefinements_AboveThresholdSuggestsAllDimensions(t *testing.T) {
	parsed := query.Parse("laptops")

	suggestions := SuggestRefinements(parsed, 51, nil)

	require.Len(t, suggestions, 5)
	assert.Contains(t, suggestions[0], "set-aside")
	assert.Contains(t, suggestions[1], "award type")
}

func TestSuggestRefinements_OmitsPresentFilters(t *testing.T) {
	parsed := query.Parse("laptops setaside:SBA amount:100K-1M")

	suggestions := SuggestRefinements(parsed, 200, nil)

	require.Len(t, suggestions, 3)
	for _, s := range suggestions {
		assert.NotContains(t, s, "set-aside type")
		assert.NotContains(t, s, "amount range")
	}
}

func TestSuggestRefinements_PrioritizesPreviouslyUsedDimensions(t *testing.T) {
	parsed := query.Parse("laptops")
	ctx := &Context{Turns: []Turn{
		{Query: "servers amount:1M", FiltersApplied: map[string]string{"amount": "range"}, ResultCount: 10},
	}}

	suggestions := SuggestRefinements(parsed, 100, ctx)

	require.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions[0], "amount")
	assert.Contains(t, suggestions[0], "previous query")
}

func TestExtractPreferences_RequiresRepeatedUse(t *testing.T) {
	ctx := &Context{Turns: []Turn{
		{FiltersApplied: map[string]string{"agency": "Department of Defense"}},
		{FiltersApplied: map[string]string{"agency": "Department of Defense", "recipient": "Dell"}},
		{FiltersApplied: map[string]string{"agency": "Department of Energy"}},
	}}

	prefs := ExtractPreferences(ctx)

	require.NotNil(t, prefs)
	assert.Equal(t, "Department of Defense", prefs["agency"])
	// A single occurrence is not a pattern.
	_, hasRecipient := prefs["recipient"]
	assert.False(t, hasRecipient)
}

func TestExtractPreferences_EmptyContext(t *testing.T) {
	assert.Nil(t, ExtractPreferences(nil))
	assert.Nil(t, ExtractPreferences(&Context{}))
	assert.Nil(t, ExtractPreferences(&Context{Turns: []Turn{{Query: "laptops"}}}))
}

func TestFiltersAppliedFrom(t *testing.T) {
	parsed := query.Parse("laptops agency:dod recipient:Dell setaside:SBA amount:100K")

	applied := FiltersAppliedFrom(parsed)

	assert.Equal(t, "Department of Defense", applied["agency"])
	assert.Equal(t, "Dell", applied["recipient"])
	assert.Equal(t, "SBA", applied["setAside"])
	assert.Equal(t, "range", applied["amount"])

	assert.Nil(t, FiltersAppliedFrom(query.Parse("laptops")))
}
