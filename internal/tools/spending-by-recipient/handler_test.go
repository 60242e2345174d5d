// internal/tools/spending-by-recipient/handler_test.go
package spendingbyrecipient

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendquery/internal/common/logger"
	"spendquery/internal/engine"
	"spendquery/internal/query"
	"spendquery/internal/spending"
)

type stubFetcher struct {
	records []*spending.Record
}

func (s *stubFetcher) Search(ctx context.Context, parsed query.ParsedQuery) ([]*spending.Record, error) {
	return s.records, nil
}

func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }

func newTestHandler(t *testing.T, records []*spending.Record) *Handler {
	log := logger.NewTestLogger(t)
	eng := engine.New(&stubFetcher{records: records}, nil, log, nil)
	return NewHandler(&Config{Enabled: true, Timeout: 10 * time.Second}, eng, log, nil)
}

func TestHandle_AggregatesByRecipient(t *testing.T) {
	handler := newTestHandler(t, []*spending.Record{
		{RecipientName: strPtr("Dell Federal Systems"), AwardAmount: floatPtr(250000)},
		{RecipientName: strPtr("Dell Federal Systems"), AwardAmount: floatPtr(90000)},
		{RecipientName: strPtr("Acme"), AwardAmount: floatPtr(10000)},
	})

	raw, _ := json.Marshal(Input{Query: "laptops"})
	output, err := handler.Handle(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, 3, output.ResultCount)
	require.Len(t, output.Buckets, 2)
	assert.Equal(t, "Dell Federal Systems", output.Buckets[0].GroupKey)
	assert.Equal(t, 340000.0, output.Buckets[0].TotalAmount)
	assert.Contains(t, output.Summary, "Dell Federal Systems")
	assert.Contains(t, output.Summary, "2 recipient group(s)")
}

func TestHandle_GroupByIndustry(t *testing.T) {
	handler := newTestHandler(t, []*spending.Record{
		{RecipientName: strPtr("Acme"), NAICSDescription: strPtr("Manufacturing"), AwardAmount: floatPtr(100)},
	})

	raw, _ := json.Marshal(Input{Query: "widgets", GroupBy: "industryClassification"})
	output, err := handler.Handle(context.Background(), raw)

	require.NoError(t, err)
	require.Len(t, output.Buckets, 1)
	assert.Equal(t, "Manufacturing", output.Buckets[0].GroupKey)
	assert.Contains(t, output.Summary, "industry group(s)")
}

func TestHandle_EmptyResult(t *testing.T) {
	handler := newTestHandler(t, nil)

	raw, _ := json.Marshal(Input{Query: "unobtainium"})
	output, err := handler.Handle(context.Background(), raw)

	require.NoError(t, err)
	assert.Zero(t, output.ResultCount)
	assert.Contains(t, output.Summary, "No awards found")
}
