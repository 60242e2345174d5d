// internal/aggregate/aggregate.go

// Package aggregate rolls a result batch up by a grouping dimension.
package aggregate

import (
	"sort"

	"spendquery/internal/spending"
)

// GroupBy selects the grouping dimension.
type GroupBy string

const (
	GroupByRecipient GroupBy = "recipient"
	GroupByIndustry  GroupBy = "industryClassification"
)

// UnknownKey is the bucket for records missing the grouping field. Records
// are never dropped for a missing value.
const UnknownKey = "Unknown"

// sampleLimit bounds the per-bucket sample list.
const sampleLimit = 3

// Bucket is one rollup group.
type Bucket struct {
	GroupKey      string             `json:"groupKey"`
	RecordCount   int                `json:"recordCount"`
	TotalAmount   float64            `json:"totalAmount"`
	SampleRecords []*spending.Record `json:"sampleRecords"`
}

// Aggregate groups records in a single pass and returns buckets ordered by
// descending totalAmount, ties broken by descending recordCount then
// ascending groupKey. The ordering is fully deterministic for a given batch.
func Aggregate(records []*spending.Record, groupBy GroupBy) []Bucket {
	index := make(map[string]int)
	buckets := make([]Bucket, 0)

	for _, rec := range records {
		key := groupKey(rec, groupBy)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{GroupKey: key})
		}
		buckets[i].RecordCount++
		buckets[i].TotalAmount += rec.GetAwardAmount()
		if len(buckets[i].SampleRecords) < sampleLimit {
			buckets[i].SampleRecords = append(buckets[i].SampleRecords, rec)
		}
	}

	sort.SliceStable(buckets, func(a, b int) bool {
		if buckets[a].TotalAmount != buckets[b].TotalAmount {
			return buckets[a].TotalAmount > buckets[b].TotalAmount
		}
		if buckets[a].RecordCount != buckets[b].RecordCount {
			return buckets[a].RecordCount > buckets[b].RecordCount
		}
		return buckets[a].GroupKey < buckets[b].GroupKey
	})

	return buckets
}

func groupKey(rec *spending.Record, groupBy GroupBy) string {
	var key string
	switch groupBy {
	case GroupByIndustry:
		key = rec.GetNAICSDescription()
	default:
		key = rec.GetRecipientName()
	}
	if key == "" {
		return UnknownKey
	}
	return key
}
