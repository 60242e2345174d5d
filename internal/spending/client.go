// internal/spending/client.go

package spending

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"spendquery/internal/common/config"
	"spendquery/internal/common/errors"
	"spendquery/internal/common/httpclient"
	"spendquery/internal/common/logger"
	"spendquery/internal/query"
	"spendquery/internal/ratelimit"
	"spendquery/internal/retry"
)

const searchPath = "/api/v2/search/spending_by_award/"

// Client performs rate-limited, retried searches against the USAspending
// award search endpoint.
type Client struct {
	http     *httpclient.Client
	executor *retry.Executor
	logger   logger.Logger
	limit    int
}

// NewClient wires the outbound pipeline: every attempt acquires a rate-limit
// token, the retry executor classifies outcomes, and the HTTP client owns
// the per-attempt timeout.
func NewClient(cfg config.APIConfig, retryCfg config.RetryConfig, limiter *ratelimit.Limiter, log logger.Logger) *Client {
	policy := retry.DefaultPolicy(
		retryCfg.MaxAttempts,
		time.Duration(retryCfg.BaseDelay)*time.Millisecond,
		time.Duration(retryCfg.MaxDelay)*time.Millisecond,
	)
	return &Client{
		http:     httpclient.NewClient(cfg.BaseURL, cfg.UserAgent, time.Duration(cfg.Timeout)*time.Millisecond),
		executor: retry.NewExecutor(policy, limiter, ratelimit.DefaultIdentifier, log),
		logger:   log,
		limit:    cfg.PageLimit,
	}
}

// Search executes one award search for a parsed query. Terminal upstream
// failures and exhausted retries surface as errors from the retry executor;
// a 2xx with an undecodable body is reported as an UpstreamError.
func (c *Client) Search(ctx context.Context, parsed query.ParsedQuery) ([]*Record, error) {
	body := BuildSearchRequest(parsed, c.limit)

	resp, err := c.executor.Do(ctx, searchPath, func(ctx context.Context) (*httpclient.Response, error) {
		return c.http.PerformRequest(ctx, http.MethodPost, searchPath, body)
	})
	if err != nil {
		return nil, err
	}

	var decoded SearchResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, errors.NewUpstreamError(resp.StatusCode,
			fmt.Sprintf("undecodable response body: %v", err))
	}

	c.logger.Debug("award search completed", map[string]interface{}{
		"keywords": parsed.KeywordTexts(),
		"results":  len(decoded.Results),
	})
	return decoded.Results, nil
}

// BuildSearchRequest maps a parsed query onto the upstream POST body. Award
// types default to the contract codes when the query names none, matching
// the upstream requirement that every search carries a type set.
func BuildSearchRequest(parsed query.ParsedQuery, limit int) SearchRequest {
	filters := SearchFilters{
		Keywords:                parsed.KeywordTexts(),
		PlaceOfPerformanceScope: parsed.Filters.PlaceOfPerformanceScope,
		SetAsideTypeCodes:       parsed.Filters.SetAsideTypes,
	}

	if len(parsed.Filters.AwardTypes) > 0 {
		filters.AwardTypeCodes = parsed.Filters.AwardTypes
	} else {
		filters.AwardTypeCodes = ContractAwardTypeCodes
	}

	if parsed.Filters.Agency != "" {
		filters.Agencies = append(filters.Agencies, AgencyTier{
			Type: "awarding", Tier: "toptier", Name: parsed.Filters.Agency,
		})
	}
	if parsed.Filters.SubAgency != "" {
		filters.Agencies = append(filters.Agencies, AgencyTier{
			Type: "awarding", Tier: "subtier", Name: parsed.Filters.SubAgency,
		})
	}

	if parsed.Filters.RecipientName != "" {
		filters.RecipientSearchText = []string{parsed.Filters.RecipientName}
	}

	if parsed.Filters.AmountMin != nil || parsed.Filters.AmountMax != nil {
		filters.AwardAmounts = []AmountRange{{
			LowerBound: parsed.Filters.AmountMin,
			UpperBound: parsed.Filters.AmountMax,
		}}
	}

	req := SearchRequest{
		Filters: filters,
		Fields:  DefaultFields,
		Limit:   limit,
		Page:    1,
		Sort:    "Award Amount",
		Order:   "desc",
	}
	if parsed.Filters.SortByDate {
		req.Sort = "Start Date"
	}
	return req
}
