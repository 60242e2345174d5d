// internal/spending/models.go

// Package spending models federal award records and the client that fetches
// them from the USAspending search API.
package spending

import "spendquery/internal/scoring"

// ==========================
// AWARD RECORD MODEL
// ==========================

// Record is one award row as returned by the spending_by_award endpoint.
// Every field the upstream may omit is a pointer; use the accessor methods
// rather than dereferencing directly.
type Record struct {
	InternalID              *string  `json:"internal_id,omitempty"`
	AwardID                 *string  `json:"Award ID,omitempty"`
	RecipientName           *string  `json:"Recipient Name,omitempty"`
	AwardAmount             *float64 `json:"Award Amount,omitempty"`
	Description             *string  `json:"Description,omitempty"`
	AwardingAgency          *string  `json:"Awarding Agency,omitempty"`
	AwardingSubAgency       *string  `json:"Awarding Sub Agency,omitempty"`
	StartDate               *string  `json:"Start Date,omitempty"`
	EndDate                 *string  `json:"End Date,omitempty"`
	NAICSCode               *string  `json:"NAICS Code,omitempty"`
	NAICSDescription        *string  `json:"NAICS Description,omitempty"`
	PSCCode                 *string  `json:"PSC Code,omitempty"`
	PSCDescription          *string  `json:"PSC Description,omitempty"`
	PlaceOfPerformanceState *string  `json:"Place of Performance State Code,omitempty"`
	ContractAwardType       *string  `json:"Contract Award Type,omitempty"`
	RelevanceScore          int      `json:"relevanceScore,omitempty"`
}

// GetRecipientName returns the recipient name or "" when absent.
func (r *Record) GetRecipientName() string {
	if r == nil {
		return ""
	}
	return deref(r.RecipientName)
}

// GetDescription returns the award description or "" when absent.
func (r *Record) GetDescription() string {
	if r == nil {
		return ""
	}
	return deref(r.Description)
}

// GetAwardingAgency returns the awarding agency name or "" when absent.
func (r *Record) GetAwardingAgency() string {
	if r == nil {
		return ""
	}
	return deref(r.AwardingAgency)
}

// GetNAICSDescription returns the NAICS industry description or "" when absent.
func (r *Record) GetNAICSDescription() string {
	if r == nil {
		return ""
	}
	return deref(r.NAICSDescription)
}

// GetPSCDescription returns the product/service description or "" when absent.
func (r *Record) GetPSCDescription() string {
	if r == nil {
		return ""
	}
	return deref(r.PSCDescription)
}

// GetAwardID returns the award identifier or "" when absent.
func (r *Record) GetAwardID() string {
	if r == nil {
		return ""
	}
	return deref(r.AwardID)
}

// GetAwardAmount returns the award amount or 0 when absent.
func (r *Record) GetAwardAmount() float64 {
	if r == nil || r.AwardAmount == nil {
		return 0
	}
	return *r.AwardAmount
}

// ScoringFields projects the record onto the field set the relevance scorer
// consumes. Absent fields project to empty strings.
func (r *Record) ScoringFields() scoring.Fields {
	return scoring.Fields{
		Recipient:                 r.GetRecipientName(),
		Description:               r.GetDescription(),
		IndustryDescription:       r.GetNAICSDescription(),
		ProductServiceDescription: r.GetPSCDescription(),
		Agency:                    r.GetAwardingAgency(),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ==========================
// SEARCH REQUEST / RESPONSE
// ==========================

// SearchRequest is the POST body for /api/v2/search/spending_by_award/.
type SearchRequest struct {
	Filters SearchFilters `json:"filters"`
	Fields  []string      `json:"fields"`
	Sort    string        `json:"sort,omitempty"`
	Order   string        `json:"order,omitempty"`
	Limit   int           `json:"limit"`
	Page    int           `json:"page"`
}

// SearchFilters mirrors the upstream filter object. Empty slices and zero
// values are omitted so the upstream's strict validator accepts the body.
type SearchFilters struct {
	Keywords                []string      `json:"keywords,omitempty"`
	AwardTypeCodes          []string      `json:"award_type_codes,omitempty"`
	Agencies                []AgencyTier  `json:"agencies,omitempty"`
	RecipientSearchText     []string      `json:"recipient_search_text,omitempty"`
	AwardAmounts            []AmountRange `json:"award_amounts,omitempty"`
	SetAsideTypeCodes       []string      `json:"set_aside_type_codes,omitempty"`
	PlaceOfPerformanceScope string        `json:"place_of_performance_scope,omitempty"`
	TimePeriod              []TimePeriod  `json:"time_period,omitempty"`
}

// AgencyTier identifies an awarding or funding agency at a tier.
type AgencyTier struct {
	Type string `json:"type"`
	Tier string `json:"tier"`
	Name string `json:"name"`
}

// AmountRange bounds award amounts. Either bound may be absent.
type AmountRange struct {
	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`
}

// TimePeriod bounds award action dates.
type TimePeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// SearchResponse is the upstream reply envelope.
type SearchResponse struct {
	Results      []*Record `json:"results"`
	PageMetadata *PageMeta `json:"page_metadata,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Messages     []string  `json:"messages,omitempty"`
}

// PageMeta carries upstream pagination state.
type PageMeta struct {
	Page    int  `json:"page"`
	HasNext bool `json:"hasNext"`
}

// DefaultFields is the field list requested from the upstream on every
// search. The upstream returns only the fields named here.
var DefaultFields = []string{
	"Award ID",
	"Recipient Name",
	"Award Amount",
	"Description",
	"Awarding Agency",
	"Awarding Sub Agency",
	"Start Date",
	"End Date",
	"NAICS Code",
	"NAICS Description",
	"PSC Code",
	"PSC Description",
	"Place of Performance State Code",
	"Contract Award Type",
}

// ContractAwardTypeCodes are the award type codes for procurement contracts,
// the default type set when a query names none.
var ContractAwardTypeCodes = []string{"A", "B", "C", "D"}
