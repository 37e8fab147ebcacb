package domain

import (
	"encoding/json"
	"strings"
)

// QueryType is the closed set of intents the chat pipeline understands
type QueryType string

const (
	QueryPriceQuery     QueryType = "PRICE_QUERY"
	QueryCartAdd        QueryType = "CART_ADD"
	QueryCategoryFilter QueryType = "CATEGORY_FILTER"
	QueryProductSearch  QueryType = "PRODUCT_SEARCH"
	QueryPriceFilter    QueryType = "PRICE_FILTER"
	QueryCheckout       QueryType = "CHECKOUT"
	QueryUnknown        QueryType = "UNKNOWN"
)

// AllQueryTypes lists every canonical query type in declaration order
var AllQueryTypes = []QueryType{
	QueryPriceQuery,
	QueryCartAdd,
	QueryCategoryFilter,
	QueryProductSearch,
	QueryPriceFilter,
	QueryCheckout,
	QueryUnknown,
}

// ParseQueryType coerces s to a canonical query type, case-insensitively.
// Unrecognized values map to QueryUnknown.
func ParseQueryType(s string) QueryType {
	candidate := QueryType(strings.ToUpper(strings.TrimSpace(s)))
	for _, qt := range AllQueryTypes {
		if qt == candidate {
			return qt
		}
	}
	return QueryUnknown
}

// UnmarshalJSON normalizes the wire value through ParseQueryType
func (q *QueryType) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*q = QueryUnknown
		return nil
	}
	*q = ParseQueryType(*raw)
	return nil
}

// Intent is the structured classification of one user message.
// Optional slots are empty strings, zero counts or nil price bounds.
type Intent struct {
	QueryType   QueryType `json:"query_type"`
	Action      string    `json:"action,omitempty"`
	ProductName string    `json:"product_name,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Category    string    `json:"category,omitempty"`
	Weight      string    `json:"weight,omitempty"`
	Quantity    int       `json:"quantity,omitempty"`
	Limit       int       `json:"limit,omitempty"`
	MinPrice    *float64  `json:"min_price,omitempty"`
	MaxPrice    *float64  `json:"max_price,omitempty"`
	Confidence  float64   `json:"confidence"`
}

// NewIntent builds an intent from a raw type string, normalizing the type
func NewIntent(rawType string, confidence float64) Intent {
	return Intent{QueryType: ParseQueryType(rawType), Confidence: confidence}
}

// CatalogContext is the catalog snapshot handed to the classifier and the orchestrator
type CatalogContext struct {
	Categories     []string `json:"categories"`
	SampleProducts []string `json:"sample_products"`
}

// ClassifyRequest is the classifier input
type ClassifyRequest struct {
	Message string
	Context CatalogContext
}
