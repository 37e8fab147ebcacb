package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cosmocart/backend/internal/domain"
)

var (
	jsonObjectPattern    = regexp.MustCompile(`\{[\s\S]*\}`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSONObject returns the outermost {...} span of text, repairing trailing commas
// when the raw span does not parse
func ExtractJSONObject(text string) ([]byte, error) {
	match := jsonObjectPattern.FindString(text)
	if match == "" {
		return nil, fmt.Errorf("%w: no JSON object in model output", domain.ErrClassificationFailed)
	}
	if json.Valid([]byte(match)) {
		return []byte(match), nil
	}

	cleaned := trailingCommaPattern.ReplaceAllString(match, "$1")
	if json.Valid([]byte(cleaned)) {
		return []byte(cleaned), nil
	}
	return nil, fmt.Errorf("%w: malformed JSON in model output", domain.ErrClassificationFailed)
}

// maxIntSlot bounds quantity and limit slots decoded from model output
const maxIntSlot = 1_000_000

// flexNumber accepts a JSON number, a numeric string or null. Non-finite values are rejected.
type flexNumber struct {
	value *float64
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		n.value = nil
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.value = &f
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "₹"))
	if s == "" {
		n.value = nil
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("not a number: %q", s)
	}
	n.value = &f
	return nil
}

// int rounds to the nearest integer, clamped to ±maxIntSlot
func (n flexNumber) int() int {
	if n.value == nil || math.IsNaN(*n.value) {
		return 0
	}
	v := math.Round(*n.value)
	switch {
	case v > maxIntSlot:
		return maxIntSlot
	case v < -maxIntSlot:
		return -maxIntSlot
	}
	return int(v)
}

func (n flexNumber) float() float64 {
	if n.value == nil {
		return 0
	}
	return *n.value
}

// wireIntent is the classifier's JSON shape. Every slot may be null.
type wireIntent struct {
	QueryType   domain.QueryType `json:"query_type"`
	Action      *string          `json:"action"`
	ProductName *string          `json:"product_name"`
	Brand       *string          `json:"brand"`
	Category    *string          `json:"category"`
	Weight      *string          `json:"weight"`
	Quantity    flexNumber       `json:"quantity"`
	Limit       flexNumber       `json:"limit"`
	MinPrice    flexNumber       `json:"min_price"`
	MaxPrice    flexNumber       `json:"max_price"`
	Confidence  flexNumber       `json:"confidence"`
}

// DecodeIntent extracts and decodes the intent object from raw model output.
// A missing or unrecognized query_type decodes as UNKNOWN.
func DecodeIntent(text string) (*domain.Intent, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	wire := wireIntent{QueryType: domain.QueryUnknown}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassificationFailed, err)
	}

	return &domain.Intent{
		QueryType:   domain.ParseQueryType(string(wire.QueryType)),
		Action:      deref(wire.Action),
		ProductName: deref(wire.ProductName),
		Brand:       deref(wire.Brand),
		Category:    deref(wire.Category),
		Weight:      deref(wire.Weight),
		Quantity:    wire.Quantity.int(),
		Limit:       wire.Limit.int(),
		MinPrice:    wire.MinPrice.value,
		MaxPrice:    wire.MaxPrice.value,
		Confidence:  wire.Confidence.float(),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
