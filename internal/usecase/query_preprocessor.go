package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog"

	"github.com/cosmocart/backend/internal/domain"
)

const (
	maxMessageLength       = 500
	categorySnapThreshold  = 0.90
	defaultCategoryLimit   = 5
	maxCategoryFilterLimit = 50
)

var multiSpacePattern = regexp.MustCompile(`\s+`)

// IntentNormalizer cleans user messages before classification and classifier output after it
type IntentNormalizer struct {
	enableDebugLogging bool
	logger             zerolog.Logger
}

// NewIntentNormalizer creates a new intent normalizer
func NewIntentNormalizer(logger zerolog.Logger, enableDebugLogging bool) *IntentNormalizer {
	return &IntentNormalizer{
		enableDebugLogging: enableDebugLogging,
		logger:             logger.With().Str("component", "normalizer").Logger(),
	}
}

// PreprocessMessage collapses whitespace and caps the message length
func (n *IntentNormalizer) PreprocessMessage(message string) string {
	cleaned := multiSpacePattern.ReplaceAllString(message, " ")
	cleaned = strings.TrimSpace(cleaned)

	if utf8.RuneCountInString(cleaned) > maxMessageLength {
		cleaned = string([]rune(cleaned)[:maxMessageLength])
		// Try to cut at word boundary
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxMessageLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}
	return cleaned
}

// Normalize canonicalizes the slots of a classified intent.
// The query type is re-coerced, text slots trimmed, confidence clamped to [0,1],
// non-positive counts dropped, inverted price bounds swapped, and the category slot
// snapped to the closest available category.
func (n *IntentNormalizer) Normalize(intent domain.Intent, categories []string) domain.Intent {
	out := intent
	out.QueryType = domain.ParseQueryType(string(intent.QueryType))
	out.ProductName = strings.TrimSpace(intent.ProductName)
	out.Brand = strings.TrimSpace(intent.Brand)
	out.Category = strings.TrimSpace(intent.Category)
	out.Weight = strings.TrimSpace(intent.Weight)

	switch {
	case out.Confidence < 0:
		out.Confidence = 0
	case out.Confidence > 1:
		out.Confidence = 1
	}

	if out.Quantity < 0 {
		out.Quantity = 0
	}
	if out.Limit < 0 {
		out.Limit = 0
	}
	if out.Limit > maxCategoryFilterLimit {
		out.Limit = maxCategoryFilterLimit
	}

	if out.MinPrice != nil && out.MaxPrice != nil && *out.MinPrice > *out.MaxPrice {
		out.MinPrice, out.MaxPrice = out.MaxPrice, out.MinPrice
	}

	if out.Category != "" {
		out.Category = n.snapCategory(out.Category, categories)
	}

	if n.enableDebugLogging {
		n.logger.Debug().
			Str("query_type", string(out.QueryType)).
			Str("product", out.ProductName).
			Str("brand", out.Brand).
			Str("category", out.Category).
			Float64("confidence", out.Confidence).
			Msg("normalized intent")
	}
	return out
}

// snapCategory replaces category with the closest known category when the two are
// near-identical, which absorbs classifier typos and pluralization. Categories the
// catalog already contains as a substring are left untouched.
func (n *IntentNormalizer) snapCategory(category string, categories []string) string {
	lower := strings.ToLower(category)

	best := ""
	bestScore := float32(0)
	for _, known := range categories {
		knownLower := strings.ToLower(known)
		if strings.Contains(knownLower, lower) {
			return category
		}
		score, err := edlib.StringsSimilarity(lower, knownLower, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = known, score
		}
	}

	if best != "" && bestScore >= categorySnapThreshold {
		return best
	}
	return category
}

// categoryLimit returns the intent's row cap for category filters
func categoryLimit(intent domain.Intent) int {
	if intent.Limit > 0 {
		return intent.Limit
	}
	return defaultCategoryLimit
}
