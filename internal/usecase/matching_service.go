package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cosmocart/backend/internal/domain"
)

// Default resolution thresholds
const (
	defaultExactThreshold   = 0.95
	defaultSuggestThreshold = 0.60
	partialCandidateLimit   = 10
)

// MatchPolicy owns the confidence tiers used to classify a similarity score
type MatchPolicy struct {
	ExactThreshold   float64
	SuggestThreshold float64
}

// DefaultMatchPolicy returns the 0.95 / 0.60 tiers
func DefaultMatchPolicy() MatchPolicy {
	return MatchPolicy{
		ExactThreshold:   defaultExactThreshold,
		SuggestThreshold: defaultSuggestThreshold,
	}
}

// withDefaults fills unset or inconsistent thresholds
func (p MatchPolicy) withDefaults() MatchPolicy {
	if p.ExactThreshold <= 0 || p.ExactThreshold > 1 {
		p.ExactThreshold = defaultExactThreshold
	}
	if p.SuggestThreshold <= 0 || p.SuggestThreshold > p.ExactThreshold {
		p.SuggestThreshold = min(defaultSuggestThreshold, p.ExactThreshold)
	}
	return p
}

// Classify maps a best score and its candidate to a MatchResult
func (p MatchPolicy) Classify(candidate string, score float64) domain.MatchResult {
	switch {
	case candidate != "" && score >= p.ExactThreshold:
		return domain.Matched{Name: candidate, Score: score}
	case candidate != "" && score >= p.SuggestThreshold:
		return domain.Suggested{Name: candidate, Score: score}
	default:
		return domain.NoMatch{BestScore: score}
	}
}

// MatchConfig holds configuration for the product resolver
type MatchConfig struct {
	Policy             MatchPolicy
	EnableDebugLogging bool
	Logger             zerolog.Logger
}

// ProductResolver resolves user-supplied product names against catalog names
type ProductResolver struct {
	policy             MatchPolicy
	enableDebugLogging bool
	logger             zerolog.Logger
}

// NewProductResolver creates a resolver with the given configuration
func NewProductResolver(config MatchConfig) *ProductResolver {
	return &ProductResolver{
		policy:             config.Policy.withDefaults(),
		enableDebugLogging: config.EnableDebugLogging,
		logger:             config.Logger.With().Str("component", "resolver").Logger(),
	}
}

// Policy returns the effective thresholds
func (r *ProductResolver) Policy() MatchPolicy {
	return r.policy
}

// Resolve scores name against every candidate and classifies the best one.
// The first candidate wins ties.
func (r *ProductResolver) Resolve(name string, candidates []string) domain.MatchResult {
	if strings.TrimSpace(name) == "" || len(candidates) == 0 {
		return domain.NoMatch{BestScore: 0}
	}

	best := ""
	bestScore := -1.0
	for _, candidate := range candidates {
		score := Similarity(name, candidate)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}

	result := r.policy.Classify(best, bestScore)
	if r.enableDebugLogging {
		r.logger.Debug().
			Str("query", name).
			Str("best", best).
			Float64("score", bestScore).
			Str("result", fmt.Sprintf("%T", result)).
			Msg("resolved product name")
	}
	return result
}

// Rank returns up to limit candidates ordered by descending similarity.
// Equal scores keep their input order.
func (r *ProductResolver) Rank(name string, candidates []string, limit int) []domain.RankedCandidate {
	if limit <= 0 {
		return []domain.RankedCandidate{}
	}

	ranked := make([]domain.RankedCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, domain.RankedCandidate{Name: candidate, Score: Similarity(name, candidate)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// LookupExact finds one catalog row for name, trying progressively looser strategies
// and stopping at the first that yields rows:
//  1. case-insensitive equality (brand equality when given)
//  2. case-insensitive prefix (brand substring when given)
//  3. case-insensitive substring over at most 10 rows, best similarity wins
//
// Returns domain.ErrProductNotFound when every strategy comes back empty.
func (r *ProductResolver) LookupExact(
	ctx context.Context,
	store domain.CatalogStore,
	name, brand string,
) (*domain.CatalogEntry, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	brand = strings.TrimSpace(brand)
	if name == "" {
		return nil, domain.ErrInvalidRequest
	}

	exactQuery := domain.CatalogQuery{Name: domain.Exact(name), Limit: 1}
	if brand != "" {
		exactQuery.Brand = domain.Exact(brand)
	}
	rows, err := store.Find(ctx, exactQuery)
	if err != nil {
		return nil, fmt.Errorf("exact lookup: %w", err)
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}

	prefixQuery := domain.CatalogQuery{Name: domain.Prefix(name), Limit: 1}
	if brand != "" {
		prefixQuery.Brand = domain.Contains(brand)
	}
	rows, err = store.Find(ctx, prefixQuery)
	if err != nil {
		return nil, fmt.Errorf("prefix lookup: %w", err)
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}

	partialQuery := domain.CatalogQuery{Name: domain.Contains(name), Limit: partialCandidateLimit}
	if brand != "" {
		partialQuery.Brand = domain.Contains(brand)
	}
	rows, err = store.Find(ctx, partialQuery)
	if err != nil {
		return nil, fmt.Errorf("partial lookup: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrProductNotFound
	}

	bestIdx := 0
	bestScore := -1.0
	for i, row := range rows {
		if score := Similarity(name, row.Name); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	if r.enableDebugLogging {
		r.logger.Debug().
			Str("query", name).
			Int("candidates", len(rows)).
			Str("best", rows[bestIdx].Name).
			Float64("score", bestScore).
			Msg("partial lookup")
	}
	return &rows[bestIdx], nil
}
