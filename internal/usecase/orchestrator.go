package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cosmocart/backend/internal/domain"
)

const (
	defaultSimilarLimit = 5
	searchResultLimit   = 20
	maxBrandsInMessage  = 10
	currencySymbol      = "₹"
)

const catalogUnavailableMessage = "The catalog is temporarily unavailable. Please try again shortly."

// OrchestratorConfig holds configuration for the query orchestrator
type OrchestratorConfig struct {
	SimilarLimit int
	Logger       zerolog.Logger
}

// OrchestratorInput is one classified message plus the sample names it was classified against
type OrchestratorInput struct {
	Intent         domain.Intent
	SampleProducts []string
}

// QueryOrchestrator turns an intent into a response envelope by running the resolution
// strategy for its query type. It holds no per-request state.
type QueryOrchestrator struct {
	resolver     *ProductResolver
	similarLimit int
	logger       zerolog.Logger
}

// NewQueryOrchestrator creates an orchestrator backed by resolver
func NewQueryOrchestrator(resolver *ProductResolver, config OrchestratorConfig) *QueryOrchestrator {
	limit := config.SimilarLimit
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	return &QueryOrchestrator{
		resolver:     resolver,
		similarLimit: limit,
		logger:       config.Logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Handle dispatches on the intent's query type. All catalog access goes through store
// and is read-only. Every path returns a fully populated envelope.
func (o *QueryOrchestrator) Handle(ctx context.Context, store domain.CatalogStore, in OrchestratorInput) domain.Envelope {
	intent := in.Intent
	intent.QueryType = domain.ParseQueryType(string(intent.QueryType))

	switch intent.QueryType {
	case domain.QueryPriceQuery:
		return o.handlePriceQuery(ctx, store, intent, in.SampleProducts)
	case domain.QueryCartAdd:
		return o.handleCartAdd(ctx, store, intent, in.SampleProducts)
	case domain.QueryCategoryFilter:
		return o.handleCategoryFilter(ctx, store, intent)
	case domain.QueryProductSearch:
		return o.handleProductSearch(ctx, store, intent)
	case domain.QueryPriceFilter:
		return o.handlePriceFilter(ctx, store, intent)
	case domain.QueryCheckout:
		return domain.NewEnvelope(domain.QueryCheckout, domain.InitiateCheckout{}, "Starting checkout", intent.Confidence)
	case domain.QueryUnknown:
		return domain.NewEnvelope(domain.QueryUnknown, domain.Unclassified{}, "Unable to classify query", intent.Confidence)
	default:
		return domain.NewEnvelope(domain.QueryUnknown, domain.Unclassified{}, "Unable to classify query", intent.Confidence)
	}
}

func (o *QueryOrchestrator) handlePriceQuery(
	ctx context.Context,
	store domain.CatalogStore,
	intent domain.Intent,
	samples []string,
) domain.Envelope {
	name := intent.ProductName

	switch match := o.resolver.Resolve(name, samples).(type) {
	case domain.Matched:
		if entry := o.lookup(ctx, store, match.Name, intent.Brand); entry != nil {
			message := fmt.Sprintf("The price of %s is %s", entry.Name, formatPrice(entry.SalePrice))
			return domain.NewEnvelope(domain.QueryPriceQuery, domain.DisplayProduct{Product: *entry}, message, intent.Confidence)
		}
	case domain.Suggested:
		return o.askConfirmation(ctx, store, intent, match.Name, fmt.Sprintf("Did you mean '%s'?", match.Name))
	case domain.NoMatch:
	}

	return o.showSimilar(ctx, store, intent, samples, "No exact match found - showing similar products.")
}

func (o *QueryOrchestrator) handleCartAdd(
	ctx context.Context,
	store domain.CatalogStore,
	intent domain.Intent,
	samples []string,
) domain.Envelope {
	name := intent.ProductName
	match := o.resolver.Resolve(name, samples)

	var entry *domain.CatalogEntry
	if matched, ok := match.(domain.Matched); ok {
		entry = o.lookup(ctx, store, matched.Name, intent.Brand)
	}
	// The sample list is only a slice of the catalog; try the raw name against all of it
	if entry == nil && strings.TrimSpace(name) != "" {
		entry = o.lookup(ctx, store, name, intent.Brand)
	}

	if entry != nil {
		quantity := intent.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		message := fmt.Sprintf("Adding %d x %s to cart", quantity, entry.Name)
		payload := domain.AddToCart{Product: *entry, Quantity: quantity}
		return domain.NewEnvelope(domain.QueryCartAdd, payload, message, intent.Confidence)
	}

	if suggested, ok := match.(domain.Suggested); ok {
		return o.askConfirmation(ctx, store, intent, suggested.Name, fmt.Sprintf("Do you mean '%s'?", suggested.Name))
	}

	return o.showSimilar(ctx, store, intent, samples, fmt.Sprintf("Couldn't find '%s' - showing similar options.", name))
}

func (o *QueryOrchestrator) handleCategoryFilter(ctx context.Context, store domain.CatalogStore, intent domain.Intent) domain.Envelope {
	category := strings.TrimSpace(intent.Category)

	rows, err := store.Find(ctx, domain.CatalogQuery{
		Category: domain.Contains(category),
		Limit:    categoryLimit(intent),
	})
	if err != nil {
		return o.catalogFailure(domain.QueryCategoryFilter, intent, err)
	}

	if len(rows) == 0 {
		message := fmt.Sprintf("No products found in '%s'", intent.Category)
		return domain.NewEnvelope(domain.QueryCategoryFilter, domain.NotFound{Category: intent.Category}, message, intent.Confidence)
	}

	message := fmt.Sprintf("Found %d products in '%s'", len(rows), intent.Category)
	payload := domain.DisplayProducts{Category: intent.Category, Products: rows}
	return domain.NewEnvelope(domain.QueryCategoryFilter, payload, message, intent.Confidence)
}

func (o *QueryOrchestrator) handleProductSearch(ctx context.Context, store domain.CatalogStore, intent domain.Intent) domain.Envelope {
	name := strings.TrimSpace(intent.ProductName)
	if name == "" {
		return domain.NewEnvelope(domain.QueryProductSearch, domain.NoProduct{},
			"Please specify which product you'd like to see.", intent.Confidence)
	}

	query := domain.CatalogQuery{
		Name:    domain.Contains(name),
		OrderBy: domain.OrderBySalePriceAsc,
		Limit:   searchResultLimit,
	}
	if intent.Brand != "" {
		query.Brand = domain.Contains(intent.Brand)
	}

	rows, err := store.Find(ctx, query)
	if err != nil {
		return o.catalogFailure(domain.QueryProductSearch, intent, err)
	}
	if len(rows) == 0 {
		return domain.NewEnvelope(domain.QueryProductSearch, domain.NotFound{},
			fmt.Sprintf("No products found matching '%s'.", name), intent.Confidence)
	}

	brandText := "various"
	if brands := distinctBrands(rows, maxBrandsInMessage); len(brands) > 0 {
		brandText = strings.Join(brands, ", ")
	}
	message := fmt.Sprintf("Found %d '%s' products from brands: %s", len(rows), name, brandText)
	return domain.NewEnvelope(domain.QueryProductSearch, domain.DisplayProducts{Products: rows}, message, intent.Confidence)
}

func (o *QueryOrchestrator) handlePriceFilter(ctx context.Context, store domain.CatalogStore, intent domain.Intent) domain.Envelope {
	query := domain.CatalogQuery{
		MinPrice: intent.MinPrice,
		MaxPrice: intent.MaxPrice,
		OrderBy:  domain.OrderBySalePriceAsc,
		Limit:    searchResultLimit,
	}
	if name := strings.TrimSpace(intent.ProductName); name != "" {
		query.Name = domain.Contains(name)
	}
	if category := strings.TrimSpace(intent.Category); category != "" {
		query.Category = domain.Contains(category)
	}

	var bounds []string
	if intent.MinPrice != nil {
		bounds = append(bounds, "above "+formatPrice(*intent.MinPrice))
	}
	if intent.MaxPrice != nil {
		bounds = append(bounds, "below "+formatPrice(*intent.MaxPrice))
	}
	priceText := "in your range"
	if len(bounds) > 0 {
		priceText = strings.Join(bounds, " and ")
	}

	label := intent.ProductName
	if label == "" {
		label = "products"
	}

	rows, err := store.Find(ctx, query)
	if err != nil {
		return o.catalogFailure(domain.QueryPriceFilter, intent, err)
	}
	if len(rows) == 0 {
		return domain.NewEnvelope(domain.QueryPriceFilter, domain.NotFound{},
			fmt.Sprintf("No %s found %s.", label, priceText), intent.Confidence)
	}

	message := fmt.Sprintf("Found %d %s %s", len(rows), label, priceText)
	return domain.NewEnvelope(domain.QueryPriceFilter, domain.DisplayProducts{Products: rows}, message, intent.Confidence)
}

// askConfirmation looks the suggestion up so the caller can render it, falling back to
// the bare name when the catalog has no row for it
func (o *QueryOrchestrator) askConfirmation(
	ctx context.Context,
	store domain.CatalogStore,
	intent domain.Intent,
	suggestion, message string,
) domain.Envelope {
	payload := domain.AskConfirmation{
		Suggestion: domain.Suggestion{
			Name:  suggestion,
			Entry: o.lookup(ctx, store, suggestion, intent.Brand),
		},
	}
	return domain.NewEnvelope(intent.QueryType, payload, message, intent.Confidence)
}

// showSimilar ranks the sample names against the requested name and returns the catalog
// rows of the top candidates
func (o *QueryOrchestrator) showSimilar(
	ctx context.Context,
	store domain.CatalogStore,
	intent domain.Intent,
	samples []string,
	message string,
) domain.Envelope {
	ranked := o.resolver.Rank(intent.ProductName, samples, o.similarLimit)

	similar := make([]domain.CatalogEntry, 0, len(ranked))
	seen := make(map[int64]bool, len(ranked))
	for _, candidate := range ranked {
		entry := o.lookup(ctx, store, candidate.Name, intent.Brand)
		if entry == nil || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		similar = append(similar, *entry)
	}

	return domain.NewEnvelope(intent.QueryType, domain.ShowSimilar{Similar: similar}, message, intent.Confidence)
}

// lookup runs the three-tier cascade and reports a miss as nil. Store errors are logged.
func (o *QueryOrchestrator) lookup(ctx context.Context, store domain.CatalogStore, name, brand string) *domain.CatalogEntry {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	entry, err := o.resolver.LookupExact(ctx, store, name, brand)
	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			o.logger.Warn().Err(err).Str("name", name).Str("brand", brand).Msg("catalog lookup failed")
		}
		return nil
	}
	return entry
}

func (o *QueryOrchestrator) catalogFailure(queryType domain.QueryType, intent domain.Intent, err error) domain.Envelope {
	o.logger.Error().Err(err).Str("query_type", string(queryType)).Msg("catalog query failed")
	return domain.NewEnvelope(queryType, domain.Unavailable{}, catalogUnavailableMessage, intent.Confidence)
}

// distinctBrands returns up to limit non-empty brands in first-seen order
func distinctBrands(rows []domain.CatalogEntry, limit int) []string {
	seen := make(map[string]bool)
	var brands []string
	for _, row := range rows {
		if row.Brand == "" || seen[row.Brand] {
			continue
		}
		seen[row.Brand] = true
		brands = append(brands, row.Brand)
		if len(brands) == limit {
			break
		}
	}
	return brands
}

// formatPrice renders an amount with the currency symbol and no trailing zeros
func formatPrice(amount float64) string {
	return currencySymbol + strconv.FormatFloat(amount, 'f', -1, 64)
}
