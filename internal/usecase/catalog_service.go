package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/cosmocart/backend/internal/domain"
)

const (
	defaultProductPageSize = 100
	maxProductPageSize     = 500
	minSearchKeywordLength = 3
)

// ProductListQuery is a page of the product browser
type ProductListQuery struct {
	Skip        int
	Limit       int
	Search      string
	Category    string
	SubCategory string
}

// CatalogService serves the product browser
type CatalogService struct {
	store domain.CatalogStore
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store domain.CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// ListProducts returns one page of products. Search words of three or more characters are
// ORed against product names; a search made only of shorter words matches as one phrase.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductListQuery) ([]domain.CatalogEntry, error) {
	if q.Skip < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("%w: skip and limit must not be negative", domain.ErrInvalidRequest)
	}

	limit := q.Limit
	if limit == 0 {
		limit = defaultProductPageSize
	}
	if limit > maxProductPageSize {
		limit = maxProductPageSize
	}

	query := domain.CatalogQuery{
		Category:    domain.Exact(strings.TrimSpace(q.Category)),
		SubCategory: domain.Exact(strings.TrimSpace(q.SubCategory)),
		Offset:      q.Skip,
		Limit:       limit,
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		if keywords := searchKeywords(search); len(keywords) > 0 {
			query.AnyName = keywords
		} else {
			query.Name = domain.Contains(search)
		}
	}

	products, err := s.store.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetProduct returns one product or domain.ErrProductNotFound
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.CatalogEntry, error) {
	if id <= 0 {
		return nil, domain.ErrProductNotFound
	}
	return s.store.GetByID(ctx, id)
}

// Categories lists the distinct product categories
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.store.DistinctCategories(ctx)
}

// SubCategories lists the sub-categories of category with a representative image each
func (s *CatalogService) SubCategories(ctx context.Context, category string) ([]domain.SubCategory, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidRequest)
	}
	return s.store.DistinctSubCategories(ctx, category)
}

func searchKeywords(search string) []string {
	var keywords []string
	for _, word := range strings.Fields(search) {
		if len([]rune(word)) >= minSearchKeywordLength {
			keywords = append(keywords, word)
		}
	}
	return keywords
}
