package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cosmocart/backend/internal/domain"
)

// fakeCatalog is an in-memory CatalogProvider with the same filter semantics as the SQL store
type fakeCatalog struct {
	mu       sync.Mutex
	entries  []domain.CatalogEntry
	findErr  error
	queries  []domain.CatalogQuery
	opened   int
	closed   int
	openErr  error
	closeErr error
}

func newFakeCatalog(entries ...domain.CatalogEntry) *fakeCatalog {
	for i := range entries {
		if entries[i].ID == 0 {
			entries[i].ID = int64(i + 1)
		}
	}
	return &fakeCatalog{entries: entries}
}

func matchesText(value string, f domain.TextFilter) bool {
	if f.IsZero() {
		return true
	}
	v := strings.ToLower(value)
	want := strings.ToLower(strings.TrimSpace(f.Value))
	switch f.Mode {
	case domain.MatchExact:
		return v == want
	case domain.MatchPrefix:
		return strings.HasPrefix(v, want)
	default:
		return strings.Contains(v, want)
	}
}

func (c *fakeCatalog) Find(ctx context.Context, q domain.CatalogQuery) ([]domain.CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, q)
	if c.findErr != nil {
		return nil, c.findErr
	}

	var out []domain.CatalogEntry
	for _, e := range c.entries {
		if !matchesText(e.Name, q.Name) || !matchesText(e.Brand, q.Brand) ||
			!matchesText(e.Category, q.Category) || !matchesText(e.SubCategory, q.SubCategory) {
			continue
		}
		if len(q.AnyName) > 0 {
			hit := false
			for _, kw := range q.AnyName {
				if kw = strings.TrimSpace(kw); kw != "" && strings.Contains(strings.ToLower(e.Name), strings.ToLower(kw)) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		if q.MinPrice != nil && e.SalePrice < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && e.SalePrice > *q.MaxPrice {
			continue
		}
		out = append(out, e)
	}

	if q.OrderBy == domain.OrderBySalePriceAsc {
		sort.SliceStable(out, func(i, j int) bool { return out[i].SalePrice < out[j].SalePrice })
	}
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			out = nil
		} else {
			out = out[q.Offset:]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if out == nil {
		out = []domain.CatalogEntry{}
	}
	return out, nil
}

func (c *fakeCatalog) GetByID(ctx context.Context, id int64) (*domain.CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (c *fakeCatalog) DistinctCategories(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findErr != nil {
		return nil, c.findErr
	}
	seen := map[string]bool{}
	out := []string{}
	for _, e := range c.entries {
		if e.Category != "" && !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (c *fakeCatalog) DistinctSubCategories(ctx context.Context, category string) ([]domain.SubCategory, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := map[string]bool{}
	out := []domain.SubCategory{}
	for _, e := range c.entries {
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		if e.SubCategory != "" && !seen[e.SubCategory] {
			seen[e.SubCategory] = true
			out = append(out, domain.SubCategory{Name: e.SubCategory, Image: e.ImageURL})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *fakeCatalog) SampleProductNames(ctx context.Context, limit int) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findErr != nil {
		return nil, c.findErr
	}
	out := []string{}
	for i, e := range c.entries {
		if i >= limit {
			break
		}
		out = append(out, e.Name)
	}
	return out, nil
}

func (c *fakeCatalog) OpenSession(ctx context.Context) (domain.CatalogSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.opened++
	return &fakeSession{fakeCatalog: c}, nil
}

func (c *fakeCatalog) sessionCounts() (opened, closed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened, c.closed
}

type fakeSession struct {
	*fakeCatalog
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return s.closeErr
}

// fakeClassifier returns a canned intent or error and counts calls
type fakeClassifier struct {
	mu       sync.Mutex
	intent   *domain.Intent
	err      error
	block    bool
	calls    int
	requests []domain.ClassifyRequest
}

func (c *fakeClassifier) Classify(ctx context.Context, req domain.ClassifyRequest) (*domain.Intent, error) {
	c.mu.Lock()
	c.calls++
	c.requests = append(c.requests, req)
	block, intent, err := c.block, c.intent, c.err
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, nil
	}
	out := *intent
	return &out, nil
}

func (c *fakeClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// fakeCache is a map-backed CacheRepository
type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func floatPtr(v float64) *float64 { return &v }

func testCatalogEntries() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{Name: "Amul Butter", Category: "Dairy", SubCategory: "Butter", Brand: "Amul", SalePrice: 56},
		{Name: "Amul Milk", Category: "Dairy", SubCategory: "Milk", Brand: "Amul", SalePrice: 30},
		{Name: "Britannia Bread", Category: "Bakery", SubCategory: "Bread", Brand: "Britannia", SalePrice: 45},
		{Name: "Tomato Hybrid", Category: "Vegetables", SubCategory: "Tomato", Brand: "Fresho", SalePrice: 20},
		{Name: "Coca Cola", Category: "Beverages", SubCategory: "Soft Drinks", Brand: "Coca-Cola", SalePrice: 40},
		{Name: "Pepsi", Category: "Beverages", SubCategory: "Soft Drinks", Brand: "PepsiCo", SalePrice: 38},
		{Name: "Tropicana Orange Juice", Category: "Beverages", SubCategory: "Juices", Brand: "Tropicana", SalePrice: 120},
	}
}

func testSampleNames() []string {
	names := []string{}
	for _, e := range testCatalogEntries() {
		names = append(names, e.Name)
	}
	return names
}
