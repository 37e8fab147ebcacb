package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogStore is read-only product lookup
type CatalogStore interface {
	Find(ctx context.Context, query CatalogQuery) ([]CatalogEntry, error)
	GetByID(ctx context.Context, id int64) (*CatalogEntry, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	DistinctSubCategories(ctx context.Context, category string) ([]SubCategory, error)
	SampleProductNames(ctx context.Context, limit int) ([]string, error)
}

// CatalogSession is a CatalogStore bound to one request. Close releases it.
type CatalogSession interface {
	CatalogStore
	Close() error
}

// CatalogProvider serves pooled reads and hands out request-scoped sessions
type CatalogProvider interface {
	CatalogStore
	OpenSession(ctx context.Context) (CatalogSession, error)
}

// IntentClassifier turns a free-text message into an intent.
// Network failures and timeouts wrap ErrUpstreamUnavailable; unparsable output wraps
// ErrClassificationFailed.
type IntentClassifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (*Intent, error)
}

// UserRepository persists customers
type UserRepository interface {
	UpsertByMobile(ctx context.Context, mobileNumber, name string) (*User, error)
}

// CartRepository persists carts
type CartRepository interface {
	GetCart(ctx context.Context, userID string) ([]CartItem, error)
	ReplaceCart(ctx context.Context, userID string, items []LineItem) error
}

// OrderRepository persists orders
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *OrderCreate) (*Order, error)
	RecentOrders(ctx context.Context, userID string, limit int) ([]Order, error)
}
