package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmocart/backend/internal/domain"
)

func newTestOrchestrator() *QueryOrchestrator {
	return NewQueryOrchestrator(newTestResolver(), OrchestratorConfig{Logger: zerolog.Nop()})
}

func handle(t *testing.T, store domain.CatalogStore, intent domain.Intent, samples []string) domain.Envelope {
	t.Helper()
	return newTestOrchestrator().Handle(context.Background(), store, OrchestratorInput{Intent: intent, SampleProducts: samples})
}

func productNames(entries []domain.CatalogEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func TestQueryOrchestrator_CategoryFilter(t *testing.T) {
	store := newFakeCatalog(testCatalogEntries()...)

	t.Run("found", func(t *testing.T) {
		env := handle(t, store, domain.Intent{
			QueryType:  domain.QueryCategoryFilter,
			Category:   "Beverages",
			Limit:      3,
			Confidence: 0.9,
		}, testSampleNames())

		assert.True(t, env.Success())
		assert.Equal(t, domain.ActionDisplayProducts, env.Action())
		assert.Equal(t, domain.QueryCategoryFilter, env.QueryType)
		assert.Equal(t, 0.9, env.Confidence)
		assert.Equal(t, "Found 3 products in 'Beverages'", env.Message)

		payload, ok := env.Payload.(domain.DisplayProducts)
		require.True(t, ok)
		assert.Equal(t, "Beverages", payload.Category)
		assert.ElementsMatch(t, []string{"Coca Cola", "Pepsi", "Tropicana Orange Juice"}, productNames(payload.Products))
	})

	t.Run("default limit", func(t *testing.T) {
		store := newFakeCatalog(testCatalogEntries()...)
		env := handle(t, store, domain.Intent{QueryType: domain.QueryCategoryFilter, Category: "a"}, nil)
		require.True(t, env.Success())
		assert.Len(t, env.Payload.(domain.DisplayProducts).Products, 5)
		assert.Equal(t, 5, store.queries[0].Limit)
	})

	t.Run("empty category", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryCategoryFilter, Category: "Frozen"}, nil)
		assert.False(t, env.Success())
		assert.Equal(t, domain.ActionNotFound, env.Action())
		assert.Equal(t, "No products found in 'Frozen'", env.Message)
		assert.Equal(t, domain.NotFound{Category: "Frozen"}, env.Payload)
	})
}

func TestQueryOrchestrator_PriceFilter(t *testing.T) {
	t.Run("no rows in range", func(t *testing.T) {
		store := newFakeCatalog(
			domain.CatalogEntry{Name: "Amul Milk", SalePrice: 30},
			domain.CatalogEntry{Name: "Basmati Rice 5kg", SalePrice: 650},
		)
		env := handle(t, store, domain.Intent{
			QueryType:  domain.QueryPriceFilter,
			MinPrice:   floatPtr(100),
			MaxPrice:   floatPtr(200),
			Confidence: 0.8,
		}, nil)

		assert.False(t, env.Success())
		assert.Equal(t, domain.ActionNotFound, env.Action())
		assert.Contains(t, env.Message, "above ₹100")
		assert.Contains(t, env.Message, "below ₹200")
		assert.Equal(t, "No products found above ₹100 and below ₹200.", env.Message)
	})

	t.Run("rows ordered by price", func(t *testing.T) {
		store := newFakeCatalog(testCatalogEntries()...)
		env := handle(t, store, domain.Intent{QueryType: domain.QueryPriceFilter, MaxPrice: floatPtr(40)}, nil)

		require.True(t, env.Success())
		payload := env.Payload.(domain.DisplayProducts)
		assert.Equal(t, []string{"Tomato Hybrid", "Amul Milk", "Pepsi", "Coca Cola"}, productNames(payload.Products))
		assert.Equal(t, "Found 4 products below ₹40", env.Message)
	})

	t.Run("named product and category", func(t *testing.T) {
		store := newFakeCatalog(testCatalogEntries()...)
		env := handle(t, store, domain.Intent{
			QueryType:   domain.QueryPriceFilter,
			ProductName: "juice",
			Category:    "Beverages",
			MinPrice:    floatPtr(99.5),
		}, nil)

		require.True(t, env.Success())
		assert.Equal(t, "Found 1 juice above ₹99.5", env.Message)
		q := store.queries[0]
		assert.Equal(t, domain.Contains("juice"), q.Name)
		assert.Equal(t, domain.Contains("Beverages"), q.Category)
		assert.Equal(t, domain.OrderBySalePriceAsc, q.OrderBy)
		assert.Equal(t, 20, q.Limit)
	})

	t.Run("no bounds", func(t *testing.T) {
		store := newFakeCatalog()
		env := handle(t, store, domain.Intent{QueryType: domain.QueryPriceFilter}, nil)
		assert.Equal(t, "No products found in your range.", env.Message)
	})
}

func TestQueryOrchestrator_PriceQuery(t *testing.T) {
	store := newFakeCatalog(testCatalogEntries()...)
	samples := testSampleNames()

	t.Run("matched", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryPriceQuery, ProductName: "Amul Butter", Confidence: 0.95}, samples)

		assert.True(t, env.Success())
		assert.Equal(t, domain.ActionDisplayPrice, env.Action())
		assert.Equal(t, "The price of Amul Butter is ₹56", env.Message)
		assert.Equal(t, "Amul Butter", env.Payload.(domain.DisplayProduct).Product.Name)
	})

	t.Run("suggested", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryPriceQuery, ProductName: "amul btr", Confidence: 0.7}, samples)

		assert.False(t, env.Success())
		assert.Equal(t, domain.ActionAskConfirmation, env.Action())
		assert.Equal(t, domain.QueryPriceQuery, env.QueryType)
		assert.Equal(t, "Did you mean 'Amul Butter'?", env.Message)

		payload := env.Payload.(domain.AskConfirmation)
		assert.Equal(t, "Amul Butter", payload.Suggestion.Name)
		require.NotNil(t, payload.Suggestion.Entry)
		assert.Equal(t, 56.0, payload.Suggestion.Entry.SalePrice)
	})

	t.Run("suggestion missing from catalog", func(t *testing.T) {
		env := handle(t, newFakeCatalog(), domain.Intent{QueryType: domain.QueryPriceQuery, ProductName: "amul btr"}, samples)

		payload := env.Payload.(domain.AskConfirmation)
		assert.Nil(t, payload.Suggestion.Entry)

		raw, err := json.Marshal(env)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"suggestion":{"name":"Amul Butter"}`)
	})

	t.Run("no match shows similar", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryPriceQuery, ProductName: "qwerty"}, samples)

		assert.False(t, env.Success())
		assert.Equal(t, domain.ActionShowSimilar, env.Action())
		assert.Equal(t, "No exact match found - showing similar products.", env.Message)

		similar := env.Payload.(domain.ShowSimilar).Similar
		require.Len(t, similar, 5)
		assert.Equal(t, "Amul Butter", similar[0].Name)
	})

	t.Run("similar rows listed once", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryPriceQuery, ProductName: "qwerty"}, []string{"Pepsi", "PEPSI"})

		assert.Equal(t, domain.ActionShowSimilar, env.Action())
		similar := env.Payload.(domain.ShowSimilar).Similar
		require.Len(t, similar, 1)
		assert.Equal(t, "Pepsi", similar[0].Name)
	})

	t.Run("no samples", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryPriceQuery, ProductName: "Amul Butter"}, nil)
		assert.Equal(t, domain.ActionShowSimilar, env.Action())
		assert.Empty(t, env.Payload.(domain.ShowSimilar).Similar)

		raw, err := json.Marshal(env)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"similar":[]`)
	})
}

func TestQueryOrchestrator_CartAdd(t *testing.T) {
	store := newFakeCatalog(testCatalogEntries()...)
	samples := testSampleNames()

	t.Run("matched with quantity", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryCartAdd, ProductName: "amul butter", Quantity: 2, Confidence: 0.93}, samples)

		assert.True(t, env.Success())
		assert.Equal(t, domain.ActionAddToCart, env.Action())
		assert.Equal(t, "Adding 2 x Amul Butter to cart", env.Message)
		payload := env.Payload.(domain.AddToCart)
		assert.Equal(t, 2, payload.Quantity)
		assert.Equal(t, "Amul Butter", payload.Product.Name)
	})

	t.Run("quantity defaults to one", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryCartAdd, ProductName: "Pepsi"}, samples)
		assert.Equal(t, 1, env.Payload.(domain.AddToCart).Quantity)
	})

	t.Run("product outside the sample list", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryCartAdd, ProductName: "tomato", Quantity: 5}, []string{"Amul Butter", "Amul Milk"})

		assert.True(t, env.Success())
		assert.Equal(t, "Tomato Hybrid", env.Payload.(domain.AddToCart).Product.Name)
		assert.Equal(t, "Adding 5 x Tomato Hybrid to cart", env.Message)
	})

	t.Run("suggested", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryCartAdd, ProductName: "amul btr"}, samples)

		assert.Equal(t, domain.ActionAskConfirmation, env.Action())
		assert.Equal(t, domain.QueryCartAdd, env.QueryType)
		assert.Equal(t, "Do you mean 'Amul Butter'?", env.Message)
	})

	t.Run("unknown product", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryCartAdd, ProductName: "qwerty"}, samples)

		assert.Equal(t, domain.ActionShowSimilar, env.Action())
		assert.Equal(t, "Couldn't find 'qwerty' - showing similar options.", env.Message)
	})
}

func TestQueryOrchestrator_ProductSearch(t *testing.T) {
	store := newFakeCatalog(testCatalogEntries()...)

	t.Run("found", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryProductSearch, ProductName: "amul"}, nil)

		require.True(t, env.Success())
		assert.Equal(t, "Found 2 'amul' products from brands: Amul", env.Message)
		assert.Equal(t, []string{"Amul Milk", "Amul Butter"}, productNames(env.Payload.(domain.DisplayProducts).Products))
	})

	t.Run("brand filter", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryProductSearch, ProductName: "pep", Brand: "pepsi"}, nil)
		require.True(t, env.Success())
		assert.Equal(t, []string{"Pepsi"}, productNames(env.Payload.(domain.DisplayProducts).Products))
	})

	t.Run("no product named", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryProductSearch}, nil)
		assert.Equal(t, domain.ActionNoProduct, env.Action())
		assert.Equal(t, "Please specify which product you'd like to see.", env.Message)
	})

	t.Run("nothing found", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryProductSearch, ProductName: "caviar"}, nil)
		assert.Equal(t, domain.ActionNotFound, env.Action())
		assert.Equal(t, "No products found matching 'caviar'.", env.Message)
	})
}

func TestQueryOrchestrator_EchoesIntent(t *testing.T) {
	store := newFakeCatalog(testCatalogEntries()...)

	for _, qt := range domain.AllQueryTypes {
		t.Run(string(qt), func(t *testing.T) {
			env := handle(t, store, domain.Intent{
				QueryType:   qt,
				ProductName: "Amul Butter",
				Category:    "Dairy",
				Confidence:  0.61,
			}, testSampleNames())

			assert.Equal(t, qt, env.QueryType)
			assert.Equal(t, 0.61, env.Confidence)
			assert.NotEmpty(t, env.Message)
			assert.NotNil(t, env.Payload)
		})
	}
}

func TestQueryOrchestrator_CheckoutAndUnknown(t *testing.T) {
	store := newFakeCatalog()

	env := handle(t, store, domain.Intent{QueryType: domain.QueryCheckout, Confidence: 0.99}, nil)
	assert.True(t, env.Success())
	assert.Equal(t, domain.ActionInitiateCheckout, env.Action())
	assert.Equal(t, "Starting checkout", env.Message)

	env = handle(t, store, domain.Intent{QueryType: "nonsense", Confidence: 0.2}, nil)
	assert.False(t, env.Success())
	assert.Equal(t, domain.QueryUnknown, env.QueryType)
	assert.Equal(t, domain.ActionUnknown, env.Action())
	assert.Equal(t, 0.2, env.Confidence)

	assert.Empty(t, store.queries)
}

func TestQueryOrchestrator_CatalogFailure(t *testing.T) {
	store := newFakeCatalog(testCatalogEntries()...)
	store.findErr = errors.New("database is locked")

	for _, qt := range []domain.QueryType{domain.QueryCategoryFilter, domain.QueryProductSearch, domain.QueryPriceFilter} {
		t.Run(string(qt), func(t *testing.T) {
			env := handle(t, store, domain.Intent{QueryType: qt, ProductName: "milk", Category: "Dairy", Confidence: 0.5}, nil)

			assert.False(t, env.Success())
			assert.Equal(t, domain.ActionUnavailable, env.Action())
			assert.Equal(t, qt, env.QueryType)
			assert.Equal(t, 0.5, env.Confidence)
		})
	}

	t.Run("lookup failures degrade to similar", func(t *testing.T) {
		env := handle(t, store, domain.Intent{QueryType: domain.QueryPriceQuery, ProductName: "Amul Butter"}, testSampleNames())
		assert.Equal(t, domain.ActionShowSimilar, env.Action())
		assert.Empty(t, env.Payload.(domain.ShowSimilar).Similar)
	})
}
