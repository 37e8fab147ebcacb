package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmocart/backend/internal/domain"
)

func TestIntentNormalizer_PreprocessMessage(t *testing.T) {
	normalizer := NewIntentNormalizer(zerolog.Nop(), false)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already clean", "price of amul butter", "price of amul butter"},
		{"collapses whitespace", "  price   of\tamul \n butter ", "price of amul butter"},
		{"only whitespace", " \t\n ", ""},
		{"unicode kept", "दूध  का   दाम", "दूध का दाम"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizer.PreprocessMessage(tt.input))
		})
	}

	t.Run("long message cut at a word boundary", func(t *testing.T) {
		long := strings.Repeat("butter ", 100)
		got := normalizer.PreprocessMessage(long)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), 500)
		assert.False(t, strings.HasSuffix(got, " "))
		assert.True(t, strings.HasSuffix(got, "butter"))
	})

	t.Run("long message without spaces", func(t *testing.T) {
		got := normalizer.PreprocessMessage(strings.Repeat("x", 800))
		assert.Equal(t, 500, utf8.RuneCountInString(got))
	})
}

func TestIntentNormalizer_Normalize(t *testing.T) {
	normalizer := NewIntentNormalizer(zerolog.Nop(), true)
	categories := []string{"Bakery", "Beverages", "Dairy", "Vegetables"}

	t.Run("query type coerced", func(t *testing.T) {
		got := normalizer.Normalize(domain.Intent{QueryType: "price_query"}, categories)
		assert.Equal(t, domain.QueryPriceQuery, got.QueryType)

		got = normalizer.Normalize(domain.Intent{QueryType: "REFUND"}, categories)
		assert.Equal(t, domain.QueryUnknown, got.QueryType)
	})

	t.Run("text slots trimmed", func(t *testing.T) {
		got := normalizer.Normalize(domain.Intent{
			QueryType:   domain.QueryCartAdd,
			ProductName: "  amul butter ",
			Brand:       " Amul",
			Weight:      "500g ",
		}, categories)
		assert.Equal(t, "amul butter", got.ProductName)
		assert.Equal(t, "Amul", got.Brand)
		assert.Equal(t, "500g", got.Weight)
	})

	t.Run("confidence clamped", func(t *testing.T) {
		tests := []struct {
			in, want float64
		}{
			{-0.5, 0},
			{0, 0},
			{0.42, 0.42},
			{1, 1},
			{7.5, 1},
		}
		for _, tt := range tests {
			got := normalizer.Normalize(domain.Intent{QueryType: domain.QueryCheckout, Confidence: tt.in}, categories)
			assert.Equal(t, tt.want, got.Confidence, "confidence %v", tt.in)
		}
	})

	t.Run("counts", func(t *testing.T) {
		got := normalizer.Normalize(domain.Intent{QueryType: domain.QueryCartAdd, Quantity: -2, Limit: -1}, categories)
		assert.Zero(t, got.Quantity)
		assert.Zero(t, got.Limit)

		got = normalizer.Normalize(domain.Intent{QueryType: domain.QueryCategoryFilter, Limit: 500}, categories)
		assert.Equal(t, 50, got.Limit)
	})

	t.Run("inverted price bounds swapped", func(t *testing.T) {
		got := normalizer.Normalize(domain.Intent{
			QueryType: domain.QueryPriceFilter,
			MinPrice:  floatPtr(200),
			MaxPrice:  floatPtr(100),
		}, categories)
		require.NotNil(t, got.MinPrice)
		require.NotNil(t, got.MaxPrice)
		assert.Equal(t, 100.0, *got.MinPrice)
		assert.Equal(t, 200.0, *got.MaxPrice)
	})

	t.Run("single bound untouched", func(t *testing.T) {
		got := normalizer.Normalize(domain.Intent{QueryType: domain.QueryPriceFilter, MaxPrice: floatPtr(50)}, categories)
		assert.Nil(t, got.MinPrice)
		require.NotNil(t, got.MaxPrice)
		assert.Equal(t, 50.0, *got.MaxPrice)
	})

	t.Run("input not mutated", func(t *testing.T) {
		in := domain.Intent{QueryType: "checkout", ProductName: " x ", Confidence: 3}
		_ = normalizer.Normalize(in, categories)
		assert.Equal(t, domain.QueryType("checkout"), in.QueryType)
		assert.Equal(t, " x ", in.ProductName)
		assert.Equal(t, 3.0, in.Confidence)
	})
}

func TestIntentNormalizer_CategorySnapping(t *testing.T) {
	normalizer := NewIntentNormalizer(zerolog.Nop(), false)
	categories := []string{"Bakery", "Beverages", "Dairy", "Vegetables"}

	tests := []struct {
		name     string
		category string
		want     string
	}{
		{"typo snapped", "beverags", "Beverages"},
		{"misspelling snapped", "vegitables", "Vegetables"},
		{"substring of a known category kept", "vegetable", "vegetable"},
		{"unrelated kept", "snacks", "snacks"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizer.Normalize(domain.Intent{QueryType: domain.QueryCategoryFilter, Category: tt.category}, categories)
			assert.Equal(t, tt.want, got.Category)
		})
	}

	t.Run("no known categories", func(t *testing.T) {
		got := normalizer.Normalize(domain.Intent{QueryType: domain.QueryCategoryFilter, Category: "beverags"}, nil)
		assert.Equal(t, "beverags", got.Category)
	})
}

func TestCategoryLimit(t *testing.T) {
	assert.Equal(t, 5, categoryLimit(domain.Intent{}))
	assert.Equal(t, 3, categoryLimit(domain.Intent{Limit: 3}))
}
