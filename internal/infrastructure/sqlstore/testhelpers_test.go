package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type seedProduct struct {
	name, category, subCategory, brand string
	salePrice                          float64
	imageURL                           string
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedProducts(t *testing.T, db *DB, products ...seedProduct) {
	t.Helper()
	for _, p := range products {
		_, err := db.conn.Exec(`INSERT INTO products (name, category, sub_category, brand, sale_price, market_price, image_url)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, p.name, p.category, p.subCategory, p.brand, p.salePrice, p.salePrice+10, p.imageURL)
		require.NoError(t, err)
	}
}

func defaultSeed() []seedProduct {
	return []seedProduct{
		{"Amul Butter", "Dairy", "Butter", "Amul", 56, "butter.jpg"},
		{"Amul Milk", "Dairy", "Milk", "Amul", 30, "milk.jpg"},
		{"Britannia Bread", "Bakery", "Bread", "Britannia", 45, "bread.jpg"},
		{"Tomato Hybrid", "Vegetables", "Tomato", "Fresho", 20, "tomato.jpg"},
		{"Coca Cola", "Beverages", "Soft Drinks", "Coca-Cola", 40, "coke.jpg"},
		{"Pepsi", "Beverages", "Soft Drinks", "PepsiCo", 38, "pepsi.jpg"},
		{"Tropicana Orange Juice", "Beverages", "Juices", "Tropicana", 120, "juice.jpg"},
		{"100% Pure Honey", "Pantry", "Honey", "Dabur", 199, "honey.jpg"},
	}
}
