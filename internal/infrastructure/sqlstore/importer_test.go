package sqlstore

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmocart/backend/internal/domain"
)

const sampleCSV = `product_name,brand,category,sub_category,market_price,sale_price,ratings,image_url,stock,packed_date,expiry_date
Amul Butter,Amul,Dairy,Butter,60,56,4.4,butter.jpg,25,2026-01-01,2026-06-01
Amul Milk,Amul,Dairy,Milk,32,30,,milk.jpg,,2026-01-02,2026-01-09
Broken Row,Acme,Misc,Misc,abc,10,,,,,
,NoName,Misc,Misc,1,1,,,,,
"Coca Cola, 1L",Coca-Cola,Beverages,Soft Drinks,45,40,4.1,coke.jpg,100,,
`

func TestImporter_Import(t *testing.T) {
	db := openTestDB(t)
	importer := NewImporter(db, zerolog.Nop())
	ctx := context.Background()

	result, err := importer.Import(ctx, strings.NewReader(sampleCSV), ImportOptions{BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 3, Skipped: 2}, result)

	repo := NewCatalogRepository(db)
	rows, err := repo.Find(ctx, domain.CatalogQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	butter := rows[0]
	assert.Equal(t, "Amul Butter", butter.Name)
	assert.Equal(t, "Amul Butter by Amul", butter.Description)
	assert.Equal(t, 56.0, butter.SalePrice)
	assert.Equal(t, 60.0, butter.MarketPrice)
	require.NotNil(t, butter.Rating)
	assert.Equal(t, 4.4, *butter.Rating)
	assert.Equal(t, 25, butter.Stock)
	assert.Equal(t, "pcs", butter.UnitType)
	assert.Equal(t, "Standard", butter.WeightStr)

	assert.Nil(t, rows[1].Rating)
	assert.Equal(t, 0, rows[1].Stock)
	assert.Equal(t, "Coca Cola, 1L", rows[2].Name)
}

func TestImporter_Truncate(t *testing.T) {
	db := openTestDB(t)
	seedProducts(t, db, defaultSeed()...)
	importer := NewImporter(db, zerolog.Nop())
	ctx := context.Background()

	result, err := importer.Import(ctx, strings.NewReader(sampleCSV), ImportOptions{Truncate: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)

	rows, err := NewCatalogRepository(db).Find(ctx, domain.CatalogQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(1), rows[0].ID)
}

func TestImporter_MissingColumns(t *testing.T) {
	db := openTestDB(t)
	importer := NewImporter(db, zerolog.Nop())

	_, err := importer.Import(context.Background(), strings.NewReader("name,price\nx,1\n"), ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "product_name"`)
}

func TestImporter_EmptyInput(t *testing.T) {
	db := openTestDB(t)
	importer := NewImporter(db, zerolog.Nop())

	_, err := importer.Import(context.Background(), strings.NewReader(""), ImportOptions{})
	assert.Error(t, err)
}
