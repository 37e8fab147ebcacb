package sqlstore

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const defaultImportBatchSize = 1000

// Columns the product CSV must carry
var requiredImportColumns = []string{"product_name", "brand", "category", "sub_category", "sale_price"}

// ImportOptions controls a catalog import
type ImportOptions struct {
	// Truncate empties the catalog before loading
	Truncate  bool
	BatchSize int
}

// ImportResult summarizes an import
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Importer bulk-loads products from CSV
type Importer struct {
	db     *DB
	logger zerolog.Logger
}

// NewImporter creates an importer
func NewImporter(db *DB, logger zerolog.Logger) *Importer {
	return &Importer{db: db, logger: logger.With().Str("component", "importer").Logger()}
}

type importRow struct {
	name, brand, category, subCategory string
	marketPrice, salePrice             float64
	rating                             *float64
	imageURL                           string
	stock                              int
	packedDate, expiryDate             string
}

// Import reads a header-led CSV and inserts its rows in batches, each batch in its own
// transaction. Rows that fail to parse are logged and skipped.
func (im *Importer) Import(ctx context.Context, r io.Reader, opts ImportOptions) (ImportResult, error) {
	var result ImportResult

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultImportBatchSize
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range requiredImportColumns {
		if _, ok := columns[required]; !ok {
			return result, fmt.Errorf("csv is missing column %q", required)
		}
	}

	if opts.Truncate {
		if err := im.truncate(ctx); err != nil {
			return result, err
		}
	}

	batch := make([]importRow, 0, batchSize)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return result, fmt.Errorf("read csv: %w", err)
			}
			im.logger.Warn().Err(err).Int("line", line).Msg("skipping unreadable csv row")
			result.Skipped++
			continue
		}

		row, err := parseImportRow(record, columns)
		if err != nil {
			im.logger.Warn().Err(err).Int("line", line).Msg("skipping invalid product row")
			result.Skipped++
			continue
		}
		batch = append(batch, row)

		if len(batch) >= batchSize {
			if err := im.insertBatch(ctx, batch); err != nil {
				return result, err
			}
			result.Imported += len(batch)
			batch = batch[:0]
			im.logger.Info().Int("imported", result.Imported).Msg("import progress")
		}
	}

	if len(batch) > 0 {
		if err := im.insertBatch(ctx, batch); err != nil {
			return result, err
		}
		result.Imported += len(batch)
	}

	im.logger.Info().Int("imported", result.Imported).Int("skipped", result.Skipped).Msg("import finished")
	return result, nil
}

func (im *Importer) truncate(ctx context.Context) error {
	var stmts []string
	switch im.db.dialect {
	case DialectPostgres:
		stmts = []string{"TRUNCATE TABLE products RESTART IDENTITY"}
	default:
		stmts = []string{"DELETE FROM products", "DELETE FROM sqlite_sequence WHERE name = 'products'"}
	}
	for _, stmt := range stmts {
		if _, err := im.db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("truncate products: %w", err)
		}
	}
	return nil
}

func (im *Importer) insertBatch(ctx context.Context, batch []importRow) error {
	return im.db.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, im.db.rebind(`INSERT INTO products
			(name, type, category, sub_category, brand, sale_price, market_price, image_url,
			 description, rating, unit_type, weight_str, stock, packed_date, expiry_date)
			VALUES (?, 'General', ?, ?, ?, ?, ?, ?, ?, ?, 'pcs', 'Standard', ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("prepare product insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range batch {
			var rating any
			if row.rating != nil {
				rating = *row.rating
			}
			if _, err := stmt.ExecContext(ctx,
				row.name, row.category, row.subCategory, row.brand,
				row.salePrice, row.marketPrice, row.imageURL,
				fmt.Sprintf("%s by %s", row.name, row.brand),
				rating, row.stock, row.packedDate, row.expiryDate,
			); err != nil {
				return fmt.Errorf("insert product %q: %w", row.name, err)
			}
		}
		return nil
	})
}

func parseImportRow(record []string, columns map[string]int) (importRow, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	row := importRow{
		name:        field("product_name"),
		brand:       field("brand"),
		category:    field("category"),
		subCategory: field("sub_category"),
		imageURL:    field("image_url"),
		packedDate:  field("packed_date"),
		expiryDate:  field("expiry_date"),
	}
	if row.name == "" {
		return row, errors.New("product_name is empty")
	}

	var err error
	if row.salePrice, err = parseFloatField(field("sale_price")); err != nil {
		return row, fmt.Errorf("sale_price: %w", err)
	}
	if row.marketPrice, err = parseFloatField(field("market_price")); err != nil {
		return row, fmt.Errorf("market_price: %w", err)
	}
	if raw := field("ratings"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return row, fmt.Errorf("ratings: %w", err)
		}
		row.rating = &rating
	}
	if raw := field("stock"); raw != "" {
		stock, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return row, fmt.Errorf("stock: %w", err)
		}
		row.stock = int(stock)
	}
	return row, nil
}

func parseFloatField(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
