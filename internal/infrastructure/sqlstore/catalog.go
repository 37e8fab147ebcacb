package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cosmocart/backend/internal/domain"
)

const productColumns = `id, name, category, sub_category, brand, sale_price, market_price,
	image_url, description, rating, is_veg, unit_type, weight_str, stock`

// catalogReader implements domain.CatalogStore over any querier
type catalogReader struct {
	db *DB
	q  querier
}

// CatalogRepository reads products from the pool and hands out connection-bound sessions
type CatalogRepository struct {
	catalogReader
}

// NewCatalogRepository creates a catalog repository
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{catalogReader{db: db, q: db.conn}}
}

// OpenSession pins one pooled connection for the lifetime of a request
func (r *CatalogRepository) OpenSession(ctx context.Context) (domain.CatalogSession, error) {
	conn, err := r.db.conn.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &catalogSession{catalogReader: catalogReader{db: r.db, q: conn}, conn: conn}, nil
}

type catalogSession struct {
	catalogReader
	conn *sql.Conn
}

// Close returns the connection to the pool
func (s *catalogSession) Close() error {
	return s.conn.Close()
}

// Find returns products matching query
func (r catalogReader) Find(ctx context.Context, query domain.CatalogQuery) ([]domain.CatalogEntry, error) {
	stmt, args := buildFindQuery(query)

	rows, err := r.q.QueryContext(ctx, r.db.rebind(stmt), args...)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.CatalogEntry, 0)
	for rows.Next() {
		entry, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return entries, nil
}

// GetByID returns one product or domain.ErrProductNotFound
func (r catalogReader) GetByID(ctx context.Context, id int64) (*domain.CatalogEntry, error) {
	row := r.q.QueryRowContext(ctx, r.db.rebind("SELECT "+productColumns+" FROM products WHERE id = ?"), id)
	entry, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DistinctCategories lists every non-empty category in alphabetical order
func (r catalogReader) DistinctCategories(ctx context.Context) ([]string, error) {
	return r.column(ctx, "SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category")
}

// DistinctSubCategories lists the sub-categories of category, each with the image of its
// first product. An empty category lists sub-categories across the whole catalog.
func (r catalogReader) DistinctSubCategories(ctx context.Context, category string) ([]domain.SubCategory, error) {
	where := "sub_category <> ''"
	var args []any
	if category = strings.TrimSpace(category); category != "" {
		where += " AND LOWER(category) = ?"
		args = append(args, strings.ToLower(category))
	}

	stmt := `SELECT p.sub_category, p.image_url
		FROM products p
		JOIN (SELECT sub_category, MIN(id) AS first_id FROM products WHERE ` + where + ` GROUP BY sub_category) f
			ON p.id = f.first_id
		ORDER BY p.sub_category`

	rows, err := r.q.QueryContext(ctx, r.db.rebind(stmt), args...)
	if err != nil {
		return nil, fmt.Errorf("list sub-categories: %w", err)
	}
	defer rows.Close()

	subs := make([]domain.SubCategory, 0)
	for rows.Next() {
		var sub domain.SubCategory
		if err := rows.Scan(&sub.Name, &sub.Image); err != nil {
			return nil, fmt.Errorf("scan sub-category: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// SampleProductNames returns the first limit product names in catalog order
func (r catalogReader) SampleProductNames(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	return r.column(ctx, "SELECT name FROM products ORDER BY id LIMIT ?", limit)
}

func (r catalogReader) column(ctx context.Context, stmt string, args ...any) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, r.db.rebind(stmt), args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan catalog value: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// buildFindQuery renders query with ? placeholders
func buildFindQuery(query domain.CatalogQuery) (string, []any) {
	var (
		where []string
		args  []any
	)

	addText := func(column string, f domain.TextFilter) {
		if f.IsZero() {
			return
		}
		value := strings.ToLower(strings.TrimSpace(f.Value))
		switch f.Mode {
		case domain.MatchExact:
			where = append(where, "LOWER("+column+") = ?")
			args = append(args, value)
		case domain.MatchPrefix:
			where = append(where, "LOWER("+column+`) LIKE ? ESCAPE '\'`)
			args = append(args, escapeLike(value)+"%")
		default:
			where = append(where, "LOWER("+column+`) LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(value)+"%")
		}
	}

	addText("name", query.Name)
	addText("brand", query.Brand)
	addText("category", query.Category)
	addText("sub_category", query.SubCategory)

	var anyName []string
	for _, keyword := range query.AnyName {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		anyName = append(anyName, `LOWER(name) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(keyword)+"%")
	}
	if len(anyName) > 0 {
		where = append(where, "("+strings.Join(anyName, " OR ")+")")
	}

	if query.MinPrice != nil {
		where = append(where, "sale_price >= ?")
		args = append(args, *query.MinPrice)
	}
	if query.MaxPrice != nil {
		where = append(where, "sale_price <= ?")
		args = append(args, *query.MaxPrice)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(productColumns)
	b.WriteString(" FROM products")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	switch query.OrderBy {
	case domain.OrderBySalePriceAsc:
		b.WriteString(" ORDER BY sale_price ASC, id ASC")
	default:
		b.WriteString(" ORDER BY id ASC")
	}

	limit := query.Limit
	if limit <= 0 && query.Offset > 0 {
		limit = math.MaxInt32
	}
	if limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	if query.Offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, query.Offset)
	}

	return b.String(), args
}

// escapeLike escapes LIKE wildcards so user text matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.CatalogEntry, error) {
	var (
		entry  domain.CatalogEntry
		rating sql.NullFloat64
	)
	err := row.Scan(
		&entry.ID,
		&entry.Name,
		&entry.Category,
		&entry.SubCategory,
		&entry.Brand,
		&entry.SalePrice,
		&entry.MarketPrice,
		&entry.ImageURL,
		&entry.Description,
		&rating,
		&entry.IsVeg,
		&entry.UnitType,
		&entry.WeightStr,
		&entry.Stock,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entry, err
		}
		return entry, fmt.Errorf("scan product: %w", err)
	}
	if rating.Valid {
		v := rating.Float64
		entry.Rating = &v
	}
	return entry, nil
}
