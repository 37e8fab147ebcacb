package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cosmocart/backend/internal/domain"
)

// OrderStatusCompleted is the status recorded on every placed order
const OrderStatusCompleted = "Completed"

// CommerceRepository persists users, carts and orders
type CommerceRepository struct {
	db  *DB
	now func() time.Time
}

// NewCommerceRepository creates a commerce repository
func NewCommerceRepository(db *DB) *CommerceRepository {
	return &CommerceRepository{db: db, now: time.Now}
}

// UpsertByMobile creates the user on first sight. A non-empty name replaces the stored one.
func (r *CommerceRepository) UpsertByMobile(ctx context.Context, mobileNumber, name string) (*domain.User, error) {
	mobileNumber = strings.TrimSpace(mobileNumber)
	if mobileNumber == "" {
		return nil, domain.ErrInvalidRequest
	}

	stmt := `INSERT INTO users (mobile_number, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (mobile_number) DO UPDATE
			SET name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE users.name END
		RETURNING id, mobile_number, name, created_at`

	var (
		user    domain.User
		created scanTime
	)
	err := r.db.conn.QueryRowContext(ctx, r.db.rebind(stmt),
		mobileNumber, strings.TrimSpace(name), r.db.timeArg(r.now()),
	).Scan(&user.ID, &user.MobileNumber, &user.Name, &created)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	user.CreatedAt = created.Time
	return &user, nil
}

// GetCart returns the user's cart lines in insertion order
func (r *CommerceRepository) GetCart(ctx context.Context, userID string) ([]domain.CartItem, error) {
	stmt := `SELECT id, user_id, product_id, product_name, quantity, price, weight, image_url
		FROM cart_items WHERE user_id = ? ORDER BY id`

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(stmt), userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.Price, &item.Weight, &item.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ReplaceCart atomically swaps the user's cart for items
func (r *CommerceRepository) ReplaceCart(ctx context.Context, userID string, items []domain.LineItem) error {
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.db.rebind("DELETE FROM cart_items WHERE user_id = ?"), userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		insert := r.db.rebind(`INSERT INTO cart_items
			(user_id, product_id, product_name, quantity, price, weight, image_url)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		for _, item := range items {
			if _, err := tx.ExecContext(ctx, insert,
				userID, item.ProductID, item.ProductName, item.Quantity, item.Price, item.Weight, item.ImageURL,
			); err != nil {
				return fmt.Errorf("insert cart item: %w", err)
			}
		}
		return nil
	})
}

// CreateOrder stores the order and its lines in one transaction
func (r *CommerceRepository) CreateOrder(ctx context.Context, order *domain.OrderCreate) (*domain.Order, error) {
	created := r.now().UTC()
	out := &domain.Order{
		UserID:      order.UserID,
		UserName:    order.UserName,
		TotalAmount: order.TotalAmount,
		Status:      OrderStatusCompleted,
		CreatedAt:   created,
		Items:       make([]domain.OrderItem, 0, len(order.Items)),
	}

	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, r.db.rebind(`INSERT INTO orders
			(user_id, user_name, total_amount, status, created_at)
			VALUES (?, ?, ?, ?, ?) RETURNING id`),
			order.UserID, order.UserName, order.TotalAmount, OrderStatusCompleted, r.db.timeArg(created),
		).Scan(&out.ID)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		insert := r.db.rebind(`INSERT INTO order_items
			(order_id, product_id, product_name, quantity, price, weight, image_url)
			VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
		for _, line := range order.Items {
			item := domain.OrderItem{OrderID: out.ID, LineItem: line}
			if err := tx.QueryRowContext(ctx, insert,
				out.ID, line.ProductID, line.ProductName, line.Quantity, line.Price, line.Weight, line.ImageURL,
			).Scan(&item.ID); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			out.Items = append(out.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecentOrders returns the user's latest orders, newest first, with their lines
func (r *CommerceRepository) RecentOrders(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		return []domain.Order{}, nil
	}

	orders, err := r.orderHeaders(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := r.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *CommerceRepository) orderHeaders(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	stmt := `SELECT id, user_id, user_name, total_amount, status, created_at
		FROM orders WHERE user_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(stmt), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			order   domain.Order
			created scanTime
		)
		if err := rows.Scan(&order.ID, &order.UserID, &order.UserName, &order.TotalAmount, &order.Status, &created); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		order.CreatedAt = created.Time
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *CommerceRepository) orderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	stmt := `SELECT id, order_id, product_id, product_name, quantity, price, weight, image_url
		FROM order_items WHERE order_id = ? ORDER BY id`

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(stmt), orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.Price, &item.Weight, &item.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
