package domain

import "time"

// User is a customer identified by mobile number
type User struct {
	ID           int64     `json:"id"`
	MobileNumber string    `json:"mobile_number"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// LineItem is a product line shared by carts and orders
type LineItem struct {
	ProductID   int64   `json:"product_id" binding:"required"`
	ProductName string  `json:"product_name" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,min=1"`
	Price       float64 `json:"price"`
	Weight      string  `json:"weight,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// CartItem is a persisted cart line
type CartItem struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
	LineItem
}

// OrderItem is a persisted order line
type OrderItem struct {
	ID      int64 `json:"id"`
	OrderID int64 `json:"order_id"`
	LineItem
}

// Order is a completed purchase
type Order struct {
	ID          int64       `json:"id"`
	UserID      string      `json:"user_id"`
	UserName    string      `json:"user_name"`
	TotalAmount float64     `json:"total_amount"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	Items       []OrderItem `json:"items"`
}

// CartSync replaces a user's cart with Items
type CartSync struct {
	UserID string     `json:"user_id" binding:"required"`
	Items  []LineItem `json:"items" binding:"dive"`
}

// OrderCreate is the request to place an order
type OrderCreate struct {
	UserID      string     `json:"user_id" binding:"required"`
	UserName    string     `json:"user_name"`
	TotalAmount float64    `json:"total_amount"`
	Items       []LineItem `json:"items" binding:"required,min=1,dive"`
}

// Session is returned after a successful OTP verification
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
