package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cosmocart/backend/internal/domain"
	"github.com/cosmocart/backend/internal/observability"
	"github.com/cosmocart/backend/internal/usecase"
)

const serviceName = "cosmocart-backend"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	chat     *usecase.ChatService
	catalog  *usecase.CatalogService
	commerce *usecase.CommerceService
	logger   zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	chat *usecase.ChatService,
	catalog *usecase.CatalogService,
	commerce *usecase.CommerceService,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		chat:     chat,
		catalog:  catalog,
		commerce: commerce,
		logger:   logger.With().Str("component", "http").Logger(),
	}
}

// ChatRequest is the body of POST /api/v1/chat
type ChatRequest struct {
	Message string `json:"message"`
}

// SendOTPRequest is the body of POST /api/v1/auth/send-otp
type SendOTPRequest struct {
	MobileNumber string `json:"mobile_number" binding:"required"`
}

// VerifyOTPRequest is the body of POST /api/v1/auth/verify-otp
type VerifyOTPRequest struct {
	MobileNumber string `json:"mobile_number" binding:"required"`
	OTP          string `json:"otp" binding:"required"`
	Name         string `json:"name"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": "1.0.0",
	})
}

// Chat answers one free-text shopping message. Well-formed requests always get a 200
// with an envelope, including when the classifier or catalog is down.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	envelope := h.chat.ProcessMessage(c.Request.Context(), req.Message)
	c.JSON(http.StatusOK, envelope)
}

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	skip, err := intQuery(c, "skip")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "skip must be an integer"})
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), usecase.ProductListQuery{
		Skip:        skip,
		Limit:       limit,
		Search:      c.Query("search"),
		Category:    c.Query("category"),
		SubCategory: c.Query("sub_category"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id must be an integer"})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Categories handles GET /api/v1/categories
func (h *Handler) Categories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// SubCategories handles GET /api/v1/subcategories?category=
func (h *Handler) SubCategories(c *gin.Context) {
	subs, err := h.catalog.SubCategories(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

// SendOTP handles POST /api/v1/auth/send-otp
func (h *Handler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mobile_number is required"})
		return
	}

	if err := h.commerce.SendOTP(c.Request.Context(), req.MobileNumber); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent successfully"})
}

// VerifyOTP handles POST /api/v1/auth/verify-otp
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mobile_number and otp are required"})
		return
	}

	session, err := h.commerce.VerifyOTP(c.Request.Context(), req.MobileNumber, req.OTP, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "Success",
		"token":  session.Token,
		"user":   session.User,
	})
}

// GetCart handles GET /api/v1/cart/:user_id
func (h *Handler) GetCart(c *gin.Context) {
	items, err := h.commerce.GetCart(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// SyncCart handles POST /api/v1/cart
func (h *Handler) SyncCart(c *gin.Context) {
	var req domain.CartSync
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.commerce.SyncCart(c.Request.Context(), &req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Success"})
}

// CreateOrder handles POST /api/v1/orders
func (h *Handler) CreateOrder(c *gin.Context) {
	var req domain.OrderCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.commerce.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /api/v1/orders/:user_id
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.commerce.RecentOrders(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// respondError maps domain errors to status codes. Unexpected errors are logged and
// reported without detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect OTP"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
	default:
		logger := observability.FromContext(c.Request.Context(), h.logger)
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// intQuery parses an optional integer query parameter; absent means zero
func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
