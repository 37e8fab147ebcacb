package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cosmocart/backend/internal/domain"
)

const (
	otpCacheKeyPrefix = "otp:"
	defaultOTPTTL     = 5 * time.Minute
	recentOrderLimit  = 5
)

// CommerceServiceConfig holds configuration for the commerce service
type CommerceServiceConfig struct {
	OTPTTL time.Duration
	Logger zerolog.Logger
}

// CommerceService handles login, carts and orders
type CommerceService struct {
	users   domain.UserRepository
	carts   domain.CartRepository
	orders  domain.OrderRepository
	otps    domain.CacheRepository
	otpTTL  time.Duration
	newCode func() string
	logger  zerolog.Logger
}

// NewCommerceService creates a new commerce service. OTP codes live in otps.
func NewCommerceService(
	users domain.UserRepository,
	carts domain.CartRepository,
	orders domain.OrderRepository,
	otps domain.CacheRepository,
	config CommerceServiceConfig,
) *CommerceService {
	ttl := config.OTPTTL
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}
	return &CommerceService{
		users:   users,
		carts:   carts,
		orders:  orders,
		otps:    otps,
		otpTTL:  ttl,
		newCode: randomOTP,
		logger:  config.Logger.With().Str("component", "commerce").Logger(),
	}
}

// SendOTP issues a fresh 4-digit code for mobile, replacing any outstanding one.
// There is no SMS gateway; the code is written to the log.
func (s *CommerceService) SendOTP(ctx context.Context, mobile string) error {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return fmt.Errorf("%w: mobile number is required", domain.ErrInvalidRequest)
	}

	code := s.newCode()
	if err := s.otps.Set(ctx, otpCacheKeyPrefix+mobile, []byte(code), s.otpTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	s.logger.Info().Str("mobile_number", mobile).Str("otp", code).Msg("otp issued")
	return nil
}

// VerifyOTP consumes the code issued for mobile and signs the user in, creating or
// renaming the user as needed
func (s *CommerceService) VerifyOTP(ctx context.Context, mobile, code, name string) (*domain.Session, error) {
	mobile = strings.TrimSpace(mobile)
	code = strings.TrimSpace(code)
	if mobile == "" || code == "" {
		return nil, fmt.Errorf("%w: mobile number and otp are required", domain.ErrInvalidRequest)
	}

	key := otpCacheKeyPrefix + mobile
	stored, err := s.otps.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, fmt.Errorf("load otp: %w", err)
	}
	if string(stored) != code {
		return nil, domain.ErrInvalidOTP
	}
	if err := s.otps.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("mobile_number", mobile).Msg("failed to clear used otp")
	}

	user, err := s.users.UpsertByMobile(ctx, mobile, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user signed in")
	return &domain.Session{Token: uuid.NewString(), User: *user}, nil
}

// GetCart returns the user's cart lines
func (s *CommerceService) GetCart(ctx context.Context, userID string) ([]domain.CartItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}
	return s.carts.GetCart(ctx, userID)
}

// SyncCart replaces the user's cart with the given lines
func (s *CommerceService) SyncCart(ctx context.Context, sync *domain.CartSync) error {
	if sync == nil || strings.TrimSpace(sync.UserID) == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}
	if err := validateLineItems(sync.Items); err != nil {
		return err
	}
	return s.carts.ReplaceCart(ctx, strings.TrimSpace(sync.UserID), sync.Items)
}

// PlaceOrder records a completed order. A zero total is computed from the lines.
func (s *CommerceService) PlaceOrder(ctx context.Context, order *domain.OrderCreate) (*domain.Order, error) {
	if order == nil || strings.TrimSpace(order.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one item", domain.ErrInvalidRequest)
	}
	if err := validateLineItems(order.Items); err != nil {
		return nil, err
	}

	create := *order
	create.UserID = strings.TrimSpace(order.UserID)
	if create.TotalAmount <= 0 {
		for _, item := range create.Items {
			create.TotalAmount += item.Price * float64(item.Quantity)
		}
	}

	placed, err := s.orders.CreateOrder(ctx, &create)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info().
		Int64("order_id", placed.ID).
		Str("user_id", placed.UserID).
		Float64("total", placed.TotalAmount).
		Int("items", len(placed.Items)).
		Msg("order placed")
	return placed, nil
}

// RecentOrders returns the user's five latest orders, newest first
func (s *CommerceService) RecentOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}
	return s.orders.RecentOrders(ctx, userID, recentOrderLimit)
}

func validateLineItems(items []domain.LineItem) error {
	for i, item := range items {
		if item.ProductID <= 0 || strings.TrimSpace(item.ProductName) == "" {
			return fmt.Errorf("%w: item %d needs a product", domain.ErrInvalidRequest, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d quantity must be positive", domain.ErrInvalidRequest, i)
		}
		if item.Price < 0 {
			return fmt.Errorf("%w: item %d price must not be negative", domain.ErrInvalidRequest, i)
		}
	}
	return nil
}

func randomOTP() string {
	return strconv.Itoa(1000 + rand.IntN(9000))
}
