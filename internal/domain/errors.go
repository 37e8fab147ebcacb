package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product cannot be found in the catalog
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrNotFound is returned when a persisted record (cart, order, user) does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrClassificationFailed is returned when the classifier output cannot be parsed into an intent
	ErrClassificationFailed = errors.New("could not classify message")

	// ErrUpstreamUnavailable is returned when the classifier cannot be reached or times out
	ErrUpstreamUnavailable = errors.New("classifier temporarily unavailable")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrInvalidOTP is returned when an OTP is unknown, expired or already used
	ErrInvalidOTP = errors.New("incorrect OTP")
)
