package shared

import "errors"

var (
	// Configuration errors
	ErrMissingConfig = errors.New("configuration not found")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = errors.New("authentication failed")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("authorization session expired")

	// Catalog errors
	ErrCatalogRequest = errors.New("catalog request failed")

	// Input validation errors
	ErrInvalidArgument = errors.New("invalid argument")
)
