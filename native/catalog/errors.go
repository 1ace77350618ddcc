package catalog

import "errors"

var (
	ErrNilState            = errors.New("catalog: state not configured")
	ErrMarketplaceNotFound = errors.New("catalog: marketplace not found")
	ErrNotFound            = errors.New("catalog: product not found")
	ErrAlreadyInitialized  = errors.New("catalog: product already initialized")
	ErrUnauthorized        = errors.New("catalog: unauthorized")
	ErrPermissionDenied    = errors.New("catalog: access credential required")
	ErrInvalidPrice        = errors.New("catalog: invalid price")
)
