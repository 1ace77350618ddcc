package settlement

import "errors"

var (
	ErrNilState            = errors.New("settlement: state not configured")
	ErrMarketplaceNotFound = errors.New("settlement: marketplace not found")
	ErrProductNotFound     = errors.New("settlement: product not found")
	ErrMintMismatch        = errors.New("settlement: payment mint does not match listing")
	ErrInvalidUnits        = errors.New("settlement: units must be positive")
	ErrInsufficientFunds   = errors.New("settlement: insufficient funds for purchase")
	ErrDeliveryUnavailable = errors.New("settlement: compressed delivery not configured")
)
