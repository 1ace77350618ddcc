package escrow

import "errors"

var (
	ErrNilState           = errors.New("escrow: state not configured")
	ErrProductNotFound    = errors.New("escrow: product not found")
	ErrNotFound           = errors.New("escrow: escrow not found")
	ErrAlreadyInitialized = errors.New("escrow: escrow already exists")
	ErrUnauthorized       = errors.New("escrow: unauthorized")
	ErrAddressMismatch    = errors.New("escrow: derived address mismatch")
	ErrTimeExpired        = errors.New("escrow: hold window expired")
	ErrNotExpired         = errors.New("escrow: hold window still open")
	ErrInvalidUnits       = errors.New("escrow: units must be positive")
	ErrInvalidTTL         = errors.New("escrow: ttl must be positive")
)
