package market

import "errors"

var (
	ErrNilState            = errors.New("market: state not configured")
	ErrNotFound            = errors.New("market: marketplace not found")
	ErrAlreadyInitialized  = errors.New("market: marketplace already initialized")
	ErrUnauthorized        = errors.New("market: unauthorized")
	ErrAddressMismatch     = errors.New("market: derived address mismatch")
	ErrInvalidFee          = errors.New("market: fee bps out of range")
	ErrInvalidFeeReduction = errors.New("market: fee reduction exceeds fee")
	ErrInvalidFeePayer     = errors.New("market: invalid fee payer")
	ErrInvalidReward       = errors.New("market: reward bps out of range")
	ErrVaultsFull          = errors.New("market: bounty vault list full")
	ErrVaultExists         = errors.New("market: bounty vault already initialized")
)
