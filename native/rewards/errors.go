package rewards

import "errors"

var (
	ErrNilState            = errors.New("rewards: state not configured")
	ErrMarketplaceNotFound = errors.New("rewards: marketplace not found")
	ErrNotFound            = errors.New("rewards: reward account not found")
	ErrAlreadyInitialized  = errors.New("rewards: reward account already initialized")
	ErrUnauthorized        = errors.New("rewards: unauthorized")
	ErrAddressMismatch     = errors.New("rewards: derived address mismatch")
	ErrOpenPromotion       = errors.New("rewards: promotion still open")
	ErrVaultExists         = errors.New("rewards: reward vault already initialized")
	ErrVaultNotFound       = errors.New("rewards: reward vault not found")
	ErrBountyNotFound      = errors.New("rewards: bounty vault not provisioned")
	ErrInsufficientBounty  = errors.New("rewards: bounty vault underfunded")
)
