package token

import "errors"

var (
	ErrNilState           = errors.New("token: state not configured")
	ErrMintExists         = errors.New("token: mint already initialized")
	ErrMintNotFound       = errors.New("token: mint not found")
	ErrUnauthorizedMinter = errors.New("token: unauthorized minter")
	ErrNonTransferable    = errors.New("token: mint is non-transferable")
	ErrInsufficientFunds  = errors.New("token: insufficient funds")
	ErrNegativeAmount     = errors.New("token: negative amount")
)
