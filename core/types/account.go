package types

import "math/big"

// Account is the native-currency balance record for a wallet or custody
// address. Token balances live in the token ledger, keyed per mint.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// NewAccount returns an account with a zeroed balance.
func NewAccount() *Account {
	return &Account{Balance: big.NewInt(0)}
}

// Ensure normalises a possibly-nil account so callers can mutate it safely.
func (a *Account) Ensure() *Account {
	if a == nil {
		return NewAccount()
	}
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
	return a
}
