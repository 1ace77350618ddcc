package token

import (
	"math/big"

	"brickmarket/crypto"
)

// NativeMint is the sentinel mint address selecting the native-currency
// payment rail. Transfers against it move wallet balances instead of token
// custody balances.
var NativeMint = crypto.Derive("native_mint")

// Mint describes a fungible token administered by the protocol. The
// authority is the only address allowed to mint supply. Non-transferable
// mints (access credentials) reject every holder-to-holder transfer.
type Mint struct {
	Address      crypto.Address `json:"address"`
	Authority    crypto.Address `json:"authority"`
	Transferable bool           `json:"transferable"`
	Supply       *big.Int       `json:"supply"`
}

// Clone returns a deep copy so callers can mutate without aliasing the
// stored instance.
func (m *Mint) Clone() *Mint {
	if m == nil {
		return nil
	}
	clone := *m
	if m.Supply != nil {
		clone.Supply = new(big.Int).Set(m.Supply)
	} else {
		clone.Supply = big.NewInt(0)
	}
	return &clone
}
