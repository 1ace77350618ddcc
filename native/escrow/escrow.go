package escrow

import (
	"math/big"

	"brickmarket/crypto"
)

// Escrow holds the state of one deferred-acceptance sale. One escrow
// exists per (product, buyer) pair; its address and vault derive from that
// pair. The record is deleted on every terminal transition, so replaying a
// terminal operation fails on lookup.
type Escrow struct {
	Address  crypto.Address `json:"address"`
	Payer    crypto.Address `json:"payer"`
	Receiver crypto.Address `json:"receiver"`
	Product  crypto.Address `json:"product"`
	Vault    crypto.Address `json:"vault"`
	Mint     crypto.Address `json:"mint"`
	Units    uint64         `json:"units"`
	Amount   *big.Int       `json:"amount"`
	ExpireAt int64          `json:"expireAt"`
}

// Clone returns a deep copy of the escrow so callers can safely mutate the
// copy without affecting the stored instance.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Amount != nil {
		clone.Amount = new(big.Int).Set(e.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}
