package catalog

import (
	"math/big"

	"brickmarket/crypto"
)

// SellerConfig is the seller-controlled part of a listing.
type SellerConfig struct {
	// PaymentMint is the only mint the seller accepts as payment.
	PaymentMint crypto.Address `json:"paymentMint"`
	// Price per unit in terms of the payment mint.
	Price *big.Int `json:"price"`
}

// Product is a seller's listing under a marketplace. Its address derives
// from the marketplace and the 16-byte listing identifier.
type Product struct {
	Address      crypto.Address `json:"address"`
	Authority    crypto.Address `json:"authority"`
	ID           [16]byte       `json:"id"`
	Marketplace  crypto.Address `json:"marketplace"`
	DeliveryMint crypto.Address `json:"deliveryMint"`
	SellerConfig SellerConfig   `json:"sellerConfig"`
}

// Clone returns a deep copy so callers can mutate without aliasing the
// stored instance.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	if p.SellerConfig.Price != nil {
		clone.SellerConfig.Price = new(big.Int).Set(p.SellerConfig.Price)
	} else {
		clone.SellerConfig.Price = big.NewInt(0)
	}
	return &clone
}

// Payment is the per-(buyer, product) purchase counter. Units only ever
// increases; batched settlements in one invocation accumulate.
type Payment struct {
	Address crypto.Address `json:"address"`
	Buyer   crypto.Address `json:"buyer"`
	Product crypto.Address `json:"product"`
	Units   uint64         `json:"units"`
}
