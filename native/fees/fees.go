package fees

import (
	"errors"
	"math/big"

	"brickmarket/crypto"
)

// BpsDenominator is the basis-point scale shared by every fee and reward
// rate in the protocol.
const BpsDenominator = 10_000

// Payer selects which side of a settlement carries the marketplace fee.
type Payer uint8

const (
	PayerBuyer Payer = iota
	PayerSeller
)

// Valid reports whether the payer value is within the supported range.
func (p Payer) Valid() bool {
	switch p {
	case PayerBuyer, PayerSeller:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidFee    = errors.New("fees: fee bps out of range")
	ErrInvalidPayer  = errors.New("fees: invalid fee payer")
	ErrNegativePrice = errors.New("fees: negative price")
)

// Input captures everything needed to evaluate the fee obligation for one
// settlement.
type Input struct {
	Price        *big.Int
	Units        uint64
	FeeBps       uint16
	ReductionBps uint16
	PaymentMint  crypto.Address
	DiscountMint crypto.Address
	Payer        Payer
}

// Result summarises the computed split. Gross is price times units;
// SellerAmount and BuyerCharge already account for who carries the fee.
type Result struct {
	Gross           *big.Int
	Fee             *big.Int
	SellerAmount    *big.Int
	BuyerCharge     *big.Int
	DiscountApplied bool
}

// Apply computes the marketplace fee and the resulting payment split.
// The discount applies only when the payment mint matches the configured
// discount mint. A reduction larger than the fee rate saturates the
// effective rate at zero rather than erroring: the marketplace engine
// rejects such configs at init and edit time, but records written before
// that check must still settle.
func Apply(in Input) (Result, error) {
	if in.FeeBps > BpsDenominator {
		return Result{}, ErrInvalidFee
	}
	if !in.Payer.Valid() {
		return Result{}, ErrInvalidPayer
	}
	price := big.NewInt(0)
	if in.Price != nil {
		price = new(big.Int).Set(in.Price)
	}
	if price.Sign() < 0 {
		return Result{}, ErrNegativePrice
	}

	gross := new(big.Int).Mul(price, new(big.Int).SetUint64(in.Units))
	effective := in.FeeBps
	discounted := false
	if !in.DiscountMint.IsZero() && in.PaymentMint == in.DiscountMint {
		discounted = true
		if in.ReductionBps >= effective {
			effective = 0
		} else {
			effective -= in.ReductionBps
		}
	}

	fee := new(big.Int).Mul(gross, new(big.Int).SetUint64(uint64(effective)))
	fee.Div(fee, big.NewInt(BpsDenominator))

	result := Result{
		Gross:           gross,
		Fee:             fee,
		DiscountApplied: discounted,
	}
	switch in.Payer {
	case PayerSeller:
		result.SellerAmount = new(big.Int).Sub(gross, fee)
		result.BuyerCharge = new(big.Int).Set(gross)
	default: // PayerBuyer
		result.SellerAmount = new(big.Int).Set(gross)
		result.BuyerCharge = new(big.Int).Add(gross, fee)
	}
	return result, nil
}

// Bonus computes a promotional reward of rateBps over the gross settlement
// volume, floored to the unit.
func Bonus(gross *big.Int, rateBps uint16) *big.Int {
	if gross == nil || gross.Sign() <= 0 || rateBps == 0 {
		return big.NewInt(0)
	}
	bonus := new(big.Int).Mul(gross, new(big.Int).SetUint64(uint64(rateBps)))
	return bonus.Div(bonus, big.NewInt(BpsDenominator))
}
