package settlement

import (
	"math/big"

	"brickmarket/core/events"
	"brickmarket/core/types"
	"brickmarket/crypto"
	"brickmarket/native/catalog"
	"brickmarket/native/fees"
	"brickmarket/native/market"
	"brickmarket/native/rewards"
	"brickmarket/token"
)

const TypeBuyRegistered = "settlement.buy_registered"

// EngineState is the settlement engine's view of the account model.
type EngineState interface {
	MarketplaceGet(addr crypto.Address) (*market.Marketplace, bool, error)
	ProductGet(addr crypto.Address) (*catalog.Product, bool, error)
	PaymentGet(addr crypto.Address) (*catalog.Payment, bool, error)
	PaymentPut(*catalog.Payment) error
}

// Ledger is the slice of the token ledger settlement needs: routing the
// purchase funds, minting delivery assets, and inspecting a mint before
// committing to either.
type Ledger interface {
	Transfer(mint, from, to crypto.Address, amount *big.Int) error
	Balance(mint, holder crypto.Address) (*big.Int, error)
	MintTo(mint, caller, to crypto.Address, amount *big.Int) error
	MintInfo(addr crypto.Address) (*token.Mint, bool, error)
}

// Accruer pays out promotional rewards for a settled purchase. The rewards
// engine implements it.
type Accruer interface {
	Accrue(rewards.AccrueInput) error
}

// CompressedMinter delivers purchase assets through an external
// state-compressed minting service.
type CompressedMinter interface {
	MintCompressed(mint, to crypto.Address, amount *big.Int) error
}

// Receipt summarises one settled purchase.
type Receipt struct {
	Gross        *big.Int
	Fee          *big.Int
	SellerAmount *big.Int
	BuyerCharge  *big.Int
	Units        uint64
	Delivered    bool
}

// Engine settles purchases: it applies the marketplace fee policy, routes
// funds between buyer, seller and fee authority, accrues promotional
// rewards, bumps the purchase counter and delivers the product asset.
type Engine struct {
	state      EngineState
	ledger     Ledger
	rewards    Accruer
	compressed CompressedMinter
	emitter    events.Emitter
}

func NewEngine(state EngineState, ledger Ledger, accruer Accruer) *Engine {
	return &Engine{
		state:   state,
		ledger:  ledger,
		rewards: accruer,
		emitter: events.NoopEmitter{},
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetCompressedMinter wires the external delivery service used when the
// marketplace opts into compressed delivery.
func (e *Engine) SetCompressedMinter(minter CompressedMinter) {
	e.compressed = minter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(events.StateEvent{Evt: evt})
}

// RegisterBuy settles a purchase of units of the product, paid in
// paymentMint. The mint must match the listing's payment mint. Everything
// is validated before the first balance moves, so a failed settlement
// leaves no partial state behind.
func (e *Engine) RegisterBuy(buyer, product, paymentMint crypto.Address, units uint64) (*Receipt, error) {
	if e == nil || e.state == nil || e.ledger == nil {
		return nil, ErrNilState
	}
	if units == 0 {
		return nil, ErrInvalidUnits
	}
	listing, ok, err := e.state.ProductGet(product)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProductNotFound
	}
	if paymentMint != listing.SellerConfig.PaymentMint {
		return nil, ErrMintMismatch
	}
	mkt, ok, err := e.state.MarketplaceGet(listing.Marketplace)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMarketplaceNotFound
	}

	result, err := fees.Apply(fees.Input{
		Price:        listing.SellerConfig.Price,
		Units:        units,
		FeeBps:       mkt.FeesConfig.FeeBps,
		ReductionBps: mkt.FeesConfig.FeeReductionBps,
		PaymentMint:  paymentMint,
		DiscountMint: mkt.FeesConfig.DiscountMint,
		Payer:        mkt.FeesConfig.FeePayer,
	})
	if err != nil {
		return nil, err
	}

	balance, err := e.ledger.Balance(paymentMint, buyer)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(result.BuyerCharge) < 0 {
		return nil, ErrInsufficientFunds
	}
	// Both rails are validated before any balance moves. A payment mint
	// that cannot route or a delivery mint that cannot mint must fail the
	// settlement here, not after the buyer has been debited.
	if paymentMint != token.NativeMint {
		info, ok, err := e.ledger.MintInfo(paymentMint)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, token.ErrMintNotFound
		}
		if !info.Transferable {
			return nil, token.ErrNonTransferable
		}
	}
	if mkt.TokenConfig.DeliverToken {
		if mkt.TokenConfig.UseCompressedDelivery {
			if e.compressed == nil {
				return nil, ErrDeliveryUnavailable
			}
		} else {
			info, ok, err := e.ledger.MintInfo(listing.DeliveryMint)
			if err != nil {
				return nil, err
			}
			if !ok || info.Authority != listing.Address {
				return nil, ErrDeliveryUnavailable
			}
		}
	}

	// The rewards engine validates bounty funding and reward accounts
	// before moving anything, so accrual runs first: if the promotion
	// cannot pay out, the settlement fails before any funds are routed.
	if mkt.RewardsActive(paymentMint) && e.rewards != nil {
		err := e.rewards.Accrue(rewards.AccrueInput{
			Marketplace: mkt,
			Seller:      listing.Authority,
			Buyer:       buyer,
			PaymentMint: paymentMint,
			Gross:       result.Gross,
		})
		if err != nil {
			return nil, err
		}
	}

	if result.SellerAmount.Sign() > 0 {
		if err := e.ledger.Transfer(paymentMint, buyer, listing.Authority, result.SellerAmount); err != nil {
			return nil, err
		}
	}
	if result.Fee.Sign() > 0 {
		if err := e.ledger.Transfer(paymentMint, buyer, mkt.Authority, result.Fee); err != nil {
			return nil, err
		}
	}

	if mkt.TokenConfig.ChainCounter {
		if err := e.bumpCounter(buyer, product, units); err != nil {
			return nil, err
		}
	}

	delivered := false
	if mkt.TokenConfig.DeliverToken {
		amount := new(big.Int).SetUint64(units)
		if mkt.TokenConfig.UseCompressedDelivery {
			err = e.compressed.MintCompressed(listing.DeliveryMint, buyer, amount)
		} else {
			// The product address is the delivery mint's authority.
			err = e.ledger.MintTo(listing.DeliveryMint, listing.Address, buyer, amount)
		}
		if err != nil {
			return nil, err
		}
		delivered = true
	}

	e.emit(&types.Event{
		Type: TypeBuyRegistered,
		Attributes: map[string]string{
			"marketplace": mkt.Address.Hex(),
			"product":     product.Hex(),
			"buyer":       buyer.Hex(),
			"seller":      listing.Authority.Hex(),
			"mint":        paymentMint.Hex(),
			"gross":       result.Gross.String(),
			"fee":         result.Fee.String(),
		},
	})

	return &Receipt{
		Gross:        result.Gross,
		Fee:          result.Fee,
		SellerAmount: result.SellerAmount,
		BuyerCharge:  result.BuyerCharge,
		Units:        units,
		Delivered:    delivered,
	}, nil
}

func (e *Engine) bumpCounter(buyer, product crypto.Address, units uint64) error {
	addr := crypto.PaymentAddress(buyer, product)
	counter, ok, err := e.state.PaymentGet(addr)
	if err != nil {
		return err
	}
	if !ok {
		counter = &catalog.Payment{
			Address: addr,
			Buyer:   buyer,
			Product: product,
		}
	}
	counter.Units += units
	return e.state.PaymentPut(counter)
}
