package catalog

import (
	"encoding/hex"
	"math/big"

	"brickmarket/core/events"
	"brickmarket/core/types"
	"brickmarket/crypto"
	"brickmarket/native/market"
	"brickmarket/token"
)

const (
	TypeProductCreated = "catalog.product.created"
	TypeProductEdited  = "catalog.product.edited"
)

// EngineState is the catalog's view of the account model.
type EngineState interface {
	MarketplaceGet(addr crypto.Address) (*market.Marketplace, bool, error)
	ProductGet(addr crypto.Address) (*Product, bool, error)
	ProductPut(*Product) error
}

// CredentialSource answers balance queries against the access credential
// mint; the token ledger implements it.
type CredentialSource interface {
	Balance(mint, holder crypto.Address) (*big.Int, error)
}

// MintCreator provisions delivery mints for new listings.
type MintCreator interface {
	CreateMint(addr, authority crypto.Address, transferable bool) (*token.Mint, error)
}

// Engine manages listings. Listing under a gated marketplace requires the
// seller to hold the marketplace's access credential.
type Engine struct {
	state       EngineState
	credentials CredentialSource
	mints       MintCreator
	emitter     events.Emitter
}

// NewEngine creates a catalog engine with a no-op emitter.
func NewEngine(state EngineState, credentials CredentialSource, mints MintCreator) *Engine {
	return &Engine{state: state, credentials: credentials, mints: mints, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(events.StateEvent{Evt: evt})
}

func productEvent(eventType string, p *Product) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"product":     p.Address.Hex(),
			"id":          hex.EncodeToString(p.ID[:]),
			"seller":      p.Authority.Hex(),
			"marketplace": p.Marketplace.Hex(),
			"paymentMint": p.SellerConfig.PaymentMint.Hex(),
			"price":       p.SellerConfig.Price.String(),
		},
	}
}

func (e *Engine) requireCredential(marketplace *market.Marketplace, seller crypto.Address) error {
	if marketplace.PermissionConfig.Permissionless {
		return nil
	}
	if e.credentials == nil {
		return ErrPermissionDenied
	}
	balance, err := e.credentials.Balance(marketplace.PermissionConfig.AccessMint, seller)
	if err != nil {
		return err
	}
	if balance.Sign() == 0 {
		return ErrPermissionDenied
	}
	return nil
}

// InitProduct registers a listing. When the marketplace delivers tokens, a
// delivery mint owned by the product account is provisioned alongside it,
// transferable per the marketplace token config.
func (e *Engine) InitProduct(seller, marketplace crypto.Address, id [16]byte, config SellerConfig) (*Product, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if config.Price == nil || config.Price.Sign() < 0 {
		return nil, ErrInvalidPrice
	}
	stored, ok, err := e.state.MarketplaceGet(marketplace)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMarketplaceNotFound
	}
	if err := e.requireCredential(stored, seller); err != nil {
		return nil, err
	}
	addr := crypto.ProductAddress(marketplace, id)
	if _, ok, err := e.state.ProductGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	product := &Product{
		Address:     addr,
		Authority:   seller,
		ID:          id,
		Marketplace: marketplace,
		SellerConfig: SellerConfig{
			PaymentMint: config.PaymentMint,
			Price:       new(big.Int).Set(config.Price),
		},
	}
	if stored.TokenConfig.DeliverToken && !stored.TokenConfig.UseCompressedDelivery {
		deliveryMint := crypto.Derive("delivery_mint", addr[:])
		if e.mints != nil {
			if _, err := e.mints.CreateMint(deliveryMint, addr, stored.TokenConfig.Transferable); err != nil {
				return nil, err
			}
		}
		product.DeliveryMint = deliveryMint
	}
	if err := e.state.ProductPut(product); err != nil {
		return nil, err
	}
	e.emit(productEvent(TypeProductCreated, product))
	return product.Clone(), nil
}

// EditProduct updates the price and payment mint of a listing. Only the
// listing authority may edit.
func (e *Engine) EditProduct(seller, product crypto.Address, paymentMint crypto.Address, price *big.Int) (*Product, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if price == nil || price.Sign() < 0 {
		return nil, ErrInvalidPrice
	}
	stored, ok, err := e.state.ProductGet(product)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if stored.Authority != seller {
		return nil, ErrUnauthorized
	}
	updated := stored.Clone()
	updated.SellerConfig.PaymentMint = paymentMint
	updated.SellerConfig.Price = new(big.Int).Set(price)
	if err := e.state.ProductPut(updated); err != nil {
		return nil, err
	}
	e.emit(productEvent(TypeProductEdited, updated))
	return updated.Clone(), nil
}

// Product loads a stored listing.
func (e *Engine) Product(addr crypto.Address) (*Product, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	return e.state.ProductGet(addr)
}
