package access

import (
	"errors"
	"math/big"

	"brickmarket/core/events"
	"brickmarket/core/types"
	"brickmarket/crypto"
	"brickmarket/native/market"
)

const (
	TypeAccessRequested = "access.requested"
	TypeAccessGranted   = "access.granted"
)

var (
	ErrNilState            = errors.New("access: state not configured")
	ErrMarketplaceNotFound = errors.New("access: marketplace not found")
	ErrAlreadyRequested    = errors.New("access: request already pending")
	ErrRequestNotFound     = errors.New("access: request not found")
	ErrAddressMismatch     = errors.New("access: derived address mismatch")
	ErrUnauthorized        = errors.New("access: unauthorized")
)

// Request is a wallet's pending petition to list on a gated marketplace.
// At most one live request exists per (wallet, marketplace); accepting it
// consumes the record.
type Request struct {
	Address     crypto.Address `json:"address"`
	Authority   crypto.Address `json:"authority"`
	Marketplace crypto.Address `json:"marketplace"`
}

// EngineState is the access gate's view of the account model.
type EngineState interface {
	MarketplaceGet(addr crypto.Address) (*market.Marketplace, bool, error)
	AccessRequestGet(addr crypto.Address) (*Request, bool, error)
	AccessRequestPut(*Request) error
	AccessRequestDelete(addr crypto.Address) error
}

// Minter issues credential units; the token ledger implements it. The
// credential mint's authority is the marketplace account itself, so only
// grant flows running under the marketplace can mint.
type Minter interface {
	MintTo(mint, caller, to crypto.Address, amount *big.Int) error
	Balance(mint, holder crypto.Address) (*big.Int, error)
}

// Engine runs the permission flow for token-gated marketplaces.
type Engine struct {
	state   EngineState
	minter  Minter
	emitter events.Emitter
}

// NewEngine creates an access engine with a no-op emitter.
func NewEngine(state EngineState, minter Minter) *Engine {
	return &Engine{state: state, minter: minter, emitter: events.NoopEmitter{}}
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

// RequestAccess records a wallet's petition for the listing credential.
func (e *Engine) RequestAccess(wallet, marketplace crypto.Address) (*Request, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if _, ok, err := e.state.MarketplaceGet(marketplace); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrMarketplaceNotFound
	}
	addr := crypto.AccessRequestAddress(wallet, marketplace)
	if _, ok, err := e.state.AccessRequestGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyRequested
	}
	request := &Request{Address: addr, Authority: wallet, Marketplace: marketplace}
	if err := e.state.AccessRequestPut(request); err != nil {
		return nil, err
	}
	e.emit(&types.Event{
		Type: TypeAccessRequested,
		Attributes: map[string]string{
			"marketplace": marketplace.Hex(),
			"wallet":      wallet.Hex(),
		},
	})
	return request, nil
}

// AcceptAccess consumes the wallet's pending request and mints one unit of
// the non-transferable credential to it. Only the marketplace authority
// resolves requests; the derivation check enforces that.
func (e *Engine) AcceptAccess(caller, marketplace, wallet crypto.Address) error {
	return e.grant(caller, marketplace, wallet, true)
}

// AirdropAccess mints the credential without a pending request. Same
// authority rules as AcceptAccess.
func (e *Engine) AirdropAccess(caller, marketplace, wallet crypto.Address) error {
	return e.grant(caller, marketplace, wallet, false)
}

func (e *Engine) grant(caller, marketplace, wallet crypto.Address, consumeRequest bool) error {
	if e == nil || e.state == nil || e.minter == nil {
		return ErrNilState
	}
	if crypto.MarketplaceAddress(caller) != marketplace {
		return ErrAddressMismatch
	}
	stored, ok, err := e.state.MarketplaceGet(marketplace)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMarketplaceNotFound
	}
	if stored.Authority != caller {
		return ErrUnauthorized
	}
	requestAddr := crypto.AccessRequestAddress(wallet, marketplace)
	if consumeRequest {
		if _, ok, err := e.state.AccessRequestGet(requestAddr); err != nil {
			return err
		} else if !ok {
			return ErrRequestNotFound
		}
	}
	// The marketplace account is the credential mint's authority.
	if err := e.minter.MintTo(stored.PermissionConfig.AccessMint, marketplace, wallet, big.NewInt(1)); err != nil {
		return err
	}
	if consumeRequest {
		if err := e.state.AccessRequestDelete(requestAddr); err != nil {
			return err
		}
	}
	e.emit(&types.Event{
		Type: TypeAccessGranted,
		Attributes: map[string]string{
			"marketplace": marketplace.Hex(),
			"wallet":      wallet.Hex(),
			"mint":        stored.PermissionConfig.AccessMint.Hex(),
		},
	})
	return nil
}

// HasCredential reports whether the wallet holds the marketplace's listing
// credential. Permissionless marketplaces always pass.
func (e *Engine) HasCredential(marketplace *market.Marketplace, wallet crypto.Address) (bool, error) {
	if marketplace == nil {
		return false, ErrMarketplaceNotFound
	}
	if marketplace.PermissionConfig.Permissionless {
		return true, nil
	}
	if e == nil || e.minter == nil {
		return false, ErrNilState
	}
	balance, err := e.minter.Balance(marketplace.PermissionConfig.AccessMint, wallet)
	if err != nil {
		return false, err
	}
	return balance.Sign() > 0, nil
}
