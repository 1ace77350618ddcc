package escrow

import (
	"math/big"
	"time"

	"brickmarket/core/events"
	"brickmarket/core/types"
	"brickmarket/crypto"
	"brickmarket/native/catalog"
)

const (
	TypeEscrowPaid      = "escrow.paid"
	TypeEscrowAccepted  = "escrow.accepted"
	TypeEscrowDenied    = "escrow.denied"
	TypeEscrowRecovered = "escrow.recovered"
	TypeDirectPaid      = "escrow.direct_paid"
)

// EngineState is the escrow protocol's view of the account model.
type EngineState interface {
	ProductGet(addr crypto.Address) (*catalog.Product, bool, error)
	EscrowGet(addr crypto.Address) (*Escrow, bool, error)
	EscrowPut(*Escrow) error
	EscrowDelete(addr crypto.Address) error
}

// Mover moves value on either payment rail; the token ledger implements
// it. Transfer is for holder-initiated moves, Move for the engine draining
// its own custody vault.
type Mover interface {
	Transfer(mint, from, to crypto.Address, amount *big.Int) error
	Move(mint, from, to crypto.Address, amount *big.Int) error
}

// Engine runs the hold/release/timeout-recovery state machine. Before
// expiry only the seller may resolve the escrow; strictly after expiry
// only the buyer may recover. All three transitions are terminal and close
// the record.
type Engine struct {
	state   EngineState
	ledger  Mover
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates an escrow engine with a no-op emitter and the system
// clock.
func NewEngine(state EngineState, ledger Mover) *Engine {
	return &Engine{
		state:   state,
		ledger:  ledger,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source used by the engine. Primarily
// intended for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
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

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func escrowEvent(eventType string, esc *Escrow) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"escrow":   esc.Address.Hex(),
			"product":  esc.Product.Hex(),
			"payer":    esc.Payer.Hex(),
			"receiver": esc.Receiver.Hex(),
			"mint":     esc.Mint.Hex(),
			"amount":   esc.Amount.String(),
		},
	}
}

// Pay opens an escrow: the buyer's funds move into the derived custody
// vault and the hold window starts ticking.
func (e *Engine) Pay(buyer, product crypto.Address, units uint64, ttl int64) (*Escrow, error) {
	if e == nil || e.state == nil || e.ledger == nil {
		return nil, ErrNilState
	}
	if units == 0 {
		return nil, ErrInvalidUnits
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	listing, ok, err := e.state.ProductGet(product)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProductNotFound
	}
	addr := crypto.EscrowAddress(product, buyer)
	if _, ok, err := e.state.EscrowGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	amount := new(big.Int).Mul(listing.SellerConfig.Price, new(big.Int).SetUint64(units))
	vault := crypto.EscrowVaultAddress(product, buyer)
	if err := e.ledger.Transfer(listing.SellerConfig.PaymentMint, buyer, vault, amount); err != nil {
		return nil, err
	}
	esc := &Escrow{
		Address:  addr,
		Payer:    buyer,
		Receiver: listing.Authority,
		Product:  product,
		Vault:    vault,
		Mint:     listing.SellerConfig.PaymentMint,
		Units:    units,
		Amount:   amount,
		ExpireAt: e.now() + ttl,
	}
	if err := e.state.EscrowPut(esc); err != nil {
		return nil, err
	}
	e.emit(escrowEvent(TypeEscrowPaid, esc))
	return esc.Clone(), nil
}

// Accept releases the held funds to the seller. Seller only, and only
// while the hold window is open.
func (e *Engine) Accept(caller, escrow crypto.Address) error {
	return e.resolve(caller, escrow, true)
}

// Deny returns the held funds to the buyer. Same caller and window rules
// as Accept.
func (e *Engine) Deny(caller, escrow crypto.Address) error {
	return e.resolve(caller, escrow, false)
}

func (e *Engine) resolve(caller, escrow crypto.Address, release bool) error {
	if e == nil || e.state == nil || e.ledger == nil {
		return ErrNilState
	}
	esc, ok, err := e.state.EscrowGet(escrow)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if caller != esc.Receiver {
		return ErrUnauthorized
	}
	if e.now() > esc.ExpireAt {
		return ErrTimeExpired
	}
	recipient := esc.Payer
	eventType := TypeEscrowDenied
	if release {
		recipient = esc.Receiver
		eventType = TypeEscrowAccepted
	}
	return e.close(esc, recipient, eventType)
}

// RecoverFunds refunds the buyer once the hold window has elapsed. Only
// the buyer's own derivation resolves to the escrow, so a seller cannot
// trigger a recovery.
func (e *Engine) RecoverFunds(caller, escrow crypto.Address) error {
	if e == nil || e.state == nil || e.ledger == nil {
		return ErrNilState
	}
	esc, ok, err := e.state.EscrowGet(escrow)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if crypto.EscrowAddress(esc.Product, caller) != esc.Address {
		return ErrAddressMismatch
	}
	if e.now() <= esc.ExpireAt {
		return ErrNotExpired
	}
	return e.close(esc, esc.Payer, TypeEscrowRecovered)
}

func (e *Engine) close(esc *Escrow, recipient crypto.Address, eventType string) error {
	if err := e.ledger.Move(esc.Mint, esc.Vault, recipient, esc.Amount); err != nil {
		return err
	}
	if err := e.state.EscrowDelete(esc.Address); err != nil {
		return err
	}
	e.emit(escrowEvent(eventType, esc))
	return nil
}

// DirectPay bypasses the hold entirely: an immediate buyer-to-seller
// transfer for configurations that do not require deferred acceptance.
func (e *Engine) DirectPay(buyer, product crypto.Address, units uint64) (*big.Int, error) {
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
	amount := new(big.Int).Mul(listing.SellerConfig.Price, new(big.Int).SetUint64(units))
	if err := e.ledger.Transfer(listing.SellerConfig.PaymentMint, buyer, listing.Authority, amount); err != nil {
		return nil, err
	}
	e.emit(&types.Event{
		Type: TypeDirectPaid,
		Attributes: map[string]string{
			"product":  product.Hex(),
			"payer":    buyer.Hex(),
			"receiver": listing.Authority.Hex(),
			"mint":     listing.SellerConfig.PaymentMint.Hex(),
			"amount":   amount.String(),
		},
	})
	return amount, nil
}
