package market

import (
	"brickmarket/core/events"
	"brickmarket/core/types"
	"brickmarket/crypto"
	"brickmarket/token"
)

// EngineState is the view of the account model the marketplace engine
// needs. The state manager implements it.
type EngineState interface {
	MarketplaceGet(addr crypto.Address) (*Marketplace, bool, error)
	MarketplacePut(*Marketplace) error
}

// MintCreator provisions new mints; the token ledger implements it.
type MintCreator interface {
	CreateMint(addr, authority crypto.Address, transferable bool) (*token.Mint, error)
}

// Engine owns marketplace configuration: init, edit, and bounty vault
// provisioning. Every mutation is authority-checked through address
// derivation before any write.
type Engine struct {
	state   EngineState
	mints   MintCreator
	emitter events.Emitter
}

// NewEngine creates a marketplace engine with a no-op emitter.
func NewEngine(state EngineState, mints MintCreator) *Engine {
	return &Engine{state: state, mints: mints, emitter: events.NoopEmitter{}}
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

// InitParams carries the initial configuration groups for a marketplace.
type InitParams struct {
	TokenConfig    TokenConfig
	Permissionless bool
	FeesConfig     FeesConfig
	RewardsConfig  RewardsConfig
}

// InitMarketplace creates the singleton marketplace for the creator wallet
// together with its derived non-transferable access credential mint.
// Re-creation fails because the derived address already exists.
func (e *Engine) InitMarketplace(creator crypto.Address, params InitParams) (*Marketplace, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := params.FeesConfig.Validate(); err != nil {
		return nil, err
	}
	if err := params.RewardsConfig.Validate(); err != nil {
		return nil, err
	}
	addr := crypto.MarketplaceAddress(creator)
	if _, ok, err := e.state.MarketplaceGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	accessMint := crypto.AccessMintAddress(addr)
	if e.mints != nil {
		if _, err := e.mints.CreateMint(accessMint, addr, false); err != nil {
			return nil, err
		}
	}
	marketplace := &Marketplace{
		Address:     addr,
		Authority:   creator,
		TokenConfig: params.TokenConfig,
		PermissionConfig: PermissionConfig{
			AccessMint:     accessMint,
			Permissionless: params.Permissionless,
		},
		FeesConfig: params.FeesConfig,
		RewardsConfig: RewardsConfig{
			RewardMint:      params.RewardsConfig.RewardMint,
			SellerRewardBps: params.RewardsConfig.SellerRewardBps,
			BuyerRewardBps:  params.RewardsConfig.BuyerRewardBps,
			RewardsEnabled:  params.RewardsConfig.RewardsEnabled,
		},
	}
	if err := e.state.MarketplacePut(marketplace); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(marketplace))
	return marketplace.Clone(), nil
}

// EditParams replaces any subset of the four config groups. Nil fields are
// left untouched. The access mint and the bounty vault list survive every
// edit.
type EditParams struct {
	TokenConfig    *TokenConfig
	Permissionless *bool
	FeesConfig     *FeesConfig
	RewardsConfig  *RewardsConfig
}

// EditMarketplace applies a config replacement. The supplied marketplace
// address must match the derivation from the caller, so only the owning
// authority can ever address its own record.
func (e *Engine) EditMarketplace(caller, marketplace crypto.Address, params EditParams) (*Marketplace, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if crypto.MarketplaceAddress(caller) != marketplace {
		return nil, ErrAddressMismatch
	}
	stored, ok, err := e.state.MarketplaceGet(marketplace)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if stored.Authority != caller {
		return nil, ErrUnauthorized
	}
	updated := stored.Clone()
	if params.TokenConfig != nil {
		updated.TokenConfig = *params.TokenConfig
	}
	if params.Permissionless != nil {
		updated.PermissionConfig.Permissionless = *params.Permissionless
	}
	if params.FeesConfig != nil {
		if err := params.FeesConfig.Validate(); err != nil {
			return nil, err
		}
		updated.FeesConfig = *params.FeesConfig
	}
	if params.RewardsConfig != nil {
		if err := params.RewardsConfig.Validate(); err != nil {
			return nil, err
		}
		vaults := updated.RewardsConfig.BountyVaults
		updated.RewardsConfig = *params.RewardsConfig
		updated.RewardsConfig.BountyVaults = vaults
	}
	if err := e.state.MarketplacePut(updated); err != nil {
		return nil, err
	}
	e.emit(NewEditedEvent(updated))
	return updated.Clone(), nil
}

// InitBounty registers the bounty vault for a reward mint under the
// marketplace. The vault is a derived custody address funded externally by
// the authority; settlement is the only debitor.
func (e *Engine) InitBounty(caller, marketplace, mint crypto.Address) (crypto.Address, error) {
	if e == nil || e.state == nil {
		return crypto.Address{}, ErrNilState
	}
	if crypto.MarketplaceAddress(caller) != marketplace {
		return crypto.Address{}, ErrAddressMismatch
	}
	stored, ok, err := e.state.MarketplaceGet(marketplace)
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok {
		return crypto.Address{}, ErrNotFound
	}
	if stored.Authority != caller {
		return crypto.Address{}, ErrUnauthorized
	}
	vault := crypto.BountyVaultAddress(marketplace, mint)
	if stored.HasBountyVault(vault) {
		return crypto.Address{}, ErrVaultExists
	}
	if len(stored.RewardsConfig.BountyVaults) >= MaxBountyVaults {
		return crypto.Address{}, ErrVaultsFull
	}
	updated := stored.Clone()
	updated.RewardsConfig.BountyVaults = append(updated.RewardsConfig.BountyVaults, vault)
	if err := e.state.MarketplacePut(updated); err != nil {
		return crypto.Address{}, err
	}
	e.emit(NewBountyEvent(updated, mint, vault))
	return vault, nil
}

// Marketplace loads a stored marketplace record.
func (e *Engine) Marketplace(addr crypto.Address) (*Marketplace, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	return e.state.MarketplaceGet(addr)
}
