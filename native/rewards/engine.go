package rewards

import (
	"math/big"

	"brickmarket/core/events"
	"brickmarket/core/types"
	"brickmarket/crypto"
	"brickmarket/native/fees"
	"brickmarket/native/market"
)

const (
	TypeRewardAccrued   = "rewards.accrued"
	TypeRewardWithdrawn = "rewards.withdrawn"
)

// EngineState is the reward ledger's view of the account model.
type EngineState interface {
	MarketplaceGet(addr crypto.Address) (*market.Marketplace, bool, error)
	RewardGet(addr crypto.Address) (*Reward, bool, error)
	RewardPut(*Reward) error
}

// Mover moves custody value between derived vaults; the token ledger
// implements it.
type Mover interface {
	Move(mint, from, to crypto.Address, amount *big.Int) error
	Balance(mint, holder crypto.Address) (*big.Int, error)
}

// Engine is the reward ledger: bounty-funded accrual during an open
// promotion, and owner withdrawals once the promotion closes.
type Engine struct {
	state   EngineState
	ledger  Mover
	emitter events.Emitter
}

// NewEngine creates a reward engine with a no-op emitter.
func NewEngine(state EngineState, ledger Mover) *Engine {
	return &Engine{state: state, ledger: ledger, emitter: events.NoopEmitter{}}
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

// InitReward provisions the promotion account for a participant.
func (e *Engine) InitReward(owner, marketplace crypto.Address) (*Reward, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if _, ok, err := e.state.MarketplaceGet(marketplace); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrMarketplaceNotFound
	}
	addr := crypto.RewardAddress(owner, marketplace)
	if _, ok, err := e.state.RewardGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	reward := &Reward{Address: addr, Authority: owner, Marketplace: marketplace}
	if err := e.state.RewardPut(reward); err != nil {
		return nil, err
	}
	return reward.Clone(), nil
}

// InitRewardVault registers the per-mint vault under the owner's reward
// account. A marketplace that rotates its reward mint leaves prior vaults
// untouched; accrual in the new mint starts from zero.
func (e *Engine) InitRewardVault(owner, reward, mint crypto.Address) (crypto.Address, error) {
	if e == nil || e.state == nil {
		return crypto.Address{}, ErrNilState
	}
	stored, ok, err := e.state.RewardGet(reward)
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok {
		return crypto.Address{}, ErrNotFound
	}
	if crypto.RewardAddress(owner, stored.Marketplace) != reward {
		return crypto.Address{}, ErrAddressMismatch
	}
	if stored.Authority != owner {
		return crypto.Address{}, ErrUnauthorized
	}
	if _, ok := stored.VaultFor(mint); ok {
		return crypto.Address{}, ErrVaultExists
	}
	vault := crypto.RewardVaultAddress(reward, mint)
	updated := stored.Clone()
	updated.Vaults = append(updated.Vaults, VaultRef{Mint: mint, Vault: vault})
	if err := e.state.RewardPut(updated); err != nil {
		return crypto.Address{}, err
	}
	return vault, nil
}

// AccrueInput carries everything settlement knows about a matched
// promotion: the marketplace record, both parties, and the gross volume.
type AccrueInput struct {
	Marketplace *market.Marketplace
	Seller      crypto.Address
	Buyer       crypto.Address
	PaymentMint crypto.Address
	Gross       *big.Int
}

// Accrue debits the marketplace bounty vault into the seller's and buyer's
// reward vaults at the configured rates. Callers (the settlement engine)
// invoke it only when the promotion is open and the payment mint matches;
// missing bounty or reward accounts fail the whole settlement. Every check
// runs before the first transfer.
func (e *Engine) Accrue(in AccrueInput) error {
	if e == nil || e.state == nil || e.ledger == nil {
		return ErrNilState
	}
	marketplace := in.Marketplace
	if marketplace == nil {
		return ErrMarketplaceNotFound
	}
	sellerBonus := fees.Bonus(in.Gross, marketplace.RewardsConfig.SellerRewardBps)
	buyerBonus := fees.Bonus(in.Gross, marketplace.RewardsConfig.BuyerRewardBps)
	if sellerBonus.Sign() == 0 && buyerBonus.Sign() == 0 {
		return nil
	}
	bounty := crypto.BountyVaultAddress(marketplace.Address, in.PaymentMint)
	if !marketplace.HasBountyVault(bounty) {
		return ErrBountyNotFound
	}
	available, err := e.ledger.Balance(in.PaymentMint, bounty)
	if err != nil {
		return err
	}
	needed := new(big.Int).Add(sellerBonus, buyerBonus)
	if available.Cmp(needed) < 0 {
		return ErrInsufficientBounty
	}

	type payout struct {
		owner crypto.Address
		vault crypto.Address
		bonus *big.Int
	}
	payouts := make([]payout, 0, 2)
	for _, leg := range []payout{
		{owner: in.Seller, bonus: sellerBonus},
		{owner: in.Buyer, bonus: buyerBonus},
	} {
		if leg.bonus.Sign() == 0 {
			continue
		}
		rewardAddr := crypto.RewardAddress(leg.owner, marketplace.Address)
		reward, ok, err := e.state.RewardGet(rewardAddr)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		vault, ok := reward.VaultFor(in.PaymentMint)
		if !ok {
			return ErrVaultNotFound
		}
		leg.vault = vault
		payouts = append(payouts, leg)
	}

	for _, leg := range payouts {
		if err := e.ledger.Move(in.PaymentMint, bounty, leg.vault, leg.bonus); err != nil {
			return err
		}
		e.emit(&types.Event{
			Type: TypeRewardAccrued,
			Attributes: map[string]string{
				"marketplace": marketplace.Address.Hex(),
				"receiver":    leg.owner.Hex(),
				"mint":        in.PaymentMint.Hex(),
				"amount":      leg.bonus.String(),
			},
		})
	}
	return nil
}

// Withdraw releases the owner's accrued balance for one mint back to the
// owner's wallet. It is blocked for as long as the marketplace's promotion
// is open; closing the promotion unlocks every outstanding reward at once.
func (e *Engine) Withdraw(owner, marketplace, mint crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil || e.ledger == nil {
		return nil, ErrNilState
	}
	stored, ok, err := e.state.MarketplaceGet(marketplace)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMarketplaceNotFound
	}
	if stored.RewardsConfig.RewardsEnabled {
		return nil, ErrOpenPromotion
	}
	rewardAddr := crypto.RewardAddress(owner, marketplace)
	reward, ok, err := e.state.RewardGet(rewardAddr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if reward.Authority != owner {
		return nil, ErrUnauthorized
	}
	vault, ok := reward.VaultFor(mint)
	if !ok {
		return nil, ErrVaultNotFound
	}
	amount, err := e.ledger.Balance(mint, vault)
	if err != nil {
		return nil, err
	}
	if amount.Sign() > 0 {
		if err := e.ledger.Move(mint, vault, owner, amount); err != nil {
			return nil, err
		}
	}
	e.emit(&types.Event{
		Type: TypeRewardWithdrawn,
		Attributes: map[string]string{
			"marketplace": marketplace.Hex(),
			"owner":       owner.Hex(),
			"mint":        mint.Hex(),
			"amount":      amount.String(),
		},
	})
	return amount, nil
}
