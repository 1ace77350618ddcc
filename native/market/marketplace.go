package market

import (
	"brickmarket/crypto"
	"brickmarket/native/fees"
)

// MaxBountyVaults caps how many reward mints a marketplace can provision
// bounty vaults for.
const MaxBountyVaults = 5

// TokenConfig controls delivery and indexing behaviour for purchases made
// against the marketplace's products.
type TokenConfig struct {
	// DeliverToken mints the product's delivery asset to the buyer on
	// settlement.
	DeliverToken bool `json:"deliverToken"`
	// Transferable marks delivery assets as resellable by the buyer.
	Transferable bool `json:"transferable"`
	// UseCompressedDelivery routes delivery through the external
	// state-compressed minting service instead of the token ledger.
	UseCompressedDelivery bool `json:"useCompressedDelivery"`
	// ChainCounter maintains a per-(buyer, product) purchase counter.
	ChainCounter bool `json:"chainCounter"`
}

// PermissionConfig gates who may list products on the marketplace.
type PermissionConfig struct {
	// AccessMint is the non-transferable credential mint derived at init.
	AccessMint crypto.Address `json:"accessMint"`
	// Permissionless disables credential checks entirely.
	Permissionless bool `json:"permissionless"`
}

// FeesConfig is the marketplace fee policy. FeeBps of 250 is a 2.5% fee;
// FeeReductionBps is subtracted when the buyer pays with the discount mint.
type FeesConfig struct {
	FeeBps          uint16         `json:"feeBps"`
	FeeReductionBps uint16         `json:"feeReductionBps"`
	DiscountMint    crypto.Address `json:"discountMint"`
	FeePayer        fees.Payer     `json:"feePayer"`
}

// RewardsConfig is the promotion policy. Rewards accrue only while
// RewardsEnabled holds and only for settlements paid in RewardMint; the
// flag doubles as the promotion-open gate blocking withdrawals.
type RewardsConfig struct {
	RewardMint      crypto.Address   `json:"rewardMint"`
	SellerRewardBps uint16           `json:"sellerRewardBps"`
	BuyerRewardBps  uint16           `json:"buyerRewardBps"`
	RewardsEnabled  bool             `json:"rewardsEnabled"`
	BountyVaults    []crypto.Address `json:"bountyVaults"`
}

// Marketplace is the configuration record one authority owns. Its address
// derives from the authority, so at most one marketplace exists per wallet.
type Marketplace struct {
	Address          crypto.Address   `json:"address"`
	Authority        crypto.Address   `json:"authority"`
	TokenConfig      TokenConfig      `json:"tokenConfig"`
	PermissionConfig PermissionConfig `json:"permissionConfig"`
	FeesConfig       FeesConfig       `json:"feesConfig"`
	RewardsConfig    RewardsConfig    `json:"rewardsConfig"`
}

// Clone returns a deep copy so callers can mutate the copy without
// affecting the stored instance.
func (m *Marketplace) Clone() *Marketplace {
	if m == nil {
		return nil
	}
	clone := *m
	if len(m.RewardsConfig.BountyVaults) > 0 {
		clone.RewardsConfig.BountyVaults = append([]crypto.Address(nil), m.RewardsConfig.BountyVaults...)
	}
	return &clone
}

// HasBountyVault reports whether the vault is already registered.
func (m *Marketplace) HasBountyVault(vault crypto.Address) bool {
	for _, existing := range m.RewardsConfig.BountyVaults {
		if existing == vault {
			return true
		}
	}
	return false
}

// ValidateFees rejects fee rates above 100% and reductions that would
// produce a negative fee. Validation runs at init/edit time, not at
// settlement, so a stored config can always be applied safely.
func (f FeesConfig) Validate() error {
	if f.FeeBps > fees.BpsDenominator {
		return ErrInvalidFee
	}
	if f.FeeReductionBps > f.FeeBps {
		return ErrInvalidFeeReduction
	}
	if !f.FeePayer.Valid() {
		return ErrInvalidFeePayer
	}
	return nil
}

// Validate rejects reward rates above 100%.
func (r RewardsConfig) Validate() error {
	if r.SellerRewardBps > fees.BpsDenominator || r.BuyerRewardBps > fees.BpsDenominator {
		return ErrInvalidReward
	}
	return nil
}

// RewardsActive reports whether a settlement in paymentMint accrues
// promotional rewards.
func (m *Marketplace) RewardsActive(paymentMint crypto.Address) bool {
	if m == nil || !m.RewardsConfig.RewardsEnabled {
		return false
	}
	return m.RewardsConfig.RewardMint == paymentMint
}
