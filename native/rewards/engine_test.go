package rewards

import (
	"errors"
	"math/big"
	"testing"

	"brickmarket/crypto"
	"brickmarket/native/fees"
	"brickmarket/native/market"
)

type mockState struct {
	marketplaces map[crypto.Address]*market.Marketplace
	rewards      map[crypto.Address]*Reward
}

func newMockState() *mockState {
	return &mockState{
		marketplaces: make(map[crypto.Address]*market.Marketplace),
		rewards:      make(map[crypto.Address]*Reward),
	}
}

func (m *mockState) MarketplaceGet(addr crypto.Address) (*market.Marketplace, bool, error) {
	stored, ok := m.marketplaces[addr]
	if !ok {
		return nil, false, nil
	}
	return stored.Clone(), true, nil
}

func (m *mockState) RewardGet(addr crypto.Address) (*Reward, bool, error) {
	stored, ok := m.rewards[addr]
	if !ok {
		return nil, false, nil
	}
	return stored.Clone(), true, nil
}

func (m *mockState) RewardPut(reward *Reward) error {
	m.rewards[reward.Address] = reward.Clone()
	return nil
}

type mockLedger struct {
	balances map[crypto.Address]map[crypto.Address]*big.Int
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[crypto.Address]map[crypto.Address]*big.Int)}
}

func (m *mockLedger) Balance(mint, holder crypto.Address) (*big.Int, error) {
	holders, ok := m.balances[mint]
	if !ok {
		return big.NewInt(0), nil
	}
	balance, ok := holders[holder]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

func (m *mockLedger) set(mint, holder crypto.Address, amount int64) {
	holders, ok := m.balances[mint]
	if !ok {
		holders = make(map[crypto.Address]*big.Int)
		m.balances[mint] = holders
	}
	holders[holder] = big.NewInt(amount)
}

func (m *mockLedger) Move(mint, from, to crypto.Address, amount *big.Int) error {
	fromBalance, _ := m.Balance(mint, from)
	if fromBalance.Cmp(amount) < 0 {
		return errors.New("mock ledger: insufficient funds")
	}
	holders := m.balances[mint]
	if holders == nil {
		holders = make(map[crypto.Address]*big.Int)
		m.balances[mint] = holders
	}
	holders[from] = new(big.Int).Sub(fromBalance, amount)
	toBalance, _ := m.Balance(mint, to)
	holders[to] = new(big.Int).Add(toBalance, amount)
	return nil
}

func testAddr(fill byte) crypto.Address {
	var addr crypto.Address
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

type fixture struct {
	state       *mockState
	ledger      *mockLedger
	engine      *Engine
	marketplace *market.Marketplace
	rewardMint  crypto.Address
	bountyVault crypto.Address
	seller      crypto.Address
	buyer       crypto.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	state := newMockState()
	ledger := newMockLedger()
	engine := NewEngine(state, ledger)

	authority := testAddr(0x01)
	addr := crypto.MarketplaceAddress(authority)
	rewardMint := testAddr(0x30)
	bountyVault := crypto.BountyVaultAddress(addr, rewardMint)
	marketplace := &market.Marketplace{
		Address:   addr,
		Authority: authority,
		FeesConfig: market.FeesConfig{
			FeeBps:   100,
			FeePayer: fees.PayerSeller,
		},
		RewardsConfig: market.RewardsConfig{
			RewardMint:      rewardMint,
			SellerRewardBps: 20,
			BuyerRewardBps:  20,
			RewardsEnabled:  true,
			BountyVaults:    []crypto.Address{bountyVault},
		},
	}
	state.marketplaces[addr] = marketplace

	return &fixture{
		state:       state,
		ledger:      ledger,
		engine:      engine,
		marketplace: marketplace,
		rewardMint:  rewardMint,
		bountyVault: bountyVault,
		seller:      testAddr(0x02),
		buyer:       testAddr(0x03),
	}
}

func (f *fixture) provisionReward(t *testing.T, owner crypto.Address) crypto.Address {
	t.Helper()
	reward, err := f.engine.InitReward(owner, f.marketplace.Address)
	if err != nil {
		t.Fatalf("init reward: %v", err)
	}
	vault, err := f.engine.InitRewardVault(owner, reward.Address, f.rewardMint)
	if err != nil {
		t.Fatalf("init reward vault: %v", err)
	}
	return vault
}

func TestInitRewardOnce(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.InitReward(f.seller, f.marketplace.Address); err != nil {
		t.Fatalf("init reward: %v", err)
	}
	if _, err := f.engine.InitReward(f.seller, f.marketplace.Address); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestAccrueCreditsBothParties(t *testing.T) {
	f := newFixture(t)
	sellerVault := f.provisionReward(t, f.seller)
	buyerVault := f.provisionReward(t, f.buyer)
	f.ledger.set(f.rewardMint, f.bountyVault, 1_000)

	err := f.engine.Accrue(AccrueInput{
		Marketplace: f.marketplace,
		Seller:      f.seller,
		Buyer:       f.buyer,
		PaymentMint: f.rewardMint,
		Gross:       big.NewInt(10_000),
	})
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	// sellerRewardBps = buyerRewardBps = 20 -> floor(10000*20/10000) = 20 each.
	sellerBalance, _ := f.ledger.Balance(f.rewardMint, sellerVault)
	buyerBalance, _ := f.ledger.Balance(f.rewardMint, buyerVault)
	if sellerBalance.Cmp(big.NewInt(20)) != 0 || buyerBalance.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("unexpected accruals %s / %s", sellerBalance, buyerBalance)
	}
	bounty, _ := f.ledger.Balance(f.rewardMint, f.bountyVault)
	if bounty.Cmp(big.NewInt(960)) != 0 {
		t.Fatalf("bounty balance = %s, want 960", bounty)
	}
}

func TestAccrueFailsWithoutRewardAccounts(t *testing.T) {
	f := newFixture(t)
	f.ledger.set(f.rewardMint, f.bountyVault, 1_000)

	err := f.engine.Accrue(AccrueInput{
		Marketplace: f.marketplace,
		Seller:      f.seller,
		Buyer:       f.buyer,
		PaymentMint: f.rewardMint,
		Gross:       big.NewInt(10_000),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccrueFailsOnUnderfundedBounty(t *testing.T) {
	f := newFixture(t)
	f.provisionReward(t, f.seller)
	f.provisionReward(t, f.buyer)
	f.ledger.set(f.rewardMint, f.bountyVault, 10)

	err := f.engine.Accrue(AccrueInput{
		Marketplace: f.marketplace,
		Seller:      f.seller,
		Buyer:       f.buyer,
		PaymentMint: f.rewardMint,
		Gross:       big.NewInt(10_000),
	})
	if !errors.Is(err, ErrInsufficientBounty) {
		t.Fatalf("expected ErrInsufficientBounty, got %v", err)
	}
	// No partial movement.
	bounty, _ := f.ledger.Balance(f.rewardMint, f.bountyVault)
	if bounty.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("bounty must be untouched, got %s", bounty)
	}
}

func TestWithdrawBlockedWhilePromotionOpen(t *testing.T) {
	f := newFixture(t)
	sellerVault := f.provisionReward(t, f.seller)
	f.ledger.set(f.rewardMint, sellerVault, 20)

	if _, err := f.engine.Withdraw(f.seller, f.marketplace.Address, f.rewardMint); !errors.Is(err, ErrOpenPromotion) {
		t.Fatalf("expected ErrOpenPromotion, got %v", err)
	}

	// Closing the promotion unlocks withdrawal.
	f.marketplace.RewardsConfig.RewardsEnabled = false
	f.state.marketplaces[f.marketplace.Address] = f.marketplace

	amount, err := f.engine.Withdraw(f.seller, f.marketplace.Address, f.rewardMint)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amount.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("withdrawn = %s, want 20", amount)
	}
	ownerBalance, _ := f.ledger.Balance(f.rewardMint, f.seller)
	if ownerBalance.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("owner balance = %s, want 20", ownerBalance)
	}
}

func TestWithdrawRequiresOwner(t *testing.T) {
	f := newFixture(t)
	sellerVault := f.provisionReward(t, f.seller)
	f.ledger.set(f.rewardMint, sellerVault, 20)
	f.marketplace.RewardsConfig.RewardsEnabled = false
	f.state.marketplaces[f.marketplace.Address] = f.marketplace

	// The intruder's own derivation does not resolve to the seller's
	// reward account.
	intruder := testAddr(0x09)
	if _, err := f.engine.Withdraw(intruder, f.marketplace.Address, f.rewardMint); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccrualPerMintIsIndependent(t *testing.T) {
	f := newFixture(t)
	f.provisionReward(t, f.seller)
	f.provisionReward(t, f.buyer)
	f.ledger.set(f.rewardMint, f.bountyVault, 1_000)

	// Rotate the reward mint; the old vaults keep their balances but new
	// accruals need a vault for the new mint.
	newMint := testAddr(0x31)
	newBounty := crypto.BountyVaultAddress(f.marketplace.Address, newMint)
	f.marketplace.RewardsConfig.RewardMint = newMint
	f.marketplace.RewardsConfig.BountyVaults = append(f.marketplace.RewardsConfig.BountyVaults, newBounty)
	f.state.marketplaces[f.marketplace.Address] = f.marketplace
	f.ledger.set(newMint, newBounty, 1_000)

	err := f.engine.Accrue(AccrueInput{
		Marketplace: f.marketplace,
		Seller:      f.seller,
		Buyer:       f.buyer,
		PaymentMint: newMint,
		Gross:       big.NewInt(10_000),
	})
	if !errors.Is(err, ErrVaultNotFound) {
		t.Fatalf("expected ErrVaultNotFound for unprovisioned mint, got %v", err)
	}

	sellerReward := crypto.RewardAddress(f.seller, f.marketplace.Address)
	buyerReward := crypto.RewardAddress(f.buyer, f.marketplace.Address)
	if _, err := f.engine.InitRewardVault(f.seller, sellerReward, newMint); err != nil {
		t.Fatalf("init new vault: %v", err)
	}
	if _, err := f.engine.InitRewardVault(f.buyer, buyerReward, newMint); err != nil {
		t.Fatalf("init new vault: %v", err)
	}
	if err := f.engine.Accrue(AccrueInput{
		Marketplace: f.marketplace,
		Seller:      f.seller,
		Buyer:       f.buyer,
		PaymentMint: newMint,
		Gross:       big.NewInt(10_000),
	}); err != nil {
		t.Fatalf("accrue after provisioning: %v", err)
	}
}
