package settlement

import (
	"errors"
	"math/big"
	"testing"

	"brickmarket/crypto"
	"brickmarket/native/catalog"
	"brickmarket/native/fees"
	"brickmarket/native/market"
	"brickmarket/native/rewards"
	"brickmarket/token"
)

func testAddr(fill byte) crypto.Address {
	var addr crypto.Address
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

type mockState struct {
	marketplaces map[crypto.Address]*market.Marketplace
	products     map[crypto.Address]*catalog.Product
	payments     map[crypto.Address]*catalog.Payment
}

func newMockState() *mockState {
	return &mockState{
		marketplaces: make(map[crypto.Address]*market.Marketplace),
		products:     make(map[crypto.Address]*catalog.Product),
		payments:     make(map[crypto.Address]*catalog.Payment),
	}
}

func (m *mockState) MarketplaceGet(addr crypto.Address) (*market.Marketplace, bool, error) {
	stored, ok := m.marketplaces[addr]
	if !ok {
		return nil, false, nil
	}
	return stored.Clone(), true, nil
}

func (m *mockState) ProductGet(addr crypto.Address) (*catalog.Product, bool, error) {
	stored, ok := m.products[addr]
	if !ok {
		return nil, false, nil
	}
	return stored.Clone(), true, nil
}

func (m *mockState) PaymentGet(addr crypto.Address) (*catalog.Payment, bool, error) {
	stored, ok := m.payments[addr]
	if !ok {
		return nil, false, nil
	}
	copied := *stored
	return &copied, true, nil
}

func (m *mockState) PaymentPut(payment *catalog.Payment) error {
	copied := *payment
	m.payments[payment.Address] = &copied
	return nil
}

type mockLedger struct {
	balances map[crypto.Address]map[crypto.Address]*big.Int
	minted   map[crypto.Address]map[crypto.Address]*big.Int
	mints    map[crypto.Address]*token.Mint
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		balances: make(map[crypto.Address]map[crypto.Address]*big.Int),
		minted:   make(map[crypto.Address]map[crypto.Address]*big.Int),
		mints:    make(map[crypto.Address]*token.Mint),
	}
}

func get(table map[crypto.Address]map[crypto.Address]*big.Int, mint, holder crypto.Address) *big.Int {
	holders, ok := table[mint]
	if !ok {
		return big.NewInt(0)
	}
	balance, ok := holders[holder]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

func set(table map[crypto.Address]map[crypto.Address]*big.Int, mint, holder crypto.Address, amount *big.Int) {
	holders, ok := table[mint]
	if !ok {
		holders = make(map[crypto.Address]*big.Int)
		table[mint] = holders
	}
	holders[holder] = new(big.Int).Set(amount)
}

func (m *mockLedger) Balance(mint, holder crypto.Address) (*big.Int, error) {
	return get(m.balances, mint, holder), nil
}

func (m *mockLedger) Transfer(mint, from, to crypto.Address, amount *big.Int) error {
	fromBalance := get(m.balances, mint, from)
	if fromBalance.Cmp(amount) < 0 {
		return errors.New("mock ledger: insufficient funds")
	}
	set(m.balances, mint, from, new(big.Int).Sub(fromBalance, amount))
	set(m.balances, mint, to, new(big.Int).Add(get(m.balances, mint, to), amount))
	return nil
}

func (m *mockLedger) MintTo(mint, caller, to crypto.Address, amount *big.Int) error {
	set(m.minted, mint, to, new(big.Int).Add(get(m.minted, mint, to), amount))
	return nil
}

func (m *mockLedger) MintInfo(addr crypto.Address) (*token.Mint, bool, error) {
	info, ok := m.mints[addr]
	if !ok {
		return nil, false, nil
	}
	return info.Clone(), true, nil
}

type mockAccruer struct {
	calls []rewards.AccrueInput
	err   error
}

func (m *mockAccruer) Accrue(in rewards.AccrueInput) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, in)
	return nil
}

type fixture struct {
	engine  *Engine
	state   *mockState
	ledger  *mockLedger
	accruer *mockAccruer
	buyer   crypto.Address
	seller  crypto.Address
	owner   crypto.Address
	mkt     *market.Marketplace
	listing *catalog.Product
	mint    crypto.Address
}

func newFixture(t *testing.T, price int64, cfg func(*market.Marketplace)) *fixture {
	t.Helper()
	state := newMockState()
	ledger := newMockLedger()
	accruer := &mockAccruer{}
	engine := NewEngine(state, ledger, accruer)

	owner := testAddr(0x10)
	buyer := testAddr(0x11)
	seller := testAddr(0x12)
	mint := testAddr(0x13)

	mkt := &market.Marketplace{
		Address:   crypto.MarketplaceAddress(owner),
		Authority: owner,
		FeesConfig: market.FeesConfig{
			FeeBps:   100,
			FeePayer: fees.PayerSeller,
		},
	}
	if cfg != nil {
		cfg(mkt)
	}
	state.marketplaces[mkt.Address] = mkt

	var id [16]byte
	copy(id[:], "listing-1")
	listing := &catalog.Product{
		Address:      crypto.ProductAddress(mkt.Address, id),
		Authority:    seller,
		ID:           id,
		Marketplace:  mkt.Address,
		DeliveryMint: crypto.Derive("delivery_mint", []byte("listing-1")),
		SellerConfig: catalog.SellerConfig{
			PaymentMint: mint,
			Price:       big.NewInt(price),
		},
	}
	state.products[listing.Address] = listing
	set(ledger.balances, mint, buyer, big.NewInt(100_000))
	ledger.mints[mint] = &token.Mint{Address: mint, Authority: owner, Transferable: true}
	ledger.mints[listing.DeliveryMint] = &token.Mint{Address: listing.DeliveryMint, Authority: listing.Address}

	return &fixture{
		engine:  engine,
		state:   state,
		ledger:  ledger,
		accruer: accruer,
		buyer:   buyer,
		seller:  seller,
		owner:   owner,
		mkt:     mkt,
		listing: listing,
		mint:    mint,
	}
}

func TestRegisterBuySellerPaysFee(t *testing.T) {
	fix := newFixture(t, 10_000, nil)

	receipt, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 1)
	if err != nil {
		t.Fatalf("register buy: %v", err)
	}
	if receipt.Gross.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("gross = %s, want 10000", receipt.Gross)
	}
	if receipt.Fee.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("fee = %s, want 100", receipt.Fee)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.seller); got.Cmp(big.NewInt(9_900)) != 0 {
		t.Fatalf("seller received %s, want 9900", got)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.owner); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("fee authority received %s, want 100", got)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.buyer); got.Cmp(big.NewInt(90_000)) != 0 {
		t.Fatalf("buyer balance %s, want 90000", got)
	}
}

func TestRegisterBuyBuyerPaysFee(t *testing.T) {
	fix := newFixture(t, 10_000, func(m *market.Marketplace) {
		m.FeesConfig.FeePayer = fees.PayerBuyer
	})

	receipt, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 1)
	if err != nil {
		t.Fatalf("register buy: %v", err)
	}
	if receipt.BuyerCharge.Cmp(big.NewInt(10_100)) != 0 {
		t.Fatalf("buyer charge = %s, want 10100", receipt.BuyerCharge)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.seller); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("seller received %s, want full gross", got)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.buyer); got.Cmp(big.NewInt(89_900)) != 0 {
		t.Fatalf("buyer balance %s, want 89900", got)
	}
}

func TestRegisterBuyDiscountMint(t *testing.T) {
	fix := newFixture(t, 100, func(m *market.Marketplace) {
		m.FeesConfig.FeeBps = 200
		m.FeesConfig.FeeReductionBps = 150
	})
	fix.mkt.FeesConfig.DiscountMint = fix.mint
	fix.state.marketplaces[fix.mkt.Address] = fix.mkt

	receipt, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 2)
	if err != nil {
		t.Fatalf("register buy: %v", err)
	}
	// 200 gross at an effective 50 bps floors to a fee of 1.
	if receipt.Fee.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("fee = %s, want 1", receipt.Fee)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.seller); got.Cmp(big.NewInt(199)) != 0 {
		t.Fatalf("seller received %s, want 199", got)
	}
}

func TestRegisterBuyMintMismatch(t *testing.T) {
	fix := newFixture(t, 100, nil)

	wrong := testAddr(0x14)
	if _, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, wrong, 1); !errors.Is(err, ErrMintMismatch) {
		t.Fatalf("expected ErrMintMismatch, got %v", err)
	}
}

func TestRegisterBuyInsufficientFunds(t *testing.T) {
	fix := newFixture(t, 100, nil)
	set(fix.ledger.balances, fix.mint, fix.buyer, big.NewInt(50))

	if _, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 1); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.seller); got.Sign() != 0 {
		t.Fatalf("seller received %s despite failed settlement", got)
	}
}

func TestRegisterBuyCounterAccumulates(t *testing.T) {
	fix := newFixture(t, 100, func(m *market.Marketplace) {
		m.TokenConfig.ChainCounter = true
	})

	if _, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 2); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	if _, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 3); err != nil {
		t.Fatalf("second buy: %v", err)
	}
	counter, ok, _ := fix.state.PaymentGet(crypto.PaymentAddress(fix.buyer, fix.listing.Address))
	if !ok {
		t.Fatal("payment counter missing")
	}
	if counter.Units != 5 {
		t.Fatalf("counter units = %d, want 5", counter.Units)
	}
}

func TestRegisterBuyDeliversTokens(t *testing.T) {
	fix := newFixture(t, 100, func(m *market.Marketplace) {
		m.TokenConfig.DeliverToken = true
	})

	receipt, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 3)
	if err != nil {
		t.Fatalf("register buy: %v", err)
	}
	if !receipt.Delivered {
		t.Fatal("expected delivery")
	}
	if got := get(fix.ledger.minted, fix.listing.DeliveryMint, fix.buyer); got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("minted %s delivery units, want 3", got)
	}
}

func TestRegisterBuyRejectsMissingDeliveryMint(t *testing.T) {
	// A marketplace can enable token delivery after a product was listed
	// without one. The settlement must fail before any funds move, not
	// after the buyer has been debited.
	fix := newFixture(t, 10_000, func(m *market.Marketplace) {
		m.TokenConfig.DeliverToken = true
	})
	delete(fix.ledger.mints, fix.listing.DeliveryMint)

	if _, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 1); !errors.Is(err, ErrDeliveryUnavailable) {
		t.Fatalf("expected ErrDeliveryUnavailable, got %v", err)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.seller); got.Sign() != 0 {
		t.Fatalf("seller received %s despite failed settlement", got)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.owner); got.Sign() != 0 {
		t.Fatalf("fee authority received %s despite failed settlement", got)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.buyer); got.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("buyer balance %s, want untouched 100000", got)
	}
}

func TestRegisterBuyRejectsForeignDeliveryAuthority(t *testing.T) {
	fix := newFixture(t, 10_000, func(m *market.Marketplace) {
		m.TokenConfig.DeliverToken = true
	})
	fix.ledger.mints[fix.listing.DeliveryMint].Authority = testAddr(0x44)

	if _, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 1); !errors.Is(err, ErrDeliveryUnavailable) {
		t.Fatalf("expected ErrDeliveryUnavailable, got %v", err)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.buyer); got.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("buyer balance %s, want untouched 100000", got)
	}
}

func TestRegisterBuyRejectsNonTransferablePaymentMint(t *testing.T) {
	fix := newFixture(t, 10_000, nil)
	fix.ledger.mints[fix.mint].Transferable = false

	if _, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 1); !errors.Is(err, token.ErrNonTransferable) {
		t.Fatalf("expected ErrNonTransferable, got %v", err)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.buyer); got.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("buyer balance %s, want untouched 100000", got)
	}
}

func TestRegisterBuyCompressedDeliveryRequiresMinter(t *testing.T) {
	fix := newFixture(t, 100, func(m *market.Marketplace) {
		m.TokenConfig.DeliverToken = true
		m.TokenConfig.UseCompressedDelivery = true
	})

	if _, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 1); !errors.Is(err, ErrDeliveryUnavailable) {
		t.Fatalf("expected ErrDeliveryUnavailable, got %v", err)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.seller); got.Sign() != 0 {
		t.Fatalf("seller received %s despite failed settlement", got)
	}
}

func TestRegisterBuyAccruesRewardsWhenActive(t *testing.T) {
	fix := newFixture(t, 10_000, func(m *market.Marketplace) {
		m.RewardsConfig.RewardsEnabled = true
	})
	fix.mkt.RewardsConfig.RewardMint = fix.mint
	fix.state.marketplaces[fix.mkt.Address] = fix.mkt

	if _, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 1); err != nil {
		t.Fatalf("register buy: %v", err)
	}
	if len(fix.accruer.calls) != 1 {
		t.Fatalf("accrue called %d times, want 1", len(fix.accruer.calls))
	}
	call := fix.accruer.calls[0]
	if call.Gross.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("accrue gross = %s, want 10000", call.Gross)
	}
	if call.Seller != fix.seller || call.Buyer != fix.buyer {
		t.Fatal("accrue parties mismatch")
	}
}

func TestRegisterBuySkipsRewardsForOtherMint(t *testing.T) {
	fix := newFixture(t, 10_000, func(m *market.Marketplace) {
		m.RewardsConfig.RewardsEnabled = true
		m.RewardsConfig.RewardMint = testAddr(0x15)
	})

	if _, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 1); err != nil {
		t.Fatalf("register buy: %v", err)
	}
	if len(fix.accruer.calls) != 0 {
		t.Fatalf("accrue called %d times, want 0", len(fix.accruer.calls))
	}
}

func TestRegisterBuyFailsWhenAccrualFails(t *testing.T) {
	fix := newFixture(t, 10_000, func(m *market.Marketplace) {
		m.RewardsConfig.RewardsEnabled = true
	})
	fix.mkt.RewardsConfig.RewardMint = fix.mint
	fix.state.marketplaces[fix.mkt.Address] = fix.mkt
	fix.accruer.err = rewards.ErrInsufficientBounty

	if _, err := fix.engine.RegisterBuy(fix.buyer, fix.listing.Address, fix.mint, 1); !errors.Is(err, rewards.ErrInsufficientBounty) {
		t.Fatalf("expected bounty error, got %v", err)
	}
	if got := get(fix.ledger.balances, fix.mint, fix.seller); got.Sign() != 0 {
		t.Fatalf("seller received %s despite failed settlement", got)
	}
}
