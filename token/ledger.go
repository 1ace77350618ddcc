package token

import (
	"math/big"
	"sync"

	"brickmarket/core/types"
	"brickmarket/crypto"
)

// State is the narrow view of the account model the ledger needs. The state
// manager implements it; tests provide in-memory fakes.
type State interface {
	MintGet(addr crypto.Address) (*Mint, bool, error)
	MintPut(*Mint) error
	TokenBalance(mint, holder crypto.Address) (*big.Int, error)
	SetTokenBalance(mint, holder crypto.Address, amount *big.Int) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Ledger moves value between custodied accounts. It abstracts the two
// payment rails behind one interface: fungible-token custody balances, and
// native-currency wallet balances selected by the NativeMint sentinel.
// Mutating operations hold the ledger mutex for their whole
// read-modify-write span, so concurrent callers cannot lose updates and
// total value is conserved.
type Ledger struct {
	mu    sync.Mutex
	state State
}

// NewLedger creates a ledger over the supplied state backend.
func NewLedger(state State) *Ledger {
	return &Ledger{state: state}
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// CreateMint registers a new mint. Re-creation of an existing mint fails.
func (l *Ledger) CreateMint(addr, authority crypto.Address, transferable bool) (*Mint, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok, err := l.state.MintGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrMintExists
	}
	mint := &Mint{
		Address:      addr,
		Authority:    authority,
		Transferable: transferable,
		Supply:       big.NewInt(0),
	}
	if err := l.state.MintPut(mint); err != nil {
		return nil, err
	}
	return mint.Clone(), nil
}

// MintTo issues new supply to a holder. Only the mint authority may mint;
// the check runs before any write.
func (l *Ledger) MintTo(mint, caller, to crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amt := cloneAmount(amount)
	if amt.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amt.Sign() == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	info, ok, err := l.state.MintGet(mint)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMintNotFound
	}
	if info.Authority != caller {
		return ErrUnauthorizedMinter
	}
	balance, err := l.state.TokenBalance(mint, to)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenBalance(mint, to, new(big.Int).Add(balance, amt)); err != nil {
		return err
	}
	info.Supply = new(big.Int).Add(cloneAmount(info.Supply), amt)
	return l.state.MintPut(info)
}

// Transfer moves value from one holder to another on whichever rail the
// mint selects. Token transfers against a non-transferable mint always
// fail, which is how access credentials stay bound to their wallet.
func (l *Ledger) Transfer(mint, from, to crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amt := cloneAmount(amount)
	if amt.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amt.Sign() == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if mint == NativeMint {
		return l.transferNative(from, to, amt)
	}
	info, ok, err := l.state.MintGet(mint)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMintNotFound
	}
	if !info.Transferable {
		return ErrNonTransferable
	}
	fromBalance, err := l.state.TokenBalance(mint, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	toBalance, err := l.state.TokenBalance(mint, to)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenBalance(mint, from, new(big.Int).Sub(fromBalance, amt)); err != nil {
		return err
	}
	return l.state.SetTokenBalance(mint, to, new(big.Int).Add(toBalance, amt))
}

// Credit moves custody value into a holder without a counterparty balance
// check. It is reserved for protocol engines funding derived vaults
// (bounty funding fixtures, tests); user-facing flows go through Transfer.
func (l *Ledger) Credit(mint, holder crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amt := cloneAmount(amount)
	if amt.Sign() < 0 {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if mint == NativeMint {
		account, err := l.state.GetAccount(holder)
		if err != nil {
			return err
		}
		account = account.Ensure()
		account.Balance = new(big.Int).Add(account.Balance, amt)
		return l.state.PutAccount(holder, account)
	}
	balance, err := l.state.TokenBalance(mint, holder)
	if err != nil {
		return err
	}
	return l.state.SetTokenBalance(mint, holder, new(big.Int).Add(balance, amt))
}

// Move transfers custody value between derived protocol vaults, bypassing
// the transferable flag. Engines own both sides of these moves; the flag
// only constrains holder-initiated transfers.
func (l *Ledger) Move(mint, from, to crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amt := cloneAmount(amount)
	if amt.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amt.Sign() == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if mint == NativeMint {
		return l.transferNative(from, to, amt)
	}
	if _, ok, err := l.state.MintGet(mint); err != nil {
		return err
	} else if !ok {
		return ErrMintNotFound
	}
	fromBalance, err := l.state.TokenBalance(mint, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	toBalance, err := l.state.TokenBalance(mint, to)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenBalance(mint, from, new(big.Int).Sub(fromBalance, amt)); err != nil {
		return err
	}
	return l.state.SetTokenBalance(mint, to, new(big.Int).Add(toBalance, amt))
}

// MintInfo returns a copy of the stored mint record. Engines use it to
// validate a payment or delivery rail before moving any funds.
func (l *Ledger) MintInfo(addr crypto.Address) (*Mint, bool, error) {
	if l == nil || l.state == nil {
		return nil, false, ErrNilState
	}
	info, ok, err := l.state.MintGet(addr)
	if err != nil || !ok {
		return nil, false, err
	}
	return info.Clone(), true, nil
}

// Balance reports the holder's balance on the mint's rail.
func (l *Ledger) Balance(mint, holder crypto.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	if mint == NativeMint {
		account, err := l.state.GetAccount(holder)
		if err != nil {
			return nil, err
		}
		return cloneAmount(account.Ensure().Balance), nil
	}
	balance, err := l.state.TokenBalance(mint, holder)
	if err != nil {
		return nil, err
	}
	return cloneAmount(balance), nil
}

func (l *Ledger) transferNative(from, to crypto.Address, amt *big.Int) error {
	fromAccount, err := l.state.GetAccount(from)
	if err != nil {
		return err
	}
	fromAccount = fromAccount.Ensure()
	if fromAccount.Balance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	toAccount, err := l.state.GetAccount(to)
	if err != nil {
		return err
	}
	toAccount = toAccount.Ensure()
	fromAccount.Balance = new(big.Int).Sub(fromAccount.Balance, amt)
	toAccount.Balance = new(big.Int).Add(toAccount.Balance, amt)
	if err := l.state.PutAccount(from, fromAccount); err != nil {
		return err
	}
	return l.state.PutAccount(to, toAccount)
}
