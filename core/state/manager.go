package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"brickmarket/core/types"
	"brickmarket/crypto"
	"brickmarket/native/access"
	"brickmarket/native/catalog"
	"brickmarket/native/escrow"
	"brickmarket/native/market"
	"brickmarket/native/rewards"
	"brickmarket/native/settlement"
	"brickmarket/storage"
	"brickmarket/token"
)

// Manager persists the protocol's account model in a key-value database.
// It implements the narrow state interfaces each protocol engine declares,
// so one Manager backs the token ledger and every engine at once. All
// methods are safe for concurrent use.
type Manager struct {
	mu sync.RWMutex
	db storage.Database
}

// NewManager creates a state manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	_ token.State            = (*Manager)(nil)
	_ market.EngineState     = (*Manager)(nil)
	_ catalog.EngineState    = (*Manager)(nil)
	_ rewards.EngineState    = (*Manager)(nil)
	_ access.EngineState     = (*Manager)(nil)
	_ escrow.EngineState     = (*Manager)(nil)
	_ settlement.EngineState = (*Manager)(nil)
)

func (m *Manager) getJSON(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putJSON(key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, data)
}

// GetAccount loads the native-currency account for addr, returning a fresh
// zero-balance account when none is stored yet.
func (m *Manager) GetAccount(addr crypto.Address) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account := types.NewAccount()
	if _, err := m.getJSON(prefixed(accountPrefix, addr.Bytes()), account); err != nil {
		return nil, err
	}
	account.Ensure()
	return account, nil
}

func (m *Manager) PutAccount(addr crypto.Address, account *types.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putJSON(prefixed(accountPrefix, addr.Bytes()), account)
}

func (m *Manager) MintGet(addr crypto.Address) (*token.Mint, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mint := new(token.Mint)
	ok, err := m.getJSON(prefixed(mintPrefix, addr.Bytes()), mint)
	if err != nil || !ok {
		return nil, false, err
	}
	return mint, true, nil
}

func (m *Manager) MintPut(mint *token.Mint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putJSON(prefixed(mintPrefix, mint.Address.Bytes()), mint)
}

// TokenBalance returns the custody balance of holder in mint, zero when no
// balance record exists.
func (m *Manager) TokenBalance(mint, holder crypto.Address) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := prefixed(tokenBalancePrefix, mint.Bytes(), holder.Bytes())
	data, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	balance, ok := new(big.Int).SetString(string(data), 10)
	if !ok {
		return nil, fmt.Errorf("state: corrupt balance record for %s/%s", mint.Hex(), holder.Hex())
	}
	return balance, nil
}

func (m *Manager) SetTokenBalance(mint, holder crypto.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount == nil {
		amount = big.NewInt(0)
	}
	key := prefixed(tokenBalancePrefix, mint.Bytes(), holder.Bytes())
	return m.db.Put(key, []byte(amount.Text(10)))
}

func (m *Manager) MarketplaceGet(addr crypto.Address) (*market.Marketplace, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	marketplace := new(market.Marketplace)
	ok, err := m.getJSON(prefixed(marketplacePrefix, addr.Bytes()), marketplace)
	if err != nil || !ok {
		return nil, false, err
	}
	return marketplace, true, nil
}

func (m *Manager) MarketplacePut(marketplace *market.Marketplace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putJSON(prefixed(marketplacePrefix, marketplace.Address.Bytes()), marketplace)
}

func (m *Manager) ProductGet(addr crypto.Address) (*catalog.Product, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	product := new(catalog.Product)
	ok, err := m.getJSON(prefixed(productPrefix, addr.Bytes()), product)
	if err != nil || !ok {
		return nil, false, err
	}
	return product, true, nil
}

func (m *Manager) ProductPut(product *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putJSON(prefixed(productPrefix, product.Address.Bytes()), product)
}

func (m *Manager) PaymentGet(addr crypto.Address) (*catalog.Payment, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment := new(catalog.Payment)
	ok, err := m.getJSON(prefixed(paymentPrefix, addr.Bytes()), payment)
	if err != nil || !ok {
		return nil, false, err
	}
	return payment, true, nil
}

func (m *Manager) PaymentPut(payment *catalog.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putJSON(prefixed(paymentPrefix, payment.Address.Bytes()), payment)
}

func (m *Manager) RewardGet(addr crypto.Address) (*rewards.Reward, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reward := new(rewards.Reward)
	ok, err := m.getJSON(prefixed(rewardPrefix, addr.Bytes()), reward)
	if err != nil || !ok {
		return nil, false, err
	}
	return reward, true, nil
}

func (m *Manager) RewardPut(reward *rewards.Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putJSON(prefixed(rewardPrefix, reward.Address.Bytes()), reward)
}

func (m *Manager) AccessRequestGet(addr crypto.Address) (*access.Request, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	request := new(access.Request)
	ok, err := m.getJSON(prefixed(accessRequestPrefix, addr.Bytes()), request)
	if err != nil || !ok {
		return nil, false, err
	}
	return request, true, nil
}

func (m *Manager) AccessRequestPut(request *access.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putJSON(prefixed(accessRequestPrefix, request.Address.Bytes()), request)
}

func (m *Manager) AccessRequestDelete(addr crypto.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Delete(prefixed(accessRequestPrefix, addr.Bytes()))
}

func (m *Manager) EscrowGet(addr crypto.Address) (*escrow.Escrow, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record := new(escrow.Escrow)
	ok, err := m.getJSON(prefixed(escrowPrefix, addr.Bytes()), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

func (m *Manager) EscrowPut(record *escrow.Escrow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putJSON(prefixed(escrowPrefix, record.Address.Bytes()), record)
}

func (m *Manager) EscrowDelete(addr crypto.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Delete(prefixed(escrowPrefix, addr.Bytes()))
}
