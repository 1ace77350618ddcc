package rewards

import (
	"brickmarket/crypto"
)

// VaultRef binds a reward vault to the mint it accrues.
type VaultRef struct {
	Mint  crypto.Address `json:"mint"`
	Vault crypto.Address `json:"vault"`
}

// Reward is the per-(owner, marketplace) promotion account. It references
// one vault per mint ever credited; balances live in the token ledger under
// the vault addresses.
type Reward struct {
	Address     crypto.Address `json:"address"`
	Authority   crypto.Address `json:"authority"`
	Marketplace crypto.Address `json:"marketplace"`
	Vaults      []VaultRef     `json:"vaults"`
}

// Clone returns a deep copy so callers can mutate without aliasing the
// stored instance.
func (r *Reward) Clone() *Reward {
	if r == nil {
		return nil
	}
	clone := *r
	if len(r.Vaults) > 0 {
		clone.Vaults = append([]VaultRef(nil), r.Vaults...)
	}
	return &clone
}

// VaultFor returns the vault accruing the supplied mint, if registered.
func (r *Reward) VaultFor(mint crypto.Address) (crypto.Address, bool) {
	for _, ref := range r.Vaults {
		if ref.Mint == mint {
			return ref.Vault, true
		}
	}
	return crypto.Address{}, false
}
