package market

import (
	"brickmarket/core/types"
	"brickmarket/crypto"
)

const (
	TypeMarketplaceCreated = "market.marketplace.created"
	TypeMarketplaceEdited  = "market.marketplace.edited"
	TypeBountyInitialized  = "market.bounty.initialized"
)

// NewCreatedEvent describes a freshly initialized marketplace.
func NewCreatedEvent(m *Marketplace) *types.Event {
	return &types.Event{
		Type: TypeMarketplaceCreated,
		Attributes: map[string]string{
			"marketplace": m.Address.Hex(),
			"authority":   m.Authority.Hex(),
			"accessMint":  m.PermissionConfig.AccessMint.Hex(),
		},
	}
}

// NewEditedEvent describes a config replacement on an existing marketplace.
func NewEditedEvent(m *Marketplace) *types.Event {
	return &types.Event{
		Type: TypeMarketplaceEdited,
		Attributes: map[string]string{
			"marketplace": m.Address.Hex(),
			"authority":   m.Authority.Hex(),
		},
	}
}

// NewBountyEvent describes a provisioned bounty vault.
func NewBountyEvent(m *Marketplace, mint, vault crypto.Address) *types.Event {
	return &types.Event{
		Type: TypeBountyInitialized,
		Attributes: map[string]string{
			"marketplace": m.Address.Hex(),
			"mint":        mint.Hex(),
			"vault":       vault.Hex(),
		},
	}
}
