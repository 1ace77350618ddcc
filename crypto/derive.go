package crypto

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Derivation tags. Each protocol entity lives at an address computed from a
// tag plus its identifying fields, so at most one entity exists per identity
// tuple and callers cannot substitute foreign accounts.
const (
	tagMarketplace   = "marketplace"
	tagAccessMint    = "access_mint"
	tagProduct       = "product"
	tagPayment       = "payment"
	tagBountyVault   = "bounty_vault"
	tagReward        = "reward"
	tagRewardVault   = "reward_vault"
	tagAccessRequest = "access_request"
	tagEscrow        = "escrow"
	tagEscrowVault   = "escrow_vault"
)

// Derive hashes the tag and seeds into a deterministic 20-byte address.
func Derive(tag string, seeds ...[]byte) Address {
	data := make([][]byte, 0, len(seeds)+1)
	data = append(data, []byte(tag))
	data = append(data, seeds...)
	digest := ethcrypto.Keccak256(data...)
	var addr Address
	copy(addr[:], digest[12:])
	return addr
}

// MarketplaceAddress derives the singleton marketplace account for an
// authority wallet.
func MarketplaceAddress(authority Address) Address {
	return Derive(tagMarketplace, authority[:])
}

// AccessMintAddress derives the non-transferable access credential mint
// owned by a marketplace.
func AccessMintAddress(marketplace Address) Address {
	return Derive(tagAccessMint, marketplace[:])
}

// ProductAddress derives a listing account from its marketplace and
// 16-byte listing identifier.
func ProductAddress(marketplace Address, id [16]byte) Address {
	return Derive(tagProduct, marketplace[:], id[:])
}

// PaymentAddress derives the per-(buyer, product) purchase counter account.
func PaymentAddress(buyer, product Address) Address {
	return Derive(tagPayment, buyer[:], product[:])
}

// BountyVaultAddress derives the reward funding vault for a
// (marketplace, mint) pair.
func BountyVaultAddress(marketplace, mint Address) Address {
	return Derive(tagBountyVault, marketplace[:], mint[:])
}

// RewardAddress derives the reward record for a participant in a
// marketplace promotion.
func RewardAddress(owner, marketplace Address) Address {
	return Derive(tagReward, owner[:], marketplace[:])
}

// RewardVaultAddress derives the per-mint vault under a reward record.
func RewardVaultAddress(reward, mint Address) Address {
	return Derive(tagRewardVault, reward[:], mint[:])
}

// AccessRequestAddress derives the pending access request for a wallet and
// marketplace.
func AccessRequestAddress(wallet, marketplace Address) Address {
	return Derive(tagAccessRequest, wallet[:], marketplace[:])
}

// EscrowAddress derives the escrow record for a (product, buyer) pair.
func EscrowAddress(product, buyer Address) Address {
	return Derive(tagEscrow, product[:], buyer[:])
}

// EscrowVaultAddress derives the custody vault backing an escrow.
func EscrowVaultAddress(product, buyer Address) Address {
	return Derive(tagEscrowVault, product[:], buyer[:])
}
