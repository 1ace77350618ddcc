package crypto

import "testing"

func addr(fill byte) Address {
	var a Address
	for i := range a {
		a[i] = fill
	}
	return a
}

func TestDeriveDeterministic(t *testing.T) {
	authority := addr(0x01)
	first := MarketplaceAddress(authority)
	second := MarketplaceAddress(authority)
	if first != second {
		t.Fatalf("derivation not deterministic: %s vs %s", first, second)
	}
	if first.IsZero() {
		t.Fatalf("derived address must not be zero")
	}
}

func TestDeriveDistinctPerTag(t *testing.T) {
	a := addr(0x01)
	b := addr(0x02)
	seen := map[Address]string{}
	derived := map[string]Address{
		"marketplace": MarketplaceAddress(a),
		"accessMint":  AccessMintAddress(a),
		"payment":     PaymentAddress(a, b),
		"bountyVault": BountyVaultAddress(a, b),
		"reward":      RewardAddress(a, b),
		"rewardVault": RewardVaultAddress(a, b),
		"request":     AccessRequestAddress(a, b),
		"escrow":      EscrowAddress(a, b),
		"escrowVault": EscrowVaultAddress(a, b),
	}
	for name, address := range derived {
		if prev, ok := seen[address]; ok {
			t.Fatalf("collision between %s and %s", prev, name)
		}
		seen[address] = name
	}
}

func TestDeriveDistinctPerSeeds(t *testing.T) {
	buyerOne := addr(0x03)
	buyerTwo := addr(0x04)
	product := addr(0x05)
	if PaymentAddress(buyerOne, product) == PaymentAddress(buyerTwo, product) {
		t.Fatalf("different buyers must derive different payment accounts")
	}
	if EscrowAddress(product, buyerOne) == EscrowAddress(buyerOne, product) {
		t.Fatalf("seed order must be significant")
	}
}

func TestAddressHexRoundTrip(t *testing.T) {
	original := MarketplaceAddress(addr(0x09))
	parsed, err := AddressFromHex(original.Hex())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != original {
		t.Fatalf("round trip mismatch: %s vs %s", parsed, original)
	}
	if _, err := AddressFromHex("0xzz"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
}
