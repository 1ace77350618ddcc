package crypto

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Address identifies a wallet, custody vault, mint, or derived protocol
// account. Entity addresses are pure functions of their identifying fields,
// so callers can always recompute the expected address and reject spoofed
// account references.
type Address [20]byte

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the 0x-prefixed hexadecimal form of the address.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool { return a == Address{} }

// MarshalJSON encodes the address as a 0x-prefixed hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

// UnmarshalJSON accepts a 0x-prefixed hex string.
func (a *Address) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := AddressFromHex(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AddressFromBytes copies the supplied bytes into an Address. The input must
// be exactly 20 bytes.
func AddressFromBytes(b []byte) (Address, error) {
	var addr Address
	if len(b) != len(addr) {
		return Address{}, fmt.Errorf("crypto: invalid address length %d", len(b))
	}
	copy(addr[:], b)
	return addr, nil
}

// AddressFromHex parses a hexadecimal address with an optional 0x prefix.
func AddressFromHex(s string) (Address, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: invalid address %q: %w", s, err)
	}
	return AddressFromBytes(raw)
}
