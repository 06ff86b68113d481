package blockchain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// addressPrefix is the first byte of every TRON mainnet address.
const addressPrefix = 0x41

// rawAddressLen is prefix + 20-byte account, before the 4-byte checksum.
const rawAddressLen = 21

// ValidateAddress checks that address is a well-formed base58check TRON address.
func ValidateAddress(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("invalid base58 address: %w", err)
	}
	if len(raw) != rawAddressLen+4 {
		return fmt.Errorf("invalid address length %d", len(raw))
	}
	if raw[0] != addressPrefix {
		return fmt.Errorf("invalid address prefix 0x%02x", raw[0])
	}
	payload, checksum := raw[:rawAddressLen], raw[rawAddressLen:]
	if !bytes.Equal(checksum, checksumOf(payload)) {
		return fmt.Errorf("address checksum mismatch")
	}
	return nil
}

// HexToBase58 converts a 41-prefixed hex address, as returned by the node's
// account-transaction listings, to its base58check form.
func HexToBase58(addrHex string) (string, error) {
	raw, err := hex.DecodeString(addrHex)
	if err != nil {
		return "", fmt.Errorf("invalid hex address: %w", err)
	}
	if len(raw) != rawAddressLen || raw[0] != addressPrefix {
		return "", fmt.Errorf("unexpected raw address %q", addrHex)
	}
	return base58.Encode(append(raw, checksumOf(raw)...)), nil
}

// Base58ToHex converts a base58check address to the 41-prefixed hex form
// accepted by the node's wallet endpoints.
func Base58ToHex(address string) (string, error) {
	if err := ValidateAddress(address); err != nil {
		return "", err
	}
	raw, _ := base58.Decode(address)
	return hex.EncodeToString(raw[:rawAddressLen]), nil
}

func checksumOf(payload []byte) []byte {
	h1 := sha256.Sum256(payload)
	h2 := sha256.Sum256(h1[:])
	return h2[:4]
}
