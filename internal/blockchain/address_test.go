package blockchain

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
)

// testAddress builds a well-formed base58check address from a 20-byte account.
func testAddress(t *testing.T, fill byte) string {
	raw := make([]byte, rawAddressLen)
	raw[0] = addressPrefix
	for i := 1; i < rawAddressLen; i++ {
		raw[i] = fill
	}
	return base58.Encode(append(raw, checksumOf(raw)...))
}

func TestValidateAddress(t *testing.T) {
	addr := testAddress(t, 0x42)
	if err := ValidateAddress(addr); err != nil {
		t.Errorf("ValidateAddress(%q) failed: %v", addr, err)
	}
}

func TestValidateAddressRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"not-base58-0OIl",
		"abc",
		base58.Encode([]byte{0x41, 0x01, 0x02}), // too short
	}
	for _, addr := range cases {
		if err := ValidateAddress(addr); err == nil {
			t.Errorf("ValidateAddress(%q) accepted a malformed address", addr)
		}
	}
}

func TestValidateAddressRejectsBadPrefix(t *testing.T) {
	raw := make([]byte, rawAddressLen)
	raw[0] = 0x00 // not a TRON mainnet prefix
	addr := base58.Encode(append(raw, checksumOf(raw)...))
	if err := ValidateAddress(addr); err == nil {
		t.Error("expected prefix rejection")
	}
}

func TestValidateAddressRejectsBadChecksum(t *testing.T) {
	raw := make([]byte, rawAddressLen)
	raw[0] = addressPrefix
	checksum := checksumOf(raw)
	checksum[0] ^= 0xff
	addr := base58.Encode(append(raw, checksum...))
	if err := ValidateAddress(addr); err == nil {
		t.Error("expected checksum rejection")
	}
}

func TestHexBase58RoundTrip(t *testing.T) {
	raw := make([]byte, rawAddressLen)
	raw[0] = addressPrefix
	for i := 1; i < rawAddressLen; i++ {
		raw[i] = byte(i)
	}
	addrHex := hex.EncodeToString(raw)

	b58, err := HexToBase58(addrHex)
	if err != nil {
		t.Fatalf("HexToBase58 failed: %v", err)
	}
	if err := ValidateAddress(b58); err != nil {
		t.Fatalf("converted address is invalid: %v", err)
	}

	back, err := Base58ToHex(b58)
	if err != nil {
		t.Fatalf("Base58ToHex failed: %v", err)
	}
	if !strings.EqualFold(back, addrHex) {
		t.Errorf("round trip gave %s, want %s", back, addrHex)
	}
}

func TestHexToBase58RejectsBadInput(t *testing.T) {
	if _, err := HexToBase58("zz"); err == nil {
		t.Error("expected rejection of non-hex input")
	}
	if _, err := HexToBase58("41ab"); err == nil {
		t.Error("expected rejection of a truncated address")
	}
	// Wrong prefix byte
	raw := make([]byte, rawAddressLen)
	if _, err := HexToBase58(hex.EncodeToString(raw)); err == nil {
		t.Error("expected rejection of a non-41 prefix")
	}
}
