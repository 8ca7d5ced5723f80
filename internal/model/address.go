package model

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress returns the EIP-55 checksum form of a hex wallet address.
// Values that are not hex addresses are returned trimmed and otherwise unchanged.
func NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if common.IsHexAddress(addr) {
		return common.HexToAddress(addr).Hex()
	}
	return addr
}

// SameAddress reports whether a and b identify the same wallet.
// Hex addresses compare case-insensitively; empty addresses never match.
func SameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	if common.IsHexAddress(a) && common.IsHexAddress(b) {
		return common.HexToAddress(a) == common.HexToAddress(b)
	}
	return strings.EqualFold(a, b)
}

// Identity is the viewer or actor behind a request.
type Identity struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// IsAnonymous reports whether the identity carries no wallet address.
func (i Identity) IsAnonymous() bool {
	return strings.TrimSpace(i.Address) == ""
}
