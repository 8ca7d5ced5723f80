package testutil

import (
	"creatorvault/internal/creator"
	"creatorvault/internal/vault"
)

// NewTestVault creates an in-memory vault.
func NewTestVault() creator.Vault {
	return vault.NewMemoryVault("test-vault")
}
