package testutil

import (
	"creatorvault/internal/creator"
	"creatorvault/internal/encryption"
)

// NewTestEncryptor returns an Encryptor that frames plaintext with a header
// instead of encrypting it.
func NewTestEncryptor() creator.Encryptor {
	return encryption.NewTestEncryptor()
}
