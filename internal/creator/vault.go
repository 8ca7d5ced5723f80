package creator

import (
	"errors"
	"io"
)

// ErrBlobNotFound is wrapped by vaults when a checksum or metadata item is missing.
var ErrBlobNotFound = errors.New("blob not found")

// Vault is the content-addressed blob store behind media uploads.
// All operations stream through io.Reader/io.Writer so large media is never
// held in memory by the backend.
type Vault interface {
	// PutContent stores a blob identified by its checksum.
	// Storing the same checksum multiple times is safe.
	// size is the number of bytes that will be read from r.
	PutContent(checksum string, r io.Reader, size int64) error

	// GetContent retrieves a blob by checksum and writes it to w.
	GetContent(checksum string, w io.Writer) error

	// PutMetadata stores a named metadata item for an instance.
	// version is stored alongside for consistency checks.
	// Known names: "db" (database snapshot).
	PutMetadata(instanceID string, name string, r io.Reader, size int64, version int64) error

	// GetMetadata retrieves a named metadata item for an instance and writes it to w.
	GetMetadata(instanceID string, name string, w io.Writer) error

	// GetMetadataVersion returns the version stored with a metadata item.
	// Returns 0 if nothing has been stored.
	GetMetadataVersion(instanceID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
