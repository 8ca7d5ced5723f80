package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"creatorvault/internal/creator"
)

// MemoryVault keeps blobs and metadata in maps. Useful for tests and the
// "memory" vault type. Safe for concurrent use.
type MemoryVault struct {
	name     string
	mu       sync.RWMutex
	blobs    map[string][]byte
	metadata map[string]memoryMetadata // "instanceID/name"
}

type memoryMetadata struct {
	data    []byte
	version int64
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:     name,
		blobs:    make(map[string][]byte),
		metadata: make(map[string]memoryMetadata),
	}
}

func (m *MemoryVault) Name() string { return m.name }

// PutContent stores a blob. Storing a checksum again replaces nothing and
// succeeds.
func (m *MemoryVault) PutContent(checksum string, r io.Reader, size int64) error {
	if err := validateKey(checksum); err != nil {
		return err
	}
	data, err := readExactly(r, size)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[checksum]; !ok {
		m.blobs[checksum] = data
	}
	return nil
}

func (m *MemoryVault) GetContent(checksum string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.blobs[checksum]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("content %s: %w", checksum, creator.ErrBlobNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

func (m *MemoryVault) PutMetadata(instanceID string, name string, r io.Reader, size int64, version int64) error {
	if err := validateKey(instanceID); err != nil {
		return err
	}
	if err := validateKey(name); err != nil {
		return err
	}
	data, err := readExactly(r, size)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[instanceID+"/"+name] = memoryMetadata{data: data, version: version}
	return nil
}

func (m *MemoryVault) GetMetadata(instanceID string, name string, w io.Writer) error {
	m.mu.RLock()
	md, ok := m.metadata[instanceID+"/"+name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("metadata %q for instance %s: %w", name, instanceID, creator.ErrBlobNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(md.data)); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// GetMetadataVersion returns 0 when nothing has been stored.
func (m *MemoryVault) GetMetadataVersion(instanceID string, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[instanceID+"/"+name].version, nil
}

func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ creator.Vault = (*MemoryVault)(nil)
