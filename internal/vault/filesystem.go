package vault

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"creatorvault/internal/creator"
)

// FileSystemVault stores blobs and metadata under a root directory:
//
//	<root>/
//	  blobs/
//	    <first two chars>/<checksum>
//	  instances/
//	    <instanceID>/<name>          (metadata, e.g. the "db" snapshot)
//	    <instanceID>/<name>.version
//
// Every write goes through a temp file and a rename, so readers never see a
// partial blob.
type FileSystemVault struct {
	name         string
	root         string
	blobDir      string
	instancesDir string
}

// NewFileSystemVault creates the directory layout under root if needed.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	v := &FileSystemVault{
		name:         name,
		root:         root,
		blobDir:      filepath.Join(root, "blobs"),
		instancesDir: filepath.Join(root, "instances"),
	}
	for _, dir := range []string{v.blobDir, v.instancesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create vault directory: %w", err)
		}
	}
	return v, nil
}

func (v *FileSystemVault) Name() string { return v.name }

func (v *FileSystemVault) blobPath(checksum string) string {
	shard := checksum
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(v.blobDir, shard, checksum)
}

// PutContent stores a blob. An existing checksum is left in place; the
// reader is still drained and its size checked.
func (v *FileSystemVault) PutContent(checksum string, r io.Reader, size int64) error {
	if err := validateKey(checksum); err != nil {
		return err
	}
	dest := v.blobPath(checksum)

	if _, err := os.Stat(dest); err == nil {
		written, err := io.Copy(io.Discard, r)
		if err != nil {
			return fmt.Errorf("failed to read content: %w", err)
		}
		if written != size {
			return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create shard directory: %w", err)
	}
	return writeAtomic(dest, r, size)
}

func (v *FileSystemVault) GetContent(checksum string, w io.Writer) error {
	if err := validateKey(checksum); err != nil {
		return err
	}
	if err := copyFile(v.blobPath(checksum), w); err != nil {
		return fmt.Errorf("content %s: %w", checksum, err)
	}
	return nil
}

func (v *FileSystemVault) metadataPath(instanceID, name string) (string, error) {
	if err := validateKey(instanceID); err != nil {
		return "", err
	}
	if err := validateKey(name); err != nil {
		return "", err
	}
	return filepath.Join(v.instancesDir, instanceID, name), nil
}

// PutMetadata writes the item first and the version second, so a version
// never points at an older item.
func (v *FileSystemVault) PutMetadata(instanceID string, name string, r io.Reader, size int64, version int64) error {
	dest, err := v.metadataPath(instanceID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create instance directory: %w", err)
	}
	if err := writeAtomic(dest, r, size); err != nil {
		return err
	}

	versionData := strconv.FormatInt(version, 10)
	return writeAtomic(dest+".version", strings.NewReader(versionData), int64(len(versionData)))
}

func (v *FileSystemVault) GetMetadata(instanceID string, name string, w io.Writer) error {
	src, err := v.metadataPath(instanceID, name)
	if err != nil {
		return err
	}
	if err := copyFile(src, w); err != nil {
		return fmt.Errorf("metadata %q for instance %s: %w", name, instanceID, err)
	}
	return nil
}

// GetMetadataVersion returns 0 if no version has been written.
func (v *FileSystemVault) GetMetadataVersion(instanceID string, name string) (int64, error) {
	src, err := v.metadataPath(instanceID, name)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(src + ".version")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup checks that the layout exists and the blob directory is writable.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.blobDir, v.instancesDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}

	probe, err := os.CreateTemp(v.blobDir, ".probe-*")
	if err != nil {
		return fmt.Errorf("vault is not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// writeAtomic copies r into a temp file next to dest and renames it into place.
func writeAtomic(dest string, r io.Reader, expectedSize int64) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

func copyFile(src string, w io.Writer) error {
	f, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return creator.ErrBlobNotFound
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return nil
}

var _ creator.Vault = (*FileSystemVault)(nil)
