package vault

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// validateKey rejects checksums and names that could escape the vault layout.
// Keys arrive from HTTP paths, so this is the only guard the filesystem
// backend has against traversal.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty vault key")
	}
	if key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("invalid vault key %q", key)
	}
	return nil
}

// readExactly reads r to EOF and checks that it produced size bytes.
func readExactly(r io.Reader, size int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("size mismatch: expected %d bytes, got %d", size, n)
	}
	return buf.Bytes(), nil
}
