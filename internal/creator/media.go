package creator

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"creatorvault/internal/model"
)

// MediaUpload describes a blob being added to the vault.
type MediaUpload struct {
	Uploader    model.Identity
	Filename    string
	ContentType string
	// Encrypt stores the blob encrypted, for premium media.
	Encrypt bool
}

// UploadMedia stores a blob in the vault under the SHA-256 of its plaintext
// and records it. Uploading the same bytes twice returns the first record.
func (s *Service) UploadMedia(upload MediaUpload, r io.Reader) (*model.MediaObject, error) {
	if upload.Uploader.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if s.vault == nil {
		return nil, fmt.Errorf("no vault configured")
	}

	limited := r
	if s.opts.MaxUploadSize > 0 {
		limited = io.LimitReader(r, s.opts.MaxUploadSize+1)
	}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if s.opts.MaxUploadSize > 0 && int64(len(data)) > s.opts.MaxUploadSize {
		return nil, fmt.Errorf("%w: upload exceeds %d bytes", ErrValidation, s.opts.MaxUploadSize)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	existing, err := s.database.FindMediaByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("checking for existing media: %w", err)
	}
	if existing != nil {
		s.logger.Debug("media deduplicated", "hash", hash)
		existing.URL = s.mediaURL(hash)
		return existing, nil
	}

	stored := data
	if upload.Encrypt {
		if s.encryptor == nil {
			return nil, fmt.Errorf("encryption requested but no encryptor configured")
		}
		var buf bytes.Buffer
		if err := s.encryptor.Encrypt(bytes.NewReader(data), &buf); err != nil {
			return nil, fmt.Errorf("encrypting media: %w", err)
		}
		stored = buf.Bytes()
	}

	if err := s.vault.PutContent(hash, bytes.NewReader(stored), int64(len(stored))); err != nil {
		return nil, fmt.Errorf("uploading to vault: %w", err)
	}

	media := &model.MediaObject{
		Hash:            hash,
		Filename:        upload.Filename,
		ContentType:     upload.ContentType,
		Size:            int64(len(data)),
		Encrypted:       upload.Encrypt,
		UploaderAddress: model.NormalizeAddress(upload.Uploader.Address),
		CreatedAt:       s.clock.Now(),
	}
	if err := s.database.CreateMedia(media); err != nil {
		return nil, fmt.Errorf("recording media: %w", err)
	}
	media.URL = s.mediaURL(hash)

	s.logger.Info("media uploaded", "hash", hash, "size", media.Size, "encrypted", media.Encrypted)
	return media, nil
}

// FetchMedia writes the plaintext of a blob to w. Encrypted blobs need an
// unlocked DecryptionContext.
func (s *Service) FetchMedia(hash string, w io.Writer, dec DecryptionContext) (*model.MediaObject, error) {
	media, err := s.database.FindMediaByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("finding media: %w", err)
	}
	if media == nil {
		return nil, fmt.Errorf("media %s: %w", hash, ErrNotFound)
	}
	if media.Encrypted && dec == nil {
		return nil, ErrMediaLocked
	}
	media.URL = s.mediaURL(hash)

	if !media.Encrypted {
		if err := s.vault.GetContent(hash, w); err != nil {
			return nil, vaultReadError(hash, err)
		}
		return media, nil
	}

	var ciphertext bytes.Buffer
	if err := s.vault.GetContent(hash, &ciphertext); err != nil {
		return nil, vaultReadError(hash, err)
	}
	if err := dec.Decrypt(&ciphertext, w); err != nil {
		return nil, fmt.Errorf("decrypting media: %w", err)
	}
	return media, nil
}

// FindMedia returns the media record for a hash or ErrNotFound.
func (s *Service) FindMedia(hash string) (*model.MediaObject, error) {
	media, err := s.database.FindMediaByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("finding media: %w", err)
	}
	if media == nil {
		return nil, fmt.Errorf("media %s: %w", hash, ErrNotFound)
	}
	media.URL = s.mediaURL(hash)
	return media, nil
}

// vaultReadError reports a recorded blob missing from the vault as not found.
func vaultReadError(hash string, err error) error {
	if errors.Is(err, ErrBlobNotFound) {
		return fmt.Errorf("media %s missing from vault: %w", hash, ErrNotFound)
	}
	return fmt.Errorf("reading from vault: %w", err)
}

func (s *Service) mediaURL(hash string) string {
	if s.opts.GatewayURL == "" {
		return ""
	}
	return strings.TrimRight(s.opts.GatewayURL, "/") + "/" + hash
}
