package creator_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"creatorvault/internal/creator"
	"creatorvault/internal/encryption"
	"creatorvault/internal/model"
	"creatorvault/internal/testutil"
)

func sha(s string) string {
	return testutil.SHA256Hex([]byte(s))
}

func TestService_UploadMedia(t *testing.T) {
	t.Parallel()

	t.Run("plain upload", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, func(o *creator.Options) { o.GatewayURL = "https://gateway.example/ipfs/" })

		media, err := e.svc.UploadMedia(creator.MediaUpload{
			Uploader: identity(alice), Filename: "cover.png", ContentType: "image/png",
		}, strings.NewReader("png bytes"))
		if err != nil {
			t.Fatalf("UploadMedia() error = %v", err)
		}
		if media.Hash != sha("png bytes") {
			t.Errorf("Hash = %s, want sha256 of the plaintext", media.Hash)
		}
		if media.URL != "https://gateway.example/ipfs/"+media.Hash {
			t.Errorf("URL = %q", media.URL)
		}
		if media.Size != int64(len("png bytes")) || media.Encrypted {
			t.Errorf("media = %+v, want plain record of 9 bytes", media)
		}

		var buf bytes.Buffer
		if err := e.vault.GetContent(media.Hash, &buf); err != nil {
			t.Fatalf("GetContent() error = %v", err)
		}
		if buf.String() != "png bytes" {
			t.Errorf("vault blob = %q, want plaintext", buf.String())
		}
	})

	t.Run("duplicate upload returns the first record", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		first, err := e.svc.UploadMedia(creator.MediaUpload{Uploader: identity(alice), Filename: "a.txt"}, strings.NewReader("same"))
		if err != nil {
			t.Fatalf("UploadMedia() error = %v", err)
		}
		second, err := e.svc.UploadMedia(creator.MediaUpload{Uploader: identity(bob), Filename: "b.txt"}, strings.NewReader("same"))
		if err != nil {
			t.Fatalf("UploadMedia() error = %v", err)
		}
		if second.Filename != first.Filename || second.UploaderAddress != alice {
			t.Errorf("second upload = %+v, want the first record", second)
		}
	})

	t.Run("encrypted upload", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		media, err := e.svc.UploadMedia(creator.MediaUpload{Uploader: identity(alice), Encrypt: true}, strings.NewReader("premium video"))
		if err != nil {
			t.Fatalf("UploadMedia() error = %v", err)
		}
		if !media.Encrypted {
			t.Error("Encrypted = false, want true")
		}

		var stored bytes.Buffer
		if err := e.vault.GetContent(media.Hash, &stored); err != nil {
			t.Fatalf("GetContent() error = %v", err)
		}
		if stored.String() == "premium video" {
			t.Error("vault holds plaintext for an encrypted upload")
		}

		var out bytes.Buffer
		if _, err := e.svc.FetchMedia(media.Hash, &out, nil); !errors.Is(err, creator.ErrMediaLocked) {
			t.Errorf("FetchMedia() without key error = %v, want ErrMediaLocked", err)
		}
		if _, err := e.svc.FetchMedia(media.Hash, &out, encryption.TestDecryptionContext{}); err != nil {
			t.Fatalf("FetchMedia() error = %v", err)
		}
		if out.String() != "premium video" {
			t.Errorf("FetchMedia() = %q, want plaintext", out.String())
		}
	})

	t.Run("rejections", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, func(o *creator.Options) { o.MaxUploadSize = 4 })

		if _, err := e.svc.UploadMedia(creator.MediaUpload{}, strings.NewReader("x")); !errors.Is(err, creator.ErrUnauthenticated) {
			t.Errorf("UploadMedia(anonymous) error = %v, want ErrUnauthenticated", err)
		}
		if _, err := e.svc.UploadMedia(creator.MediaUpload{Uploader: identity(alice)}, strings.NewReader("too large")); !errors.Is(err, creator.ErrValidation) {
			t.Errorf("UploadMedia(oversized) error = %v, want ErrValidation", err)
		}
		if _, err := e.svc.UploadMedia(creator.MediaUpload{Uploader: identity(alice)}, strings.NewReader("four")); err != nil {
			t.Errorf("UploadMedia(at limit) error = %v", err)
		}
	})
}

func TestService_FetchMedia(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	var out bytes.Buffer
	if _, err := e.svc.FetchMedia(sha("nothing"), &out, nil); !errors.Is(err, creator.ErrNotFound) {
		t.Errorf("FetchMedia(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := e.svc.FindMedia(sha("nothing")); !errors.Is(err, creator.ErrNotFound) {
		t.Errorf("FindMedia(unknown) error = %v, want ErrNotFound", err)
	}

	// A record whose blob never reached the vault reads as not found.
	hash := sha("orphan")
	if err := e.db.CreateMedia(&model.MediaObject{Hash: hash, Size: 6, CreatedAt: e.clock.Now()}); err != nil {
		t.Fatalf("CreateMedia() error = %v", err)
	}
	if _, err := e.svc.FetchMedia(hash, &out, nil); !errors.Is(err, creator.ErrNotFound) {
		t.Errorf("FetchMedia(orphan) error = %v, want ErrNotFound", err)
	}

	media, err := e.svc.UploadMedia(creator.MediaUpload{Uploader: identity(alice), ContentType: "audio/mpeg"}, strings.NewReader("mp3"))
	if err != nil {
		t.Fatalf("UploadMedia() error = %v", err)
	}
	out.Reset()
	got, err := e.svc.FetchMedia(media.Hash, &out, nil)
	if err != nil {
		t.Fatalf("FetchMedia() error = %v", err)
	}
	if out.String() != "mp3" || got.ContentType != "audio/mpeg" {
		t.Errorf("FetchMedia() = %q %q, want mp3 audio/mpeg", out.String(), got.ContentType)
	}
}
