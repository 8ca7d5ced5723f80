package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"creatorvault/internal/creator"
	"creatorvault/internal/feed"
	"creatorvault/internal/legacy"
	"creatorvault/internal/model"
)

// feedTimeout bounds a single feed fetch.
const feedTimeout = 30 * time.Second

// LegacyImport is the outcome of importing a browser storage dump.
type LegacyImport struct {
	Report   *creator.ImportReport
	Identity *model.Identity
	Skipped  []string
	Unknown  []string
}

// ImportLegacy loads a browser storage dump. Keys that fail to parse are
// skipped and logged; the rest are imported idempotently.
func (a *App) ImportLegacy(r io.Reader, source string) (*LegacyImport, error) {
	if err := a.persistOperation(source); err != nil {
		return nil, err
	}

	snap, err := legacy.Decode(r)
	if err != nil {
		return nil, a.op.Record(err)
	}
	for _, key := range snap.Skipped {
		a.logger.Warn("skipping malformed storage key", "key", key)
	}
	if snap.Identity != nil {
		a.logger.Info("storage dump identity", "key", snap.IdentityKey, "address", snap.Identity.Address)
	}

	report, err := a.service.ImportRecords(snap.Records)
	if err != nil {
		return nil, a.op.Record(err)
	}
	return &LegacyImport{
		Report:   report,
		Identity: snap.Identity,
		Skipped:  snap.Skipped,
		Unknown:  snap.Unknown,
	}, nil
}

// ExportLegacy writes every record in the browser storage layout. A non-nil
// identity is written as the signed-in user.
func (a *App) ExportLegacy(w io.Writer, identity *model.Identity) error {
	set, err := a.service.ExportRecords()
	if err != nil {
		return err
	}
	return legacy.Encode(w, set, identity)
}

// ImportFeed saves the entries of an RSS or Atom feed as drafts owned by who.
func (a *App) ImportFeed(ctx context.Context, who model.Identity, url string) (*feed.Result, error) {
	if err := a.persistOperation(url); err != nil {
		return nil, err
	}
	im := feed.NewImporter(a.service, &http.Client{Timeout: feedTimeout}, a.logger)
	result, err := im.ImportFeed(ctx, url, who)
	if err != nil {
		return nil, a.op.Record(fmt.Errorf("importing feed: %w", err))
	}
	return result, nil
}
