// Package feed imports RSS and Atom entries as draft articles.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

// entryNamespace seeds the ids of imported entries.
var entryNamespace = uuid.MustParse("3b8f2d71-9c4e-5a06-b1d2-7e4f6a8c0d19")

// Result counts what one import did.
type Result struct {
	Title    string
	Created  int
	Updated  int
	Skipped  int
	Entries  int
	Imported []string
}

// Importer fetches feeds and saves their entries through the service.
type Importer struct {
	svc    *creator.Service
	parser *gofeed.Parser
	log    creator.Logger
}

// NewImporter returns an Importer. A nil client uses gofeed's default.
func NewImporter(svc *creator.Service, client *http.Client, logger creator.Logger) *Importer {
	if logger == nil {
		logger = creator.NewNopLogger()
	}
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}
	return &Importer{svc: svc, parser: parser, log: logger}
}

// ImportFeed saves every entry of the feed at url as an article owned by
// owner. New entries are drafts. An entry imported before keeps its status,
// price and premium flag and gets the feed's current title and body.
func (im *Importer) ImportFeed(ctx context.Context, url string, owner model.Identity) (*Result, error) {
	if owner.IsAnonymous() {
		return nil, creator.ErrUnauthenticated
	}

	parsed, err := im.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", url, err)
	}

	result := &Result{Title: parsed.Title, Entries: len(parsed.Items)}
	for _, entry := range parsed.Items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		key := entry.GUID
		if key == "" {
			key = entry.Link
		}
		if key == "" {
			result.Skipped++
			continue
		}

		item := articleFrom(entry, owner)
		item.ID = EntryID(owner.Address, key)

		saved, created, err := im.save(owner, item)
		if err != nil {
			if errors.Is(err, creator.ErrValidation) || errors.Is(err, creator.ErrNotOwner) {
				im.log.Warn("skipping feed entry", "feed", url, "entry", key, "error", err)
				result.Skipped++
				continue
			}
			return result, err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
		result.Imported = append(result.Imported, saved.ID)
	}

	im.log.Info("feed imported",
		"feed", url,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (im *Importer) save(owner model.Identity, item *model.ContentItem) (*model.ContentItem, bool, error) {
	existing, err := im.svc.GetByID(item.ID)
	if errors.Is(err, creator.ErrNotFound) {
		saved, err := im.svc.Save(item)
		return saved, true, err
	}
	if err != nil {
		return nil, false, err
	}

	item.Status = existing.Status
	item.Price = existing.Price
	item.IsPremium = existing.IsPremium
	if item.CoverImage == "" {
		item.CoverImage = existing.CoverImage
	}
	saved, err := im.svc.EditContent(owner, item)
	return saved, false, err
}

// EntryID derives the content id for a feed entry. It depends on the owner
// so two creators importing the same feed get separate items.
func EntryID(ownerAddress, entryKey string) string {
	name := strings.ToLower(model.NormalizeAddress(ownerAddress)) + "\x00" + entryKey
	return uuid.NewSHA1(entryNamespace, []byte(name)).String()
}

func articleFrom(entry *gofeed.Item, owner model.Identity) *model.ContentItem {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = entry.Link
	}
	body := entry.Content
	if body == "" {
		body = entry.Description
	}

	tags := make([]string, 0, len(entry.Categories))
	for _, c := range entry.Categories {
		if c = strings.TrimSpace(c); c != "" {
			tags = append(tags, c)
		}
	}

	var cover string
	if entry.Image != nil {
		cover = entry.Image.URL
	}

	name := owner.Name
	if name == "" && len(entry.Authors) > 0 && entry.Authors[0] != nil {
		name = entry.Authors[0].Name
	}

	var published time.Time
	if entry.PublishedParsed != nil {
		published = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil {
		published = entry.UpdatedParsed.UTC()
	}

	return &model.ContentItem{
		Title:          title,
		Description:    entry.Description,
		Content:        body,
		ContentType:    model.ContentTypeArticle,
		CoverImage:     cover,
		Tags:           tags,
		CreatorAddress: model.NormalizeAddress(owner.Address),
		CreatorName:    name,
		CreatedAt:      published,
		Status:         model.StatusDraft,
	}
}
