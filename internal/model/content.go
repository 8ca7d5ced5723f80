package model

import (
	"fmt"
	"time"
)

// ContentType is the kind of media a ContentItem carries.
type ContentType string

const (
	ContentTypeArticle ContentType = "article"
	ContentTypeVideo   ContentType = "video"
	ContentTypeAudio   ContentType = "audio"
	ContentTypeImage   ContentType = "image"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeArticle, ContentTypeVideo, ContentTypeAudio, ContentTypeImage:
		return true
	}
	return false
}

// ContentStatus controls listing visibility. Only published items are public.
type ContentStatus string

const (
	StatusDraft     ContentStatus = "draft"
	StatusPublished ContentStatus = "published"
	StatusArchived  ContentStatus = "archived"
)

func (s ContentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ContentItem is a single creator-published work.
type ContentItem struct {
	ID             string        `db:"id" json:"id"`
	Title          string        `db:"title" json:"title"`
	Description    string        `db:"description" json:"description"`
	Content        string        `db:"body" json:"content"`
	ContentType    ContentType   `db:"content_type" json:"contentType"`
	CoverImage     string        `db:"cover_image" json:"coverImage,omitempty"`
	Tags           []string      `db:"-" json:"tags"`
	Price          Amount        `db:"price" json:"price"`
	IsPremium      bool          `db:"is_premium" json:"isPremium"`
	CreatorAddress string        `db:"creator_address" json:"creatorAddress"`
	CreatorName    string        `db:"creator_name" json:"creatorName"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
	Views          int64         `db:"views" json:"views"`
	Likes          int64         `db:"likes" json:"likes"`
	Status         ContentStatus `db:"status" json:"status"`
}

// EffectivePrice is the price a viewer must pay. Non-premium content is free
// whatever its stored price.
func (c *ContentItem) EffectivePrice() Amount {
	if !c.IsPremium {
		return Amount{}
	}
	return c.Price
}

func (c *ContentItem) IsPublished() bool { return c.Status == StatusPublished }

// Validate checks the fields a save must carry.
func (c *ContentItem) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !c.ContentType.Valid() {
		return fmt.Errorf("invalid content type %q", c.ContentType)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("invalid status %q", c.Status)
	}
	if c.Price.Sign() < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}

// Redacted returns a copy with the premium body removed, for viewers without access.
func (c *ContentItem) Redacted() *ContentItem {
	cp := *c
	cp.Tags = append([]string(nil), c.Tags...)
	cp.Content = ""
	return &cp
}
