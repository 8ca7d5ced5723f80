package creator

import (
	"fmt"

	"creatorvault/internal/model"
)

// IsOwner reports whether the viewer owns the item: a matching creator
// address, a matching non-empty creator name, or membership in the
// configured demo owner list.
func (s *Service) IsOwner(item *model.ContentItem, viewer model.Identity) bool {
	if model.SameAddress(item.CreatorAddress, viewer.Address) {
		return true
	}
	if viewer.Name != "" && item.CreatorName == viewer.Name {
		return true
	}
	for _, demo := range s.opts.DemoOwners {
		if model.SameAddress(demo, viewer.Address) {
			return true
		}
	}
	return false
}

// HasPurchased reports whether the buyer has a confirmed purchase of the content.
func (s *Service) HasPurchased(contentID string, buyerAddress string) (bool, error) {
	if buyerAddress == "" {
		return false, nil
	}
	ok, err := s.database.HasPurchase(contentID, model.NormalizeAddress(buyerAddress))
	if err != nil {
		return false, fmt.Errorf("checking purchases: %w", err)
	}
	return ok, nil
}

// CanAccess reports whether the viewer may read the item's body.
// Non-premium content is always accessible.
func (s *Service) CanAccess(item *model.ContentItem, viewer model.Identity) (bool, error) {
	if !item.IsPremium {
		return true, nil
	}
	if s.IsOwner(item, viewer) {
		return true, nil
	}
	return s.HasPurchased(item.ID, viewer.Address)
}

// GetVisible returns the item when the viewer may see it at all: published
// items are visible to everyone, drafts and archived items only to owners.
// Anything else is reported as not found.
func (s *Service) GetVisible(id string, viewer model.Identity) (*model.ContentItem, error) {
	item, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !item.IsPublished() && !s.IsOwner(item, viewer) {
		return nil, fmt.Errorf("content %s: %w", id, ErrNotFound)
	}
	return item, nil
}

// ViewContent returns the item as the viewer may see it. Premium bodies are
// redacted when the viewer has no access; the second return value reports
// whether the body is locked.
func (s *Service) ViewContent(id string, viewer model.Identity) (*model.ContentItem, bool, error) {
	item, err := s.GetVisible(id, viewer)
	if err != nil {
		return nil, false, err
	}

	ok, err := s.CanAccess(item, viewer)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return item.Redacted(), true, nil
	}
	return item, false, nil
}
