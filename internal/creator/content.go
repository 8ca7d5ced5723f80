package creator

import (
	"fmt"
	"time"

	"creatorvault/internal/model"
)

// GetAll returns every stored item regardless of status, newest first.
func (s *Service) GetAll() ([]*model.ContentItem, error) {
	items, err := s.database.ListContent(ContentFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}
	return items, nil
}

// ListPublished returns published items matching filter.
// Any status set on filter is overridden.
func (s *Service) ListPublished(filter ContentFilter) ([]*model.ContentItem, error) {
	filter.Status = model.StatusPublished
	if filter.CreatorAddress != "" {
		filter.CreatorAddress = model.NormalizeAddress(filter.CreatorAddress)
	}
	items, err := s.database.ListContent(filter)
	if err != nil {
		return nil, fmt.Errorf("listing published content: %w", err)
	}
	return items, nil
}

// ListByCreator returns every item owned by the creator, any status.
func (s *Service) ListByCreator(creatorAddress string) ([]*model.ContentItem, error) {
	items, err := s.database.ListContent(ContentFilter{CreatorAddress: model.NormalizeAddress(creatorAddress)})
	if err != nil {
		return nil, fmt.Errorf("listing creator content: %w", err)
	}
	return items, nil
}

// GetByID returns the item with the given id or ErrNotFound.
func (s *Service) GetByID(id string) (*model.ContentItem, error) {
	item, err := s.database.FindContentByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding content: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("content %s: %w", id, ErrNotFound)
	}
	return item, nil
}

// Save replaces the item with the same id or appends a new one.
// updatedAt is stamped on every save. A missing id is generated.
func (s *Service) Save(item *model.ContentItem) (*model.ContentItem, error) {
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := s.clock.Now()
	stored := *item
	stored.Tags = append([]string(nil), item.Tags...)
	stored.CreatorAddress = model.NormalizeAddress(item.CreatorAddress)
	s.sanitize(&stored)
	if stored.ID == "" {
		stored.ID = s.idgen.New()
	}

	existing, err := s.database.FindContentByID(stored.ID)
	if err != nil {
		return nil, fmt.Errorf("checking for existing content: %w", err)
	}
	if existing != nil && stored.CreatedAt.IsZero() {
		stored.CreatedAt = existing.CreatedAt
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	saved, err := s.database.SaveContent(&stored)
	if err != nil {
		return nil, fmt.Errorf("saving content: %w", err)
	}

	if existing != nil {
		s.logger.Info("content replaced", "id", saved.ID, "status", saved.Status)
	} else {
		s.logger.Info("content created", "id", saved.ID, "status", saved.Status)
	}
	return saved, nil
}

// Delete removes the item. Purchases that referenced it stay in the ledger.
func (s *Service) Delete(id string) error {
	deleted, err := s.database.DeleteContent(id)
	if err != nil {
		return fmt.Errorf("deleting content: %w", err)
	}
	if !deleted {
		return fmt.Errorf("content %s: %w", id, ErrNotFound)
	}
	s.logger.Info("content deleted", "id", id)
	return nil
}

// IncrementViews adds one view and returns the new count.
func (s *Service) IncrementViews(id string) (int64, error) {
	return s.increment(id, CounterViews)
}

// IncrementLikes adds one like and returns the new count.
func (s *Service) IncrementLikes(id string) (int64, error) {
	return s.increment(id, CounterLikes)
}

func (s *Service) increment(id string, counter Counter) (int64, error) {
	n, found, err := s.database.IncrementContentCounter(id, counter)
	if err != nil {
		return 0, fmt.Errorf("incrementing %s: %w", counter, err)
	}
	if !found {
		return 0, fmt.Errorf("content %s: %w", id, ErrNotFound)
	}
	return n, nil
}

// CreateContent saves a new item owned by the viewer.
// Any id on the item is ignored so a viewer cannot overwrite another item.
func (s *Service) CreateContent(viewer model.Identity, item *model.ContentItem) (*model.ContentItem, error) {
	if viewer.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	created := *item
	created.ID = ""
	created.CreatedAt = time.Time{}
	created.Views, created.Likes = 0, 0
	created.CreatorAddress = viewer.Address
	if created.CreatorName == "" {
		created.CreatorName = viewer.Name
	}
	return s.Save(&created)
}

// EditContent replaces an item the viewer owns. The creator identity and
// creation time of the stored item are kept.
func (s *Service) EditContent(viewer model.Identity, item *model.ContentItem) (*model.ContentItem, error) {
	existing, err := s.GetByID(item.ID)
	if err != nil {
		return nil, err
	}
	if !s.IsOwner(existing, viewer) {
		return nil, ErrNotOwner
	}

	edited := *item
	edited.CreatorAddress = existing.CreatorAddress
	edited.CreatorName = existing.CreatorName
	edited.CreatedAt = existing.CreatedAt
	return s.Save(&edited)
}

// RemoveContent deletes an item the viewer owns.
func (s *Service) RemoveContent(viewer model.Identity, id string) error {
	existing, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if !s.IsOwner(existing, viewer) {
		return ErrNotOwner
	}
	return s.Delete(id)
}

// sanitize applies the configured HTML policy to the body and description.
func (s *Service) sanitize(item *model.ContentItem) {
	if s.opts.Sanitizer == nil {
		return
	}
	item.Content = s.opts.Sanitizer.Sanitize(item.Content)
	item.Description = s.opts.Sanitizer.Sanitize(item.Description)
}
