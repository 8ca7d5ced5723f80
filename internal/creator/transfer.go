package creator

import (
	"fmt"

	"creatorvault/internal/model"
)

// RecordSet is a bulk copy of the content and ledger tables, used by legacy
// storage import and export.
type RecordSet struct {
	Content   []*model.ContentItem
	Purchases []*model.PurchaseRecord
	Tips      []*model.TipRecord
}

// ImportReport counts what an import changed.
type ImportReport struct {
	Content           int
	Purchases         int
	Tips              int
	SkippedDuplicates int
	Invalid           int
}

// ImportRecords loads a RecordSet. Content is upserted by id with its
// timestamps as given. New items take their counters from the set; items
// already stored keep theirs. Purchases and tips already present are skipped,
// so importing the same set twice is harmless.
func (s *Service) ImportRecords(set *RecordSet) (*ImportReport, error) {
	report := &ImportReport{}

	for _, item := range set.Content {
		if item.ID == "" {
			report.Invalid++
			continue
		}
		if err := item.Validate(); err != nil {
			s.logger.Warn("skipping invalid content", "id", item.ID, "error", err)
			report.Invalid++
			continue
		}
		imported := *item
		imported.CreatorAddress = model.NormalizeAddress(item.CreatorAddress)
		s.sanitize(&imported)
		if imported.CreatedAt.IsZero() {
			imported.CreatedAt = s.clock.Now()
		}
		if imported.UpdatedAt.IsZero() {
			imported.UpdatedAt = imported.CreatedAt
		}
		if _, err := s.database.SaveContent(&imported); err != nil {
			return report, fmt.Errorf("importing content %s: %w", item.ID, err)
		}
		report.Content++
	}

	for _, p := range set.Purchases {
		if p.ID == "" || p.ContentID == "" {
			report.Invalid++
			continue
		}
		imported := *p
		imported.BuyerAddress = model.NormalizeAddress(p.BuyerAddress)
		inserted, err := s.database.InsertPurchase(&imported)
		if err != nil {
			return report, fmt.Errorf("importing purchase %s: %w", p.ID, err)
		}
		if inserted {
			report.Purchases++
		} else {
			report.SkippedDuplicates++
		}
	}

	for _, t := range set.Tips {
		if t.ID == "" || t.CreatorAddress == "" {
			report.Invalid++
			continue
		}
		imported := *t
		imported.CreatorAddress = model.NormalizeAddress(t.CreatorAddress)
		imported.SenderAddress = model.NormalizeAddress(t.SenderAddress)
		inserted, err := s.database.InsertTip(&imported)
		if err != nil {
			return report, fmt.Errorf("importing tip %s: %w", t.ID, err)
		}
		if inserted {
			report.Tips++
		} else {
			report.SkippedDuplicates++
		}
	}

	s.logger.Info("records imported",
		"content", report.Content,
		"purchases", report.Purchases,
		"tips", report.Tips,
		"duplicates", report.SkippedDuplicates,
		"invalid", report.Invalid,
	)
	return report, nil
}

// ExportRecords returns every content item, purchase and tip.
func (s *Service) ExportRecords() (*RecordSet, error) {
	content, err := s.GetAll()
	if err != nil {
		return nil, err
	}
	purchases, err := s.database.ListAllPurchases()
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	tips, err := s.database.ListAllTips()
	if err != nil {
		return nil, fmt.Errorf("listing tips: %w", err)
	}
	return &RecordSet{Content: content, Purchases: purchases, Tips: tips}, nil
}
