package creator_test

import (
	"strings"
	"testing"
	"time"

	"creatorvault/internal/creator"
	"creatorvault/internal/model"
	"creatorvault/internal/sanitize"
)

func sampleRecordSet(at time.Time) *creator.RecordSet {
	return &creator.RecordSet{
		Content: []*model.ContentItem{
			{
				ID: "legacy-1", Title: "Imported", ContentType: model.ContentTypeArticle,
				Status: model.StatusPublished, CreatorAddress: alice, IsPremium: true,
				Price: model.MustParseEther("0.01"), Tags: []string{"a", "b"},
				CreatedAt: at, UpdatedAt: at, Views: 12, Likes: 3,
			},
			{ID: "", Title: "no id", ContentType: model.ContentTypeArticle, Status: model.StatusDraft},
			{ID: "bad", Title: "bad type", ContentType: "podcast", Status: model.StatusDraft},
		},
		Purchases: []*model.PurchaseRecord{
			{ID: "pur-1", ContentID: "legacy-1", Amount: model.MustParseEther("0.01"), TxHash: "0x1", Timestamp: at, BuyerAddress: bob},
			{ID: "pur-2", ContentID: "", Amount: model.MustParseEther("0.01")},
		},
		Tips: []*model.TipRecord{
			{ID: "tip-1", CreatorAddress: alice, Amount: model.MustParseEther("0.1"), TxHash: "0x2", Timestamp: at, SenderAddress: carol},
		},
	}
}

func TestService_ImportRecords(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	at := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	report, err := e.svc.ImportRecords(sampleRecordSet(at))
	if err != nil {
		t.Fatalf("ImportRecords() error = %v", err)
	}
	want := creator.ImportReport{Content: 1, Purchases: 1, Tips: 1, Invalid: 3}
	if *report != want {
		t.Errorf("ImportRecords() = %+v, want %+v", *report, want)
	}

	item, err := e.svc.GetByID("legacy-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !item.CreatedAt.Equal(at) || item.Views != 12 || item.Likes != 3 {
		t.Errorf("imported item = %+v, want original timestamps and counters", item)
	}
	ok, err := e.svc.HasPurchased("legacy-1", bob)
	if err != nil {
		t.Fatalf("HasPurchased() error = %v", err)
	}
	if !ok {
		t.Error("HasPurchased() = false for imported purchase")
	}

	again, err := e.svc.ImportRecords(sampleRecordSet(at))
	if err != nil {
		t.Fatalf("second ImportRecords() error = %v", err)
	}
	if again.SkippedDuplicates != 2 || again.Purchases != 0 || again.Tips != 0 {
		t.Errorf("second ImportRecords() = %+v, want both ledger records skipped", *again)
	}

	purchases, err := e.svc.ListPurchases(bob)
	if err != nil {
		t.Fatalf("ListPurchases() error = %v", err)
	}
	if len(purchases) != 1 {
		t.Errorf("ListPurchases() = %d records, want 1", len(purchases))
	}
}

func TestService_ExportRecords(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	at := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	if _, err := e.svc.ImportRecords(sampleRecordSet(at)); err != nil {
		t.Fatalf("ImportRecords() error = %v", err)
	}
	set, err := e.svc.ExportRecords()
	if err != nil {
		t.Fatalf("ExportRecords() error = %v", err)
	}
	if len(set.Content) != 1 || len(set.Purchases) != 1 || len(set.Tips) != 1 {
		t.Fatalf("ExportRecords() = %d/%d/%d, want 1/1/1", len(set.Content), len(set.Purchases), len(set.Tips))
	}
	if got := set.Content[0].Tags; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("exported tags = %v, want [a b]", got)
	}

	// Exported records import cleanly into an empty service.
	other := newEnv(t)
	report, err := other.svc.ImportRecords(set)
	if err != nil {
		t.Fatalf("ImportRecords() error = %v", err)
	}
	if report.Content != 1 || report.Purchases != 1 || report.Tips != 1 {
		t.Errorf("re-import = %+v, want 1/1/1", *report)
	}
}

func TestService_ImportRecordsSanitizes(t *testing.T) {
	t.Parallel()
	e := newEnv(t, func(o *creator.Options) { o.Sanitizer = sanitize.NewHTML() })

	_, err := e.svc.ImportRecords(&creator.RecordSet{
		Content: []*model.ContentItem{{
			ID: "legacy-xss", Title: "Imported", ContentType: model.ContentTypeArticle,
			Status: model.StatusPublished, CreatorAddress: alice,
			Content:     "<p>hi</p><script>alert(1)</script>",
			Description: `<img src="x" onerror="alert(2)">`,
		}},
	})
	if err != nil {
		t.Fatalf("ImportRecords() error = %v", err)
	}

	got, err := e.svc.GetByID("legacy-xss")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Content != "<p>hi</p>" {
		t.Errorf("Content = %q, want %q", got.Content, "<p>hi</p>")
	}
	if strings.Contains(got.Description, "onerror") {
		t.Errorf("Description = %q, want event handler stripped", got.Description)
	}
}
