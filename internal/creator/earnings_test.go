package creator_test

import (
	"fmt"
	"testing"
	"time"

	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

// seedPurchase inserts a purchase record directly into the ledger.
func seedPurchase(t *testing.T, e *env, id, contentID, amount string, at time.Time) {
	t.Helper()
	inserted, err := e.db.InsertPurchase(&model.PurchaseRecord{
		ID:           id,
		ContentID:    contentID,
		Amount:       model.MustParseEther(amount),
		TxHash:       "0x" + id,
		Timestamp:    at,
		BuyerAddress: bob,
	})
	if err != nil {
		t.Fatalf("InsertPurchase() error = %v", err)
	}
	if !inserted {
		t.Fatalf("InsertPurchase(%s) was a duplicate", id)
	}
}

func TestService_CalculateCreatorEarnings(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	a := e.publish(t, alice, true, "0.01")
	b := e.publish(t, alice, true, "0.02")
	c := e.publish(t, carol, true, "0.05")

	now := e.clock.Now()
	seedPurchase(t, e, "p1", a.ID, "0.01", now)
	seedPurchase(t, e, "p2", b.ID, "0.02", now)
	seedPurchase(t, e, "p3", c.ID, "0.05", now)

	total, err := e.svc.CalculateCreatorEarnings(alice)
	if err != nil {
		t.Fatalf("CalculateCreatorEarnings() error = %v", err)
	}
	if total.String() != "0.03" {
		t.Errorf("CalculateCreatorEarnings() = %s, want 0.03", total)
	}

	none, err := e.svc.CalculateCreatorEarnings(bob)
	if err != nil {
		t.Fatalf("CalculateCreatorEarnings() error = %v", err)
	}
	if !none.IsZero() {
		t.Errorf("CalculateCreatorEarnings(bob) = %s, want 0", none)
	}
}

func TestService_CalculateTodayEarnings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		location *time.Location
		want     string
	}{
		// The clock reads 2024-01-15 10:30 UTC.
		{name: "utc", location: time.UTC, want: "0.03"},
		// At UTC+14 it is already 2024-01-16 00:30, so only the 11:00 UTC purchase counts.
		{name: "ahead of utc", location: time.FixedZone("LINT", 14*3600), want: "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEnv(t, func(o *creator.Options) { o.Location = tt.location })
			item := e.publish(t, alice, true, "0.01")

			now := e.clock.Now()
			seedPurchase(t, e, "yesterday", item.ID, "0.5", now.Add(-24*time.Hour))
			seedPurchase(t, e, "morning", item.ID, "0.01", now.Add(-10*time.Hour))
			seedPurchase(t, e, "later", item.ID, "0.02", now.Add(30*time.Minute))

			got, err := e.svc.CalculateTodayEarnings(alice)
			if err != nil {
				t.Fatalf("CalculateTodayEarnings() error = %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("CalculateTodayEarnings() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestService_GetEarningsStats(t *testing.T) {
	t.Parallel()

	t.Run("no purchases", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		stats, err := e.svc.GetEarningsStats(alice)
		if err != nil {
			t.Fatalf("GetEarningsStats() error = %v", err)
		}
		if stats.TransactionCount != 0 || !stats.AveragePerTransaction.IsZero() {
			t.Errorf("stats = %+v, want zero values", stats)
		}
		if stats.RecentPayments == nil {
			t.Error("RecentPayments = nil, want empty slice")
		}
	})

	t.Run("totals and recent payments", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		item := e.publish(t, alice, true, "0.01")

		now := e.clock.Now()
		for i := 0; i < 7; i++ {
			seedPurchase(t, e, fmt.Sprintf("p%d", i), item.ID, "0.01", now.Add(-time.Duration(i)*time.Hour))
		}
		e.gateway.QueueConfirm("0xtip")
		if _, err := e.svc.TipCreator(t.Context(), creator.TipRequest{
			CreatorAddress: alice, Amount: model.MustParseEther("0.2"), Sender: identity(bob),
		}); err != nil {
			t.Fatalf("TipCreator() error = %v", err)
		}

		stats, err := e.svc.GetEarningsStats(alice)
		if err != nil {
			t.Fatalf("GetEarningsStats() error = %v", err)
		}
		if stats.TotalEarnings.String() != "0.07" {
			t.Errorf("TotalEarnings = %s, want 0.07", stats.TotalEarnings)
		}
		if stats.TransactionCount != 7 {
			t.Errorf("TransactionCount = %d, want 7", stats.TransactionCount)
		}
		if stats.AveragePerTransaction.String() != "0.01" {
			t.Errorf("AveragePerTransaction = %s, want 0.01", stats.AveragePerTransaction)
		}
		if len(stats.RecentPayments) != 5 {
			t.Fatalf("RecentPayments = %d, want 5", len(stats.RecentPayments))
		}
		for i, p := range stats.RecentPayments {
			if want := fmt.Sprintf("p%d", i); p.ID != want {
				t.Errorf("RecentPayments[%d] = %s, want %s", i, p.ID, want)
			}
		}
		if stats.TipCount != 1 || stats.TotalTips.String() != "0.2" {
			t.Errorf("tips = %d/%s, want 1/0.2", stats.TipCount, stats.TotalTips)
		}
	})
}
