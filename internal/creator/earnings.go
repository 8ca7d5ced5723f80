package creator

import (
	"fmt"
	"time"

	"creatorvault/internal/model"
)

// recentPaymentsLimit is the number of payments returned in EarningsStats.
const recentPaymentsLimit = 5

// EarningsStats summarises what a creator has earned from purchases of
// their content, plus the tips they received.
type EarningsStats struct {
	TotalEarnings         model.Amount            `json:"totalEarnings"`
	TodayEarnings         model.Amount            `json:"todayEarnings"`
	TransactionCount      int                     `json:"transactionCount"`
	AveragePerTransaction model.Amount            `json:"averagePerTransaction"`
	RecentPayments        []*model.PurchaseRecord `json:"recentPayments"`
	TotalTips             model.Amount            `json:"totalTips"`
	TipCount              int                     `json:"tipCount"`
}

// CalculateCreatorEarnings sums every purchase of content the creator owns.
func (s *Service) CalculateCreatorEarnings(creatorAddress string) (model.Amount, error) {
	purchases, err := s.creatorPurchases(creatorAddress)
	if err != nil {
		return model.Amount{}, err
	}
	return sumPurchases(purchases), nil
}

// CalculateTodayEarnings sums the creator's purchases whose timestamp falls on
// the current calendar day in the configured location.
func (s *Service) CalculateTodayEarnings(creatorAddress string) (model.Amount, error) {
	purchases, err := s.creatorPurchases(creatorAddress)
	if err != nil {
		return model.Amount{}, err
	}
	return sumPurchases(s.filterToday(purchases)), nil
}

// GetEarningsStats bundles totals, today's earnings, counts, the average per
// transaction and the most recent payments.
func (s *Service) GetEarningsStats(creatorAddress string) (*EarningsStats, error) {
	purchases, err := s.creatorPurchases(creatorAddress)
	if err != nil {
		return nil, err
	}
	tips, err := s.ListTips(creatorAddress)
	if err != nil {
		return nil, err
	}

	total := sumPurchases(purchases)
	stats := &EarningsStats{
		TotalEarnings:         total,
		TodayEarnings:         sumPurchases(s.filterToday(purchases)),
		TransactionCount:      len(purchases),
		AveragePerTransaction: total.DivInt(int64(len(purchases))),
		RecentPayments:        append([]*model.PurchaseRecord{}, purchases[:min(len(purchases), recentPaymentsLimit)]...),
		TipCount:              len(tips),
	}
	for _, tip := range tips {
		stats.TotalTips = stats.TotalTips.Add(tip.Amount)
	}
	return stats, nil
}

// creatorPurchases returns purchases of the creator's content, newest first.
func (s *Service) creatorPurchases(creatorAddress string) ([]*model.PurchaseRecord, error) {
	purchases, err := s.database.ListPurchasesForCreator(model.NormalizeAddress(creatorAddress))
	if err != nil {
		return nil, fmt.Errorf("listing creator purchases: %w", err)
	}
	return purchases, nil
}

func (s *Service) filterToday(purchases []*model.PurchaseRecord) []*model.PurchaseRecord {
	now := s.clock.Now().In(s.opts.Location)
	year, month, day := now.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, s.opts.Location)
	end := start.AddDate(0, 0, 1)

	var today []*model.PurchaseRecord
	for _, p := range purchases {
		if !p.Timestamp.Before(start) && p.Timestamp.Before(end) {
			today = append(today, p)
		}
	}
	return today
}

func sumPurchases(purchases []*model.PurchaseRecord) model.Amount {
	var total model.Amount
	for _, p := range purchases {
		total = total.Add(p.Amount)
	}
	return total
}
