// internal/app/stats_service.go
package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"subwatch/internal/billing"
	"subwatch/internal/domain/currency"
	"subwatch/internal/domain/subscription"
	"subwatch/internal/domain/user"
)

// Converter converts an amount between two currency ids.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, fromID, toID int64) (decimal.Decimal, error)
}

// SpendResult is an aggregate monetary total. Degraded is set when at least
// one subscription could not be converted into the user's main currency and
// its unconverted equivalent was summed instead.
type SpendResult struct {
	Total    decimal.Decimal
	Degraded bool
}

// BudgetStatus summarizes spending against a user's monthly budget.
type BudgetStatus struct {
	MonthlyBudget       decimal.Decimal
	CurrentSpending     decimal.Decimal
	Utilization         decimal.Decimal // percent; 0 when no budget is set
	Remaining           decimal.Decimal
	ProjectedYearly     decimal.Decimal
	SavingsFromInactive decimal.Decimal
	Degraded            bool
}

// Overview is the headline statistics block for a user.
type Overview struct {
	ActiveSubscriptions   int
	InactiveSubscriptions int
	TotalSubscriptions    int
	TotalMonthlyCost      decimal.Decimal
	TotalYearlyCost       decimal.Decimal
	AverageMonthlyCost    decimal.Decimal
	CurrencySymbol        string
	Degraded              bool
}

// Bucket is one group in a category or payment method breakdown.
type Bucket struct {
	ID          *int64 // nil for the sentinel bucket
	Name        string
	MonthlyCost decimal.Decimal
	YearlyCost  decimal.Decimal
	Count       int
}

// RankedSubscription pairs a subscription with its normalized costs.
type RankedSubscription struct {
	Subscription *subscription.Subscription
	MonthlyCost  decimal.Decimal
	YearlyCost   decimal.Decimal
}

// UpcomingRenewal is a subscription due within a lookahead window.
type UpcomingRenewal struct {
	Subscription *subscription.Subscription
	DaysUntil    int
}

// StatsService derives spend, utilization and breakdown figures from a user's
// subscription set. All monetary outputs are rounded to 2 decimal places at
// the boundary; internal accumulation keeps full precision.
type StatsService struct {
	subscriptionRepo subscription.Repository
	userRepo         user.Repository
	currencyRepo     currency.Repository
	converter        Converter
	logger           *logrus.Logger
	now              func() time.Time
}

func NewStatsService(
	sr subscription.Repository,
	ur user.Repository,
	cr currency.Repository,
	conv Converter,
	logger *logrus.Logger,
) *StatsService {
	return &StatsService{
		subscriptionRepo: sr,
		userRepo:         ur,
		currencyRepo:     cr,
		converter:        conv,
		logger:           logger,
		now:              time.Now,
	}
}

// monthlyCostInMainCurrency normalizes one subscription to its monthly
// equivalent in the user's main currency. A conversion failure falls back to
// the unconverted equivalent and reports degraded=true; it never aborts.
func (s *StatsService) monthlyCostInMainCurrency(ctx context.Context, u *user.User, sub *subscription.Subscription) (decimal.Decimal, bool) {
	monthly, err := billing.MonthlyCost(sub.Price, sub.Cycle, sub.Frequency)
	if err != nil {
		s.logger.Warnf("Subscription %d has invalid billing cycle, counting as zero: %v", sub.ID, err)
		return decimal.Zero, true
	}

	if !u.MainCurrencyID.Valid || sub.CurrencyID == u.MainCurrencyID.Int64 {
		return monthly, false
	}

	converted, err := s.converter.Convert(ctx, monthly, sub.CurrencyID, u.MainCurrencyID.Int64)
	if err != nil {
		s.logger.Warnf("Currency conversion failed for subscription %d, using unconverted amount: %v", sub.ID, err)
		return monthly, true
	}
	return converted, false
}

func (s *StatsService) sumMonthly(ctx context.Context, u *user.User, subs []*subscription.Subscription) SpendResult {
	total := decimal.Zero
	degraded := false
	for _, sub := range subs {
		monthly, d := s.monthlyCostInMainCurrency(ctx, u, sub)
		total = total.Add(monthly)
		degraded = degraded || d
	}
	return SpendResult{Total: total, Degraded: degraded}
}

// MonthlySpending sums the monthly equivalents of a user's active
// subscriptions, converted into the user's main currency.
func (s *StatsService) MonthlySpending(ctx context.Context, userID int64) (SpendResult, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return SpendResult{}, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	subs, err := s.subscriptionRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return SpendResult{}, fmt.Errorf("failed to list active subscriptions: %w", err)
	}

	res := s.sumMonthly(ctx, u, subs)
	res.Total = res.Total.Round(2)
	return res, nil
}

// SavingsFromInactive sums the monthly equivalents of the inactive subset.
func (s *StatsService) SavingsFromInactive(ctx context.Context, userID int64) (SpendResult, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return SpendResult{}, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	subs, err := s.subscriptionRepo.ListInactiveByUser(ctx, userID)
	if err != nil {
		return SpendResult{}, fmt.Errorf("failed to list inactive subscriptions: %w", err)
	}

	res := s.sumMonthly(ctx, u, subs)
	res.Total = res.Total.Round(2)
	return res, nil
}

// GetBudgetStatus reports spending against the user's configured budget.
// Utilization is exactly zero when no positive budget is set.
func (s *StatsService) GetBudgetStatus(ctx context.Context, userID int64) (*BudgetStatus, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	active, err := s.subscriptionRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}
	inactive, err := s.subscriptionRepo.ListInactiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive subscriptions: %w", err)
	}

	spending := s.sumMonthly(ctx, u, active)
	savings := s.sumMonthly(ctx, u, inactive)

	budget := decimal.Zero
	if u.Budget.Valid {
		budget = u.Budget.Decimal
	}

	utilization := decimal.Zero
	if budget.IsPositive() {
		utilization = spending.Total.Div(budget).Mul(decimal.NewFromInt(100))
	}

	return &BudgetStatus{
		MonthlyBudget:       budget.Round(2),
		CurrentSpending:     spending.Total.Round(2),
		Utilization:         utilization.Round(2),
		Remaining:           budget.Sub(spending.Total).Round(2),
		ProjectedYearly:     spending.Total.Mul(decimal.NewFromInt(12)).Round(2),
		SavingsFromInactive: savings.Total.Round(2),
		Degraded:            spending.Degraded || savings.Degraded,
	}, nil
}

// GetOverview returns headline counts and totals for a user.
func (s *StatsService) GetOverview(ctx context.Context, userID int64) (*Overview, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	active, err := s.subscriptionRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}
	inactive, err := s.subscriptionRepo.ListInactiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive subscriptions: %w", err)
	}

	spending := s.sumMonthly(ctx, u, active)

	average := decimal.Zero
	if len(active) > 0 {
		average = spending.Total.Div(decimal.NewFromInt(int64(len(active))))
	}

	symbol := "$"
	if u.MainCurrencyID.Valid {
		if cur, err := s.currencyRepo.GetByID(ctx, u.MainCurrencyID.Int64); err == nil {
			symbol = cur.Symbol
		}
	}

	return &Overview{
		ActiveSubscriptions:   len(active),
		InactiveSubscriptions: len(inactive),
		TotalSubscriptions:    len(active) + len(inactive),
		TotalMonthlyCost:      spending.Total.Round(2),
		TotalYearlyCost:       spending.Total.Mul(decimal.NewFromInt(12)).Round(2),
		AverageMonthlyCost:    average.Round(2),
		CurrencySymbol:        symbol,
		Degraded:              spending.Degraded,
	}, nil
}

// GetByCategory breaks active spending down by category. Subscriptions
// without a category land in a single "Uncategorized" bucket. Buckets are
// sorted by monthly cost descending.
func (s *StatsService) GetByCategory(ctx context.Context, userID int64) ([]*Bucket, error) {
	return s.breakdown(ctx, userID, func(sub *subscription.Subscription) (*int64, string) {
		if !sub.CategoryID.Valid {
			return nil, "Uncategorized"
		}
		id := sub.CategoryID.Int64
		name := sub.CategoryName.String
		if name == "" {
			name = "Uncategorized"
		}
		return &id, name
	})
}

// GetByPaymentMethod breaks active spending down by payment method, with a
// "No Payment Method" sentinel bucket.
func (s *StatsService) GetByPaymentMethod(ctx context.Context, userID int64) ([]*Bucket, error) {
	return s.breakdown(ctx, userID, func(sub *subscription.Subscription) (*int64, string) {
		if !sub.PaymentMethodID.Valid {
			return nil, "No Payment Method"
		}
		id := sub.PaymentMethodID.Int64
		name := sub.PaymentMethodName.String
		if name == "" {
			name = "No Payment Method"
		}
		return &id, name
	})
}

func (s *StatsService) breakdown(ctx context.Context, userID int64, keyFn func(*subscription.Subscription) (*int64, string)) ([]*Bucket, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	subs, err := s.subscriptionRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}

	twelve := decimal.NewFromInt(12)
	buckets := make(map[string]*Bucket)
	for _, sub := range subs {
		id, name := keyFn(sub)
		monthly, _ := s.monthlyCostInMainCurrency(ctx, u, sub)

		b, ok := buckets[name]
		if !ok {
			b = &Bucket{ID: id, Name: name}
			buckets[name] = b
		}
		b.MonthlyCost = b.MonthlyCost.Add(monthly)
		b.YearlyCost = b.YearlyCost.Add(monthly.Mul(twelve))
		b.Count++
	}

	result := make([]*Bucket, 0, len(buckets))
	for _, b := range buckets {
		b.MonthlyCost = b.MonthlyCost.Round(2)
		b.YearlyCost = b.YearlyCost.Round(2)
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MonthlyCost.GreaterThan(result[j].MonthlyCost)
	})
	return result, nil
}

// GetMostExpensive returns the user's costliest active subscriptions by
// monthly equivalent, truncated to limit.
func (s *StatsService) GetMostExpensive(ctx context.Context, userID int64, limit int) ([]*RankedSubscription, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	subs, err := s.subscriptionRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}

	ranked := make([]*RankedSubscription, 0, len(subs))
	for _, sub := range subs {
		monthly, _ := s.monthlyCostInMainCurrency(ctx, u, sub)
		ranked = append(ranked, &RankedSubscription{
			Subscription: sub,
			MonthlyCost:  monthly.Round(2),
			YearlyCost:   monthly.Mul(decimal.NewFromInt(12)).Round(2),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].MonthlyCost.GreaterThan(ranked[j].MonthlyCost)
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// GetUpcomingRenewals lists active subscriptions due within the next N days,
// sorted by due date.
func (s *StatsService) GetUpcomingRenewals(ctx context.Context, userID int64, days int) ([]*UpcomingRenewal, error) {
	now := s.now()
	subs, err := s.subscriptionRepo.ListDueWithin(ctx, userID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	renewals := make([]*UpcomingRenewal, 0, len(subs))
	for _, sub := range subs {
		if !sub.NextPayment.Valid {
			continue
		}
		renewals = append(renewals, &UpcomingRenewal{
			Subscription: sub,
			DaysUntil:    billing.DaysUntil(now, sub.NextPayment.Time),
		})
	}
	return renewals, nil
}
