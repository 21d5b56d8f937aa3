package app

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subwatch/internal/domain/currency"
	"subwatch/internal/domain/subscription"
	"subwatch/internal/domain/user"
	idb "subwatch/internal/infra/database"
)

type fakeUserRepo struct {
	users map[int64]*user.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, idb.ErrUserNotFound
	}
	return u, nil
}

type fakeSubscriptionRepo struct {
	active    []*subscription.Subscription
	inactive  []*subscription.Subscription
	overdue   []*subscription.Subscription
	byCancel  []*subscription.Subscription
	dueWithin []*subscription.Subscription

	created []*subscription.Subscription
	updated []*subscription.Subscription
}

func (f *fakeSubscriptionRepo) Create(_ context.Context, sub *subscription.Subscription) error {
	f.created = append(f.created, sub)
	return nil
}

func (f *fakeSubscriptionRepo) GetByID(_ context.Context, id int64) (*subscription.Subscription, error) {
	for _, sub := range append(append([]*subscription.Subscription{}, f.active...), f.inactive...) {
		if sub.ID == id {
			return sub, nil
		}
	}
	return nil, idb.ErrSubscriptionNotFound
}

func (f *fakeSubscriptionRepo) Update(_ context.Context, sub *subscription.Subscription) error {
	f.updated = append(f.updated, sub)
	return nil
}

func (f *fakeSubscriptionRepo) ListActiveByUser(_ context.Context, userID int64) ([]*subscription.Subscription, error) {
	return filterByUser(f.active, userID), nil
}

func (f *fakeSubscriptionRepo) ListInactiveByUser(_ context.Context, userID int64) ([]*subscription.Subscription, error) {
	return filterByUser(f.inactive, userID), nil
}

func (f *fakeSubscriptionRepo) ListActive(_ context.Context) ([]*subscription.Subscription, error) {
	return f.active, nil
}

func (f *fakeSubscriptionRepo) ListOverdue(_ context.Context, _ time.Time) ([]*subscription.Subscription, error) {
	return f.overdue, nil
}

func (f *fakeSubscriptionRepo) ListByCancellationDate(_ context.Context, _ time.Time) ([]*subscription.Subscription, error) {
	return f.byCancel, nil
}

func (f *fakeSubscriptionRepo) ListDueWithin(_ context.Context, userID int64, _, _ time.Time) ([]*subscription.Subscription, error) {
	return filterByUser(f.dueWithin, userID), nil
}

func filterByUser(subs []*subscription.Subscription, userID int64) []*subscription.Subscription {
	var out []*subscription.Subscription
	for _, sub := range subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out
}

// fakeConverter converts via a fixed factor table keyed by source currency id,
// or fails for ids listed in broken.
type fakeConverter struct {
	factors map[int64]decimal.Decimal
	broken  map[int64]bool
}

func (f *fakeConverter) Convert(_ context.Context, amount decimal.Decimal, fromID, _ int64) (decimal.Decimal, error) {
	if f.broken[fromID] {
		return decimal.Zero, errors.New("conversion unavailable")
	}
	factor, ok := f.factors[fromID]
	if !ok {
		factor = decimal.NewFromInt(1)
	}
	return amount.Mul(factor), nil
}

func monthlySub(id, userID int64, price float64, currencyID int64) *subscription.Subscription {
	return &subscription.Subscription{
		ID:         id,
		UserID:     userID,
		Name:       "sub",
		Price:      decimal.NewFromFloat(price),
		CurrencyID: currencyID,
		Cycle:      subscription.CycleMonths,
		Frequency:  1,
	}
}

func statsFixture(subs *fakeSubscriptionRepo, u *user.User, conv Converter) *StatsService {
	if conv == nil {
		conv = &fakeConverter{}
	}
	users := &fakeUserRepo{users: map[int64]*user.User{u.ID: u}}
	currencies := newFakeCurrencyRepo(
		&currency.Currency{ID: 1, Code: "USD", Symbol: "$", Rate: decimal.NewFromInt(1)},
		&currency.Currency{ID: 2, Code: "EUR", Symbol: "€", Rate: decimal.NewFromFloat(0.9)},
	)
	return NewStatsService(subs, users, currencies, conv, quietLogger())
}

func mainCurrencyUser(id int64, budget float64) *user.User {
	u := &user.User{ID: id, Username: "dana", MainCurrencyID: sql.NullInt64{Int64: 1, Valid: true}}
	if budget > 0 {
		u.Budget = decimal.NullDecimal{Decimal: decimal.NewFromFloat(budget), Valid: true}
	}
	return u
}

func TestStatsService_GetBudgetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("utilization_and_remaining", func(t *testing.T) {
		subs := &fakeSubscriptionRepo{
			active: []*subscription.Subscription{
				monthlySub(1, 1, 10, 1),
				{ID: 2, UserID: 1, Name: "annual", Price: decimal.NewFromInt(120), CurrencyID: 1,
					Cycle: subscription.CycleYears, Frequency: 1},
			},
			inactive: []*subscription.Subscription{monthlySub(3, 1, 5, 1)},
		}
		svc := statsFixture(subs, mainCurrencyUser(1, 100), nil)

		status, err := svc.GetBudgetStatus(ctx, 1)
		require.NoError(t, err)

		// 10/month + 120/year = 20/month against a 100 budget.
		assert.Equal(t, "20.00", status.CurrentSpending.StringFixed(2))
		assert.Equal(t, "20.00", status.Utilization.StringFixed(2))
		assert.Equal(t, "80.00", status.Remaining.StringFixed(2))
		assert.Equal(t, "240.00", status.ProjectedYearly.StringFixed(2))
		assert.Equal(t, "5.00", status.SavingsFromInactive.StringFixed(2))
		assert.False(t, status.Degraded)
	})

	t.Run("no_budget_means_zero_utilization", func(t *testing.T) {
		subs := &fakeSubscriptionRepo{active: []*subscription.Subscription{monthlySub(1, 1, 50, 1)}}
		svc := statsFixture(subs, mainCurrencyUser(1, 0), nil)

		status, err := svc.GetBudgetStatus(ctx, 1)
		require.NoError(t, err)

		assert.True(t, status.Utilization.IsZero())
		assert.Equal(t, "-50.00", status.Remaining.StringFixed(2))
	})

	t.Run("conversion_failure_degrades_instead_of_aborting", func(t *testing.T) {
		subs := &fakeSubscriptionRepo{
			active: []*subscription.Subscription{
				monthlySub(1, 1, 10, 1),
				monthlySub(2, 1, 9, 2), // foreign currency, conversion broken
			},
		}
		conv := &fakeConverter{broken: map[int64]bool{2: true}}
		svc := statsFixture(subs, mainCurrencyUser(1, 100), conv)

		status, err := svc.GetBudgetStatus(ctx, 1)
		require.NoError(t, err)

		// Unconverted 9 is summed as-is and the result is flagged.
		assert.Equal(t, "19.00", status.CurrentSpending.StringFixed(2))
		assert.True(t, status.Degraded)
	})
}

func TestStatsService_GetOverview(t *testing.T) {
	subs := &fakeSubscriptionRepo{
		active: []*subscription.Subscription{
			monthlySub(1, 1, 10, 1),
			monthlySub(2, 1, 30, 1),
		},
		inactive: []*subscription.Subscription{monthlySub(3, 1, 5, 1)},
	}
	svc := statsFixture(subs, mainCurrencyUser(1, 0), nil)

	overview, err := svc.GetOverview(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, overview.ActiveSubscriptions)
	assert.Equal(t, 1, overview.InactiveSubscriptions)
	assert.Equal(t, 3, overview.TotalSubscriptions)
	assert.Equal(t, "40.00", overview.TotalMonthlyCost.StringFixed(2))
	assert.Equal(t, "480.00", overview.TotalYearlyCost.StringFixed(2))
	assert.Equal(t, "20.00", overview.AverageMonthlyCost.StringFixed(2))
	assert.Equal(t, "$", overview.CurrencySymbol)
}

func TestStatsService_GetByCategory(t *testing.T) {
	streaming := sql.NullInt64{Int64: 10, Valid: true}
	subs := &fakeSubscriptionRepo{
		active: []*subscription.Subscription{
			func() *subscription.Subscription {
				s := monthlySub(1, 1, 15, 1)
				s.CategoryID = streaming
				s.CategoryName = sql.NullString{String: "Streaming", Valid: true}
				return s
			}(),
			monthlySub(2, 1, 4, 1),
			monthlySub(3, 1, 6, 1),
		},
	}
	svc := statsFixture(subs, mainCurrencyUser(1, 0), nil)

	buckets, err := svc.GetByCategory(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	// Sorted by monthly cost descending: Streaming 15, Uncategorized 10.
	assert.Equal(t, "Streaming", buckets[0].Name)
	assert.Equal(t, "15.00", buckets[0].MonthlyCost.StringFixed(2))
	require.NotNil(t, buckets[0].ID)
	assert.Equal(t, int64(10), *buckets[0].ID)

	assert.Equal(t, "Uncategorized", buckets[1].Name)
	assert.Equal(t, "10.00", buckets[1].MonthlyCost.StringFixed(2))
	assert.Equal(t, 2, buckets[1].Count)
	assert.Nil(t, buckets[1].ID)
}

func TestStatsService_GetMostExpensive(t *testing.T) {
	subs := &fakeSubscriptionRepo{
		active: []*subscription.Subscription{
			monthlySub(1, 1, 5, 1),
			monthlySub(2, 1, 50, 1),
			monthlySub(3, 1, 20, 1),
		},
	}
	svc := statsFixture(subs, mainCurrencyUser(1, 0), nil)

	ranked, err := svc.GetMostExpensive(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, int64(2), ranked[0].Subscription.ID)
	assert.Equal(t, "50.00", ranked[0].MonthlyCost.StringFixed(2))
	assert.Equal(t, "600.00", ranked[0].YearlyCost.StringFixed(2))
	assert.Equal(t, int64(3), ranked[1].Subscription.ID)
}

func TestStatsService_GetUpcomingRenewals(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	due := monthlySub(1, 1, 10, 1)
	due.NextPayment = sql.NullTime{Time: now.AddDate(0, 0, 3), Valid: true}
	noDate := monthlySub(2, 1, 10, 1)

	subs := &fakeSubscriptionRepo{dueWithin: []*subscription.Subscription{due, noDate}}
	svc := statsFixture(subs, mainCurrencyUser(1, 0), nil)
	svc.now = func() time.Time { return now }

	renewals, err := svc.GetUpcomingRenewals(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Len(t, renewals, 1)
	assert.Equal(t, 3, renewals[0].DaysUntil)
}
