// internal/app/currency_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"subwatch/internal/domain/currency"
	"subwatch/internal/infra/fx"
)

// RateSource provides exchange rate snapshots from an external provider.
type RateSource interface {
	Enabled() bool
	FetchLatest(ctx context.Context) (*fx.Snapshot, error)
}

// CurrencyService is the multi-currency normalization layer: rate lookup,
// conversion through the anchor currency, and periodic external refresh.
type CurrencyService struct {
	currencyRepo currency.Repository
	rates        RateSource
	logger       *logrus.Logger
	now          func() time.Time
}

func NewCurrencyService(cr currency.Repository, rates RateSource, logger *logrus.Logger) *CurrencyService {
	return &CurrencyService{
		currencyRepo: cr,
		rates:        rates,
		logger:       logger,
		now:          time.Now,
	}
}

// Convert converts amount between two currency rows via the anchor:
// amount / rate[from] * rate[to]. Unknown ids surface the repository's
// not-found error to the caller.
func (s *CurrencyService) Convert(ctx context.Context, amount decimal.Decimal, fromID, toID int64) (decimal.Decimal, error) {
	from, err := s.currencyRepo.GetByID(ctx, fromID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("source currency %d: %w", fromID, err)
	}
	to, err := s.currencyRepo.GetByID(ctx, toID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("target currency %d: %w", toID, err)
	}
	if !from.Rate.IsPositive() || !to.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive rate for conversion %s -> %s", from.Code, to.Code)
	}
	return amount.Div(from.Rate).Mul(to.Rate), nil
}

// RefreshRates fetches a snapshot from the external provider and writes the
// new rates. If the provider's base differs from the anchor, every rate is
// rebased by dividing through the provider's anchor rate first. Only local
// currencies whose code appears in the snapshot are touched; a failed fetch
// leaves every rate unchanged.
func (s *CurrencyService) RefreshRates(ctx context.Context) error {
	if !s.rates.Enabled() {
		s.logger.Info("FX API key not configured, skipping rate refresh")
		return nil
	}

	snap, err := s.rates.FetchLatest(ctx)
	if err != nil {
		s.logger.Errorf("Rate refresh aborted, keeping last known rates: %v", err)
		return err
	}

	rates := snap.Rates
	if snap.Base != currency.AnchorCode {
		anchor, ok := rates[currency.AnchorCode]
		if ok && anchor.IsPositive() {
			rebased := make(map[string]decimal.Decimal, len(rates))
			for code, rate := range rates {
				rebased[code] = rate.Div(anchor)
			}
			rates = rebased
		}
	}

	now := s.now()
	updated := 0
	for code, rate := range rates {
		if !rate.IsPositive() {
			s.logger.Warnf("Skipping non-positive rate %s for %s", rate, code)
			continue
		}
		rows, err := s.currencyRepo.GetByCode(ctx, code)
		if err != nil {
			s.logger.Errorf("Failed to look up currencies with code %s: %v", code, err)
			continue
		}
		for _, row := range rows {
			if err := s.currencyRepo.UpdateRate(ctx, row.ID, rate, now); err != nil {
				s.logger.Errorf("Failed to update rate for currency %d (%s): %v", row.ID, code, err)
				continue
			}
			updated++
		}
	}

	s.logger.Infof("Updated %d exchange rates from provider base %s", updated, snap.Base)
	return nil
}

// SupportedCurrencies returns the static catalog of commonly supported
// currency codes and display names. Independent of rate state.
func SupportedCurrencies() map[string]string {
	return map[string]string{
		"USD": "US Dollar",
		"EUR": "Euro",
		"GBP": "British Pound",
		"JPY": "Japanese Yen",
		"AUD": "Australian Dollar",
		"CAD": "Canadian Dollar",
		"CHF": "Swiss Franc",
		"CNY": "Chinese Yuan",
		"SEK": "Swedish Krona",
		"NZD": "New Zealand Dollar",
		"MXN": "Mexican Peso",
		"SGD": "Singapore Dollar",
		"HKD": "Hong Kong Dollar",
		"NOK": "Norwegian Krone",
		"KRW": "South Korean Won",
		"TRY": "Turkish Lira",
		"RUB": "Russian Ruble",
		"INR": "Indian Rupee",
		"BRL": "Brazilian Real",
		"ZAR": "South African Rand",
	}
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"AUD": "A$",
	"CAD": "C$",
	"CHF": "CHF",
	"CNY": "¥",
	"SEK": "kr",
	"NZD": "NZ$",
	"MXN": "MX$",
	"SGD": "S$",
	"HKD": "HK$",
	"NOK": "kr",
	"KRW": "₩",
	"TRY": "₺",
	"RUB": "₽",
	"INR": "₹",
	"BRL": "R$",
	"ZAR": "R",
}

// CurrencySymbol returns the display symbol for a code, falling back to the
// code itself.
func CurrencySymbol(code string) string {
	if symbol, ok := currencySymbols[code]; ok {
		return symbol
	}
	return code
}
