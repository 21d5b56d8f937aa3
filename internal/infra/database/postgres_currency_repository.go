// internal/infra/database/postgres_currency_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"subwatch/internal/domain/currency"
)

var ErrCurrencyNotFound = fmt.Errorf("currency not found")

type PostgresCurrencyRepository struct {
	db *sql.DB
}

func NewPostgresCurrencyRepository(db *sql.DB) *PostgresCurrencyRepository {
	return &PostgresCurrencyRepository{db: db}
}

const currencySelect = `SELECT id, user_id, name, code, symbol, rate, last_updated, created_at FROM currencies`

func scanCurrency(row interface{ Scan(...any) error }) (*currency.Currency, error) {
	c := currency.Currency{}
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Code, &c.Symbol, &c.Rate, &c.LastUpdated, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCurrencyRepository) GetByID(ctx context.Context, id int64) (*currency.Currency, error) {
	c, err := scanCurrency(r.db.QueryRowContext(ctx, currencySelect+` WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCurrencyNotFound
		}
		return nil, fmt.Errorf("error getting currency by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresCurrencyRepository) GetByCode(ctx context.Context, code string) ([]*currency.Currency, error) {
	rows, err := r.db.QueryContext(ctx, currencySelect+` WHERE code = $1 ORDER BY id`, code)
	if err != nil {
		return nil, fmt.Errorf("error querying currencies by code: %w", err)
	}
	defer rows.Close()
	return collectCurrencies(rows)
}

func (r *PostgresCurrencyRepository) ListAll(ctx context.Context) ([]*currency.Currency, error) {
	rows, err := r.db.QueryContext(ctx, currencySelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error querying all currencies: %w", err)
	}
	defer rows.Close()
	return collectCurrencies(rows)
}

func (r *PostgresCurrencyRepository) UpdateRate(ctx context.Context, id int64, rate decimal.Decimal, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE currencies SET rate = $1, last_updated = $2 WHERE id = $3`,
		rate, updatedAt, id)
	if err != nil {
		return fmt.Errorf("error updating currency rate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking currency rate update: %w", err)
	}
	if affected == 0 {
		return ErrCurrencyNotFound
	}
	return nil
}

func collectCurrencies(rows *sql.Rows) ([]*currency.Currency, error) {
	currencies := make([]*currency.Currency, 0)
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning currency row: %w", err)
		}
		currencies = append(currencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency rows: %w", err)
	}
	return currencies, nil
}
