package exchange

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cardash/pkg/models"
)

// Repo keeps the history of successfully fetched rates.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Insert(ctx context.Context, rate models.Rate) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO exchange_rates (base, quote, value, source, fetched_at)
		VALUES (?, ?, ?, ?, ?)
	`, rate.Base, rate.Quote, rate.Value, rate.Source, rate.FetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert rate: %w", err)
	}
	return nil
}

// Latest returns the newest stored rate for the pair, or nil if none exists.
func (r *Repo) Latest(ctx context.Context, base, quote string) (*models.Rate, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT base, quote, value, source, fetched_at
		FROM exchange_rates
		WHERE base = ? AND quote = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1
	`, base, quote)

	var rate models.Rate
	var fetched time.Time
	if err := row.Scan(&rate.Base, &rate.Quote, &rate.Value, &rate.Source, &fetched); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest rate: %w", err)
	}
	rate.FetchedAt = fetched.UTC()
	return &rate, nil
}

// History lists stored rates for the pair, newest first.
func (r *Repo) History(ctx context.Context, base, quote string, limit int) ([]models.Rate, error) {
	if limit <= 0 || limit > 500 {
		limit = 24
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT base, quote, value, source, fetched_at
		FROM exchange_rates
		WHERE base = ? AND quote = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?
	`, base, quote, limit)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	out := make([]models.Rate, 0, limit)
	for rows.Next() {
		var rate models.Rate
		var fetched time.Time
		if err := rows.Scan(&rate.Base, &rate.Quote, &rate.Value, &rate.Source, &fetched); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		rate.FetchedAt = fetched.UTC()
		out = append(out, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
