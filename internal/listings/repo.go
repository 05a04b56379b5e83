package listings

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"cardash/pkg/models"
)

// Repo archives listing rows in SQLite so a dataset can be served without the
// source CSV file.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// ReplaceAll swaps the archived rows for the given table in one transaction.
func (r *Repo) ReplaceAll(ctx context.Context, t *Table) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM listings`); err != nil {
		return fmt.Errorf("clear listings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (seq, model, year, price, transmission, mileage, fuel_type, tax, mpg, engine_size, manufacturer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for i, row := range t.Rows() {
		if _, err := stmt.ExecContext(
			ctx,
			i,
			row.Model,
			nullYear(row.Year),
			nullPrice(row.Price),
			row.Transmission,
			row.Mileage,
			row.FuelType,
			row.Tax,
			row.MPG,
			row.EngineSize,
			row.Manufacturer,
		); err != nil {
			return fmt.Errorf("insert listing %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LoadTable reads every archived row back in insertion order.
func (r *Repo) LoadTable(ctx context.Context) (*Table, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT model, year, price, transmission, mileage, fuel_type, tax, mpg, engine_size, manufacturer
		FROM listings
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var out []models.Listing
	for rows.Next() {
		var (
			l     models.Listing
			year  sql.NullInt64
			price sql.NullFloat64
		)
		if err := rows.Scan(
			&l.Model, &year, &price, &l.Transmission, &l.Mileage,
			&l.FuelType, &l.Tax, &l.MPG, &l.EngineSize, &l.Manufacturer,
		); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		if year.Valid {
			l.Year = int(year.Int64)
		}
		l.Price = math.NaN()
		if price.Valid {
			l.Price = price.Float64
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return NewTable(out), nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return total, nil
}

func nullYear(y int) sql.NullInt64 {
	if y == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(y), Valid: true}
}

func nullPrice(p float64) sql.NullFloat64 {
	if math.IsNaN(p) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p, Valid: true}
}
