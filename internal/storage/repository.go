package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"subtrack/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

var ErrNotFound = errors.New("subscription not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert persists a new subscription with sync_status pending so the
// backup worker picks it up.
func (r *SQLiteRepository) Insert(ctx context.Context, s core.Subscription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions
			(id, name, expense_type, category, currency, price,
			 billing_cycle, start_date, end_date, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, string(s.ExpenseType), string(s.Category),
		string(s.Currency), s.Price.String(), string(s.BillingCycle),
		s.StartDate.Format(dateLayout), endDateValue(s.EndDate), s.Description)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved",
		"id", s.ID, "name", s.Name, "price", s.Price, "currency", s.Currency)
	return nil
}

// Update rewrites a record, bumps its version and re-queues it for sync.
// It returns the new version number.
func (r *SQLiteRepository) Update(ctx context.Context, s core.Subscription) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE subscriptions SET
			name = ?, expense_type = ?, category = ?, currency = ?,
			price = ?, billing_cycle = ?, start_date = ?, end_date = ?,
			description = ?, version = version + 1, sync_status = 'pending',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL
		RETURNING version`,
		s.Name, string(s.ExpenseType), string(s.Category), string(s.Currency),
		s.Price.String(), string(s.BillingCycle),
		s.StartDate.Format(dateLayout), endDateValue(s.EndDate),
		s.Description, s.ID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update subscription: %w", err)
	}
	return version, nil
}

// SoftDelete hides a record from listings while keeping it available to
// the backup worker for removal from the backup sheet.
func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns a single live record by id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ? AND deleted_at IS NULL`, id)
	s, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return s, nil
}

// List returns all live records, normalized, in insertion order. A row
// that fails to parse is logged and skipped rather than aborting the
// whole listing; one corrupt record must not take the collection down.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []core.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable subscription row", "error", err)
			continue
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return out, nil
}

// ReplaceAll swaps the whole collection for the imported one in a single
// transaction; the import is all-or-nothing.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, subs []core.Subscription) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions`); err != nil {
		return fmt.Errorf("clear subscriptions: %w", err)
	}
	for _, s := range subs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subscriptions
				(id, name, expense_type, category, currency, price,
				 billing_cycle, start_date, end_date, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Name, string(s.ExpenseType), string(s.Category),
			string(s.Currency), s.Price.String(), string(s.BillingCycle),
			s.StartDate.Format(dateLayout), endDateValue(s.EndDate), s.Description); err != nil {
			return fmt.Errorf("insert imported subscription %s: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Subscription collection replaced", "count", len(subs))
	return nil
}

// PendingSubscription identifies a record the backup worker still has to
// push out.
type PendingSubscription struct {
	ID      string
	Version int64
	Deleted bool
}

// GetPendingSync returns records whose latest version has not reached the
// backup sheet yet, including soft-deleted ones awaiting removal.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSubscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, deleted_at IS NOT NULL
		FROM subscriptions
		WHERE sync_status = 'pending'
		ORDER BY updated_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending subscriptions: %w", err)
	}
	defer rows.Close()

	var out []PendingSubscription
	for rows.Next() {
		var p PendingSubscription
		if err := rows.Scan(&p.ID, &p.Version, &p.Deleted); err != nil {
			return nil, fmt.Errorf("scan pending subscription: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark subscription synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark subscription sync error: %w", err)
	}
	slog.WarnContext(ctx, "Subscription marked with sync error", "id", id)
	return nil
}

// LoadRate implements the fx rate cache: the single cached USD→KRW rate.
func (r *SQLiteRepository) LoadRate(ctx context.Context) (decimal.Decimal, time.Time, bool, error) {
	var rateStr string
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT rate, updated_at FROM exchange_rate WHERE id = 1`).Scan(&rateStr, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, time.Time{}, false, nil
	}
	if err != nil {
		return decimal.Zero, time.Time{}, false, fmt.Errorf("load exchange rate: %w", err)
	}
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return decimal.Zero, time.Time{}, false, fmt.Errorf("parse cached rate %q: %w", rateStr, err)
	}
	return rate, updatedAt, true, nil
}

// SaveRate upserts the cached rate.
func (r *SQLiteRepository) SaveRate(ctx context.Context, rate decimal.Decimal, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exchange_rate (id, rate, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET rate = excluded.rate, updated_at = excluded.updated_at`,
		rate.String(), updatedAt)
	if err != nil {
		return fmt.Errorf("save exchange rate: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, name, expense_type, category, currency, price,
	       billing_cycle, start_date, end_date, description
	FROM subscriptions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (core.Subscription, error) {
	var (
		s        core.Subscription
		expType  string
		category string
		currency string
		priceStr string
		cycle    string
		startStr string
		endStr   sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Name, &expType, &category, &currency,
		&priceStr, &cycle, &startStr, &endStr, &s.Description); err != nil {
		return core.Subscription{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("parse price %q: %w", priceStr, err)
	}
	start, err := time.ParseInLocation(dateLayout, startStr, time.UTC)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("parse start date %q: %w", startStr, err)
	}
	if endStr.Valid && endStr.String != "" {
		end, err := time.ParseInLocation(dateLayout, endStr.String, time.UTC)
		if err != nil {
			return core.Subscription{}, fmt.Errorf("parse end date %q: %w", endStr.String, err)
		}
		s.EndDate = &end
	}

	s.ExpenseType = core.ExpenseType(expType)
	s.Category = core.Category(category)
	s.Currency = core.Currency(currency)
	s.Price = price
	s.BillingCycle = core.BillingCycle(cycle)
	s.StartDate = start
	return s.Normalize(), nil
}

func endDateValue(end *time.Time) any {
	if end == nil {
		return nil
	}
	return end.Format(dateLayout)
}
