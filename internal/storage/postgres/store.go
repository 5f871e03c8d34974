package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/invest-be/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// queryer is the subset of pgx shared by the pool and an open transaction.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// repo implements storage.Repository on top of either the pool or a transaction.
type repo struct {
	q queryer
}

// Store provides Postgres-backed persistence for the platform.
type Store struct {
	*repo
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{repo: &repo{q: pool}, pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// WithTx runs fn inside a database transaction, committing when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(repo storage.Repository) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&repo{q: tx})
	})
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id BIGSERIAL PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'investor',
		status TEXT NOT NULL DEFAULT 'active',
		balance NUMERIC(24,2) NOT NULL DEFAULT 0,
		referral_code TEXT UNIQUE NOT NULL,
		referred_by BIGINT REFERENCES profiles(id),
		bank_name TEXT NOT NULL DEFAULT '',
		bank_account_name TEXT NOT NULL DEFAULT '',
		bank_account_number TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS projects (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		target_amount NUMERIC(24,2) NOT NULL,
		raised_amount NUMERIC(24,2) NOT NULL DEFAULT 0,
		min_investment NUMERIC(24,2) NOT NULL DEFAULT 0,
		max_investment NUMERIC(24,2) NOT NULL DEFAULT 0,
		annual_yield_percent NUMERIC(9,4) NOT NULL,
		duration_months INT NOT NULL,
		risk_level TEXT NOT NULL DEFAULT 'medium',
		status TEXT NOT NULL DEFAULT 'draft',
		starts_at TIMESTAMPTZ,
		ends_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS investments (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES profiles(id),
		project_id BIGINT NOT NULL REFERENCES projects(id),
		amount NUMERIC(24,2) NOT NULL,
		annual_yield_percent NUMERIC(9,4) NOT NULL,
		duration_months INT NOT NULL,
		expected_return NUMERIC(24,2) NOT NULL DEFAULT 0,
		accrued_yield NUMERIC(24,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		started_at TIMESTAMPTZ NOT NULL,
		matures_at TIMESTAMPTZ NOT NULL,
		last_accrued_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS investments_user_idx ON investments (user_id);`,
	`CREATE INDEX IF NOT EXISTS investments_status_idx ON investments (status);`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES profiles(id),
		type TEXT NOT NULL,
		amount NUMERIC(24,2) NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reference TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		related_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS wallet_transactions_user_idx ON wallet_transactions (user_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS withdrawal_requests (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES profiles(id),
		amount NUMERIC(24,2) NOT NULL,
		bank_name TEXT NOT NULL,
		account_name TEXT NOT NULL,
		account_number TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		admin_note TEXT NOT NULL DEFAULT '',
		transaction_id BIGINT NOT NULL REFERENCES wallet_transactions(id),
		processed_by BIGINT REFERENCES profiles(id),
		processed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS bank_transfers (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES profiles(id),
		amount NUMERIC(24,2) NOT NULL,
		reference TEXT UNIQUE NOT NULL,
		bank_name TEXT NOT NULL DEFAULT '',
		sender_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		admin_note TEXT NOT NULL DEFAULT '',
		transaction_id BIGINT NOT NULL REFERENCES wallet_transactions(id),
		confirmed_by BIGINT REFERENCES profiles(id),
		confirmed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES profiles(id),
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'info',
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS referrals (
		id BIGSERIAL PRIMARY KEY,
		referrer_id BIGINT NOT NULL REFERENCES profiles(id),
		referred_id BIGINT UNIQUE NOT NULL REFERENCES profiles(id),
		commission_earned NUMERIC(24,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS admin_logs (
		id BIGSERIAL PRIMARY KEY,
		admin_id BIGINT NOT NULL REFERENCES profiles(id),
		action TEXT NOT NULL,
		target_type TEXT NOT NULL DEFAULT '',
		target_id BIGINT,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
}

// mapWriteErr maps unique violations to ErrAlreadyExists and foreign key
// violations (a referenced row is missing) to ErrNotFound.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return storage.ErrAlreadyExists
		case "23503":
			return fmt.Errorf("%w: %s", storage.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

func mapReadErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// expectOne turns an UPDATE/DELETE that touched nothing into ErrNotFound.
func expectOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
