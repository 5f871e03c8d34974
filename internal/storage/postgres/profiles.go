package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/invest-be/internal/models"
)

const profileColumns = `id, email, full_name, phone, role, status, balance, referral_code, referred_by,
	bank_name, bank_account_name, bank_account_number, password_hash, created_at, updated_at`

func scanProfile(row pgx.Row) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &p.Role, &p.Status, &p.Balance, &p.ReferralCode,
		&p.ReferredBy, &p.BankName, &p.BankAccountName, &p.BankAccountNumber, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateProfile inserts a new profile row.
func (r *repo) CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	query := `
		INSERT INTO profiles (email, full_name, phone, role, status, balance, referral_code, referred_by,
			bank_name, bank_account_name, bank_account_number, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + profileColumns
	row := r.q.QueryRow(ctx, query, p.Email, p.FullName, p.Phone, p.Role, p.Status, p.Balance, p.ReferralCode,
		p.ReferredBy, p.BankName, p.BankAccountName, p.BankAccountNumber, p.PasswordHash)
	created, err := scanProfile(row)
	if err != nil {
		return models.Profile{}, mapWriteErr(err)
	}
	return created, nil
}

// GetProfile fetches a profile by id.
func (r *repo) GetProfile(ctx context.Context, id int64) (models.Profile, error) {
	row := r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	return p, mapReadErr(err)
}

// GetProfileForUpdate fetches a profile and holds a row lock for the surrounding transaction.
func (r *repo) GetProfileForUpdate(ctx context.Context, id int64) (models.Profile, error) {
	row := r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1 FOR UPDATE`, id)
	p, err := scanProfile(row)
	return p, mapReadErr(err)
}

// FindProfileByEmail fetches a profile by case-insensitive email.
func (r *repo) FindProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	row := r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1) LIMIT 1`, email)
	p, err := scanProfile(row)
	return p, mapReadErr(err)
}

// FindProfileByReferralCode fetches the owner of a referral code.
func (r *repo) FindProfileByReferralCode(ctx context.Context, code string) (models.Profile, error) {
	row := r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE upper(referral_code) = upper($1)`, code)
	p, err := scanProfile(row)
	return p, mapReadErr(err)
}

// ListProfiles returns profiles matching the filter, newest first.
func (r *repo) ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, error) {
	var (
		where []string
		args  []any
	)
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(email ILIKE $%d OR full_name ILIKE $%d OR phone ILIKE $%d)", len(args), len(args), len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + profileColumns + ` FROM profiles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProfile)
}

// ListProfileIDs returns every profile id, used for broadcasts.
func (r *repo) ListProfileIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM profiles WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (int64, error) {
		var id int64
		err := row.Scan(&id)
		return id, err
	})
}

// UpdateProfile overwrites the editable columns of a profile. Balance is only changed through SetBalance.
func (r *repo) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	query := `
		UPDATE profiles SET full_name = $2, phone = $3, role = $4, status = $5,
			bank_name = $6, bank_account_name = $7, bank_account_number = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns
	row := r.q.QueryRow(ctx, query, p.ID, p.FullName, p.Phone, p.Role, p.Status,
		p.BankName, p.BankAccountName, p.BankAccountNumber)
	updated, err := scanProfile(row)
	if err != nil {
		return models.Profile{}, mapReadErr(mapWriteErr(err))
	}
	return updated, nil
}

// SetBalance writes the reconciled wallet balance.
func (r *repo) SetBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	return expectOne(r.q.Exec(ctx, `UPDATE profiles SET balance = $2, updated_at = NOW() WHERE id = $1`, id, balance))
}
