package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/invest-be/internal/models"
)

func scanReferral(row pgx.Row) (models.Referral, error) {
	var ref models.Referral
	err := row.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.ReferredEmail, &ref.ReferredName,
		&ref.CommissionEarned, &ref.CreatedAt)
	return ref, err
}

func (r *repo) CreateReferral(ctx context.Context, ref models.Referral) (models.Referral, error) {
	const query = `
		WITH inserted AS (
			INSERT INTO referrals (referrer_id, referred_id, commission_earned)
			VALUES ($1, $2, $3)
			RETURNING id, referrer_id, referred_id, commission_earned, created_at
		)
		SELECT i.id, i.referrer_id, i.referred_id, p.email, p.full_name, i.commission_earned, i.created_at
		FROM inserted i
		JOIN profiles p ON p.id = i.referred_id`
	created, err := scanReferral(r.q.QueryRow(ctx, query, ref.ReferrerID, ref.ReferredID, ref.CommissionEarned))
	if err != nil {
		return models.Referral{}, mapWriteErr(err)
	}
	return created, nil
}

func (r *repo) ListReferrals(ctx context.Context, referrerID int64) ([]models.Referral, error) {
	const query = `
		SELECT r.id, r.referrer_id, r.referred_id, p.email, p.full_name, r.commission_earned, r.created_at
		FROM referrals r
		JOIN profiles p ON p.id = r.referred_id
		WHERE r.referrer_id = $1
		ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.q.Query(ctx, query, referrerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanReferral)
}

func (r *repo) AddReferralCommission(ctx context.Context, referredID int64, amount decimal.Decimal) error {
	return expectOne(r.q.Exec(ctx,
		`UPDATE referrals SET commission_earned = commission_earned + $2 WHERE referred_id = $1`, referredID, amount))
}
