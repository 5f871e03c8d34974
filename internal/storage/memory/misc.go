package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/storage"
)

// Notifications

func (r *repo) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	if _, ok := st.profiles[n.UserID]; !ok {
		return models.Notification{}, storage.ErrNotFound
	}
	n.ID = st.nextID()
	n.Read = false
	n.CreatedAt = r.now()
	st.notifications[n.ID] = n
	return n, nil
}

func (r *repo) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Notification{}
	for _, n := range r.state().notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	out = newestFirst(out, func(n models.Notification) (time.Time, int64) { return n.CreatedAt, n.ID })
	if len(out) > 200 {
		out = out[:200]
	}
	return out, nil
}

func (r *repo) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	n, ok := st.notifications[id]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	n.Read = true
	st.notifications[id] = n
	return nil
}

func (r *repo) MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	count := 0
	for id, n := range st.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			st.notifications[id] = n
			count++
		}
	}
	return count, nil
}

// Referrals

func (r *repo) referralView(ref models.Referral) models.Referral {
	if p, ok := r.state().profiles[ref.ReferredID]; ok {
		ref.ReferredEmail = p.Email
		ref.ReferredName = p.FullName
	}
	return ref
}

func (r *repo) CreateReferral(ctx context.Context, ref models.Referral) (models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	for _, existing := range st.referrals {
		if existing.ReferredID == ref.ReferredID {
			return models.Referral{}, storage.ErrAlreadyExists
		}
	}
	ref.ID = st.nextID()
	ref.CreatedAt = r.now()
	st.referrals[ref.ID] = ref
	return r.referralView(ref), nil
}

func (r *repo) ListReferrals(ctx context.Context, referrerID int64) ([]models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Referral{}
	for _, ref := range r.state().referrals {
		if ref.ReferrerID == referrerID {
			out = append(out, r.referralView(ref))
		}
	}
	return newestFirst(out, func(r models.Referral) (time.Time, int64) { return r.CreatedAt, r.ID }), nil
}

func (r *repo) AddReferralCommission(ctx context.Context, referredID int64, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	for id, ref := range st.referrals {
		if ref.ReferredID == referredID {
			ref.CommissionEarned = ref.CommissionEarned.Add(amount)
			st.referrals[id] = ref
			return nil
		}
	}
	return storage.ErrNotFound
}

// Admin logs and stats

func (r *repo) CreateAdminLog(ctx context.Context, l models.AdminLog) (models.AdminLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	l.ID = st.nextID()
	l.CreatedAt = r.now()
	st.adminLogs[l.ID] = l
	return l, nil
}

func (r *repo) ListAdminLogs(ctx context.Context, limit int) ([]models.AdminLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := []models.AdminLog{}
	for _, l := range r.state().adminLogs {
		out = append(out, l)
	}
	out = newestFirst(out, func(l models.AdminLog) (time.Time, int64) { return l.CreatedAt, l.ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *repo) DashboardStats(ctx context.Context, now time.Time) (models.DashboardStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	s := models.DashboardStats{
		TotalBalance:       decimal.Zero,
		TotalInvested:      decimal.Zero,
		TotalYieldPaid:     decimal.Zero,
		TotalDeposits:      decimal.Zero,
		TotalWithdrawals:   decimal.Zero,
		PendingWithdrawals: models.CountAmount{Amount: decimal.Zero},
		PendingTransfers:   models.CountAmount{Amount: decimal.Zero},
	}

	dayAgo, weekAgo, monthAgo := now.Add(-24*time.Hour), now.AddDate(0, 0, -7), now.AddDate(0, -1, 0)
	for _, p := range st.profiles {
		s.TotalUsers++
		s.TotalBalance = s.TotalBalance.Add(p.Balance)
		if !p.CreatedAt.Before(dayAgo) {
			s.NewUsers.Day++
		}
		if !p.CreatedAt.Before(weekAgo) {
			s.NewUsers.Week++
		}
		if !p.CreatedAt.Before(monthAgo) {
			s.NewUsers.Month++
		}
	}

	investors := map[int64]struct{}{}
	for _, inv := range st.investments {
		if inv.Status == models.InvestmentActive {
			investors[inv.UserID] = struct{}{}
		}
	}
	s.ActiveInvestors = len(investors)

	for _, tx := range st.transactions {
		if tx.Status != models.TxCompleted {
			continue
		}
		switch tx.Type {
		case models.TxInvestment:
			s.TotalInvested = s.TotalInvested.Add(tx.Amount)
		case models.TxYield:
			s.TotalYieldPaid = s.TotalYieldPaid.Add(tx.Amount)
		case models.TxDeposit:
			s.TotalDeposits = s.TotalDeposits.Add(tx.Amount)
		case models.TxWithdrawal:
			s.TotalWithdrawals = s.TotalWithdrawals.Add(tx.Amount)
		}
	}

	for _, w := range st.withdrawals {
		if w.Status == models.WithdrawalPending {
			s.PendingWithdrawals.Count++
			s.PendingWithdrawals.Amount = s.PendingWithdrawals.Amount.Add(w.Amount)
		}
	}
	for _, t := range st.transfers {
		if t.Status == models.TransferPending {
			s.PendingTransfers.Count++
			s.PendingTransfers.Amount = s.PendingTransfers.Amount.Add(t.Amount)
		}
	}
	for _, p := range st.projects {
		switch p.Status {
		case models.ProjectOpen:
			s.OpenProjects++
		case models.ProjectFunded:
			s.FundedProjects++
		}
	}
	return s, nil
}
