// Package memory is a mutex-guarded, map-backed storage.Store. It serves local
// runs without Postgres and the service and handler tests.
package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type state struct {
	seq           int64
	profiles      map[int64]models.Profile
	projects      map[int64]models.Project
	investments   map[int64]models.Investment
	transactions  map[int64]models.WalletTransaction
	withdrawals   map[int64]models.WithdrawalRequest
	transfers     map[int64]models.BankTransfer
	notifications map[int64]models.Notification
	referrals     map[int64]models.Referral
	adminLogs     map[int64]models.AdminLog
}

func newState() *state {
	return &state{
		profiles:      map[int64]models.Profile{},
		projects:      map[int64]models.Project{},
		investments:   map[int64]models.Investment{},
		transactions:  map[int64]models.WalletTransaction{},
		withdrawals:   map[int64]models.WithdrawalRequest{},
		transfers:     map[int64]models.BankTransfer{},
		notifications: map[int64]models.Notification{},
		referrals:     map[int64]models.Referral{},
		adminLogs:     map[int64]models.AdminLog{},
	}
}

func (s *state) clone() *state {
	return &state{
		seq:           s.seq,
		profiles:      maps.Clone(s.profiles),
		projects:      maps.Clone(s.projects),
		investments:   maps.Clone(s.investments),
		transactions:  maps.Clone(s.transactions),
		withdrawals:   maps.Clone(s.withdrawals),
		transfers:     maps.Clone(s.transfers),
		notifications: maps.Clone(s.notifications),
		referrals:     maps.Clone(s.referrals),
		adminLogs:     maps.Clone(s.adminLogs),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// repo implements storage.Repository over shared state. The Store version
// locks per call; the transactional version runs while the Store lock is held.
type repo struct {
	owner *Store
	mu    sync.Locker
}

// Store is an in-memory storage.Store.
type Store struct {
	*repo
	mu    sync.Mutex
	st    *state
	clock func() time.Time
}

// New returns an empty store.
func New() *Store {
	s := &Store{st: newState(), clock: time.Now}
	s.repo = &repo{owner: s, mu: &s.mu}
	return s
}

// SetClock overrides the timestamp source, used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = now
}

// Close is a no-op.
func (s *Store) Close() {}

// WithTx runs fn with exclusive access and restores the previous state when fn
// fails or ctx is done before commit.
func (s *Store) WithTx(ctx context.Context, fn func(repo storage.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&repo{owner: s, mu: noopLocker{}}); err != nil {
		s.st = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (r *repo) state() *state {
	return r.owner.st
}

func (r *repo) now() time.Time {
	return r.owner.clock().UTC()
}

// newestFirst orders by created_at desc then id desc, matching the Postgres store.
func newestFirst[T any](items []T, key func(T) (time.Time, int64)) []T {
	sort.Slice(items, func(i, j int) bool {
		ti, ii := key(items[i])
		tj, ij := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return ii > ij
	})
	return items
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Profiles

func (r *repo) CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	for _, existing := range st.profiles {
		if strings.EqualFold(existing.Email, p.Email) || strings.EqualFold(existing.ReferralCode, p.ReferralCode) {
			return models.Profile{}, storage.ErrAlreadyExists
		}
	}
	p.ID = st.nextID()
	p.CreatedAt = r.now()
	p.UpdatedAt = p.CreatedAt
	p.Balance = p.Balance.Round(2)
	st.profiles[p.ID] = p
	return p, nil
}

func (r *repo) GetProfile(ctx context.Context, id int64) (models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state().profiles[id]
	if !ok {
		return models.Profile{}, storage.ErrNotFound
	}
	return p, nil
}

func (r *repo) GetProfileForUpdate(ctx context.Context, id int64) (models.Profile, error) {
	return r.GetProfile(ctx, id)
}

func (r *repo) FindProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.state().profiles {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return models.Profile{}, storage.ErrNotFound
}

func (r *repo) FindProfileByReferralCode(ctx context.Context, code string) (models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.state().profiles {
		if strings.EqualFold(p.ReferralCode, code) {
			return p, nil
		}
	}
	return models.Profile{}, storage.ErrNotFound
}

func (r *repo) ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	search := strings.TrimSpace(filter.Search)
	out := []models.Profile{}
	for _, p := range r.state().profiles {
		if search != "" && !containsFold(p.Email, search) && !containsFold(p.FullName, search) && !containsFold(p.Phone, search) {
			continue
		}
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	out = newestFirst(out, func(p models.Profile) (time.Time, int64) { return p.CreatedAt, p.ID })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []models.Profile{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *repo) ListProfileIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []int64{}
	for id, p := range r.state().profiles {
		if p.Status == models.StatusActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *repo) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	existing, ok := st.profiles[p.ID]
	if !ok {
		return models.Profile{}, storage.ErrNotFound
	}
	existing.FullName = p.FullName
	existing.Phone = p.Phone
	existing.Role = p.Role
	existing.Status = p.Status
	existing.BankName = p.BankName
	existing.BankAccountName = p.BankAccountName
	existing.BankAccountNumber = p.BankAccountNumber
	existing.UpdatedAt = r.now()
	st.profiles[p.ID] = existing
	return existing, nil
}

func (r *repo) SetBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	p, ok := st.profiles[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.Balance = balance.Round(2)
	p.UpdatedAt = r.now()
	st.profiles[id] = p
	return nil
}
