package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/storage"
)

// recordingStore records the row locks taken inside transactions and can fail
// notification writes the way a database foreign key would.
type recordingStore struct {
	storage.Store
	mu        sync.Mutex
	locks     []string
	notifyErr error
}

func (r *recordingStore) WithTx(ctx context.Context, fn func(repo storage.Repository) error) error {
	return r.Store.WithTx(ctx, func(repo storage.Repository) error {
		return fn(&recordingRepo{Repository: repo, owner: r})
	})
}

func (r *recordingStore) record(lock string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = append(r.locks, lock)
}

func (r *recordingStore) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.locks
	r.locks = nil
	return out
}

type recordingRepo struct {
	storage.Repository
	owner *recordingStore
}

func (r *recordingRepo) GetProfileForUpdate(ctx context.Context, id int64) (models.Profile, error) {
	r.owner.record(fmt.Sprintf("profile:%d", id))
	return r.Repository.GetProfileForUpdate(ctx, id)
}

func (r *recordingRepo) GetProjectForUpdate(ctx context.Context, id int64) (models.Project, error) {
	r.owner.record(fmt.Sprintf("project:%d", id))
	return r.Repository.GetProjectForUpdate(ctx, id)
}

func (r *recordingRepo) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	if r.owner.notifyErr != nil {
		return models.Notification{}, r.owner.notifyErr
	}
	return r.Repository.CreateNotification(ctx, n)
}

func TestInvestLocksProfilesBeforeProject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	referrer := h.register(t, "ref@example.com", "")
	investor := h.register(t, "ana@example.com", referrer.ReferralCode)
	h.fund(t, referrer.ID, "500")
	h.fund(t, investor.ID, "500")
	project := h.openProject(t, "5000", "100", "0", "12", 6)

	rec := &recordingStore{Store: h.store}
	h.svc.store = rec

	_, err := h.svc.Invest(ctx, investor.ID, dto.InvestRequest{ProjectID: project.ID, Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	assert.Equal(t, []string{
		fmt.Sprintf("profile:%d", referrer.ID),
		fmt.Sprintf("profile:%d", investor.ID),
		fmt.Sprintf("project:%d", project.ID),
	}, rec.take())
	assert.Equal(t, "510.00", h.balance(t, referrer.ID), "commission still paid")

	_, err = h.svc.Invest(ctx, referrer.ID, dto.InvestRequest{ProjectID: project.ID, Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	assert.Equal(t, []string{
		fmt.Sprintf("profile:%d", referrer.ID),
		fmt.Sprintf("project:%d", project.ID),
	}, rec.take())
}

func TestBroadcastToMissingUserIsNotFound(t *testing.T) {
	h := newHarness(t)
	rec := &recordingStore{Store: h.store, notifyErr: errors.New("violates foreign key constraint")}
	h.svc.store = rec

	missing := int64(9999)
	_, err := h.svc.Broadcast(context.Background(), h.admin.ID, dto.BroadcastRequest{UserID: &missing, Title: "x", Message: "y"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateUserRejectsBlankName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "ana@example.com", "")

	blank := "   "
	_, err := h.svc.UpdateUser(ctx, h.admin.ID, user.ID, dto.AdminUpdateUserRequest{FullName: &blank})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := h.svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "User ana@example.com", got.FullName)
}

func TestYieldDescription(t *testing.T) {
	cases := []struct {
		days    int
		matured bool
		want    string
	}{
		{1, false, "Yield on Solar Farm (1 day)"},
		{3, false, "Yield on Solar Farm (3 days)"},
		{0, true, "Final yield on Solar Farm at maturity"},
		{2, true, "Final yield on Solar Farm at maturity"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, yieldDescription("Solar Farm", tc.days, tc.matured))
		})
	}
}
