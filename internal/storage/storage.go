package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/invest-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ProfileStore persists investor and admin profiles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error)
	GetProfile(ctx context.Context, id int64) (models.Profile, error)
	// GetProfileForUpdate reads a profile and, inside a transaction, locks it until commit.
	GetProfileForUpdate(ctx context.Context, id int64) (models.Profile, error)
	FindProfileByEmail(ctx context.Context, email string) (models.Profile, error)
	FindProfileByReferralCode(ctx context.Context, code string) (models.Profile, error)
	ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, error)
	ListProfileIDs(ctx context.Context) ([]int64, error)
	UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error)
	// SetBalance overwrites the cached balance, rounded to cents.
	SetBalance(ctx context.Context, id int64, balance decimal.Decimal) error
}

// ProjectStore persists investment projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, p models.Project) (models.Project, error)
	GetProject(ctx context.Context, id int64) (models.Project, error)
	// GetProjectForUpdate locks the project row until commit when called inside a transaction.
	GetProjectForUpdate(ctx context.Context, id int64) (models.Project, error)
	ListProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	UpdateProject(ctx context.Context, p models.Project) (models.Project, error)
	DeleteProject(ctx context.Context, id int64) error
}

// InvestmentStore persists investments.
type InvestmentStore interface {
	CreateInvestment(ctx context.Context, inv models.Investment) (models.Investment, error)
	GetInvestment(ctx context.Context, id int64) (models.Investment, error)
	GetInvestmentForUpdate(ctx context.Context, id int64) (models.Investment, error)
	ListInvestments(ctx context.Context, filter models.InvestmentFilter) ([]models.Investment, error)
	// ListActiveInvestmentIDs returns active investment ids in ascending order.
	ListActiveInvestmentIDs(ctx context.Context) ([]int64, error)
	UpdateInvestment(ctx context.Context, inv models.Investment) (models.Investment, error)
	CountInvestments(ctx context.Context, projectID int64) (int, error)
}

// TransactionStore persists the wallet ledger.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx models.WalletTransaction) (models.WalletTransaction, error)
	GetTransaction(ctx context.Context, id int64) (models.WalletTransaction, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.WalletTransaction, error)
	UpdateTransactionStatus(ctx context.Context, id int64, status string) error
}

// WithdrawalStore persists withdrawal requests.
type WithdrawalStore interface {
	CreateWithdrawal(ctx context.Context, w models.WithdrawalRequest) (models.WithdrawalRequest, error)
	GetWithdrawal(ctx context.Context, id int64) (models.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, filter models.WithdrawalFilter) ([]models.WithdrawalRequest, error)
	UpdateWithdrawal(ctx context.Context, w models.WithdrawalRequest) (models.WithdrawalRequest, error)
}

// TransferStore persists declared bank transfers.
type TransferStore interface {
	CreateBankTransfer(ctx context.Context, t models.BankTransfer) (models.BankTransfer, error)
	GetBankTransfer(ctx context.Context, id int64) (models.BankTransfer, error)
	ListBankTransfers(ctx context.Context, filter models.TransferFilter) ([]models.BankTransfer, error)
	UpdateBankTransfer(ctx context.Context, t models.BankTransfer) (models.BankTransfer, error)
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error)
	// MarkNotificationRead returns ErrNotFound when the notification belongs to another user.
	MarkNotificationRead(ctx context.Context, userID, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error)
}

// ReferralStore persists referral links and their earnings.
type ReferralStore interface {
	CreateReferral(ctx context.Context, r models.Referral) (models.Referral, error)
	ListReferrals(ctx context.Context, referrerID int64) ([]models.Referral, error)
	// AddReferralCommission credits the referral that brought in referredID.
	AddReferralCommission(ctx context.Context, referredID int64, amount decimal.Decimal) error
}

// AdminLogStore persists the admin audit trail.
type AdminLogStore interface {
	CreateAdminLog(ctx context.Context, l models.AdminLog) (models.AdminLog, error)
	ListAdminLogs(ctx context.Context, limit int) ([]models.AdminLog, error)
}

// StatsStore computes dashboard aggregates.
type StatsStore interface {
	DashboardStats(ctx context.Context, now time.Time) (models.DashboardStats, error)
}

// Repository groups every persistence operation needed by the service layer.
type Repository interface {
	ProfileStore
	ProjectStore
	InvestmentStore
	TransactionStore
	WithdrawalStore
	TransferStore
	NotificationStore
	ReferralStore
	AdminLogStore
	StatsStore
}

// Store is a Repository that can run a group of operations atomically.
type Store interface {
	Repository
	// WithTx runs fn against a transactional Repository. Returning an error rolls back.
	WithTx(ctx context.Context, fn func(repo Repository) error) error
	Close()
}
