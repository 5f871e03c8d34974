// Package service implements the platform's business operations on top of a
// storage.Store. Every operation that moves money runs in one store
// transaction that locks the owning profile and rewrites its balance from the
// ledger before commit.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/auth"
	"github.com/hongminglow/invest-be/internal/events"
	"github.com/hongminglow/invest-be/internal/finance"
	"github.com/hongminglow/invest-be/internal/mail"
	"github.com/hongminglow/invest-be/internal/metrics"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/storage"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidState       = errors.New("invalid state")
	ErrForbidden          = errors.New("forbidden")
	ErrProjectUnavailable = errors.New("project is not accepting investments")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailDelivery      = errors.New("email delivery failed")
)

// Settings are the business rules sourced from configuration.
type Settings struct {
	MinDeposit                decimal.Decimal
	MinWithdrawal             decimal.Decimal
	ReferralCommissionPercent decimal.Decimal
	AdminEmails               []string
}

func (s Settings) isAdminEmail(email string) bool {
	for _, candidate := range s.AdminEmails {
		if strings.EqualFold(candidate, email) {
			return true
		}
	}
	return false
}

// Options wires a Service.
type Options struct {
	Store     storage.Store
	Tokens    *auth.TokenManager
	Publisher events.Publisher
	Mailer    mail.Sender
	Logger    *zap.Logger
	Settings  Settings
}

// Service runs the platform's business operations against a storage.Store.
type Service struct {
	store     storage.Store
	tokens    *auth.TokenManager
	publisher events.Publisher
	mailer    mail.Sender
	logger    *zap.Logger
	settings  Settings
	now       func() time.Time
}

// New builds a Service. A nil Publisher or Mailer falls back to one that only logs.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = mail.NewLogSender(logger)
	}
	return &Service{
		store:     opts.Store,
		tokens:    opts.Tokens,
		publisher: publisher,
		mailer:    mailer,
		logger:    logger,
		settings:  opts.Settings,
		now:       time.Now,
	}
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func validate(req any) error {
	if err := dto.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func newReference(prefix string) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + "-" + raw[:10]
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// outbox collects side effects that must only happen once the store
// transaction has committed.
type outbox struct {
	events []events.Event
	emails []queuedEmail
}

type queuedEmail struct {
	to       string
	template string
	data     map[string]any
}

func (o *outbox) event(entity, action string, entityID, userID int64, data any) {
	o.events = append(o.events, events.New(entity, action, entityID, userID, data))
}

func (o *outbox) email(to, template string, data map[string]any) {
	if to == "" {
		return
	}
	o.emails = append(o.emails, queuedEmail{to: to, template: template, data: data})
}

// flush publishes events and sends emails. Failures are logged and never
// surface to the caller because the business change has already committed.
func (s *Service) flush(ctx context.Context, o *outbox) {
	ctx = context.WithoutCancel(ctx)
	for _, ev := range o.events {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn("publish event failed", zap.String("type", ev.Type), zap.Int64("entity_id", ev.EntityID), zap.Error(err))
		}
	}
	for _, e := range o.emails {
		if err := s.deliver(ctx, e.to, e.template, e.data); err != nil {
			s.logger.Warn("send email failed", zap.String("template", e.template), zap.Error(err))
		}
	}
}

func (s *Service) deliver(ctx context.Context, to, template string, data map[string]any) error {
	msg, err := mail.Render(template, to, data)
	if err != nil {
		metrics.RecordEmail(template, false)
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.RecordEmail(template, false)
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	metrics.RecordEmail(template, true)
	return nil
}

// recalculate rewrites the stored balance from the completed ledger rows. The
// caller must already hold the profile lock.
func (s *Service) recalculate(ctx context.Context, repo storage.Repository, userID int64) (previous, balance decimal.Decimal, err error) {
	profile, err := repo.GetProfile(ctx, userID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	txs, err := repo.ListTransactions(ctx, models.TransactionFilter{UserID: userID})
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("list transactions: %w", err)
	}
	balance = finance.ReconcileBalance(txs)
	if !balance.Equal(profile.Balance) {
		if err := repo.SetBalance(ctx, userID, balance); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("set balance: %w", err)
		}
	}
	return profile.Balance, balance, nil
}

// available returns the ledger balance and what is left of it after pending withdrawals.
func available(ctx context.Context, repo storage.Repository, userID int64) (balance, free decimal.Decimal, err error) {
	txs, err := repo.ListTransactions(ctx, models.TransactionFilter{UserID: userID})
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("list transactions: %w", err)
	}
	balance = finance.ReconcileBalance(txs)
	return balance, finance.AvailableBalance(balance, finance.PendingDebits(txs)), nil
}

func (s *Service) notify(ctx context.Context, repo storage.Repository, o *outbox, userID int64, kind, title, message string) error {
	n, err := repo.CreateNotification(ctx, models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	})
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	o.event("notification", "created", n.ID, userID, n)
	return nil
}

func (s *Service) audit(ctx context.Context, repo storage.Repository, adminID int64, action, targetType string, targetID int64, description string) error {
	entry := models.AdminLog{
		AdminID:     adminID,
		Action:      action,
		TargetType:  targetType,
		Description: description,
	}
	if targetID > 0 {
		entry.TargetID = &targetID
	}
	if _, err := repo.CreateAdminLog(ctx, entry); err != nil {
		return fmt.Errorf("create admin log: %w", err)
	}
	return nil
}

// lockActiveProfile locks a profile row and rejects blocked accounts.
func lockActiveProfile(ctx context.Context, repo storage.Repository, userID int64) (models.Profile, error) {
	profile, err := repo.GetProfileForUpdate(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	if profile.IsBlocked() {
		return models.Profile{}, ErrAccountBlocked
	}
	return profile, nil
}

func clampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
