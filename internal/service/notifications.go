package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/mail"
	"github.com/hongminglow/invest-be/internal/metrics"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/storage"
)

// ListNotifications returns a user's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly)
}

// MarkNotificationRead marks one of the user's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	if err := s.store.MarkNotificationRead(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, "notification", "read", id, userID, nil)
	return nil
}

// MarkAllNotificationsRead marks every unread notification and returns how many changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publish(ctx, "notification", "read_all", userID, userID, map[string]any{"count": n})
	}
	return n, nil
}

func (s *Service) publish(ctx context.Context, entity, action string, entityID, userID int64, data any) {
	var o outbox
	o.event(entity, action, entityID, userID, data)
	s.flush(ctx, &o)
}

// Broadcast sends an in-app notification to one user, or to every active
// user when req.UserID is nil. It returns how many notifications were created.
func (s *Service) Broadcast(ctx context.Context, adminID int64, req dto.BroadcastRequest) (int, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if err := validate(req); err != nil {
		return 0, err
	}
	kind := req.Type
	if kind == "" {
		kind = models.NotifyInfo
	}

	var (
		sent int
		o    outbox
	)
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		var recipients []int64
		if req.UserID != nil {
			if _, err := repo.GetProfile(ctx, *req.UserID); err != nil {
				return err
			}
			recipients = []int64{*req.UserID}
		} else {
			ids, err := repo.ListProfileIDs(ctx)
			if err != nil {
				return fmt.Errorf("list profiles: %w", err)
			}
			recipients = ids
		}
		for _, id := range recipients {
			if err := s.notify(ctx, repo, &o, id, kind, req.Title, req.Message); err != nil {
				return err
			}
			sent++
		}
		target := "all users"
		var targetID int64
		if req.UserID != nil {
			target = fmt.Sprintf("user %d", *req.UserID)
			targetID = *req.UserID
		}
		return s.audit(ctx, repo, adminID, "notification.broadcast", "profile", targetID,
			fmt.Sprintf("Sent %q to %s (%d recipients)", req.Title, target, sent))
	})
	if err != nil {
		return 0, err
	}
	s.flush(ctx, &o)
	return sent, nil
}

// EmailResult describes a delivered transactional email.
type EmailResult struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Template string `json:"template"`
}

// SendEmail renders a template and delivers it to a profile or a raw address.
func (s *Service) SendEmail(ctx context.Context, req dto.SendEmailRequest) (EmailResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate(req); err != nil {
		return EmailResult{}, err
	}
	if req.UserID == 0 && req.Email == "" {
		return EmailResult{}, invalid("user_id or email is required")
	}

	data := make(map[string]any, len(req.Data)+2)
	maps.Copy(data, req.Data)
	to := req.Email
	if req.UserID > 0 {
		profile, err := s.store.GetProfile(ctx, req.UserID)
		if err != nil {
			return EmailResult{}, err
		}
		to = profile.Email
		if _, ok := data["name"]; !ok {
			data["name"] = profile.FullName
		}
	}
	if _, ok := data["subject"]; !ok && req.Subject != "" {
		data["subject"] = req.Subject
	}

	msg, err := mail.Render(req.Template, to, data)
	if errors.Is(err, mail.ErrUnknownTemplate) {
		return EmailResult{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if err != nil {
		return EmailResult{}, err
	}
	if req.Subject != "" {
		msg.Subject = req.Subject
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.RecordEmail(req.Template, false)
		s.logger.Error("send email failed", zap.String("template", req.Template), zap.Error(err))
		return EmailResult{}, fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	metrics.RecordEmail(req.Template, true)
	return EmailResult{To: msg.To, Subject: msg.Subject, Template: req.Template}, nil
}
