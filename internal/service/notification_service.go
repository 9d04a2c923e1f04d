package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
)

type CreateNotificationInput struct {
	UserID       uint64
	Title        string
	Message      string
	Type         model.NotificationType
	RelatedModel string
	RelatedID    *uint64
}

type NotificationService interface {
	Notify(ctx context.Context, userID uint64, typ model.NotificationType, title, message, relatedModel string, relatedID *uint64)
	Create(ctx context.Context, actor Actor, in CreateNotificationInput) (*model.Notification, error)
	ListByUser(ctx context.Context, actor Actor, userID uint64) ([]model.Notification, error)
	MarkRead(ctx context.Context, actor Actor, id uint64) (*model.Notification, error)
	MarkAllRead(ctx context.Context, actor Actor) (int64, error)
	PurgeRead(ctx context.Context, olderThanDays int) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo, now: time.Now}
}

// Notify is best-effort; it logs errors but does not return them to avoid breaking main flows.
func (s *notificationService) Notify(ctx context.Context, userID uint64, typ model.NotificationType, title, message, relatedModel string, relatedID *uint64) {
	if userID == 0 || !typ.Valid() {
		return
	}
	n := &model.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		Type:             typ,
		RelatedModel:     relatedModel,
		RelatedID:        relatedID,
		NotificationDate: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		log.Printf("[notify] create failed user_id=%d type=%s err=%v", userID, typ, err)
	}
}

func (s *notificationService) Create(ctx context.Context, actor Actor, in CreateNotificationInput) (*model.Notification, error) {
	if in.UserID == 0 {
		in.UserID = actor.ID
	}
	if in.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Message) == "" {
		return nil, apperr.BadRequest("title and message are required")
	}
	if in.Type == "" {
		in.Type = model.NotificationOther
	}
	if !in.Type.Valid() {
		return nil, apperr.BadRequest("invalid notification type: %s", in.Type)
	}
	n := &model.Notification{
		UserID:           in.UserID,
		Title:            in.Title,
		Message:          in.Message,
		Type:             in.Type,
		RelatedModel:     in.RelatedModel,
		RelatedID:        in.RelatedID,
		NotificationDate: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *notificationService) ListByUser(ctx context.Context, actor Actor, userID uint64) ([]model.Notification, error) {
	if userID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, actor Actor, id uint64) (*model.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Notification")
	}
	if n.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.ID)
}

func (s *notificationService) PurgeRead(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 1 {
		return 0, apperr.BadRequest("days must be at least 1")
	}
	cutoff := s.now().AddDate(0, 0, -olderThanDays)
	n, err := s.repo.PurgeRead(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	log.Printf("[notify] purged read notifications older_than_days=%d removed=%d", olderThanDays, n)
	return n, nil
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}
