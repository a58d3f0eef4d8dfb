package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskflow/internal/model"
	"taskflow/internal/repo"
)

const feedLimit = 50

// PushForwarder передает событие реалтайм-шлюзу. Best-effort:
// неуспех пересылки не считается ошибкой обработки события.
type PushForwarder interface {
	Forward(ctx context.Context, event model.DomainEvent)
}

// NotificationService материализует доменные события в строки уведомлений
type NotificationService struct {
	repo    repo.NotificationRepository
	forward PushForwarder
	logger  *zap.Logger
}

func NewNotificationService(notifRepo repo.NotificationRepository, forward PushForwarder, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		repo:    notifRepo,
		forward: forward,
		logger:  logger,
	}
}

// HandleEvent обрабатывает одно доменное событие: строит список
// получателей, пишет по строке на получателя и пересылает пуш.
// Доставка at-least-once: повтор события даст дубликаты строк.
func (s *NotificationService) HandleEvent(ctx context.Context, event model.DomainEvent) error {
	items := s.materialize(event)

	// Вставка happens-before пересылки в рамках одного события
	if err := s.repo.InsertBatch(ctx, items); err != nil {
		return err
	}
	if len(items) > 0 {
		s.logger.Info("notifications created",
			zap.String("type", string(event.Type)),
			zap.String("task_id", event.TaskID.String()),
			zap.Int("count", len(items)),
		)
	}

	s.forward.Forward(ctx, event)
	return nil
}

func (s *NotificationService) materialize(event model.DomainEvent) []model.Notification {
	var items []model.Notification

	add := func(userID uuid.UUID, kind model.NotificationType, message string) {
		items = append(items, model.Notification{
			UserID:  userID,
			TaskID:  event.TaskID,
			Type:    kind,
			Message: message,
		})
	}

	switch event.Type {
	case model.EventTaskCreated:
		for _, userID := range event.Recipients() {
			add(userID, model.NotifyTaskCreated, fmt.Sprintf("New task created: %q", event.Title))
		}
	case model.EventTaskUpdated:
		for _, userID := range event.Recipients() {
			add(userID, model.NotifyTaskUpdated, fmt.Sprintf("Task updated: %q", event.Title))
		}
		// Новички получают отдельное уведомление, даже если уже попали
		// в список выше - две строки от одного обновления допустимы
		for _, userID := range event.NewlyAddedUserIDs {
			add(userID, model.NotifyAssignmentAdded, fmt.Sprintf("You were added to task: %q", event.Title))
		}
	case model.EventCommentCreated:
		for _, userID := range event.Recipients() {
			add(userID, model.NotifyCommentNew, fmt.Sprintf("New comment on task %q", event.Title))
		}
	default:
		s.logger.Warn("unknown event type dropped", zap.String("type", string(event.Type)))
	}

	return items
}

// ListForUser возвращает последние 50 уведомлений и независимый
// счетчик непрочитанных (не выводится из страницы)
func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID) (model.NotificationFeed, error) {
	notifications, err := s.repo.ListForUser(ctx, userID, feedLimit)
	if err != nil {
		return model.NotificationFeed{}, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return model.NotificationFeed{}, err
	}
	return model.NotificationFeed{Notifications: notifications, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	affected, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return err
	}
	s.logger.Info("notifications marked read",
		zap.String("user_id", userID.String()),
		zap.Int64("count", affected),
	)
	return nil
}
