package notifier

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"taskflow/internal/apperr"
	"taskflow/internal/command"
	"taskflow/internal/relay"
	"taskflow/internal/repo"
	"taskflow/internal/service"
)

// Commands привязывает субъекты notification.* к сервису уведомлений
type Commands struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

func NewCommands(notifications *service.NotificationService, logger *zap.Logger) *Commands {
	return &Commands{notifications: notifications, logger: logger}
}

func (c *Commands) Register(bus relay.Relay) error {
	handlers := map[string]relay.CommandHandler{
		command.NotificationUserList:    c.userList,
		command.NotificationMarkRead:    c.markRead,
		command.NotificationMarkAllRead: c.markAllRead,
	}
	for subject, h := range handlers {
		if err := bus.HandleCommand(subject, h); err != nil {
			return err
		}
	}
	return nil
}

func (c *Commands) userList(ctx context.Context, data []byte) apperr.Result {
	var p command.UserListPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.Err(apperr.New("invalid payload", 400))
	}

	feed, err := c.notifications.ListForUser(ctx, p.UserID)
	if err != nil {
		return c.fail(command.NotificationUserList, err)
	}
	return apperr.Ok(feed)
}

func (c *Commands) markRead(ctx context.Context, data []byte) apperr.Result {
	var p command.MarkReadPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.Err(apperr.New("invalid payload", 400))
	}

	if err := c.notifications.MarkRead(ctx, p.NotificationID, p.UserID); err != nil {
		return c.fail(command.NotificationMarkRead, err)
	}
	return apperr.Ok(nil)
}

func (c *Commands) markAllRead(ctx context.Context, data []byte) apperr.Result {
	var p command.MarkAllReadPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.Err(apperr.New("invalid payload", 400))
	}

	if err := c.notifications.MarkAllRead(ctx, p.UserID); err != nil {
		return c.fail(command.NotificationMarkAllRead, err)
	}
	return apperr.Ok(nil)
}

func (c *Commands) fail(subject string, err error) apperr.Result {
	if errors.Is(err, repo.ErrorNotFound) {
		return apperr.Err(apperr.NotFound("notification not found"))
	}
	c.logger.Error("command failed", zap.String("subject", subject), zap.Error(err))
	return apperr.Err(apperr.Internal("internal error"))
}
