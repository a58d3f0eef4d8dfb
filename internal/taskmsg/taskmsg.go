// Package taskmsg привязывает субъекты команд task.* к сервисному слою.
// Любая внутренняя ошибка сворачивается в конверт результата - через
// границу очереди исключения не летят.
package taskmsg

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

type Consumer struct {
	tasks    *service.TaskService
	comments *service.CommentService
	logger   *zap.Logger
}

func NewConsumer(tasks *service.TaskService, comments *service.CommentService, logger *zap.Logger) *Consumer {
	return &Consumer{tasks: tasks, comments: comments, logger: logger}
}

// Register подписывает все команды task.* на шине
func (c *Consumer) Register(bus relay.Relay) error {
	handlers := map[string]relay.CommandHandler{
		command.TaskCreate:        c.create,
		command.TaskList:          c.list,
		command.TaskGet:           c.get,
		command.TaskUpdate:        c.update,
		command.TaskDelete:        c.delete,
		command.TaskCommentCreate: c.createComment,
		command.TaskCommentList:   c.listComments,
	}
	for subject, h := range handlers {
		if err := bus.HandleCommand(subject, h); err != nil {
			return err
		}
	}
	return nil
}

func (c *Consumer) create(ctx context.Context, data []byte) apperr.Result {
	var p command.CreateTaskPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.Err(apperr.New("invalid payload", 400))
	}
	c.logger.Info("command received", zap.String("subject", command.TaskCreate))

	task, err := c.tasks.Create(ctx, p.Data, p.UserID)
	if err != nil {
		return c.fail(command.TaskCreate, err)
	}
	return apperr.Ok(task)
}

func (c *Consumer) list(ctx context.Context, data []byte) apperr.Result {
	var p command.ListTasksPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.Err(apperr.New("invalid payload", 400))
	}

	page, err := c.tasks.List(ctx, p.UserID, p.Filters)
	if err != nil {
		return c.fail(command.TaskList, err)
	}
	return apperr.Ok(page)
}

func (c *Consumer) get(ctx context.Context, data []byte) apperr.Result {
	var p command.GetTaskPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.Err(apperr.New("invalid payload", 400))
	}

	task, err := c.tasks.Get(ctx, p.ID, p.UserID)
	if err != nil {
		return c.fail(command.TaskGet, err)
	}
	return apperr.Ok(task)
}

func (c *Consumer) update(ctx context.Context, data []byte) apperr.Result {
	var p command.UpdateTaskPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.Err(apperr.New("invalid payload", 400))
	}

	task, err := c.tasks.Update(ctx, p.ID, p.Data, p.UserID)
	if err != nil {
		return c.fail(command.TaskUpdate, err)
	}
	return apperr.Ok(task)
}

func (c *Consumer) delete(ctx context.Context, data []byte) apperr.Result {
	var p command.DeleteTaskPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.Err(apperr.New("invalid payload", 400))
	}

	if err := c.tasks.Delete(ctx, p.ID, p.UserID); err != nil {
		return c.fail(command.TaskDelete, err)
	}
	return apperr.Ok(nil)
}

func (c *Consumer) createComment(ctx context.Context, data []byte) apperr.Result {
	var p command.CreateCommentPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.Err(apperr.New("invalid payload", 400))
	}

	comment, err := c.comments.Create(ctx, p.TaskID, p.UserID, p.Data.Content)
	if err != nil {
		return c.fail(command.TaskCommentCreate, err)
	}
	return apperr.Ok(comment)
}

func (c *Consumer) listComments(ctx context.Context, data []byte) apperr.Result {
	var p command.ListCommentsPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.Err(apperr.New("invalid payload", 400))
	}

	page, err := c.comments.List(ctx, p.TaskID, p.UserID, p.Page, p.Size)
	if err != nil {
		return c.fail(command.TaskCommentList, err)
	}
	return apperr.Ok(page)
}

// fail мапит доменные ошибки на таксономию статусов
func (c *Consumer) fail(subject string, err error) apperr.Result {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		return apperr.Err(apperr.NotFound("task not found"))
	case errors.Is(err, service.ErrForbidden):
		return apperr.Err(apperr.Forbidden("access denied"))
	case errors.Is(err, repo.ErrorConflict):
		return apperr.Err(apperr.Conflict("duplicate assignment"))
	case errors.Is(err, service.ErrValidation):
		return apperr.Err(apperr.New("validation error", 400))
	default:
		c.logger.Error("command failed", zap.String("subject", subject), zap.Error(err))
		return apperr.Err(apperr.Internal("internal error"))
	}
}
