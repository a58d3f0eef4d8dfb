package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskflow/internal/command"
	"taskflow/internal/model"
	"taskflow/internal/repo"
)

type CommentService struct {
	comments repo.CommentRepository
	tasks    repo.TaskRepository
	events   EventPublisher
	logger   *zap.Logger
}

func NewCommentService(comments repo.CommentRepository, tasks repo.TaskRepository, events EventPublisher, logger *zap.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		tasks:    tasks,
		events:   events,
		logger:   logger,
	}
}

func (s *CommentService) Create(ctx context.Context, taskID, authorID uuid.UUID, content string) (model.Comment, error) {
	var c model.Comment
	if strings.TrimSpace(content) == "" {
		return c, ErrValidation
	}

	// Комментировать может только назначенный на задачу
	ok, err := s.tasks.HasAssignment(ctx, taskID, authorID)
	if err != nil {
		return c, err
	}
	if !ok {
		return c, ErrForbidden
	}

	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return c, err
	}

	c, err = s.comments.Create(ctx, model.Comment{
		TaskID:  taskID,
		UserID:  authorID,
		Content: content,
	})
	if err != nil {
		return c, err
	}

	event := model.DomainEvent{
		Type:            model.EventCommentCreated,
		TaskID:          taskID,
		Title:           task.Title,
		CommentID:       c.ID,
		AuthorID:        authorID,
		AssignedUserIDs: assignedIDs(task.Assignments),
	}
	if err := s.events.Publish(command.EventSubject(event.Type), event); err != nil {
		s.logger.Error("failed to publish comment event",
			zap.String("comment_id", c.ID.String()), zap.Error(err))
	}

	return c, nil
}

func (s *CommentService) List(ctx context.Context, taskID, userID uuid.UUID, page, size int) (model.CommentPage, error) {
	ok, err := s.tasks.HasAssignment(ctx, taskID, userID)
	if err != nil {
		return model.CommentPage{}, err
	}
	if !ok {
		return model.CommentPage{}, ErrForbidden
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	return s.comments.ListForTask(ctx, taskID, page, size)
}
