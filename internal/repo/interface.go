package repo

import (
	"context"

	"github.com/google/uuid"

	"taskflow/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами и назначениями
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (model.Task, error)
	List(ctx context.Context, assignee *uuid.UUID, filter model.TaskFilter) (model.TaskPage, error)
	UpdateFields(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListAssignments(ctx context.Context, taskID uuid.UUID) ([]model.Assignment, error)
	HasAssignment(ctx context.Context, taskID, userID uuid.UUID) (bool, error)
	AddAssignment(ctx context.Context, taskID, userID uuid.UUID, role string) (model.Assignment, error)
	UpdateAssignmentRole(ctx context.Context, taskID, userID uuid.UUID, role string) error
	RemoveAssignments(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error
}

// AuditRepository - append-only журнал мутаций
type AuditRepository interface {
	Append(ctx context.Context, rec model.AuditRecord) (model.AuditRecord, error)
	ListForTask(ctx context.Context, taskID uuid.UUID) ([]model.AuditRecord, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c model.Comment) (model.Comment, error)
	ListForTask(ctx context.Context, taskID uuid.UUID, page, size int) (model.CommentPage, error)
}

type NotificationRepository interface {
	InsertBatch(ctx context.Context, items []model.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}
