// Package command фиксирует имена очередей и формы полезной нагрузки,
// общие для всех сервисов.
package command

import (
	"github.com/google/uuid"

	"taskflow/internal/model"
)

// Субъекты request/reply команд
const (
	TaskCreate        = "task.create"
	TaskList          = "task.list"
	TaskGet           = "task.get"
	TaskUpdate        = "task.update"
	TaskDelete        = "task.delete"
	TaskCommentCreate = "task.comment.create"
	TaskCommentList   = "task.comment.list"

	NotificationUserList    = "notification.user.list"
	NotificationMarkRead    = "notification.mark.read"
	NotificationMarkAllRead = "notification.mark.all.read"

	AuthUsersFindMany = "auth.users.findMany"
)

// Субъекты fire-and-forget событий
const (
	EventTaskCreate  = "notification.task.create"
	EventTaskUpdate  = "notification.task.update"
	EventTaskComment = "notification.task.comment"
)

// EventSubject возвращает субъект шины для типа доменного события
func EventSubject(t model.EventType) string {
	switch t {
	case model.EventTaskCreated:
		return EventTaskCreate
	case model.EventTaskUpdated:
		return EventTaskUpdate
	case model.EventCommentCreated:
		return EventTaskComment
	}
	return ""
}

type CreateTaskData struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description,omitempty"`
	Deadline    *string                 `json:"deadline,omitempty"`
	Priority    model.Priority          `json:"priority,omitempty"`
	Status      model.Status            `json:"status,omitempty"`
	Assignments []model.AssignmentInput `json:"assignments,omitempty"`
}

type UpdateTaskData struct {
	Title       *string                  `json:"title,omitempty"`
	Description *string                  `json:"description,omitempty"`
	Deadline    *string                  `json:"deadline,omitempty"`
	Priority    *model.Priority          `json:"priority,omitempty"`
	Status      *model.Status            `json:"status,omitempty"`
	Assignments *[]model.AssignmentInput `json:"assignments,omitempty"`
}

type CreateTaskPayload struct {
	Data   CreateTaskData `json:"data"`
	UserID *uuid.UUID     `json:"userId,omitempty"`
}

type ListTasksPayload struct {
	UserID  *uuid.UUID       `json:"userId,omitempty"`
	Filters model.TaskFilter `json:"filters"`
}

type GetTaskPayload struct {
	ID     uuid.UUID  `json:"id"`
	UserID *uuid.UUID `json:"userId,omitempty"`
}

type UpdateTaskPayload struct {
	ID     uuid.UUID      `json:"id"`
	Data   UpdateTaskData `json:"data"`
	UserID *uuid.UUID     `json:"userId,omitempty"`
}

type DeleteTaskPayload struct {
	ID     uuid.UUID  `json:"id"`
	UserID *uuid.UUID `json:"userId,omitempty"`
}

type CreateCommentPayload struct {
	TaskID uuid.UUID `json:"taskId"`
	UserID uuid.UUID `json:"userId"`
	Data   struct {
		Content string `json:"content"`
	} `json:"data"`
}

type ListCommentsPayload struct {
	TaskID uuid.UUID `json:"taskId"`
	UserID uuid.UUID `json:"userId"`
	Page   int       `json:"page"`
	Size   int       `json:"size"`
}

type UserListPayload struct {
	UserID uuid.UUID `json:"userId"`
}

type MarkReadPayload struct {
	NotificationID uuid.UUID `json:"notificationId"`
	UserID         uuid.UUID `json:"userId"`
}

type MarkAllReadPayload struct {
	UserID uuid.UUID `json:"userId"`
}

// UserQuery - один критерий поиска пользователя в auth.users.findMany
type UserQuery struct {
	UserID   *uuid.UUID `json:"userId,omitempty"`
	Username string     `json:"username,omitempty"`
	Email    string     `json:"email,omitempty"`
}

type FindUsersPayload struct {
	Queries []UserQuery `json:"queries"`
}

// FoundUser - ответ auth-сервиса; сам сервис живет вне этого репозитория
type FoundUser struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}
