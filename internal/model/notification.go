package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyTaskCreated     NotificationType = "TASK_CREATED"
	NotifyTaskUpdated     NotificationType = "TASK_UPDATED"
	NotifyCommentNew      NotificationType = "COMMENT_NEW"
	NotifyAssignmentAdded NotificationType = "ASSIGNMENT_ADDED"
)

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	TaskID    uuid.UUID        `json:"task_id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationFeed - последние уведомления плюс независимый счетчик непрочитанных
type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}
