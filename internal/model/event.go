package model

import "github.com/google/uuid"

// Типы доменных событий. Передаются по шине, нигде не хранятся.
type EventType string

const (
	EventTaskCreated    EventType = "task.created"
	EventTaskUpdated    EventType = "task.updated"
	EventCommentCreated EventType = "comment.created"
)

// DomainEvent - tagged union: заполнены только поля, относящиеся к Type.
// Actor() и Recipients() дают единый паттерн "все назначенные кроме автора".
type DomainEvent struct {
	Type   EventType `json:"type"`
	TaskID uuid.UUID `json:"taskId"`
	Title  string    `json:"title"`

	// task.created
	CreatorID uuid.UUID `json:"creatorId,omitempty"`

	// task.updated
	UpdatedBy         uuid.UUID   `json:"updatedBy,omitempty"`
	NewlyAddedUserIDs []uuid.UUID `json:"newlyAddedUserIds,omitempty"`

	// comment.created
	CommentID uuid.UUID `json:"commentId,omitempty"`
	AuthorID  uuid.UUID `json:"authorId,omitempty"`

	AssignedUserIDs []uuid.UUID `json:"assignedUserIds"`
}

// Actor возвращает пользователя, вызвавшего мутацию
func (e DomainEvent) Actor() uuid.UUID {
	switch e.Type {
	case EventTaskCreated:
		return e.CreatorID
	case EventTaskUpdated:
		return e.UpdatedBy
	case EventCommentCreated:
		return e.AuthorID
	}
	return uuid.Nil
}

// Recipients - все назначенные пользователи, кроме инициатора
func (e DomainEvent) Recipients() []uuid.UUID {
	actor := e.Actor()
	out := make([]uuid.UUID, 0, len(e.AssignedUserIDs))
	for _, id := range e.AssignedUserIDs {
		if id != actor {
			out = append(out, id)
		}
	}
	return out
}
