package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditCreate           AuditAction = "CREATE"
	AuditUpdate           AuditAction = "UPDATE"
	AuditDelete           AuditAction = "DELETE"
	AuditAssignmentAdd    AuditAction = "ASSIGNMENT_ADD"
	AuditAssignmentUpdate AuditAction = "ASSIGNMENT_UPDATE"
	AuditAssignmentRemove AuditAction = "ASSIGNMENT_REMOVE"
)

// FieldChange - одно изменение поля в рамках мутации
type FieldChange struct {
	Field string `json:"field"`
	From  any    `json:"from"`
	To    any    `json:"to"`
}

// AuditRecord - неизменяемая запись о мутации задачи.
// Для CREATE/DELETE changes = nil, вместо них полный snapshot.
type AuditRecord struct {
	ID        uuid.UUID      `json:"id"`
	TaskID    uuid.UUID      `json:"task_id"`
	UserID    *uuid.UUID     `json:"user_id"`
	Action    AuditAction    `json:"action"`
	Changes   []FieldChange  `json:"changes"`
	Snapshot  map[string]any `json:"snapshot"`
	CreatedAt time.Time      `json:"created_at"`
}

// TaskSnapshot собирает снимок полей задачи для аудита
func TaskSnapshot(t Task) map[string]any {
	return map[string]any{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"deadline":    t.Deadline,
		"priority":    t.Priority,
		"status":      t.Status,
		"createdAt":   t.CreatedAt,
		"updatedAt":   t.UpdatedAt,
	}
}
