package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskflow/internal/command"
	"taskflow/internal/model"
	"taskflow/internal/reconcile"
	"taskflow/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("access denied")
)

const ownerRole = "owner"

// EventPublisher - fire-and-forget публикация доменных событий.
// Результат публикации не влияет на исход самой мутации.
type EventPublisher interface {
	Publish(subject string, payload any) error
}

// TaskService - единственный владелец строк задач, назначений и аудита
type TaskService struct {
	repo   repo.TaskRepository
	audit  repo.AuditRepository
	events EventPublisher
	logger *zap.Logger
}

func NewTaskService(taskRepo repo.TaskRepository, auditRepo repo.AuditRepository, events EventPublisher, logger *zap.Logger) *TaskService {
	return &TaskService{
		repo:   taskRepo,
		audit:  auditRepo,
		events: events,
		logger: logger,
	}
}

func (s *TaskService) Create(ctx context.Context, data command.CreateTaskData, actingUser *uuid.UUID) (model.Task, error) {
	var t model.Task

	deadline, err := parseDeadline(data.Deadline)
	if err != nil {
		return t, err
	}

	t = model.Task{
		Title:       strings.TrimSpace(data.Title),
		Description: data.Description,
		Deadline:    deadline,
		Priority:    data.Priority,
		Status:      data.Status,
		CreatorID:   actingUser,
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	if err := s.validate(t); err != nil {
		return t, err
	}

	saved, err := s.repo.Create(ctx, t)
	if err != nil {
		return saved, err
	}

	// Аудит: CREATE с полным снимком
	s.appendAudit(ctx, model.AuditRecord{
		TaskID:   saved.ID,
		UserID:   actingUser,
		Action:   model.AuditCreate,
		Snapshot: model.TaskSnapshot(saved),
	})

	// Неявное назначение owner для инициатора, даже если он есть в списке
	desired := reconcile.FromInputs(data.Assignments)
	if actingUser != nil {
		withOwner := []reconcile.Member{{UserID: *actingUser, Role: ownerRole}}
		for _, m := range desired {
			if m.UserID != *actingUser { // дубликат по userId пропускаем
				withOwner = append(withOwner, m)
			}
		}
		desired = withOwner
	}

	// Против пустого текущего набора все desired попадают в added
	diff := reconcile.Compute(nil, desired)
	if err := s.applyDiff(ctx, saved.ID, actingUser, diff); err != nil {
		return saved, err
	}

	saved.Assignments, err = s.repo.ListAssignments(ctx, saved.ID)
	if err != nil {
		return saved, err
	}

	s.publish(model.DomainEvent{
		Type:            model.EventTaskCreated,
		TaskID:          saved.ID,
		Title:           saved.Title,
		CreatorID:       derefOrNil(actingUser),
		AssignedUserIDs: assignedIDs(saved.Assignments),
	})

	s.logger.Info("task created",
		zap.String("task_id", saved.ID.String()),
		zap.Int("assignments", len(saved.Assignments)),
	)
	return saved, nil
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID, actingUser *uuid.UUID) (model.Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return t, err
	}
	if err := s.checkAccess(ctx, id, actingUser); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (s *TaskService) List(ctx context.Context, actingUser *uuid.UUID, filter model.TaskFilter) (model.TaskPage, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Size <= 0 || filter.Size > 100 {
		filter.Size = 20
	}
	if filter.SortBy != "" && !filter.SortBy.Valid() {
		return model.TaskPage{}, ErrValidation
	}
	return s.repo.List(ctx, actingUser, filter)
}

func (s *TaskService) Update(ctx context.Context, id uuid.UUID, data command.UpdateTaskData, actingUser *uuid.UUID) (model.Task, error) {
	found, err := s.repo.Get(ctx, id)
	if err != nil {
		return found, err
	}
	if err := s.checkAccess(ctx, id, actingUser); err != nil {
		return model.Task{}, err
	}

	changes, merged, err := mergeFields(found, data)
	if err != nil {
		return found, err
	}
	if err := s.validate(merged); err != nil {
		return found, err
	}

	saved, err := s.repo.UpdateFields(ctx, merged)
	if err != nil {
		return saved, err
	}

	// Аудит UPDATE пишется только при реальных изменениях полей
	if len(changes) > 0 {
		s.appendAudit(ctx, model.AuditRecord{
			TaskID:   id,
			UserID:   actingUser,
			Action:   model.AuditUpdate,
			Changes:  changes,
			Snapshot: model.TaskSnapshot(saved),
		})
	}

	var added []reconcile.Member
	if data.Assignments != nil {
		// Присланный список - полное целевое членство
		diff := reconcile.Compute(
			reconcile.FromAssignments(found.Assignments),
			reconcile.FromInputs(*data.Assignments),
		)
		if err := s.applyDiff(ctx, id, actingUser, diff); err != nil {
			return saved, err
		}
		added = diff.Added
	}

	saved.Assignments, err = s.repo.ListAssignments(ctx, id)
	if err != nil {
		return saved, err
	}

	newlyAdded := make([]uuid.UUID, 0, len(added))
	for _, m := range added {
		newlyAdded = append(newlyAdded, m.UserID)
	}

	s.publish(model.DomainEvent{
		Type:              model.EventTaskUpdated,
		TaskID:            id,
		Title:             saved.Title,
		UpdatedBy:         derefOrNil(actingUser),
		AssignedUserIDs:   assignedIDs(saved.Assignments),
		NewlyAddedUserIDs: newlyAdded,
	})

	return saved, nil
}

func (s *TaskService) Delete(ctx context.Context, id uuid.UUID, actingUser *uuid.UUID) error {
	found, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkAccess(ctx, id, actingUser); err != nil {
		return err
	}

	// Снимок до удаления; событие об удалении не публикуется
	s.appendAudit(ctx, model.AuditRecord{
		TaskID:   id,
		UserID:   actingUser,
		Action:   model.AuditDelete,
		Snapshot: model.TaskSnapshot(found),
	})

	return s.repo.Delete(ctx, id)
}

// applyDiff применяет результат сверки к хранилищу и пишет по одной
// записи аудита на каждую непустую группу
func (s *TaskService) applyDiff(ctx context.Context, taskID uuid.UUID, actingUser *uuid.UUID, diff reconcile.Diff) error {
	for _, m := range diff.Added {
		if _, err := s.repo.AddAssignment(ctx, taskID, m.UserID, m.Role); err != nil {
			return err
		}
	}
	for _, c := range diff.Updated {
		if err := s.repo.UpdateAssignmentRole(ctx, taskID, c.UserID, c.ToRole); err != nil {
			return err
		}
	}
	if len(diff.Removed) > 0 {
		ids := make([]uuid.UUID, 0, len(diff.Removed))
		for _, m := range diff.Removed {
			ids = append(ids, m.UserID)
		}
		if err := s.repo.RemoveAssignments(ctx, taskID, ids); err != nil {
			return err
		}
	}

	if len(diff.Added) > 0 {
		changes := make([]model.FieldChange, 0, len(diff.Added))
		for _, m := range diff.Added {
			changes = append(changes, model.FieldChange{
				Field: "assignment",
				To:    map[string]any{"userId": m.UserID, "role": m.Role},
			})
		}
		s.appendAudit(ctx, model.AuditRecord{
			TaskID: taskID, UserID: actingUser,
			Action: model.AuditAssignmentAdd, Changes: changes,
		})
	}
	if len(diff.Updated) > 0 {
		changes := make([]model.FieldChange, 0, len(diff.Updated))
		for _, c := range diff.Updated {
			changes = append(changes, model.FieldChange{
				Field: "assignment",
				From:  map[string]any{"userId": c.UserID, "role": c.FromRole},
				To:    map[string]any{"userId": c.UserID, "role": c.ToRole},
			})
		}
		s.appendAudit(ctx, model.AuditRecord{
			TaskID: taskID, UserID: actingUser,
			Action: model.AuditAssignmentUpdate, Changes: changes,
		})
	}
	if len(diff.Removed) > 0 {
		changes := make([]model.FieldChange, 0, len(diff.Removed))
		for _, m := range diff.Removed {
			changes = append(changes, model.FieldChange{
				Field: "assignment",
				From:  map[string]any{"userId": m.UserID, "role": m.Role},
			})
		}
		s.appendAudit(ctx, model.AuditRecord{
			TaskID: taskID, UserID: actingUser,
			Action: model.AuditAssignmentRemove, Changes: changes,
		})
	}
	return nil
}

// checkAccess - плоский ACL: любое назначение дает полные права
func (s *TaskService) checkAccess(ctx context.Context, taskID uuid.UUID, actingUser *uuid.UUID) error {
	if actingUser == nil {
		return nil
	}
	ok, err := s.repo.HasAssignment(ctx, taskID, *actingUser)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *TaskService) appendAudit(ctx context.Context, rec model.AuditRecord) {
	if _, err := s.audit.Append(ctx, rec); err != nil {
		s.logger.Error("failed to append audit record",
			zap.String("task_id", rec.TaskID.String()),
			zap.String("action", string(rec.Action)),
			zap.Error(err),
		)
	}
}

func (s *TaskService) publish(event model.DomainEvent) {
	if err := s.events.Publish(command.EventSubject(event.Type), event); err != nil {
		s.logger.Error("failed to publish domain event",
			zap.String("type", string(event.Type)),
			zap.String("task_id", event.TaskID.String()),
			zap.Error(err),
		)
	}
}

func (s *TaskService) validate(t model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrValidation
	}
	if !t.Priority.Valid() || !t.Status.Valid() {
		return ErrValidation
	}
	return nil
}

// mergeFields считает изменения полей до сохранения.
// Дедлайны сравниваются по нормализованному моменту времени.
func mergeFields(found model.Task, data command.UpdateTaskData) ([]model.FieldChange, model.Task, error) {
	changes := []model.FieldChange{}
	merged := found

	if data.Title != nil && *data.Title != found.Title {
		changes = append(changes, model.FieldChange{Field: "title", From: found.Title, To: *data.Title})
		merged.Title = *data.Title
	}
	if data.Description != nil && *data.Description != found.Description {
		changes = append(changes, model.FieldChange{Field: "description", From: found.Description, To: *data.Description})
		merged.Description = *data.Description
	}
	if data.Priority != nil && *data.Priority != found.Priority {
		changes = append(changes, model.FieldChange{Field: "priority", From: found.Priority, To: *data.Priority})
		merged.Priority = *data.Priority
	}
	if data.Status != nil && *data.Status != found.Status {
		changes = append(changes, model.FieldChange{Field: "status", From: found.Status, To: *data.Status})
		merged.Status = *data.Status
	}
	if data.Deadline != nil {
		newDeadline, err := parseDeadline(data.Deadline)
		if err != nil {
			return nil, merged, err
		}
		if !sameInstant(found.Deadline, newDeadline) {
			changes = append(changes, model.FieldChange{
				Field: "deadline",
				From:  formatDeadline(found.Deadline),
				To:    formatDeadline(newDeadline),
			})
		}
		merged.Deadline = newDeadline
	}

	return changes, merged, nil
}

func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, ErrValidation
	}
	utc := t.UTC()
	return &utc, nil
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func formatDeadline(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func assignedIDs(assignments []model.Assignment) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.UserID)
	}
	return ids
}

func derefOrNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
