package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskflow/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{pool: pool}
}

const taskColumns = "id, title, description, status, priority, deadline, creator_id, created_at, updated_at"

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.Deadline, &t.CreatorID, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	created, err := scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, deadline, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+taskColumns+`
	`, t.ID, t.Title, t.Description, t.Status, t.Priority, t.Deadline, t.CreatorID))
	return created, mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	if err != nil {
		return t, err
	}

	t.Assignments, err = r.ListAssignments(ctx, id)
	return t, err
}

// List возвращает страницу задач. Если assignee задан, выборка
// ограничена задачами, где у пользователя есть назначение.
func (r *TaskRepo) List(ctx context.Context, assignee *uuid.UUID, filter model.TaskFilter) (model.TaskPage, error) {
	page := model.TaskPage{Page: filter.Page, Size: filter.Size, Data: []model.Task{}}

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if assignee != nil {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM task_assignments a WHERE a.task_id = t.id AND a.user_id = %s)",
			arg(*assignee)))
	}
	if filter.Status != nil {
		where = append(where, "t.status = "+arg(*filter.Status))
	}
	if filter.Priority != nil {
		where = append(where, "t.priority = "+arg(*filter.Priority))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(t.title ILIKE %s OR t.description ILIKE %s)", p, p))
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM tasks t"+cond, args...).Scan(&page.Total); err != nil {
		return page, err
	}

	query := "SELECT " + strings.ReplaceAll(taskColumns, "id,", "t.id,") + " FROM tasks t" + cond +
		" ORDER BY " + orderClause(filter.SortBy, filter.SortOrder) +
		" LIMIT " + arg(filter.Size) + " OFFSET " + arg((filter.Page-1)*filter.Size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return page, err
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return page, err
		}
		page.Data = append(page.Data, t)
	}
	return page, rows.Err()
}

// orderClause строит безопасный ORDER BY из закрытого набора ключей
func orderClause(key model.SortKey, order string) string {
	col := "t.created_at"
	switch key {
	case model.SortUpdatedAt:
		col = "t.updated_at"
	case model.SortDeadline:
		col = "t.deadline"
	case model.SortPriority:
		col = "CASE t.priority WHEN 'LOW' THEN 1 WHEN 'MEDIUM' THEN 2 WHEN 'HIGH' THEN 3 WHEN 'URGENT' THEN 4 END"
	case model.SortStatus:
		col = "t.status"
	}
	dir := "DESC"
	if strings.EqualFold(order, "ASC") {
		dir = "ASC"
	}
	return col + " " + dir + ", t.id " + dir
}

func (r *TaskRepo) UpdateFields(ctx context.Context, t model.Task) (model.Task, error) {
	updated, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, deadline = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns+`
	`, t.ID, t.Title, t.Description, t.Status, t.Priority, t.Deadline))
	if errors.Is(err, pgx.ErrNoRows) {
		return updated, ErrorNotFound
	}
	return updated, err
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Каскад снесет назначения и комментарии
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) ListAssignments(ctx context.Context, taskID uuid.UUID) ([]model.Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, user_id, role, assigned_at
		FROM task_assignments
		WHERE task_id = $1
		ORDER BY assigned_at, id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []model.Assignment{}
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UserID, &a.Role, &a.AssignedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *TaskRepo) HasAssignment(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM task_assignments WHERE task_id = $1 AND user_id = $2)
	`, taskID, userID).Scan(&exists)
	return exists, err
}

func (r *TaskRepo) AddAssignment(ctx context.Context, taskID, userID uuid.UUID, role string) (model.Assignment, error) {
	var a model.Assignment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO task_assignments (id, task_id, user_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, task_id, user_id, role, assigned_at
	`, uuid.New(), taskID, userID, role).Scan(&a.ID, &a.TaskID, &a.UserID, &a.Role, &a.AssignedAt)
	return a, mapError(err)
}

func (r *TaskRepo) UpdateAssignmentRole(ctx context.Context, taskID, userID uuid.UUID, role string) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE task_assignments SET role = $3 WHERE task_id = $1 AND user_id = $2
	`, taskID, userID, role)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) RemoveAssignments(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		DELETE FROM task_assignments WHERE task_id = $1 AND user_id = ANY($2)
	`, taskID, userIDs)
	return err
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // unique_violation
			return ErrorConflict
		}
	}
	return err
}
