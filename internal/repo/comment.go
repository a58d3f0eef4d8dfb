package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskflow/internal/model"
)

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func (r *CommentRepo) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO task_comments (id, task_id, user_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, c.ID, c.TaskID, c.UserID, c.Content).Scan(&c.CreatedAt)
	return c, mapError(err)
}

func (r *CommentRepo) ListForTask(ctx context.Context, taskID uuid.UUID, page, size int) (model.CommentPage, error) {
	result := model.CommentPage{Page: page, Size: size, Data: []model.Comment{}}

	err := r.pool.QueryRow(ctx,
		"SELECT count(*) FROM task_comments WHERE task_id = $1", taskID,
	).Scan(&result.Total)
	if err != nil {
		return result, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, user_id, content, created_at
		FROM task_comments
		WHERE task_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`, taskID, size, (page-1)*size)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return result, err
		}
		result.Data = append(result.Data, c)
	}
	return result, rows.Err()
}
