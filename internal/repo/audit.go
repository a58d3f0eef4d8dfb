package repo

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskflow/internal/model"
)

// AuditRepo - append-only журнал. Записи никогда не правятся и не удаляются.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Append(ctx context.Context, rec model.AuditRecord) (model.AuditRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	var changes, snapshot []byte
	var err error
	if rec.Changes != nil {
		if changes, err = json.Marshal(rec.Changes); err != nil {
			return rec, err
		}
	}
	if rec.Snapshot != nil {
		if snapshot, err = json.Marshal(rec.Snapshot); err != nil {
			return rec, err
		}
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO task_audits (id, task_id, user_id, action, changes, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, rec.ID, rec.TaskID, rec.UserID, rec.Action, changes, snapshot).Scan(&rec.CreatedAt)
	return rec, err
}

// ListForTask возвращает записи в порядке их создания
func (r *AuditRepo) ListForTask(ctx context.Context, taskID uuid.UUID) ([]model.AuditRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, user_id, action, changes, snapshot, created_at
		FROM task_audits
		WHERE task_id = $1
		ORDER BY created_at, id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.AuditRecord{}
	for rows.Next() {
		var rec model.AuditRecord
		var changes, snapshot []byte
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.UserID, &rec.Action, &changes, &snapshot, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &rec.Changes); err != nil {
				return nil, err
			}
		}
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &rec.Snapshot); err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
