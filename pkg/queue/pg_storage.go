package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PGDB is the subset of *pgxpool.Pool used by PGStorage.
type PGDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGStorage keeps tasks in the queue_tasks and queue_dead_tasks tables.
// Claims use FOR UPDATE SKIP LOCKED so any number of workers can share a queue.
type PGStorage struct {
	db PGDB
}

// NewPGStorage creates a Postgres-backed storage. The schema is created by
// the application migrations.
func NewPGStorage(db PGDB) *PGStorage {
	return &PGStorage{db: db}
}

const taskColumns = `id, queue, name, payload, status, attempts, max_attempts, run_at,
	locked_until, locked_by, last_error, created_at, updated_at`

// CreateTask implements EnqueuerRepository.
func (s *PGStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrPayloadNil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO queue_tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		task.ID, task.Queue, task.Name, []byte(task.Payload), task.Status, task.Attempts, task.MaxAttempts,
		task.RunAt, task.LockedUntil, task.LockedBy, task.LastError, task.CreatedAt, task.UpdatedAt)
	return err
}

// ClaimTask implements WorkerRepository.
func (s *PGStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE queue_tasks
		SET status = 'processing', locked_until = $3, locked_by = $2, updated_at = now()
		WHERE id = (
			SELECT id FROM queue_tasks
			WHERE queue = ANY($1)
			  AND run_at <= now()
			  AND (status = 'pending' OR (status = 'processing' AND locked_until < now()))
			ORDER BY run_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+taskColumns,
		queues, workerID, time.Now().Add(lockDuration))

	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoTaskToClaim
	}
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}
	return task, nil
}

// CompleteTask implements WorkerRepository.
func (s *PGStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_tasks
		SET status = 'completed', attempts = attempts + 1, locked_until = NULL, locked_by = NULL, updated_at = now()
		WHERE id = $1 AND status = 'processing'`, taskID)
	return affected(tag, err, taskID)
}

// PurgeCompleted implements Purger.
func (s *PGStorage) PurgeCompleted(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM queue_tasks WHERE status = 'completed' AND updated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge completed tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RetryTask implements WorkerRepository.
func (s *PGStorage) RetryTask(ctx context.Context, taskID uuid.UUID, errMsg string, retryAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_tasks
		SET status = 'pending', attempts = attempts + 1, last_error = $2, run_at = $3,
		    locked_until = NULL, locked_by = NULL, updated_at = now()
		WHERE id = $1 AND status = 'processing'`, taskID, errMsg, retryAt)
	return affected(tag, err, taskID)
}

// MoveToDLQ implements WorkerRepository.
func (s *PGStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID, errMsg string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			WITH moved AS (
				DELETE FROM queue_tasks WHERE id = $1
				RETURNING id, queue, name, payload, attempts
			)
			INSERT INTO queue_dead_tasks (id, task_id, queue, name, payload, error, attempts, failed_at)
			SELECT $2, id, queue, name, payload, $3, attempts + 1, now() FROM moved`,
			taskID, uuid.New(), errMsg)
		return affected(tag, err, taskID)
	})
}

func scanTask(row pgx.Row) (*Task, error) {
	var (
		t       Task
		payload []byte
	)
	err := row.Scan(&t.ID, &t.Queue, &t.Name, &payload, &t.Status, &t.Attempts, &t.MaxAttempts, &t.RunAt,
		&t.LockedUntil, &t.LockedBy, &t.LastError, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Payload = payload
	return &t, nil
}

func affected(tag pgconn.CommandTag, err error, taskID uuid.UUID) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotLocked, taskID)
	}
	return nil
}
