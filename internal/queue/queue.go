package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"netdrift/internal/domain"
)

// Queue is a database-backed job queue shared between the API process and
// the workers.
type Queue struct {
	db *sql.DB
}

// New prepares the jobs table on the given database handle.
func New(db *sql.DB) (*Queue, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		function TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'queued',
		stage TEXT NOT NULL DEFAULT 'dispatched',
		result TEXT NOT NULL DEFAULT '',
		enqueued_at DATETIME NOT NULL,
		started_at DATETIME,
		finished_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to migrate jobs table: %w", err)
	}
	return &Queue{db: db}, nil
}

// Enqueue records a new queued job under the caller-chosen id. The payload
// is serialized as JSON and handed back to the worker verbatim.
func (q *Queue) Enqueue(ctx context.Context, function domain.JobFunction, payload any, jobID string) (*domain.Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job payload: %w", err)
	}

	job := &domain.Job{
		ID:         jobID,
		Function:   function,
		Payload:    raw,
		Status:     domain.JobStatusQueued,
		Stage:      domain.JobStageDispatched,
		EnqueuedAt: time.Now().UTC(),
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO jobs (id, function, payload, status, stage, result, enqueued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(job.Function), string(raw), string(job.Status), string(job.Stage), "", job.EnqueuedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job %s: %w", jobID, err)
	}
	return job, nil
}

// Status returns the job record, or nil when no such job exists.
func (q *Queue) Status(ctx context.Context, id string) (*domain.Job, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, function, payload, status, stage, result, enqueued_at, started_at, finished_at
		FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// Results lists job records newest first.
func (q *Queue) Results(ctx context.Context, skip, limit int) ([]domain.Job, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, function, payload, status, stage, result, enqueued_at, started_at, finished_at
		FROM jobs ORDER BY enqueued_at DESC LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Abort marks a job aborted. Queued jobs are never picked up afterwards;
// running jobs observe the flag at their next stage transition and stop.
func (q *Queue) Abort(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, finished_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		string(domain.JobStatusAborted), time.Now().UTC(),
		id, string(domain.JobStatusQueued), string(domain.JobStatusRunning),
	)
	if err != nil {
		return fmt.Errorf("failed to abort job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound(fmt.Sprintf("active job '%s'", id))
	}
	return nil
}

// Flush deletes all finished job records and returns how many were removed.
// Queued and running jobs are left alone.
func (q *Queue) Flush(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM jobs WHERE status IN (?, ?, ?)`,
		string(domain.JobStatusComplete), string(domain.JobStatusFailed), string(domain.JobStatusAborted),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to flush jobs: %w", err)
	}
	return res.RowsAffected()
}

// Claim atomically moves the oldest queued job to running and returns it.
// Returns nil when the queue is empty.
func (q *Queue) Claim(ctx context.Context) (*domain.Job, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, function, payload, status, stage, result, enqueued_at, started_at, finished_at
		FROM jobs WHERE status = ? ORDER BY enqueued_at ASC LIMIT 1`,
		string(domain.JobStatusQueued),
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		string(domain.JobStatusRunning), now, job.ID, string(domain.JobStatusQueued),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job %s: %w", job.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Lost the race to another worker, let the caller poll again.
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim of job %s: %w", job.ID, err)
	}

	job.Status = domain.JobStatusRunning
	job.StartedAt = &now
	return job, nil
}

// UpdateStage advances the stage marker of a running job. It reports whether
// the job is still running, so workers can observe aborts between steps.
func (q *Queue) UpdateStage(ctx context.Context, id string, stage domain.JobStage) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET stage = ? WHERE id = ? AND status = ?`,
		string(stage), id, string(domain.JobStatusRunning),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update stage of job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Complete finishes a job successfully with the given result text.
func (q *Queue) Complete(ctx context.Context, id, result string) error {
	return q.finish(ctx, id, domain.JobStatusComplete, domain.JobStageSucceeded, result)
}

// Fail finishes a job unsuccessfully with the given result text.
func (q *Queue) Fail(ctx context.Context, id, result string) error {
	return q.finish(ctx, id, domain.JobStatusFailed, domain.JobStageFailed, result)
}

func (q *Queue) finish(ctx context.Context, id string, status domain.JobStatus, stage domain.JobStage, result string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, stage = ?, result = ?, finished_at = ?
		WHERE id = ? AND status = ?`,
		string(status), string(stage), result, time.Now().UTC(),
		id, string(domain.JobStatusRunning),
	)
	if err != nil {
		return fmt.Errorf("failed to finish job %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var function, status, stage, payload string
	var startedAt, finishedAt sql.NullTime

	err := row.Scan(&job.ID, &function, &payload, &status, &stage, &job.Result,
		&job.EnqueuedAt, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	job.Function = domain.JobFunction(function)
	job.Status = domain.JobStatus(status)
	job.Stage = domain.JobStage(stage)
	job.Payload = json.RawMessage(payload)
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}
	return &job, nil
}
