package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository"
)

type queueRepository struct {
	db *sqlx.DB
}

func NewQueueRepository(db *sqlx.DB) repository.QueueRepository {
	return &queueRepository{db: db}
}

// appendRetries bounds how often AppendWaiting re-runs after losing a
// position race to a concurrent append on the same doctor's queue.
const appendRetries = 3

// AppendWaiting places the entry at the tail of the doctor's waiting list.
// The next position and the wait estimate are computed inside the INSERT
// itself, so two concurrent appends can never read the same tail; the unique
// index over waiting positions rejects the loser, which simply re-runs.
func (r *queueRepository) AppendWaiting(ctx context.Context, entry *model.QueueEntry, slot time.Duration) error {
	query := `
		INSERT INTO queue_entries (
			id, doctor_id, patient_id, position, status, estimated_time,
			created_at, updated_at
		)
		SELECT $1, $2, $3, next.pos, $4,
			   $5::timestamptz + (next.pos - 1) * make_interval(secs => $6::float8),
			   $5, $5
		FROM (
			SELECT COALESCE(MAX(position), 0) + 1 AS pos
			FROM queue_entries
			WHERE doctor_id = $2 AND status = $4
		) AS next
		RETURNING position, estimated_time
	`
	for attempt := 0; attempt < appendRetries; attempt++ {
		entry.ID = uuid.New()
		entry.Status = model.QueueStatusWaiting
		entry.CreatedAt = time.Now()
		entry.UpdatedAt = entry.CreatedAt

		err := r.db.QueryRowxContext(ctx, query,
			entry.ID,
			entry.DoctorID,
			entry.PatientID,
			entry.Status,
			entry.CreatedAt,
			slot.Seconds(),
		).Scan(&entry.Position, &entry.EstimatedTime)
		if err == nil {
			return nil
		}

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == "idx_queue_active_entry" {
				return repository.ErrDuplicate
			}
			// lost the tail position to a concurrent append
			continue
		}
		return fmt.Errorf("failed to append queue entry: %w", err)
	}
	return fmt.Errorf("failed to append queue entry after %d attempts", appendRetries)
}

func (r *queueRepository) Get(ctx context.Context, id uuid.UUID) (*model.QueueEntry, error) {
	query := `
		SELECT id, doctor_id, patient_id, position, status, estimated_time,
			   created_at, updated_at
		FROM queue_entries
		WHERE id = $1
	`
	var entry model.QueueEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}
	return &entry, nil
}

func (r *queueRepository) GetJoined(ctx context.Context, id uuid.UUID) (*model.QueueEntry, error) {
	query := `
		SELECT q.id, q.doctor_id, q.patient_id, q.position, q.status,
			   q.estimated_time, q.created_at, q.updated_at,
			   pu.name AS patient_name, p.avatar_url AS patient_avatar,
			   du.name AS doctor_name
		FROM queue_entries q
		JOIN patients p ON p.id = q.patient_id
		JOIN users pu ON pu.id = p.user_id
		JOIN doctors d ON d.id = q.doctor_id
		JOIN users du ON du.id = d.user_id
		WHERE q.id = $1
	`
	var entry model.QueueEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get joined queue entry: %w", err)
	}
	return &entry, nil
}

func (r *queueRepository) FindActive(ctx context.Context, doctorID, patientID uuid.UUID) (*model.QueueEntry, error) {
	query := `
		SELECT id, doctor_id, patient_id, position, status, estimated_time,
			   created_at, updated_at
		FROM queue_entries
		WHERE doctor_id = $1 AND patient_id = $2 AND status != 'completed'
	`
	var entry model.QueueEntry
	if err := r.db.GetContext(ctx, &entry, query, doctorID, patientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active queue entry: %w", err)
	}
	return &entry, nil
}

func (r *queueRepository) FindActiveByPatient(ctx context.Context, patientID uuid.UUID) (*model.QueueEntry, error) {
	query := `
		SELECT q.id, q.doctor_id, q.patient_id, q.position, q.status,
			   q.estimated_time, q.created_at, q.updated_at,
			   du.name AS doctor_name
		FROM queue_entries q
		JOIN doctors d ON d.id = q.doctor_id
		JOIN users du ON du.id = d.user_id
		WHERE q.patient_id = $1 AND q.status != 'completed'
		LIMIT 1
	`
	var entry model.QueueEntry
	if err := r.db.GetContext(ctx, &entry, query, patientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find patient queue entry: %w", err)
	}
	return &entry, nil
}

func (r *queueRepository) ListActiveByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.QueueEntry, error) {
	query := `
		SELECT q.id, q.doctor_id, q.patient_id, q.position, q.status,
			   q.estimated_time, q.created_at, q.updated_at,
			   pu.name AS patient_name, p.avatar_url AS patient_avatar
		FROM queue_entries q
		JOIN patients p ON p.id = q.patient_id
		JOIN users pu ON pu.id = p.user_id
		WHERE q.doctor_id = $1 AND q.status IN ('waiting', 'in-progress')
		ORDER BY q.position ASC
	`
	entries := []*model.QueueEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor queue: %w", err)
	}
	return entries, nil
}

func (r *queueRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.QueueStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE queue_entries SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update queue status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CompleteAndCompact marks the entry completed and closes the position gap it
// leaves behind: every waiting entry of the same doctor with a greater position
// is decremented by one. Both writes run in one transaction so a concurrent
// queue read never observes a gap. Completion is idempotent: an entry that is
// already completed is left alone and the compaction does not run again.
func (r *queueRepository) CompleteAndCompact(ctx context.Context, entry *model.QueueEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	var position int
	err = tx.GetContext(ctx, &position,
		`UPDATE queue_entries SET status = 'completed', updated_at = $1
		 WHERE id = $2 AND status <> 'completed'
		 RETURNING position`,
		now, entry.ID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM queue_entries WHERE id = $1)`, entry.ID,
		); err != nil {
			return fmt.Errorf("failed to check queue entry: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		// already completed, nothing to compact
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to complete queue entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE queue_entries
		SET position = position - 1, updated_at = $1
		WHERE doctor_id = $2 AND status = 'waiting' AND position > $3
	`, now, entry.DoctorID, position)
	if err != nil {
		return fmt.Errorf("failed to compact queue positions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit queue completion: %w", err)
	}
	return nil
}
