package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository"
)

type doctorRepository struct {
	db *sqlx.DB
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{db: db}
}

const doctorJoinedColumns = `
	d.id, d.user_id, d.specialization, d.experience_years, d.license_number,
	d.verification_status, d.availability, d.avatar_url, d.created_at, d.updated_at,
	u.name AS name
`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, user_id, specialization, experience_years, license_number,
			verification_status, availability, avatar_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	doctor.ID = uuid.New()
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = doctor.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.UserID,
		doctor.Specialization,
		doctor.ExperienceYrs,
		doctor.LicenseNumber,
		doctor.Verification,
		doctor.Availability,
		doctor.AvatarURL,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT ` + doctorJoinedColumns + `
		FROM doctors d
		JOIN users u ON u.id = d.user_id
		WHERE d.id = $1
	`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT ` + doctorJoinedColumns + `
		FROM doctors d
		JOIN users u ON u.id = d.user_id
		WHERE d.user_id = $1
	`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get doctor by user: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) UpdateAvailability(ctx context.Context, id uuid.UUID, availability model.Availability) error {
	return r.updateColumn(ctx, id, "availability", availability)
}

func (r *doctorRepository) UpdateVerification(ctx context.Context, id uuid.UUID, status model.VerificationStatus) error {
	return r.updateColumn(ctx, id, "verification_status", status)
}

func (r *doctorRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error {
	return r.updateColumn(ctx, id, "avatar_url", url)
}

func (r *doctorRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	query := fmt.Sprintf(`UPDATE doctors SET %s = $1, updated_at = $2 WHERE id = $3`, column)
	result, err := r.db.ExecContext(ctx, query, value, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update doctor %s: %w", column, err)
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

func (r *doctorRepository) ListApproved(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, int64, error) {
	where := ` WHERE d.verification_status = 'approved'`
	args := []interface{}{}
	argCount := 1

	if filters.Specialization != "" {
		where += fmt.Sprintf(" AND d.specialization = $%d", argCount)
		args = append(args, filters.Specialization)
		argCount++
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM doctors d` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count doctors: %w", err)
	}

	query := `
		SELECT ` + doctorJoinedColumns + `
		FROM doctors d
		JOIN users u ON u.id = d.user_id
	` + where + fmt.Sprintf(" ORDER BY u.name ASC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.Limit, (filters.Page-1)*filters.Limit)

	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, total, nil
}
