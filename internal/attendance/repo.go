package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance codes and the ledger in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertCode writes a freshly issued code.
func (r *Repository) InsertCode(ctx context.Context, code Code) (Code, error) {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_qr_codes
			(id, code, class_subject, class_type, time_slot, location, date, expires_at, is_active, teacher_id)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8,$9,$10)
		RETURNING created_at
	`, code.ID, code.Code, code.Subject, code.ClassType, code.TimeSlot, code.Location,
		code.Date, code.ExpiresAt, code.IsActive, code.TeacherID)
	if err := row.Scan(&code.CreatedAt); err != nil {
		return Code{}, err
	}
	return code, nil
}

// CodeByToken looks a code up by its exact token.
func (r *Repository) CodeByToken(ctx context.Context, token string) (Code, error) {
	return scanCode(r.db.QueryRowContext(ctx, `
		SELECT id, code, class_subject, class_type, time_slot, COALESCE(location, ''),
		       date, expires_at, is_active, teacher_id, created_at
		FROM attendance_qr_codes WHERE code = $1
	`, token))
}

// CodeByID looks a code up by identifier.
func (r *Repository) CodeByID(ctx context.Context, id string) (Code, error) {
	return scanCode(r.db.QueryRowContext(ctx, `
		SELECT id, code, class_subject, class_type, time_slot, COALESCE(location, ''),
		       date, expires_at, is_active, teacher_id, created_at
		FROM attendance_qr_codes WHERE id = $1
	`, id))
}

func scanCode(row *sql.Row) (Code, error) {
	var c Code
	err := row.Scan(&c.ID, &c.Code, &c.Subject, &c.ClassType, &c.TimeSlot, &c.Location,
		&c.Date, &c.ExpiresAt, &c.IsActive, &c.TeacherID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Code{}, ErrCodeNotFound
	}
	if err != nil {
		return Code{}, err
	}
	return c, nil
}

// DeactivateCode flips is_active off. Already-inactive codes are a no-op.
func (r *Repository) DeactivateCode(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance_qr_codes SET is_active = FALSE WHERE id = $1
	`, id)
	return err
}

// CodesByDate returns every code issued for one calendar date, newest first.
func (r *Repository) CodesByDate(ctx context.Context, date string) ([]Code, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, class_subject, class_type, time_slot, COALESCE(location, ''),
		       date, expires_at, is_active, teacher_id, created_at
		FROM attendance_qr_codes
		WHERE date = $1
		ORDER BY created_at DESC
	`, date)
	if err != nil {
		return nil, err
	}
	return collectCodes(rows)
}

// ActiveCodes returns codes for a date that are active and not yet expired,
// ordered by time slot for the "classes right now" listing.
func (r *Repository) ActiveCodes(ctx context.Context, date string, now time.Time) ([]Code, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, class_subject, class_type, time_slot, COALESCE(location, ''),
		       date, expires_at, is_active, teacher_id, created_at
		FROM attendance_qr_codes
		WHERE date = $1 AND is_active = TRUE AND expires_at > $2
		ORDER BY time_slot
	`, date, now)
	if err != nil {
		return nil, err
	}
	return collectCodes(rows)
}

func collectCodes(rows *sql.Rows) ([]Code, error) {
	defer rows.Close()
	var res []Code
	for rows.Next() {
		var c Code
		if err := rows.Scan(&c.ID, &c.Code, &c.Subject, &c.ClassType, &c.TimeSlot, &c.Location,
			&c.Date, &c.ExpiresAt, &c.IsActive, &c.TeacherID, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// HasRecord reports whether the ledger already holds an entry for this session key.
func (r *Repository) HasRecord(ctx context.Context, userID, date, timeSlot, subject string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM attendance
		WHERE user_id = $1 AND date = $2 AND time_slot = $3 AND class_subject = $4
	`, userID, date, timeSlot, subject).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertRecord writes one ledger entry. The unique index over
// (user_id, date, time_slot, class_subject) is the hard guard against the
// check-then-insert race: a conflicting insert affects no rows and surfaces
// as ErrDuplicate.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.MarkedAt.IsZero() {
		rec.MarkedAt = time.Now().UTC()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance
			(id, user_id, date, time_slot, class_subject, class_type, status, location, marked_at, marked_by, qr_code_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),$9,NULLIF($10,''),NULLIF($11,''))
		ON CONFLICT (user_id, date, time_slot, class_subject) DO NOTHING
		RETURNING marked_at
	`, rec.ID, rec.UserID, rec.Date, rec.TimeSlot, rec.Subject, rec.ClassType, rec.Status,
		rec.Location, rec.MarkedAt, rec.MarkedBy, rec.CodeID)
	if err := row.Scan(&rec.MarkedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrDuplicate
		}
		return Record{}, err
	}
	return rec, nil
}

// RecordsByDate returns every ledger entry for a date, newest first.
func (r *Repository) RecordsByDate(ctx context.Context, date string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, time_slot, class_subject, class_type, status,
		       COALESCE(location, ''), marked_at, COALESCE(marked_by, ''), COALESCE(qr_code_id, '')
		FROM attendance
		WHERE date = $1
		ORDER BY marked_at DESC
	`, date)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// UserRecords returns one user's ledger entries for a date, newest first.
func (r *Repository) UserRecords(ctx context.Context, userID, date string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, time_slot, class_subject, class_type, status,
		       COALESCE(location, ''), marked_at, COALESCE(marked_by, ''), COALESCE(qr_code_id, '')
		FROM attendance
		WHERE user_id = $1 AND date = $2
		ORDER BY marked_at DESC
	`, userID, date)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.TimeSlot, &rec.Subject, &rec.ClassType,
			&rec.Status, &rec.Location, &rec.MarkedAt, &rec.MarkedBy, &rec.CodeID); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
