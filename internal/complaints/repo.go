package complaints

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists complaints in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const complaintColumns = `id, user_id, subject, description, category, priority, status,
	COALESCE(assigned_to, ''), COALESCE(resolution_notes, ''), resolved_at, created_at, updated_at`

// Insert files a new complaint.
func (r *Repository) Insert(ctx context.Context, c Complaint) (Complaint, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO complaints (id, user_id, subject, description, category, priority, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at
	`, c.ID, c.UserID, c.Subject, c.Description, c.Category, c.Priority, c.Status)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return Complaint{}, err
	}
	return c, nil
}

// ByID fetches one complaint.
func (r *Repository) ByID(ctx context.Context, id string) (Complaint, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+complaintColumns+` FROM complaints WHERE id = $1
	`, id)
	var c Complaint
	err := row.Scan(&c.ID, &c.UserID, &c.Subject, &c.Description, &c.Category, &c.Priority,
		&c.Status, &c.AssignedTo, &c.ResolutionNotes, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Complaint{}, ErrNotFound
	}
	if err != nil {
		return Complaint{}, err
	}
	return c, nil
}

// ListAll returns every complaint, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Complaint, error) {
	return r.list(ctx, `SELECT `+complaintColumns+` FROM complaints ORDER BY created_at DESC`)
}

// ListByUser returns one user's complaints, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Complaint, error) {
	return r.list(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Complaint, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Complaint
	for rows.Next() {
		var c Complaint
		if err := rows.Scan(&c.ID, &c.UserID, &c.Subject, &c.Description, &c.Category, &c.Priority,
			&c.Status, &c.AssignedTo, &c.ResolutionNotes, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// UpdateStatus moves a complaint to a new status, stamping resolution fields.
func (r *Repository) UpdateStatus(ctx context.Context, id, status, notes, assignedTo string, resolvedAt *time.Time, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE complaints
		SET status = $2,
		    resolution_notes = COALESCE(NULLIF($3, ''), resolution_notes),
		    assigned_to = COALESCE(NULLIF($4, ''), assigned_to),
		    resolved_at = COALESCE($5, resolved_at),
		    updated_at = $6
		WHERE id = $1
	`, id, status, notes, assignedTo, resolvedAt, at)
	return err
}
