package profile

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists profiles, student updates and notifications in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const profileColumns = `id, user_id, full_name, email, role, COALESCE(student_id, ''),
	COALESCE(department, ''), year, COALESCE(phone, ''), COALESCE(hostel_id, ''),
	COALESCE(room_number, ''), COALESCE(avatar_url, ''), created_at, updated_at`

// ByUserID fetches the profile owned by an identity.
func (r *Repository) ByUserID(ctx context.Context, userID string) (Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID))
}

// ByID fetches a profile by its row id.
func (r *Repository) ByID(ctx context.Context, id string) (Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

// ByEmail fetches a profile by email, for login.
func (r *Repository) ByEmail(ctx context.Context, email string) (Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email))
}

func scanProfile(row *sql.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Email, &p.Role, &p.StudentID,
		&p.Department, &p.Year, &p.Phone, &p.HostelID, &p.RoomNumber, &p.AvatarURL,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Update writes the mutable profile fields.
func (r *Repository) Update(ctx context.Context, userID string, p UpdateParams, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET full_name = $2, phone = NULLIF($3, ''), department = NULLIF($4, ''), year = $5,
		    hostel_id = NULLIF($6, ''), room_number = NULLIF($7, ''), student_id = NULLIF($8, ''),
		    updated_at = $9
		WHERE user_id = $1
	`, userID, p.FullName, p.Phone, p.Department, p.Year, p.HostelID, p.RoomNumber, p.StudentID, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStudents returns every student profile ordered by name.
func (r *Repository) ListStudents(ctx context.Context) ([]Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE role = 'student' ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.FullName, &p.Email, &p.Role, &p.StudentID,
			&p.Department, &p.Year, &p.Phone, &p.HostelID, &p.RoomNumber, &p.AvatarURL,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// InsertStudentUpdate files a staff note about a student.
func (r *Repository) InsertStudentUpdate(ctx context.Context, u StudentUpdate) (StudentUpdate, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO student_updates (id, student_id, staff_id, title, description, update_type, priority)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, u.ID, u.StudentID, u.StaffID, u.Title, u.Description, u.UpdateType, u.Priority)
	if err := row.Scan(&u.CreatedAt); err != nil {
		return StudentUpdate{}, err
	}
	return u, nil
}

// ListStudentUpdates returns recent staff notes with student and staff names
// embedded, newest first.
func (r *Repository) ListStudentUpdates(ctx context.Context, limit int) ([]StudentUpdate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.student_id, u.staff_id, u.title, u.description, u.update_type, u.priority,
		       u.created_at, st.full_name, sf.full_name
		FROM student_updates u
		JOIN profiles st ON st.id = u.student_id
		JOIN profiles sf ON sf.id = u.staff_id
		ORDER BY u.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []StudentUpdate
	for rows.Next() {
		var u StudentUpdate
		if err := rows.Scan(&u.ID, &u.StudentID, &u.StaffID, &u.Title, &u.Description,
			&u.UpdateType, &u.Priority, &u.CreatedAt, &u.StudentName, &u.StaffName); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// InsertNotification appends one feed row.
func (r *Repository) InsertNotification(ctx context.Context, n Notification) (Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, category)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, n.ID, n.UserID, n.Title, n.Message, n.Type, n.Category)
	if err := row.Scan(&n.CreatedAt); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// ListNotifications returns a user's feed, newest first.
func (r *Repository) ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, type, category, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Category,
			&n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

// MarkNotificationRead flips one feed row to read for its owner.
func (r *Repository) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
