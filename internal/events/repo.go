package events

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists events and registrations in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const eventColumns = `id, title, COALESCE(description, ''), event_type, start_date, end_date,
	COALESCE(location, ''), capacity, registered_count, registration_required,
	registration_deadline, organizer_id, status, COALESCE(banner_url, ''), created_at, updated_at`

// Insert writes a new event.
func (r *Repository) Insert(ctx context.Context, evt Event) (Event, error) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO events
			(id, title, description, event_type, start_date, end_date, location,
			 capacity, registration_required, registration_deadline, organizer_id, status, banner_url)
		VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,NULLIF($7,''),$8,$9,$10,$11,$12,NULLIF($13,''))
		RETURNING created_at, updated_at
	`, evt.ID, evt.Title, evt.Description, evt.EventType, evt.StartDate, evt.EndDate, evt.Location,
		evt.Capacity, evt.RegistrationRequired, evt.RegistrationDeadline, evt.OrganizerID, evt.Status, evt.BannerURL)
	if err := row.Scan(&evt.CreatedAt, &evt.UpdatedAt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// List returns all events ordered by start date.
func (r *Repository) List(ctx context.Context) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events ORDER BY start_date ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, evt)
	}
	return res, rows.Err()
}

// ByID fetches a single event.
func (r *Repository) ByID(ctx context.Context, id string) (Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events WHERE id = $1
	`, id)
	if err != nil {
		return Event{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Event{}, err
		}
		return Event{}, ErrEventNotFound
	}
	return scanEvent(rows)
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var evt Event
	err := rows.Scan(&evt.ID, &evt.Title, &evt.Description, &evt.EventType, &evt.StartDate, &evt.EndDate,
		&evt.Location, &evt.Capacity, &evt.RegisteredCount, &evt.RegistrationRequired,
		&evt.RegistrationDeadline, &evt.OrganizerID, &evt.Status, &evt.BannerURL, &evt.CreatedAt, &evt.UpdatedAt)
	if err != nil {
		return Event{}, err
	}
	return evt, nil
}

// InsertRegistration writes one registration. The unique (event_id, user_id)
// index turns a repeat registration into ErrAlreadyRegistered.
func (r *Repository) InsertRegistration(ctx context.Context, reg Registration) (Registration, error) {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO event_registrations (id, event_id, user_id, attendance_status)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (event_id, user_id) DO NOTHING
		RETURNING registration_date
	`, reg.ID, reg.EventID, reg.UserID, reg.AttendanceStatus)
	if err := row.Scan(&reg.RegistrationDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Registration{}, ErrAlreadyRegistered
		}
		return Registration{}, err
	}
	return reg, nil
}

// IncrementRegistered bumps the event's registered counter.
func (r *Repository) IncrementRegistered(ctx context.Context, eventID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE events SET registered_count = registered_count + 1, updated_at = $2 WHERE id = $1
	`, eventID, at)
	return err
}

// UserRegistrations returns a user's registrations newest first, each with its
// event embedded (single-level relation fetch).
func (r *Repository) UserRegistrations(ctx context.Context, userID string) ([]Registration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT reg.id, reg.event_id, reg.user_id, reg.attendance_status, reg.registration_date,
		       e.id, e.title, COALESCE(e.description, ''), e.event_type, e.start_date, e.end_date,
		       COALESCE(e.location, ''), e.capacity, e.registered_count, e.registration_required,
		       e.registration_deadline, e.organizer_id, e.status, COALESCE(e.banner_url, ''), e.created_at, e.updated_at
		FROM event_registrations reg
		JOIN events e ON e.id = reg.event_id
		WHERE reg.user_id = $1
		ORDER BY reg.registration_date DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Registration
	for rows.Next() {
		var reg Registration
		var evt Event
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.AttendanceStatus, &reg.RegistrationDate,
			&evt.ID, &evt.Title, &evt.Description, &evt.EventType, &evt.StartDate, &evt.EndDate,
			&evt.Location, &evt.Capacity, &evt.RegisteredCount, &evt.RegistrationRequired,
			&evt.RegistrationDeadline, &evt.OrganizerID, &evt.Status, &evt.BannerURL, &evt.CreatedAt, &evt.UpdatedAt); err != nil {
			return nil, err
		}
		reg.Event = &evt
		res = append(res, reg)
	}
	return res, rows.Err()
}
