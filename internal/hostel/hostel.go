package hostel

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Hostel is one residence building.
type Hostel struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	Capacity         int       `json:"capacity"`
	CurrentOccupancy int       `json:"current_occupancy"`
	WardenID         string    `json:"warden_id,omitempty"`
	Address          string    `json:"address,omitempty"`
	Amenities        []string  `json:"amenities,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Room is one room within a hostel. HostelName is the single-level
// relation fetch the room listing embeds.
type Room struct {
	ID               string    `json:"id"`
	HostelID         string    `json:"hostel_id"`
	HostelName       string    `json:"hostel_name,omitempty"`
	RoomNumber       string    `json:"room_number"`
	Capacity         int       `json:"capacity"`
	CurrentOccupancy int       `json:"current_occupancy"`
	Status           string    `json:"status"`
	RentPerMonth     *int      `json:"rent_per_month,omitempty"`
	Amenities        []string  `json:"amenities,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ErrHostelNotFound reports a lookup miss.
var ErrHostelNotFound = errors.New("hostel not found")

// Repository reads hostel and room occupancy from Postgres. Occupancy data is
// maintained out of band by wardens; this side only browses it.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListHostels returns all hostels ordered by name.
func (r *Repository) ListHostels(ctx context.Context) ([]Hostel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, capacity, current_occupancy, COALESCE(warden_id, ''),
		       COALESCE(address, ''), array_to_string(amenities, ','), created_at, updated_at
		FROM hostels
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Hostel
	for rows.Next() {
		var h Hostel
		var amenities string
		if err := rows.Scan(&h.ID, &h.Name, &h.Type, &h.Capacity, &h.CurrentOccupancy,
			&h.WardenID, &h.Address, &amenities, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		h.Amenities = splitAmenities(amenities)
		res = append(res, h)
	}
	return res, rows.Err()
}

// RoomsByHostel returns a hostel's rooms ordered by room number, each with
// the hostel name embedded.
func (r *Repository) RoomsByHostel(ctx context.Context, hostelID string) ([]Room, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM hostels WHERE id = $1)`, hostelID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrHostelNotFound
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT rm.id, rm.hostel_id, h.name, rm.room_number, rm.capacity, rm.current_occupancy,
		       rm.status, rm.rent_per_month, array_to_string(rm.amenities, ','), rm.created_at, rm.updated_at
		FROM rooms rm
		JOIN hostels h ON h.id = rm.hostel_id
		WHERE rm.hostel_id = $1
		ORDER BY rm.room_number
	`, hostelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Room
	for rows.Next() {
		var rm Room
		var amenities string
		if err := rows.Scan(&rm.ID, &rm.HostelID, &rm.HostelName, &rm.RoomNumber, &rm.Capacity,
			&rm.CurrentOccupancy, &rm.Status, &rm.RentPerMonth, &amenities, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, err
		}
		rm.Amenities = splitAmenities(amenities)
		res = append(res, rm)
	}
	return res, rows.Err()
}

func splitAmenities(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
