package realtime

import (
	"context"
	"encoding/json"
	"time"
)

// Tables carrying a change feed.
const (
	TableAttendance = "attendance"
	TableEvents     = "events"
	TableComplaints = "complaints"
)

// Actions a change event can describe.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
)

// Event is a single committed change on a table.
type Event struct {
	Table   string          `json:"table"`
	Action  string          `json:"action"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// Broker distributes change events to subscribers. Delivery is best-effort:
// events published while nobody listens are gone, and a subscriber that cannot
// keep up loses events rather than blocking the publisher. Per-table channels
// deliver in publish order.
type Broker interface {
	Publish(ctx context.Context, evt Event) error
	// Subscribe returns a channel of events for one table and a release
	// function. The channel is closed when the release function runs or the
	// context is cancelled.
	Subscribe(ctx context.Context, table string) (<-chan Event, func())
}
