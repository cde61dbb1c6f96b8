package complaints

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	complaints map[string]Complaint
	nextID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{complaints: make(map[string]Complaint)}
}

func (f *fakeStore) Insert(_ context.Context, c Complaint) (Complaint, error) {
	f.nextID++
	c.ID = "cmp-" + strconv.Itoa(f.nextID)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.complaints[c.ID] = c
	return c, nil
}

func (f *fakeStore) ByID(_ context.Context, id string) (Complaint, error) {
	if c, ok := f.complaints[id]; ok {
		return c, nil
	}
	return Complaint{}, ErrNotFound
}

func (f *fakeStore) ListAll(_ context.Context) ([]Complaint, error) {
	var res []Complaint
	for _, c := range f.complaints {
		res = append(res, c)
	}
	return res, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]Complaint, error) {
	var res []Complaint
	for _, c := range f.complaints {
		if c.UserID == userID {
			res = append(res, c)
		}
	}
	return res, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id, status, notes, assignedTo string, resolvedAt *time.Time, at time.Time) error {
	c, ok := f.complaints[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	if notes != "" {
		c.ResolutionNotes = notes
	}
	if assignedTo != "" {
		c.AssignedTo = assignedTo
	}
	if resolvedAt != nil {
		c.ResolvedAt = resolvedAt
	}
	c.UpdatedAt = at
	f.complaints[id] = c
	return nil
}

func fileComplaint(t *testing.T, svc *Service) Complaint {
	t.Helper()
	c, err := svc.File(context.Background(), "student-1", "Leaking tap", "Bathroom tap leaks all night", "hostel", "")
	require.NoError(t, err)
	return c
}

func TestFileDefaultsPriorityAndStatus(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	c := fileComplaint(t, svc)

	assert.Equal(t, StatusPending, c.Status)
	assert.Equal(t, "medium", c.Priority)
}

func TestFileRejectsUnknownCategory(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.File(context.Background(), "student-1", "Bad", "Something", "weather", "low")
	assert.Error(t, err)
}

func TestTransitionLifecycle(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	c := fileComplaint(t, svc)

	c2, err := svc.Transition(context.Background(), c.ID, StatusInProgress, "", "warden-1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, c2.Status)
	assert.Equal(t, "warden-1", c2.AssignedTo)
	assert.Nil(t, c2.ResolvedAt)

	c3, err := svc.Transition(context.Background(), c.ID, StatusResolved, "Fixed the washer", "warden-1")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, c3.Status)
	assert.Equal(t, "Fixed the washer", c3.ResolutionNotes)
	require.NotNil(t, c3.ResolvedAt)
}

func TestTransitionClosedTicketsStayClosed(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	c := fileComplaint(t, svc)

	_, err := svc.Transition(context.Background(), c.ID, StatusRejected, "Not our building", "warden-1")
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), c.ID, StatusInProgress, "", "warden-1")
	assert.ErrorIs(t, err, ErrBadTransition)
}

func TestTransitionUnknownComplaint(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.Transition(context.Background(), "missing", StatusResolved, "", "warden-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMineFiltersByUser(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	fileComplaint(t, svc)
	_, err := svc.File(context.Background(), "student-2", "Wifi down", "No network in block B", "infrastructure", "high")
	require.NoError(t, err)

	mine, err := svc.Mine(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "student-1", mine[0].UserID)
}
