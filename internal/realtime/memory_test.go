package realtime

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func TestMemoryBrokerDeliversInOrder(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	ch, release := b.Subscribe(ctx, TableAttendance)
	defer release()

	for i := 0; i < 5; i++ {
		if err := b.Publish(ctx, Event{Table: TableAttendance, Action: ActionInsert, ID: strconv.Itoa(i)}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		select {
		case evt := <-ch:
			if evt.ID != strconv.Itoa(i) {
				t.Errorf("position %d: expected id %d, got %s", i, i, evt.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d never arrived", i)
		}
	}
}

func TestMemoryBrokerScopesByTable(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	attCh, attRelease := b.Subscribe(ctx, TableAttendance)
	defer attRelease()
	evtCh, evtRelease := b.Subscribe(ctx, TableEvents)
	defer evtRelease()

	if err := b.Publish(ctx, Event{Table: TableEvents, Action: ActionUpdate, ID: "e1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case evt := <-evtCh:
		if evt.ID != "e1" {
			t.Errorf("expected e1, got %s", evt.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("events subscriber never got the event")
	}

	select {
	case evt := <-attCh:
		t.Fatalf("attendance subscriber leaked event %+v", evt)
	default:
	}
}

func TestMemoryBrokerReleaseClosesChannel(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	ch, release := b.Subscribe(ctx, TableComplaints)
	release()
	release() // second call is safe

	if _, open := <-ch; open {
		t.Fatal("channel should be closed after release")
	}

	// Publishing after release must not panic or deliver.
	if err := b.Publish(ctx, Event{Table: TableComplaints, ID: "c1"}); err != nil {
		t.Fatalf("publish after release: %v", err)
	}
}

func TestMemoryBrokerDropsWhenSubscriberLagsBehind(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	ch, release := b.Subscribe(ctx, TableAttendance)
	defer release()

	// Overfill the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			_ = b.Publish(ctx, Event{Table: TableAttendance, ID: strconv.Itoa(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	var got int
	for {
		select {
		case <-ch:
			got++
			continue
		default:
		}
		break
	}
	if got == 0 || got > 64 {
		t.Fatalf("expected between 1 and 64 buffered events, got %d", got)
	}
}
