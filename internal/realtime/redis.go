package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "campus:changes:"

// RedisBroker distributes change events over Redis pub/sub so every API
// instance sees writes made by any other. Redis delivers per-channel messages
// in publish order and keeps nothing for absent subscribers, which matches the
// at-most-once contract.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker wraps an existing client.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Publish sends evt on the table's channel.
func (b *RedisBroker) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelPrefix+evt.Table, payload).Err()
}

// Subscribe listens on the table's channel until released.
func (b *RedisBroker) Subscribe(ctx context.Context, table string) (<-chan Event, func()) {
	sub := b.client.Subscribe(ctx, channelPrefix+table)
	out := make(chan Event, 64)

	var once sync.Once
	release := func() {
		once.Do(func() {
			_ = sub.Close()
		})
	}

	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					log.Printf("realtime: drop malformed event on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- evt:
				default:
				}
			case <-ctx.Done():
				release()
				return
			}
		}
	}()

	return out, release
}
