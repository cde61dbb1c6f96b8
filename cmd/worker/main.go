package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campuslink/internal/attendance"
	"campuslink/internal/config"
	"campuslink/internal/profile"
	"campuslink/internal/queue"
	"campuslink/internal/store"
)

// Worker consumes attendance messages and fans them out into each student's
// notification feed, keeping feed writes off the request path.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "campus:notify")
	}

	profiles := profile.NewService(profile.NewRepository(db.Client))

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "attendance" {
			continue
		}

		var rec attendance.Record
		if err := json.Unmarshal(msg.Body, &rec); err != nil {
			log.Printf("decode attendance message: %v", err)
			continue
		}

		n := profile.Notification{
			UserID:   rec.UserID,
			Title:    "Attendance recorded",
			Message:  rec.Subject + " (" + rec.TimeSlot + ") marked " + string(rec.Status),
			Type:     "success",
			Category: "attendance",
		}
		if rec.Status != attendance.StatusPresent {
			n.Type = "warning"
		}

		if _, err := profiles.Notify(ctx, n); err != nil {
			log.Printf("notification for record %s failed: %v", rec.ID, err)
			continue
		}
		log.Printf("record %s fanned out to %s", rec.ID, rec.UserID)
	}

	log.Println("worker stopped")
}
