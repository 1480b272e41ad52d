package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rollcall/internal/config"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

// Notifier consumes notification messages from the redis queue and logs
// them. It only makes sense alongside QUEUE_BACKEND=redis; with the
// in-memory queue the api process drains its own queue.
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

	redisClient := store.NewRedis(cfg.RedisAddr)
	if !redisClient.Healthy(ctx) {
		log.Fatalf("redis not reachable at %s", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, "rollcall:notifications")
	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("notifier started, waiting for messages...")
	for msg := range messages {
		queue.LogDelivery(msg)
	}
	log.Println("notifier stopped")
}
