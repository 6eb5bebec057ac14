package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"exambuilder/logger"
)

// RedisBus carries exam events between service instances over Redis pub/sub.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	log     *logger.Logger
}

func NewRedisBus(rdb *redis.Client, channel string, log *logger.Logger) (*RedisBus, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if channel == "" {
		channel = "exam-events"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RedisBus{
		rdb:     rdb,
		channel: channel,
		log:     log.With("service", "RedisBus"),
	}, nil
}

// Publish implements Notifier.
func (b *RedisBus) Publish(ctx context.Context, event ExamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal exam event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// StartForwarder subscribes to the channel and hands every decoded event to
// onEvent until ctx is cancelled.
func (b *RedisBus) StartForwarder(ctx context.Context, onEvent func(ExamEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer func() {
			_ = sub.Unsubscribe(context.Background(), b.channel)
			_ = sub.Close()
		}()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				event, err := decodeEvent(m.Payload)
				if err != nil {
					b.log.Warn("bad exam event payload", "error", err)
					continue
				}
				onEvent(event)
			}
		}
	}()

	return nil
}

func decodeEvent(payload string) (ExamEvent, error) {
	var event ExamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return ExamEvent{}, err
	}
	if event.Type == "" || event.ExamID == 0 {
		return ExamEvent{}, fmt.Errorf("incomplete exam event %q", payload)
	}
	return event, nil
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
