// Package events publishes ledger events onto a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/metrics"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

// Stream message fields.
const (
	FieldType    = "type"
	FieldPayload = "payload"
)

type RedisPublisher struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	stream  string
}

func NewRedisPublisher(client *redis.Client, breaker *gobreaker.CircuitBreaker, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, breaker: breaker, stream: stream}
}

func (p *RedisPublisher) Publish(ctx context.Context, event models.LedgerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			Values: map[string]any{
				FieldType:    string(event.Type),
				FieldPayload: string(payload),
			},
		}).Result()
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	metrics.EventsPublished.WithLabelValues(string(event.Type), "ok").Inc()
	return nil
}

// Decode reads an event back out of stream message values.
func Decode(values map[string]interface{}) (models.LedgerEvent, error) {
	raw, ok := values[FieldPayload].(string)
	if !ok {
		return models.LedgerEvent{}, fmt.Errorf("message has no %q field", FieldPayload)
	}
	var event models.LedgerEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return models.LedgerEvent{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// Discard drops every event. Used when Redis is not configured.
type Discard struct{}

func (Discard) Publish(context.Context, models.LedgerEvent) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []models.LedgerEvent
}

func (r *Recorder) Publish(_ context.Context, event models.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []models.LedgerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.LedgerEvent(nil), r.events...)
}
