package ports

import (
	"context"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

// LoginThrottle counts failed logins per key.
type LoginThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.LedgerEvent) error
}
