package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/events"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

// AlertRecorder persists alerts for ledger events.
type AlertRecorder interface {
	RecordFromEvent(ctx context.Context, event models.LedgerEvent) (bool, error)
}

// Processor turns ledger stream messages into parent alerts.
type Processor struct {
	alerts AlertRecorder
	logger zerolog.Logger
}

func NewProcessor(alerts AlertRecorder, logger zerolog.Logger) *Processor {
	return &Processor{alerts: alerts, logger: logger}
}

// Handle returns an error only for failures worth retrying. Malformed or
// unknown messages are logged and acknowledged.
func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	event, err := events.Decode(msg.Values)
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping undecodable message")
		return nil
	}

	switch event.Type {
	case models.EventRewardCredited, models.EventOverBudget:
	default:
		p.logger.Warn().Str("type", string(event.Type)).Str("message_id", msg.ID).Msg("unknown event type")
		return nil
	}

	created, err := p.alerts.RecordFromEvent(ctx, event)
	if errors.Is(err, apperr.ErrValidation) || errors.Is(err, apperr.ErrNotFound) {
		p.logger.Warn().Err(err).Str("event_id", event.ID).Msg("dropping event")
		return nil
	}
	if err != nil {
		return fmt.Errorf("record alert for %s: %w", event.ID, err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("type", string(event.Type)).
		Bool("created", created).
		Msg("ledger event processed")
	return nil
}
