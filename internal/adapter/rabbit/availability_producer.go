package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	"github.com/Temutjin2k/driver-presence/pkg/metrics"
)

const ExchangeDriverTopic = "driver_topic"

const (
	publishAttempts = 3
	publishBackoff  = 200 * time.Millisecond
)

// Publisher is satisfied by *rabbit.RabbitMQ.
type Publisher interface {
	DeclareTopic(name string) error
	Publish(ctx context.Context, exchange, key string, body []byte) error
	EnsureConnection(ctx context.Context) error
}

// AvailabilityProducer publishes availability transitions to a topic exchange.
type AvailabilityProducer struct {
	client   Publisher
	exchange string
	l        logger.Logger
}

func NewAvailabilityProducer(client Publisher, exchange string, l logger.Logger) (*AvailabilityProducer, error) {
	if exchange == "" {
		exchange = ExchangeDriverTopic
	}
	if err := client.DeclareTopic(exchange); err != nil {
		return nil, err
	}

	return &AvailabilityProducer{
		client:   client,
		exchange: exchange,
		l:        l,
	}, nil
}

// PublishAvailability publishes ev with routing key driver.availability.<driver_id>.
func (p *AvailabilityProducer) PublishAvailability(ctx context.Context, ev models.AvailabilityEvent) error {
	const op = "AvailabilityProducer.PublishAvailability"
	ctx = wrap.WithAction(ctx, types.ActionBrokerPublish)

	body, err := json.Marshal(ev)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: failed to marshal message: %w", op, err))
	}

	key := fmt.Sprintf("driver.availability.%s", ev.DriverID)

	err = retry(ctx, publishAttempts, publishBackoff, func() error {
		if err := p.client.EnsureConnection(ctx); err != nil {
			return err
		}
		return p.client.Publish(ctx, p.exchange, key, body)
	})
	metrics.RecordBrokerPublish(types.BrokerRabbitMQ, err)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: failed to publish: %w", op, err))
	}

	p.l.Debug(ctx, "availability event published", "routing_key", key, "is_online", ev.IsOnline)
	return nil
}
