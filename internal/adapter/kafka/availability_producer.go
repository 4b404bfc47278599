package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	"github.com/Temutjin2k/driver-presence/pkg/metrics"
	kafkago "github.com/segmentio/kafka-go"
)

const TopicDriverAvailability = "driver-availability"

// Writer is satisfied by *kafkago.Writer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// AvailabilityProducer publishes availability transitions keyed by driver id,
// so events of one driver stay ordered within a partition.
type AvailabilityProducer struct {
	writer Writer
}

func NewAvailabilityProducer(brokers []string, topic string) *AvailabilityProducer {
	if topic == "" {
		topic = TopicDriverAvailability
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewAvailabilityProducerWithWriter(w)
}

func NewAvailabilityProducerWithWriter(w Writer) *AvailabilityProducer {
	return &AvailabilityProducer{writer: w}
}

func (p *AvailabilityProducer) PublishAvailability(ctx context.Context, ev models.AvailabilityEvent) error {
	const op = "KafkaAvailabilityProducer.PublishAvailability"
	ctx = wrap.WithAction(ctx, types.ActionBrokerPublish)

	body, err := json.Marshal(ev)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: failed to marshal message: %w", op, err))
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(ev.DriverID),
		Value: body,
		Time:  ev.Timestamp,
	})
	metrics.RecordBrokerPublish(types.BrokerKafka, err)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: failed to write message: %w", op, err))
	}
	return nil
}

func (p *AvailabilityProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
