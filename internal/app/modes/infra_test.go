package modes

import (
	"context"
	"errors"
	"testing"

	"github.com/Temutjin2k/driver-presence/config"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
)

func TestOpenStore_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{Store: config.StoreConfig{Kind: types.StoreMemory}}

	store, closeStore, err := openStore(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer closeStore(ctx)

	if err := store.SaveAvailabilityStatus(ctx, types.StatusAvailable); err != nil {
		t.Fatalf("save status: %v", err)
	}
	got, err := store.LoadAvailabilityStatus(ctx)
	if err != nil || got != types.StatusAvailable {
		t.Fatalf("status = %q, %v", got, err)
	}
}

func TestOpenStore_Unknown(t *testing.T) {
	cfg := config.Config{Store: config.StoreConfig{Kind: "sqlite"}}

	if _, _, err := openStore(context.Background(), cfg, logger.Nop()); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestOpenPublisher(t *testing.T) {
	ctx := context.Background()

	pub, closePub, err := openPublisher(ctx, config.Config{Broker: config.BrokerConfig{Kind: types.BrokerNone}}, logger.Nop())
	if err != nil || pub != nil {
		t.Fatalf("none broker: publisher=%v err=%v", pub, err)
	}
	closePub(ctx)

	cfg := config.Config{
		Broker: config.BrokerConfig{Kind: types.BrokerKafka},
		Kafka:  config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "availability"},
	}
	pub, closePub, err = openPublisher(ctx, cfg, logger.Nop())
	if err != nil || pub == nil {
		t.Fatalf("kafka broker: publisher=%v err=%v", pub, err)
	}
	closePub(ctx)

	if _, _, err := openPublisher(ctx, config.Config{Broker: config.BrokerConfig{Kind: "nats"}}, logger.Nop()); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}
