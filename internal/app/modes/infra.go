package modes

import (
	"context"
	"errors"
	"fmt"

	"github.com/Temutjin2k/driver-presence/config"
	"github.com/Temutjin2k/driver-presence/internal/adapter/kafka"
	"github.com/Temutjin2k/driver-presence/internal/adapter/memory"
	repo "github.com/Temutjin2k/driver-presence/internal/adapter/postgres"
	"github.com/Temutjin2k/driver-presence/internal/adapter/rabbit"
	redisstore "github.com/Temutjin2k/driver-presence/internal/adapter/redis"
	"github.com/Temutjin2k/driver-presence/internal/adapter/storage"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/internal/service/availability"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	postgresclient "github.com/Temutjin2k/driver-presence/pkg/postgres"
	rabbitclient "github.com/Temutjin2k/driver-presence/pkg/rabbit"
	redisclient "github.com/Temutjin2k/driver-presence/pkg/redis"
)

var ErrUnknownBackend = errors.New("unknown backend")

// closer releases a connection opened at startup.
type closer func(ctx context.Context)

func noopCloser(context.Context) {}

// openStore builds the persisted key store selected by STORE_KIND.
func openStore(ctx context.Context, cfg config.Config, log logger.Logger) (*storage.Storage, closer, error) {
	switch cfg.Store.Kind {
	case types.StoreMemory:
		log.Warn(ctx, "using in-memory store, agent and reporter processes will not share state")
		return storage.New(memory.NewStore()), noopCloser, nil

	case types.StoreRedis:
		client, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		log.Info(ctx, "connected to redis", "addr", cfg.Redis.Addr)
		return storage.New(redisstore.NewStore(client, cfg.Redis.Prefix)), func(ctx context.Context) {
			if err := client.Close(); err != nil {
				log.Warn(ctx, "failed to close redis client", "error", err.Error())
			}
		}, nil

	case types.StorePostgres:
		db, err := postgresclient.New(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		kv := repo.NewKVRepo(db.Pool)
		if err := kv.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		log.Info(ctx, "connected to postgres", "host", cfg.Database.Host)
		return storage.New(kv), func(context.Context) { db.Close() }, nil
	}

	return nil, nil, fmt.Errorf("%w: store %q", ErrUnknownBackend, cfg.Store.Kind)
}

// openPublisher builds the broker publisher selected by BROKER_KIND. With
// kind none it returns a nil publisher.
func openPublisher(ctx context.Context, cfg config.Config, log logger.Logger) (availability.Publisher, closer, error) {
	switch cfg.Broker.Kind {
	case types.BrokerNone:
		return nil, noopCloser, nil

	case types.BrokerRabbitMQ:
		client, err := rabbitclient.New(ctx, cfg.RabbitMQ.GetDSN(), log)
		if err != nil {
			return nil, nil, fmt.Errorf("open rabbitmq publisher: %w", err)
		}
		producer, err := rabbit.NewAvailabilityProducer(client, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			_ = client.Close(ctx)
			return nil, nil, fmt.Errorf("open rabbitmq publisher: %w", err)
		}
		log.Info(ctx, "publishing availability to rabbitmq", "exchange", cfg.RabbitMQ.Exchange)
		return producer, func(ctx context.Context) {
			if err := client.Close(ctx); err != nil {
				log.Warn(ctx, "failed to close rabbitmq client", "error", err.Error())
			}
		}, nil

	case types.BrokerKafka:
		producer := kafka.NewAvailabilityProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info(ctx, "publishing availability to kafka", "topic", cfg.Kafka.Topic)
		return producer, func(ctx context.Context) {
			if err := producer.Close(); err != nil {
				log.Warn(ctx, "failed to close kafka writer", "error", err.Error())
			}
		}, nil
	}

	return nil, nil, fmt.Errorf("%w: broker %q", ErrUnknownBackend, cfg.Broker.Kind)
}
