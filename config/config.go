package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/configparser"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	"github.com/Temutjin2k/driver-presence/pkg/validator"
	goredis "github.com/redis/go-redis/v9"
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode     types.ServiceMode
		LogLevel string `env:"LOG_LEVEL" default:"INFO"`

		Server       ServerConfig
		API          APIConfig
		Telemetry    TelemetryConfig
		Location     LocationConfig
		Realtime     RealtimeConfig
		Availability AvailabilityConfig
		Dispatch     DispatchConfig

		Store    StoreConfig
		Redis    RedisConfig
		Database DatabaseConfig

		Broker   BrokerConfig
		RabbitMQ RabbitMQConfig
		Kafka    KafkaConfig
	}

	// ServerConfig is the local control API.
	ServerConfig struct {
		Host string `env:"SERVER_HOST" default:"127.0.0.1"`
		Port string `env:"SERVER_PORT" default:"8080"`
		// Token, when set, must be sent by the native shell as a bearer token.
		Token string `env:"SERVER_TOKEN" default:""`
	}

	APIConfig struct {
		BaseURL string        `env:"API_BASE_URL" default:"http://localhost:3000"`
		Timeout time.Duration `env:"API_TIMEOUT" default:"10s"`
	}

	TelemetryConfig struct {
		URL             string        `env:"TELEMETRY_URL" default:"http://localhost:3002"`
		Interval        time.Duration `env:"TELEMETRY_INTERVAL" default:"15s"`
		CycleTimeout    time.Duration `env:"TELEMETRY_CYCLE_TIMEOUT" default:"30s"`
		PersistInterval time.Duration `env:"TELEMETRY_PERSIST_INTERVAL" default:"2m"`

		DistanceThresholdM       float64       `env:"TELEMETRY_DISTANCE_THRESHOLD_M" default:"100"`
		TimeThreshold            time.Duration `env:"TELEMETRY_TIME_THRESHOLD" default:"60s"`
		PickupDistanceThresholdM float64       `env:"TELEMETRY_PICKUP_DISTANCE_THRESHOLD_M" default:"20"`
		PickupTimeThreshold      time.Duration `env:"TELEMETRY_PICKUP_TIME_THRESHOLD" default:"30s"`
	}

	LocationConfig struct {
		MaxAge     time.Duration `env:"LOCATION_MAX_AGE" default:"3m"`
		FixTimeout time.Duration `env:"LOCATION_FIX_TIMEOUT" default:"10s"`
		// Permission the device feed starts with.
		Granted bool `env:"LOCATION_GRANTED" default:"true"`
	}

	RealtimeConfig struct {
		URL              string        `env:"REALTIME_URL" default:"ws://localhost:3003/ws"`
		ReconnectDelay   time.Duration `env:"REALTIME_RECONNECT_DELAY" default:"3s"`
		RegisterInterval time.Duration `env:"REALTIME_REGISTER_INTERVAL" default:"3s"`
		AckTimeout       time.Duration `env:"REALTIME_ACK_TIMEOUT" default:"5s"`
	}

	AvailabilityConfig struct {
		ManualDebounce  time.Duration `env:"AVAILABILITY_MANUAL_DEBOUNCE" default:"10s"`
		SyncDebounce    time.Duration `env:"AVAILABILITY_SYNC_DEBOUNCE" default:"10s"`
		SuspensionDelay time.Duration `env:"AVAILABILITY_SUSPENSION_DELAY" default:"3s"`
	}

	DispatchConfig struct {
		DuplicateWindow time.Duration `env:"DISPATCH_DUPLICATE_WINDOW" default:"3s"`
	}

	StoreConfig struct {
		Kind string `env:"STORE_KIND" default:"memory"`
	}

	RedisConfig struct {
		Addr     string `env:"REDIS_ADDR" default:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD" default:""`
		DB       int    `env:"REDIS_DB" default:"0"`
		Prefix   string `env:"REDIS_PREFIX" default:"driver-presence"`
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"presence_user"`
		Password string `env:"DATABASE_PASSWORD" default:"presence_pass"`
		Database string `env:"DATABASE_DATABASE" default:"presence_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"5"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"1"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	BrokerConfig struct {
		Kind string `env:"BROKER_KIND" default:"none"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
		Exchange string `env:"RABBITMQ_EXCHANGE" default:"driver_topic"`
	}

	KafkaConfig struct {
		Brokers []string `env:"KAFKA_BROKERS" default:"localhost:9092"`
		Topic   string   `env:"KAFKA_TOPIC" default:"driver-availability"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c DatabaseConfig) PoolLimits() (int32, int32, time.Duration, time.Duration) {
	return c.MaxConns, c.MinConns, c.MaxConnLifetime, c.MaxConnIdleTime
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func (c RedisConfig) RedisOptions() *goredis.Options {
	return &goredis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}
}

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewConfig loads the YAML file at filepath into the environment, parses the
// environment into Config and applies the mode flag.
func NewConfig(filepath, mode string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	if mode == "" {
		return nil, ErrModeNotProvided
	}
	cfg.Mode = types.ServiceMode(mode)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	v := validator.New()

	v.Check(validator.PermittedValue(c.Mode, types.AgentMode, types.ReporterMode), "mode", "must be agent or reporter")
	v.Check(logger.ValidateLogLevel(c.LogLevel), "LOG_LEVEL", "must be DEBUG, INFO, WARN or ERROR")
	v.Check(c.API.BaseURL != "", "API_BASE_URL", "must be provided")
	v.Check(c.API.Timeout > 0, "API_TIMEOUT", "must be positive")
	v.Check(c.Telemetry.Interval > 0, "TELEMETRY_INTERVAL", "must be positive")
	v.Check(c.Telemetry.CycleTimeout > 0, "TELEMETRY_CYCLE_TIMEOUT", "must be positive")
	v.Check(c.Telemetry.DistanceThresholdM > 0, "TELEMETRY_DISTANCE_THRESHOLD_M", "must be positive")
	v.Check(c.Telemetry.PickupDistanceThresholdM > 0, "TELEMETRY_PICKUP_DISTANCE_THRESHOLD_M", "must be positive")
	v.Check(c.Realtime.ReconnectDelay > 0, "REALTIME_RECONNECT_DELAY", "must be positive")
	v.Check(validator.PermittedValue(c.Store.Kind, types.StoreMemory, types.StoreRedis, types.StorePostgres), "STORE_KIND", "must be memory, redis or postgres")
	v.Check(validator.PermittedValue(c.Broker.Kind, types.BrokerNone, types.BrokerRabbitMQ, types.BrokerKafka), "BROKER_KIND", "must be none, rabbitmq or kafka")
	if c.Broker.Kind == types.BrokerKafka {
		v.Check(len(c.Kafka.Brokers) > 0, "KAFKA_BROKERS", "must be provided")
	}

	if !v.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, v.Errors)
	}
	return nil
}
