package rabbit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	heartbeat        = 10 * time.Second
	reconnectRetries = 5
)

var (
	ErrClosed   = errors.New("rabbitmq channel is closed")
	ErrNotAcked = errors.New("rabbitmq did not confirm the message")
)

// RabbitMQ is a publishing client. The channel runs in confirm mode so a
// successful Publish means the broker accepted the message.
type RabbitMQ struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
	dsn     string

	log logger.Logger
}

// New dials dsn and opens a confirming channel.
func New(ctx context.Context, dsn string, log logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		dsn: dsn,
		log: log,
	}

	conn, ch, err := dial(dsn)
	if err != nil {
		return nil, err
	}
	r.attach(conn, ch)

	log.Info(wrap.WithAction(ctx, types.ActionRabbitMQConnected), "connected to rabbitMQ")
	return r, nil
}

func dial(dsn string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(dsn, amqp.Config{Heartbeat: heartbeat})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	return conn, ch, nil
}

// attach stores a fresh connection and watches it until it closes.
func (r *RabbitMQ) attach(conn *amqp.Connection, ch *amqp.Channel) {
	r.mu.Lock()
	r.conn, r.channel, r.closed = conn, ch, false
	r.mu.Unlock()

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	go func() {
		var closeErr *amqp.Error
		select {
		case closeErr = <-connClosed:
		case closeErr = <-chClosed:
		}

		r.mu.Lock()
		if r.conn == conn {
			r.closed = true
		}
		r.mu.Unlock()

		ctx := wrap.WithAction(context.Background(), types.ActionRabbitConnectionClosed)
		if closeErr != nil {
			r.log.Error(ctx, "RabbitMQ connection lost", closeErr)
			return
		}
		r.log.Debug(ctx, "RabbitMQ connection closed gracefully")
	}()
}

func (r *RabbitMQ) current() (*amqp.Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel == nil || r.closed || r.channel.IsClosed() {
		return nil, false
	}
	return r.channel, true
}

// IsConnectionClosed reports whether the client needs a reconnect.
func (r *RabbitMQ) IsConnectionClosed() bool {
	_, ok := r.current()
	return !ok
}

// DeclareTopic declares a durable topic exchange.
func (r *RabbitMQ) DeclareTopic(name string) error {
	ch, ok := r.current()
	if !ok {
		return fmt.Errorf("declare exchange %s: %w", name, ErrClosed)
	}

	if err := ch.ExchangeDeclare(
		name,    // name
		"topic", // kind
		true,    // durable
		false,   // autoDelete
		false,   // internal
		false,   // noWait
		nil,     // args
	); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

// Publish sends a persistent JSON message and waits for the broker confirm.
func (r *RabbitMQ) Publish(ctx context.Context, exchange, key string, body []byte) error {
	ch, ok := r.current()
	if !ok {
		return fmt.Errorf("publish to %s: %w", exchange, ErrClosed)
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(
		ctx,
		exchange, // exchange
		key,      // routing key
		false,    // mandatory
		false,    // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", exchange, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", exchange, err)
	}
	if !acked {
		return fmt.Errorf("publish to %s: %w", exchange, ErrNotAcked)
	}
	return nil
}

// EnsureConnection reconnects when the connection or channel was lost.
func (r *RabbitMQ) EnsureConnection(ctx context.Context) error {
	if !r.IsConnectionClosed() {
		return nil
	}

	r.log.Warn(ctx, "rabbit connection closed, reconnecting")
	if err := r.reconnect(ctx); err != nil {
		return fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
	}
	return nil
}

func (r *RabbitMQ) reconnect(ctx context.Context) error {
	if r.dsn == "" {
		return errors.New("dsn is empty: can't reconnect")
	}

	var (
		conn *amqp.Connection
		ch   *amqp.Channel
		err  error
	)
	for i := range reconnectRetries {
		if conn, ch, err = dial(r.dsn); err == nil {
			break
		}

		wait := time.Duration(i+1) * 2 * time.Second
		r.log.Debug(ctx, "reconnect attempt failed", "attempt", i+1, "retry_in", wait.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	old := r.conn
	r.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	r.attach(conn, ch)
	r.log.Info(wrap.WithAction(ctx, types.ActionRabbitReconnected), "RabbitMQ reconnected successfully")
	return nil
}

// Close closes the channel and the connection, giving up when ctx ends.
func (r *RabbitMQ) Close(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, types.ActionRabbitConnectionClosing)

	r.mu.Lock()
	ch, conn := r.channel, r.conn
	r.channel, r.conn, r.closed = nil, nil, true
	r.mu.Unlock()

	if conn == nil {
		return nil
	}

	if ch != nil {
		if err := closeWithContext(ctx, ch.Close); err != nil && ctx.Err() == nil {
			r.log.Warn(ctx, "error closing channel", "error", err.Error())
		}
	}
	if err := closeWithContext(ctx, conn.Close); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to close connection: %w", err)
	}

	r.log.Info(ctx, "rabbitMQ closed")
	return nil
}

func closeWithContext(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
