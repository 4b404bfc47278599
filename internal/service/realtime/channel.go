package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	"github.com/Temutjin2k/driver-presence/pkg/metrics"
	"golang.org/x/time/rate"
)

type Config struct {
	URL              string
	ReconnectDelay   time.Duration
	RegisterInterval time.Duration
	AckTimeout       time.Duration
	DialTimeout      time.Duration
	// SampleMaxAge is how old a cached sample may be to be reused on connect.
	SampleMaxAge time.Duration
}

func (c *Config) setDefaults() {
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 3 * time.Second
	}
	if c.RegisterInterval <= 0 {
		c.RegisterInterval = 3 * time.Second
	}
	if c.AckTimeout <= 0 {
		c.AckTimeout = 5 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.SampleMaxAge <= 0 {
		c.SampleMaxAge = 3 * time.Minute
	}
}

/*
Channel is the driver's connection to the dispatch server. It registers the
driver after every (re)connect and reconnects forever at a fixed delay until
Disconnect is called.
*/
type Channel struct {
	cfg      Config
	dial     Dialer
	location LocationSource
	store    Store
	inbound  InboundHandler
	token    func() string
	limiter  *rate.Limiter

	mu          sync.Mutex
	state       types.ChannelState
	conn        Conn
	driverID    string
	vehicleType string
	sample      *models.LocationSample
	// gen changes on every Connect and Disconnect. Goroutines of an older
	// generation stop touching the channel.
	gen  uint64
	stop chan struct{}

	pendingMu sync.Mutex
	pending   map[uint64]chan models.Ack
	nextID    atomic.Uint64

	now func() time.Time
	l   logger.Logger
}

func NewChannel(cfg Config, dial Dialer, location LocationSource, store Store, inbound InboundHandler, l logger.Logger) *Channel {
	cfg.setDefaults()
	if dial == nil {
		dial = WebsocketDialer
	}
	return &Channel{
		cfg:      cfg,
		dial:     dial,
		location: location,
		store:    store,
		inbound:  inbound,
		limiter:  rate.NewLimiter(rate.Every(cfg.RegisterInterval), 1),
		state:    types.ChannelDisconnected,
		pending:  make(map[uint64]chan models.Ack),
		now:      time.Now,
		l:        l,
	}
}

// WithToken makes the channel send a bearer token on every dial.
func (c *Channel) WithToken(token func() string) *Channel {
	c.token = token
	return c
}

func (c *Channel) State() types.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Connect opens the channel for the driver and registers. It is a no-op when
// the channel already serves the same identity; another identity is
// disconnected first. Only the first dial error is returned, later transport
// losses are handled by the reconnect loop.
func (c *Channel) Connect(ctx context.Context, driverID, vehicleType string) error {
	const op = "Channel.Connect"
	ctx = wrap.WithDriverID(wrap.WithAction(ctx, types.ActionRealtimeConnect), driverID)

	c.mu.Lock()
	if c.sameIdentityLocked(driverID, vehicleType) {
		c.mu.Unlock()
		c.l.Debug(ctx, "realtime channel already connected")
		return nil
	}
	hasIdentity := c.driverID != ""
	c.mu.Unlock()

	if hasIdentity {
		c.l.Info(ctx, "realtime channel serves another identity, disconnecting first")
		c.Disconnect()
	}

	if !c.location.Permission(ctx) {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrLocationPermissionDenied))
	}

	c.mu.Lock()
	if c.sameIdentityLocked(driverID, vehicleType) {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	gen := c.gen
	c.driverID, c.vehicleType = driverID, vehicleType
	c.state = types.ChannelConnecting
	c.stop = make(chan struct{})
	c.mu.Unlock()

	conn, err := c.dialOnce(ctx)
	if err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.resetLocked()
		}
		c.mu.Unlock()
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	if !c.attach(ctx, gen, conn) {
		_ = conn.Close()
		return nil
	}

	c.afterConnect(ctx, gen)
	return nil
}

func (c *Channel) sameIdentityLocked(driverID, vehicleType string) bool {
	return c.driverID == driverID && c.vehicleType == vehicleType && c.state != types.ChannelDisconnected
}

func (c *Channel) dialOnce(ctx context.Context) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()

	header := http.Header{}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			header.Set("Authorization", "Bearer "+tok)
		}
	}
	return c.dial(ctx, c.cfg.URL, header)
}

// attach installs conn if gen is still current and starts its reader.
func (c *Channel) attach(ctx context.Context, gen uint64, conn Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	c.conn = conn
	c.state = types.ChannelConnected
	metrics.SetRealtimeConnected(true)

	go c.readLoop(context.WithoutCancel(ctx), gen, conn)
	return true
}

// afterConnect refreshes the sample and registers the new connection. A
// connection that comes up inside the register interval waits for its slot
// instead of being skipped. Registration failures are logged, the next
// (re)connect registers again.
func (c *Channel) afterConnect(ctx context.Context, gen uint64) {
	if _, err := c.currentSample(ctx); err != nil {
		c.l.Warn(ctx, "no location for registration", "error", err.Error())
	}
	if !c.waitRegisterSlot(ctx, gen) {
		return
	}
	if err := c.register(ctx); err != nil {
		c.l.Error(ctx, "driver registration failed", err)
	}
}

// waitRegisterSlot blocks until the limiter admits a registration. It reports
// false when gen was replaced or ctx ended while waiting.
func (c *Channel) waitRegisterSlot(ctx context.Context, gen uint64) bool {
	c.mu.Lock()
	stop, current := c.stop, c.gen == gen
	c.mu.Unlock()
	if !current {
		return false
	}

	now := c.now()
	r := c.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		c.l.Debug(ctx, "registration delayed by throttle", "delay", delay.String())

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-stop:
			r.CancelAt(c.now())
			return false
		case <-ctx.Done():
			r.CancelAt(c.now())
			return false
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// Register announces identity, sample and availability status and waits for
// the ack. Repeated calls on a connection closer than the register interval
// are dropped.
func (c *Channel) Register(ctx context.Context) error {
	if !c.limiter.AllowN(c.now(), 1) {
		c.l.Debug(wrap.WithAction(ctx, types.ActionRealtimeRegister), "registration throttled")
		return nil
	}
	return c.register(ctx)
}

func (c *Channel) register(ctx context.Context) error {
	const op = "Channel.Register"
	ctx = wrap.WithAction(ctx, types.ActionRealtimeRegister)

	c.mu.Lock()
	conn, driverID, vehicleType, sample := c.conn, c.driverID, c.vehicleType, c.sample
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("%s: %w", op, types.ErrChannelNotConnected)
	}
	if sample == nil {
		return fmt.Errorf("%s: %w", op, types.ErrNoLocation)
	}

	payload := models.NewDriverPayload(driverID, vehicleType, c.status(ctx), sample, models.UpdateViaWebsocket, c.now())
	ack, err := c.request(ctx, conn, models.FrameRegister, payload)
	if err == nil && !ack.Success {
		err = types.ErrRegistrationFailed
	}
	metrics.RecordRegistration(err)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	c.l.Info(ctx, "driver registered on realtime channel")
	if err := c.PushLocation(ctx, nil); err != nil {
		c.l.Warn(ctx, "location update after registration failed", "error", err.Error())
	}
	return nil
}

// PushLocation sends sample, or the current sample when nil, as driver:updateLocation.
func (c *Channel) PushLocation(ctx context.Context, sample *models.LocationSample) error {
	const op = "Channel.PushLocation"

	if sample != nil {
		s := *sample
		c.mu.Lock()
		c.sample = &s
		c.mu.Unlock()
	} else {
		var err error
		if sample, err = c.currentSample(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	c.mu.Lock()
	conn, driverID, vehicleType := c.conn, c.driverID, c.vehicleType
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("%s: %w", op, types.ErrChannelNotConnected)
	}

	payload := models.NewDriverPayload(driverID, vehicleType, c.status(ctx), sample, models.UpdateViaWebsocket, c.now())
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := conn.Send(models.Frame{Event: models.FrameUpdateLocation, Data: data}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Disconnect closes the transport, stops reconnecting and forgets identity
// and sample. Safe to call any number of times.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.gen++
	c.resetLocked()
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
		c.l.Info(context.Background(), "realtime channel disconnected")
	}
}

func (c *Channel) resetLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.conn = nil
	c.driverID, c.vehicleType = "", ""
	c.sample = nil
	c.state = types.ChannelDisconnected
	metrics.SetRealtimeConnected(false)
}

// currentSample returns the in-memory sample, the persisted one or a fresh
// fix, whichever is first younger than the max age.
func (c *Channel) currentSample(ctx context.Context) (*models.LocationSample, error) {
	now := c.now()

	c.mu.Lock()
	if c.sample != nil && c.sample.Age(now) < c.cfg.SampleMaxAge {
		s := *c.sample
		c.mu.Unlock()
		return &s, nil
	}
	c.mu.Unlock()

	sample, err := c.store.LoadLastLocation(ctx)
	if err != nil || sample.Age(now) >= c.cfg.SampleMaxAge {
		if sample, err = c.location.Current(ctx, c.cfg.SampleMaxAge); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.sample = sample
	c.mu.Unlock()

	s := *sample
	return &s, nil
}

func (c *Channel) status(ctx context.Context) types.AvailabilityStatus {
	status, err := c.store.LoadAvailabilityStatus(ctx)
	if err != nil {
		return types.StatusAvailable
	}
	return status
}

// request sends a frame with a fresh id and waits for the matching ack.
func (c *Channel) request(ctx context.Context, conn Conn, event string, data any) (models.Ack, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return models.Ack{}, err
	}

	id := c.nextID.Add(1)
	ch := make(chan models.Ack, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := conn.Send(models.Frame{Event: event, ID: id, Data: raw}); err != nil {
		return models.Ack{}, err
	}

	timer := time.NewTimer(c.cfg.AckTimeout)
	defer timer.Stop()

	select {
	case ack := <-ch:
		return ack, nil
	case <-timer.C:
		return models.Ack{}, errors.New("ack timeout")
	case <-ctx.Done():
		return models.Ack{}, ctx.Err()
	}
}

func (c *Channel) readLoop(ctx context.Context, gen uint64, conn Conn) {
	err := conn.Listen(func(data []byte) error {
		c.handleFrame(ctx, data)
		return nil
	})

	c.mu.Lock()
	if c.gen != gen || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = types.ChannelDisconnected
	stop := c.stop
	c.mu.Unlock()

	metrics.SetRealtimeConnected(false)
	_ = conn.Close()

	c.l.Warn(ctx, "realtime connection lost, reconnecting", "error", errString(err))
	go c.reconnectLoop(ctx, gen, stop)
}

// reconnectLoop dials at a fixed delay until it succeeds or the generation changes.
func (c *Channel) reconnectLoop(ctx context.Context, gen uint64, stop <-chan struct{}) {
	ctx = wrap.WithAction(ctx, types.ActionRealtimeReconnect)

	for attempt := 1; ; attempt++ {
		select {
		case <-stop:
			return
		case <-time.After(c.cfg.ReconnectDelay):
		}

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return
		}
		c.state = types.ChannelConnecting
		c.mu.Unlock()

		conn, err := c.dialOnce(ctx)
		metrics.RecordReconnect(err)
		if err != nil {
			c.mu.Lock()
			if c.gen == gen {
				c.state = types.ChannelDisconnected
			}
			c.mu.Unlock()
			c.l.Debug(ctx, "reconnect attempt failed", "attempt", attempt, "error", err.Error())
			continue
		}

		if !c.attach(ctx, gen, conn) {
			_ = conn.Close()
			return
		}

		c.l.Info(ctx, "realtime channel reconnected", "attempt", attempt)
		c.afterConnect(ctx, gen)
		return
	}
}

func (c *Channel) handleFrame(ctx context.Context, data []byte) {
	var f models.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.l.Warn(ctx, "malformed realtime frame", "error", err.Error())
		return
	}

	switch f.Event {
	case models.FrameAck:
		var ack models.Ack
		if err := json.Unmarshal(f.Data, &ack); err != nil {
			c.l.Warn(ctx, "malformed ack", "error", err.Error())
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[f.ID]
		c.pendingMu.Unlock()
		if ok {
			select {
			case ch <- ack:
			default:
			}
		}
	case models.FrameMessage:
		if c.inbound != nil {
			c.inbound.Handle(ctx, f.Data)
		}
	default:
		c.l.Debug(ctx, "ignoring realtime frame", "event", f.Event)
	}
}

func errString(err error) string {
	if err == nil {
		return "closed"
	}
	return err.Error()
}
