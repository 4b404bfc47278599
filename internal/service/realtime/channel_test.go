package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	"github.com/gorilla/websocket"
)

// dispatchServer acks every register frame and records what it receives.
type dispatchServer struct {
	t              *testing.T
	srv            *httptest.Server
	upgrader       websocket.Upgrader
	rejectRegister bool

	mu       sync.Mutex
	conns    []*websocket.Conn
	dials    int
	frames   []models.Frame
	received chan models.Frame
}

func newDispatchServer(t *testing.T) *dispatchServer {
	s := &dispatchServer{t: t, received: make(chan models.Frame, 64)}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *dispatchServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *dispatchServer) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.dials++
	s.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f models.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		s.mu.Lock()
		s.frames = append(s.frames, f)
		s.mu.Unlock()

		if f.Event == models.FrameRegister {
			ack, _ := json.Marshal(models.Ack{Success: !s.rejectRegister})
			s.mu.Lock()
			_ = conn.WriteJSON(models.Frame{Event: models.FrameAck, ID: f.ID, Data: ack})
			s.mu.Unlock()
		}
		s.received <- f
	}
}

func (s *dispatchServer) dialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

func (s *dispatchServer) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.frames {
		if f.Event == event {
			n++
		}
	}
	return n
}

// latest returns the most recent server side connection.
func (s *dispatchServer) latest() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[len(s.conns)-1]
}

func (s *dispatchServer) push(v any) {
	conn := s.latest()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		s.t.Fatalf("server push: %v", err)
	}
}

func (s *dispatchServer) waitFor(event string) models.Frame {
	s.t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case f := <-s.received:
			if f.Event == event {
				return f
			}
		case <-timeout:
			s.t.Fatalf("no %q frame received", event)
			return models.Frame{}
		}
	}
}

type fakeLocation struct {
	granted bool
	sample  *models.LocationSample
	calls   int
	mu      sync.Mutex
}

func (f *fakeLocation) Permission(context.Context) bool { return f.granted }

func (f *fakeLocation) Current(context.Context, time.Duration) (*models.LocationSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.sample == nil {
		return nil, types.ErrNoLocation
	}
	s := *f.sample
	return &s, nil
}

type fakeStore struct {
	last   *models.LocationSample
	status types.AvailabilityStatus
}

func (f *fakeStore) LoadLastLocation(context.Context) (*models.LocationSample, error) {
	if f.last == nil {
		return nil, types.ErrNotFound
	}
	s := *f.last
	return &s, nil
}

func (f *fakeStore) LoadAvailabilityStatus(context.Context) (types.AvailabilityStatus, error) {
	if f.status == "" {
		return "", types.ErrNotFound
	}
	return f.status, nil
}

type recordingHandler struct {
	got chan json.RawMessage
}

func (h *recordingHandler) Handle(_ context.Context, raw json.RawMessage) {
	h.got <- raw
}

func testConfig(url string) Config {
	return Config{
		URL:              url,
		ReconnectDelay:   20 * time.Millisecond,
		RegisterInterval: 10 * time.Millisecond,
		AckTimeout:       time.Second,
		DialTimeout:      time.Second,
	}
}

func fix(lat, lng float64) *models.LocationSample {
	return &models.LocationSample{Latitude: lat, Longitude: lng, CapturedAt: time.Now()}
}

func TestConnect_RegistersAndSendsLocation(t *testing.T) {
	srv := newDispatchServer(t)
	loc := &fakeLocation{granted: true, sample: fix(43.23, 76.88)}
	ch := NewChannel(testConfig(srv.url()), nil, loc, &fakeStore{status: types.StatusEnRouteToPickup}, nil, logger.Nop())
	defer ch.Disconnect()

	if err := ch.Connect(context.Background(), "d1", "ECONOMY"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if ch.State() != types.ChannelConnected {
		t.Fatalf("expected connected, got %s", ch.State())
	}

	reg := srv.waitFor(models.FrameRegister)
	var payload models.DriverPayload
	if err := json.Unmarshal(reg.Data, &payload); err != nil {
		t.Fatalf("decode register payload: %v", err)
	}
	if payload.ID != "d1" || payload.VehicleType != "ECONOMY" {
		t.Fatalf("unexpected identity in register: %+v", payload)
	}
	if payload.AvailabilityStatus != types.StatusEnRouteToPickup.String() {
		t.Fatalf("expected stored status, got %q", payload.AvailabilityStatus)
	}
	if payload.Lat == nil || *payload.Lat != 43.23 {
		t.Fatalf("expected sample latitude in register")
	}

	srv.waitFor(models.FrameUpdateLocation)
}

func TestConnect_SameIdentityIsNoop(t *testing.T) {
	srv := newDispatchServer(t)
	loc := &fakeLocation{granted: true, sample: fix(1, 2)}
	ch := NewChannel(testConfig(srv.url()), nil, loc, &fakeStore{}, nil, logger.Nop())
	defer ch.Disconnect()

	ctx := context.Background()
	if err := ch.Connect(ctx, "d1", "ECONOMY"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	srv.waitFor(models.FrameRegister)

	if err := ch.Connect(ctx, "d1", "ECONOMY"); err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if n := srv.dialCount(); n != 1 {
		t.Fatalf("expected a single dial, got %d", n)
	}
}

func TestConnect_OtherIdentityReconnects(t *testing.T) {
	srv := newDispatchServer(t)
	loc := &fakeLocation{granted: true, sample: fix(1, 2)}
	ch := NewChannel(testConfig(srv.url()), nil, loc, &fakeStore{}, nil, logger.Nop())
	defer ch.Disconnect()

	ctx := context.Background()
	if err := ch.Connect(ctx, "d1", "ECONOMY"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	srv.waitFor(models.FrameRegister)

	time.Sleep(20 * time.Millisecond)
	if err := ch.Connect(ctx, "d2", "PREMIUM"); err != nil {
		t.Fatalf("connect as d2: %v", err)
	}
	reg := srv.waitFor(models.FrameRegister)
	var payload models.DriverPayload
	_ = json.Unmarshal(reg.Data, &payload)
	if payload.ID != "d2" {
		t.Fatalf("expected registration as d2, got %q", payload.ID)
	}
	if n := srv.dialCount(); n != 2 {
		t.Fatalf("expected two dials, got %d", n)
	}
}

func TestConnect_PermissionDenied(t *testing.T) {
	dialed := false
	dial := func(context.Context, string, http.Header) (Conn, error) {
		dialed = true
		return nil, errors.New("unexpected dial")
	}
	ch := NewChannel(testConfig("ws://unused"), dial, &fakeLocation{granted: false}, &fakeStore{}, nil, logger.Nop())

	err := ch.Connect(context.Background(), "d1", "ECONOMY")
	if !errors.Is(err, types.ErrLocationPermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if dialed {
		t.Fatalf("must not dial without location permission")
	}
	if ch.State() != types.ChannelDisconnected {
		t.Fatalf("expected disconnected, got %s", ch.State())
	}
}

func TestConnect_DialFailureResets(t *testing.T) {
	dial := func(context.Context, string, http.Header) (Conn, error) {
		return nil, errors.New("refused")
	}
	ch := NewChannel(testConfig("ws://unused"), dial, &fakeLocation{granted: true}, &fakeStore{}, nil, logger.Nop())

	if err := ch.Connect(context.Background(), "d1", "ECONOMY"); err == nil {
		t.Fatalf("expected dial error")
	}
	if ch.State() != types.ChannelDisconnected {
		t.Fatalf("expected disconnected, got %s", ch.State())
	}
}

func TestConnect_PrefersFreshCachedSample(t *testing.T) {
	srv := newDispatchServer(t)
	loc := &fakeLocation{granted: true}
	store := &fakeStore{last: fix(10, 20)}
	ch := NewChannel(testConfig(srv.url()), nil, loc, store, nil, logger.Nop())
	defer ch.Disconnect()

	if err := ch.Connect(context.Background(), "d1", "ECONOMY"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	reg := srv.waitFor(models.FrameRegister)
	var payload models.DriverPayload
	_ = json.Unmarshal(reg.Data, &payload)
	if payload.Lat == nil || *payload.Lat != 10 {
		t.Fatalf("expected cached latitude")
	}
	if loc.calls != 0 {
		t.Fatalf("device must not be asked when a fresh sample is cached")
	}
}

func TestInboundMessagesReachHandler(t *testing.T) {
	srv := newDispatchServer(t)
	handler := &recordingHandler{got: make(chan json.RawMessage, 1)}
	ch := NewChannel(testConfig(srv.url()), nil, &fakeLocation{granted: true, sample: fix(1, 2)}, &fakeStore{}, handler, logger.Nop())
	defer ch.Disconnect()

	if err := ch.Connect(context.Background(), "d1", "ECONOMY"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	srv.waitFor(models.FrameRegister)

	msg := json.RawMessage(`{"type":"NEW_RIDE_REQUEST","rideId":"r1"}`)
	srv.push(models.Frame{Event: models.FrameMessage, Data: msg})

	select {
	case got := <-handler.got:
		if string(got) != string(msg) {
			t.Fatalf("message altered: %s", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("message never reached the handler")
	}
}

func TestReconnectsAndReregistersAfterDrop(t *testing.T) {
	srv := newDispatchServer(t)
	ch := NewChannel(testConfig(srv.url()), nil, &fakeLocation{granted: true, sample: fix(1, 2)}, &fakeStore{}, nil, logger.Nop())
	defer ch.Disconnect()

	if err := ch.Connect(context.Background(), "d1", "ECONOMY"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	srv.waitFor(models.FrameRegister)

	_ = srv.latest().Close()

	srv.waitFor(models.FrameRegister)
	if n := srv.dialCount(); n < 2 {
		t.Fatalf("expected a reconnect dial, got %d dials", n)
	}
}

func TestRegister_Throttled(t *testing.T) {
	srv := newDispatchServer(t)
	cfg := testConfig(srv.url())
	cfg.RegisterInterval = time.Hour
	ch := NewChannel(cfg, nil, &fakeLocation{granted: true, sample: fix(1, 2)}, &fakeStore{}, nil, logger.Nop())
	defer ch.Disconnect()

	ctx := context.Background()
	if err := ch.Connect(ctx, "d1", "ECONOMY"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	srv.waitFor(models.FrameRegister)

	if err := ch.Register(ctx); err != nil {
		t.Fatalf("throttled register must not fail: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if n := srv.count(models.FrameRegister); n != 1 {
		t.Fatalf("expected one register frame, got %d", n)
	}
}

func TestConnect_IdentitySwitchInsideRegisterInterval(t *testing.T) {
	srv := newDispatchServer(t)
	cfg := testConfig(srv.url())
	cfg.RegisterInterval = 300 * time.Millisecond
	ch := NewChannel(cfg, nil, &fakeLocation{granted: true, sample: fix(1, 2)}, &fakeStore{}, nil, logger.Nop())
	defer ch.Disconnect()

	ctx := context.Background()
	if err := ch.Connect(ctx, "d1", "ECONOMY"); err != nil {
		t.Fatalf("connect as d1: %v", err)
	}
	srv.waitFor(models.FrameRegister)
	first := time.Now()

	if err := ch.Connect(ctx, "d2", "ECONOMY"); err != nil {
		t.Fatalf("connect as d2: %v", err)
	}
	reg := srv.waitFor(models.FrameRegister)

	var payload models.DriverPayload
	if err := json.Unmarshal(reg.Data, &payload); err != nil {
		t.Fatalf("decode register payload: %v", err)
	}
	if payload.ID != "d2" {
		t.Fatalf("expected the new connection registered as d2, got %q", payload.ID)
	}
	if elapsed := time.Since(first); elapsed < 150*time.Millisecond {
		t.Fatalf("second registration must wait for the register interval, came after %s", elapsed)
	}
	if n := srv.count(models.FrameRegister); n != 2 {
		t.Fatalf("expected two register frames, got %d", n)
	}
	if ch.State() != types.ChannelConnected {
		t.Fatalf("expected connected, got %s", ch.State())
	}
}

func TestRegister_RejectedAck(t *testing.T) {
	srv := newDispatchServer(t)
	srv.rejectRegister = true
	ch := NewChannel(testConfig(srv.url()), nil, &fakeLocation{granted: true, sample: fix(1, 2)}, &fakeStore{}, nil, logger.Nop())
	defer ch.Disconnect()

	ctx := context.Background()
	if err := ch.Connect(ctx, "d1", "ECONOMY"); err != nil {
		t.Fatalf("rejected registration must not fail connect: %v", err)
	}
	srv.waitFor(models.FrameRegister)

	time.Sleep(20 * time.Millisecond)
	if err := ch.Register(ctx); !errors.Is(err, types.ErrRegistrationFailed) {
		t.Fatalf("expected registration failure, got %v", err)
	}
	if ch.State() != types.ChannelConnected {
		t.Fatalf("channel must stay connected")
	}
}

func TestDisconnect_IdempotentAndStopsReconnect(t *testing.T) {
	srv := newDispatchServer(t)
	ch := NewChannel(testConfig(srv.url()), nil, &fakeLocation{granted: true, sample: fix(1, 2)}, &fakeStore{}, nil, logger.Nop())

	if err := ch.Connect(context.Background(), "d1", "ECONOMY"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	srv.waitFor(models.FrameRegister)

	ch.Disconnect()
	ch.Disconnect()

	if ch.State() != types.ChannelDisconnected {
		t.Fatalf("expected disconnected")
	}
	time.Sleep(100 * time.Millisecond)
	if n := srv.dialCount(); n != 1 {
		t.Fatalf("no reconnect expected after disconnect, got %d dials", n)
	}
	if err := ch.PushLocation(context.Background(), fix(1, 2)); !errors.Is(err, types.ErrChannelNotConnected) {
		t.Fatalf("expected not connected error, got %v", err)
	}
}
