package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
)

type recordingConsumer struct {
	mu     sync.Mutex
	offers []models.RideOffer
}

func (c *recordingConsumer) Surface(_ context.Context, offer models.RideOffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offers = append(c.offers, offer)
}

func (c *recordingConsumer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.offers)
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestDispatcher() (*Dispatcher, *recordingConsumer, *clock) {
	c := &recordingConsumer{}
	clk := &clock{now: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)}
	d := New(c, 3*time.Second, logger.Nop())
	d.now = clk.Now
	return d, c, clk
}

func offer(rideID string, expiresAt time.Time) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"type":"NEW_RIDE_REQUEST","ride_id":%q,"vehicle_type":"car","fare":25000,"request_expired_at":%d}`,
		rideID, expiresAt.UnixMilli(),
	))
}

func TestHandle_DuplicateWithinWindowSuppressed(t *testing.T) {
	d, c, clk := newTestDispatcher()
	ctx := context.Background()
	exp := clk.now.Add(time.Minute)

	d.Handle(ctx, offer("r1", exp))
	clk.now = clk.now.Add(time.Second)
	d.Handle(ctx, offer("r1", exp))

	if c.count() != 1 {
		t.Fatalf("expected one surfaced offer, got %d", c.count())
	}

	got := c.offers[0]
	if got.RideID != "r1" || !got.ExpiresAt.Equal(exp.Truncate(time.Millisecond)) {
		t.Fatalf("unexpected offer: %+v", got)
	}
	var req models.RideRequest
	if err := json.Unmarshal(got.Request, &req); err != nil || req.Fare != 25000 {
		t.Fatalf("payload not passed through: %s", got.Request)
	}
}

func TestHandle_SameRideAfterWindowSurfacesAgain(t *testing.T) {
	d, c, clk := newTestDispatcher()
	ctx := context.Background()
	exp := clk.now.Add(time.Minute)

	d.Handle(ctx, offer("r1", exp))
	clk.now = clk.now.Add(2 * time.Second)
	d.Handle(ctx, offer("r1", exp)) // suppressed, does not extend the window
	clk.now = clk.now.Add(time.Second + time.Millisecond)
	d.Handle(ctx, offer("r1", exp))

	if c.count() != 2 {
		t.Fatalf("expected two surfaced offers, got %d", c.count())
	}
}

func TestHandle_DifferentRidesBothSurface(t *testing.T) {
	d, c, clk := newTestDispatcher()
	ctx := context.Background()

	d.Handle(ctx, offer("r1", clk.now.Add(time.Minute)))
	d.Handle(ctx, offer("r2", clk.now.Add(time.Minute)))

	if c.count() != 2 {
		t.Fatalf("expected two offers, got %d", c.count())
	}
}

func TestHandle_ExpiredOfferDropped(t *testing.T) {
	d, c, clk := newTestDispatcher()

	d.Handle(context.Background(), offer("r1", clk.now.Add(-time.Second)))
	d.Handle(context.Background(), offer("r2", clk.now))

	if c.count() != 0 {
		t.Fatalf("expired offers surfaced: %d", c.count())
	}
}

func TestHandle_IgnoresUnknownAndMalformed(t *testing.T) {
	d, c, _ := newTestDispatcher()
	ctx := context.Background()

	d.Handle(ctx, json.RawMessage(`{"type":"RIDE_CANCELLED","reason":"rider"}`))
	d.Handle(ctx, json.RawMessage(`not json`))
	d.Handle(ctx, json.RawMessage(`{"type":"NEW_RIDE_REQUEST"}`))

	if c.count() != 0 {
		t.Fatalf("unexpected offers: %d", c.count())
	}
}

func TestOnSuspension(t *testing.T) {
	d, _, _ := newTestDispatcher()
	ctx := context.Background()

	var got []models.SuspensionNotice
	unsubscribe := d.OnSuspension(func(_ context.Context, n models.SuspensionNotice) {
		got = append(got, n)
	})

	msg := json.RawMessage(`{"type":"ACCOUNT_DEACTIVATED_TEMPORARILY","reason":"too many declines"}`)
	d.Handle(ctx, msg)
	if len(got) != 1 || got[0].Reason != "too many declines" {
		t.Fatalf("unexpected notices: %+v", got)
	}

	unsubscribe()
	unsubscribe()
	d.Handle(ctx, msg)
	if len(got) != 1 {
		t.Fatalf("handler called after unsubscribe")
	}
}
