package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	"github.com/Temutjin2k/driver-presence/pkg/metrics"
)

const DefaultDuplicateWindow = 3 * time.Second

// Dispatcher routes inbound realtime messages: ride offers go to the
// consumer, suspension notices to the subscribers.
type Dispatcher struct {
	consumer OfferConsumer
	window   time.Duration

	mu   sync.Mutex
	seen map[string]time.Time

	subMu  sync.RWMutex
	subs   map[uint64]SuspensionHandler
	nextID uint64

	now func() time.Time
	l   logger.Logger
}

func New(consumer OfferConsumer, window time.Duration, l logger.Logger) *Dispatcher {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	return &Dispatcher{
		consumer: consumer,
		window:   window,
		seen:     make(map[string]time.Time),
		subs:     make(map[uint64]SuspensionHandler),
		now:      time.Now,
		l:        l,
	}
}

// Handle decodes the type of an inbound message and routes it. Unknown
// types and malformed payloads are logged and dropped.
func (d *Dispatcher) Handle(ctx context.Context, raw json.RawMessage) {
	var msg models.InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.l.Warn(ctx, "dropping malformed inbound message", "error", err.Error())
		return
	}

	switch msg.Type {
	case types.MessageNewRideRequest:
		d.handleOffer(ctx, raw)
	case types.MessageAccountSuspended:
		d.handleSuspension(ctx, raw)
	default:
		d.l.Debug(ctx, "ignoring inbound message", "type", string(msg.Type))
	}
}

func (d *Dispatcher) handleOffer(ctx context.Context, raw json.RawMessage) {
	ctx = wrap.WithAction(ctx, types.ActionRideOffer)

	var req models.RideRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.RideID == "" {
		d.l.Warn(ctx, "dropping ride offer without ride id")
		return
	}
	ctx = wrap.WithRideID(ctx, req.RideID)

	now := d.now()
	var expiresAt time.Time
	if req.RequestExpiredAt > 0 {
		expiresAt = time.UnixMilli(req.RequestExpiredAt)
		if !now.Before(expiresAt) {
			metrics.RideOffersTotal.WithLabelValues("expired").Inc()
			d.l.Info(ctx, "dropping expired ride offer", "expired_at", expiresAt)
			return
		}
	}

	if !d.firstSighting(req.RideID, now) {
		metrics.RideOffersTotal.WithLabelValues("duplicate").Inc()
		d.l.Debug(ctx, "duplicate ride offer suppressed")
		return
	}

	offer := models.RideOffer{
		RideID:     req.RideID,
		ExpiresAt:  expiresAt,
		ReceivedAt: now,
		Request:    append(json.RawMessage(nil), raw...),
	}

	metrics.RideOffersTotal.WithLabelValues("surfaced").Inc()
	d.l.Info(ctx, "ride offer received", "expires_at", expiresAt)
	d.consumer.Surface(ctx, offer)
}

// firstSighting records rideID and reports whether it was not seen within the window.
func (d *Dispatcher) firstSighting(rideID string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, at := range d.seen {
		if now.Sub(at) >= d.window {
			delete(d.seen, id)
		}
	}

	if _, ok := d.seen[rideID]; ok {
		return false
	}
	d.seen[rideID] = now
	return true
}

func (d *Dispatcher) handleSuspension(ctx context.Context, raw json.RawMessage) {
	ctx = wrap.WithAction(ctx, types.ActionSuspension)

	var notice models.SuspensionNotice
	if err := json.Unmarshal(raw, &notice); err != nil {
		d.l.Warn(ctx, "malformed suspension notice", "error", err.Error())
	}

	d.subMu.RLock()
	handlers := make([]SuspensionHandler, 0, len(d.subs))
	for _, h := range d.subs {
		handlers = append(handlers, h)
	}
	d.subMu.RUnlock()

	d.l.Warn(ctx, "account suspension received", "subscribers", len(handlers))
	for _, h := range handlers {
		h(ctx, notice)
	}
}

// OnSuspension registers h and returns a func that removes it.
func (d *Dispatcher) OnSuspension(h SuspensionHandler) (unsubscribe func()) {
	d.subMu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[id] = h
	d.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.subMu.Lock()
			delete(d.subs, id)
			d.subMu.Unlock()
		})
	}
}
