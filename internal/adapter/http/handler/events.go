package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	ws "github.com/Temutjin2k/driver-presence/pkg/wsHub"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Events upgrades UI clients and keeps them in the hub until they leave.
type Events struct {
	connections *ws.ConnectionHub
	upgrader    websocket.Upgrader
	l           logger.Logger
}

func NewEvents(connections *ws.ConnectionHub, l logger.Logger) *Events {
	return &Events{
		connections: connections,
		upgrader: websocket.Upgrader{
			// the control API only listens on the device
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		l: l,
	}
}

// HandleWS godoc
// @Summary      UI event stream
// @Description  Websocket of navigate, ride_offer and availability events
// @Tags         events
// @Router       /ws/events [get]
func (h *Events) HandleWS(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ui_events")

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Error(ctx, "websocket upgrade failed", err)
		return
	}

	conn := ws.NewConn(context.WithoutCancel(ctx), uuid.New(), raw)
	if err := h.connections.Add(conn); err != nil {
		h.l.Error(ctx, "failed to add ui client", err)
		_ = conn.Close()
		return
	}
	defer func() {
		_ = h.connections.Delete(conn.ID())
		_ = conn.Close()
	}()

	h.l.Info(ctx, "ui client connected", "client_id", conn.ID().String())

	// UI clients only listen, inbound frames are drained.
	if err := conn.Listen(func([]byte) error { return nil }); err != nil {
		h.l.Debug(ctx, "ui client left", "client_id", conn.ID().String(), "reason", err.Error())
	}
}
