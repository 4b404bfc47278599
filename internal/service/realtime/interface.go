package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	ws "github.com/Temutjin2k/driver-presence/pkg/wsHub"
)

/*=================Transport======================*/

// Conn is one websocket connection. *ws.Conn implements it.
type Conn interface {
	Send(msg any) error
	Listen(handler func(data []byte) error) error
	Close() error
}

type Dialer func(ctx context.Context, url string, header http.Header) (Conn, error)

// WebsocketDialer dials with gorilla through pkg/wsHub.
func WebsocketDialer(ctx context.Context, url string, header http.Header) (Conn, error) {
	conn, err := ws.Dial(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

/*=================Device Location================*/

type LocationSource interface {
	Permission(ctx context.Context) bool
	Current(ctx context.Context, maxAge time.Duration) (*models.LocationSample, error)
}

/*=================Persisted Keys=================*/

type Store interface {
	LoadLastLocation(ctx context.Context) (*models.LocationSample, error)
	LoadAvailabilityStatus(ctx context.Context) (types.AvailabilityStatus, error)
}

/*=================Inbound Messages===============*/

// InboundHandler receives the data of every inbound message frame unmodified.
type InboundHandler interface {
	Handle(ctx context.Context, raw json.RawMessage)
}
