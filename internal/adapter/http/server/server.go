package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Temutjin2k/driver-presence/config"
	"github.com/Temutjin2k/driver-presence/internal/adapter/http/handler"
	"github.com/Temutjin2k/driver-presence/internal/adapter/http/middleware"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	ws "github.com/Temutjin2k/driver-presence/pkg/wsHub"
)

const serviceName = "driver-presence"

// API is the local control API the native shell talks to.
type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes *handlers // routes/handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	health       *handler.Health
	location     *handler.Location
	session      *handler.Session
	availability *handler.Availability
	ride         *handler.Ride
	events       *handler.Events
}

// New builds the API for cfg.Mode. Reporter mode only needs the location
// feed, the agent services may be nil there.
func New(
	cfg config.Config,
	locationFeed handler.LocationFeed,
	sessionService handler.SessionService,
	availabilityService handler.AvailabilityService,
	tripService handler.TripService,
	channel handler.ChannelStater,
	uiClients *ws.ConnectionHub,
	logger logger.Logger,
) (*API, error) {
	if locationFeed == nil {
		return nil, errors.New("location feed is required")
	}

	handlers := &handlers{
		location: handler.NewLocation(locationFeed, logger),
	}

	switch cfg.Mode {
	case types.AgentMode:
		if sessionService == nil || availabilityService == nil || tripService == nil || uiClients == nil {
			return nil, errors.New("agent mode requires session, availability, trip services and ui hub")
		}
		handlers.health = handler.NewHealth(serviceName, cfg.Mode, channel, logger)
		handlers.session = handler.NewSession(sessionService, availabilityService, logger)
		handlers.availability = handler.NewAvailability(availabilityService, logger)
		handlers.ride = handler.NewRide(tripService, logger)
		handlers.events = handler.NewEvents(uiClients, logger)
	case types.ReporterMode:
		handlers.health = handler.NewHealth(serviceName, cfg.Mode, nil, logger)
	default:
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}

	api := &API{
		mode: cfg.Mode,

		mux:    http.NewServeMux(),
		routes: handlers,
		m:      middleware.NewMiddleware(cfg.Server.Token, logger),
		addr:   cfg.Server.Addr(),
		cfg:    cfg,
		log:    logger,
	}

	setupRoutes(api.mux, api.routes, api.mode)

	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.withMiddleware(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr, "mode", a.mode)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// Handler exposes the full middleware chain, used by tests.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Logging(a.m.Metrics(serviceName)(a.m.Auth(a.mux)))))
}
