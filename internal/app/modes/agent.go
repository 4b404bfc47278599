package modes

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Temutjin2k/driver-presence/config"
	"github.com/Temutjin2k/driver-presence/internal/adapter/backend"
	"github.com/Temutjin2k/driver-presence/internal/adapter/device"
	httpserver "github.com/Temutjin2k/driver-presence/internal/adapter/http/server"
	wshandler "github.com/Temutjin2k/driver-presence/internal/adapter/http/ws"
	"github.com/Temutjin2k/driver-presence/internal/adapter/telemetry"
	"github.com/Temutjin2k/driver-presence/internal/service/availability"
	"github.com/Temutjin2k/driver-presence/internal/service/dispatch"
	"github.com/Temutjin2k/driver-presence/internal/service/realtime"
	"github.com/Temutjin2k/driver-presence/internal/service/reporter"
	"github.com/Temutjin2k/driver-presence/internal/service/session"
	telemetryengine "github.com/Temutjin2k/driver-presence/internal/service/telemetry"
	"github.com/Temutjin2k/driver-presence/internal/service/trip"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	ws "github.com/Temutjin2k/driver-presence/pkg/wsHub"
)

// Agent is the foreground process: session, availability, realtime channel,
// ride milestones and the control API.
type Agent struct {
	httpServer   *httpserver.API
	uiClients    *ws.ConnectionHub
	sessions     *session.Manager
	availability *availability.Synchronizer
	channel      *realtime.Channel
	scheduler    *reporter.Scheduler
	unsubscribe  func()

	closeStore     closer
	closePublisher closer

	cfg config.Config
	log logger.Logger
}

func NewAgent(ctx context.Context, cfg config.Config, log logger.Logger) (*Agent, error) {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to open store", err)
		return nil, err
	}

	broker, closePublisher, err := openPublisher(ctx, cfg, log)
	if err != nil {
		closeStore(ctx)
		log.Error(ctx, "failed to open availability publisher", err)
		return nil, err
	}

	feed := device.NewFeed(cfg.Location.Granted, cfg.Location.FixTimeout)

	// ui clients
	uiClients := ws.NewConnHub(log)
	events := wshandler.NewEventHub(uiClients, log)

	// session
	identity := session.NewIdentityCache(store)
	sessions := session.NewManager(backend.NewClient(cfg.API.BaseURL, cfg.API.Timeout), store, identity, events, log)
	if err := sessions.Restore(ctx); err != nil {
		log.Warn(ctx, "no session restored", "error", err.Error())
	}

	drivers := backend.NewDriverAPI(sessions)
	rides := backend.NewRideAPI(sessions)

	// telemetry
	engine := telemetryengine.NewEngine(telemetryengine.Thresholds{
		DistanceM:     cfg.Telemetry.DistanceThresholdM,
		Time:          cfg.Telemetry.TimeThreshold,
		NearPickupM:   cfg.Telemetry.PickupDistanceThresholdM,
		NearPickupTTL: cfg.Telemetry.PickupTimeThreshold,
	})
	pusher := telemetry.NewClient(cfg.Telemetry.URL, cfg.API.Timeout)
	locationReporter := reporter.New(feed, engine, identity, store, pusher, cfg.Location.MaxAge, cfg.Telemetry.PersistInterval, log)
	scheduler := reporter.NewScheduler(locationReporter, cfg.Telemetry.Interval, cfg.Telemetry.CycleTimeout, log)

	// realtime
	dispatcher := dispatch.New(events, cfg.Dispatch.DuplicateWindow, log)
	channel := realtime.NewChannel(realtime.Config{
		URL:              cfg.Realtime.URL,
		ReconnectDelay:   cfg.Realtime.ReconnectDelay,
		RegisterInterval: cfg.Realtime.RegisterInterval,
		AckTimeout:       cfg.Realtime.AckTimeout,
		SampleMaxAge:     cfg.Location.MaxAge,
	}, realtime.WebsocketDialer, feed, store, dispatcher, log).WithToken(sessions.AccessToken)

	// availability
	publishers := []availability.Publisher{events}
	if broker != nil {
		publishers = append(publishers, broker)
	}
	synchronizer := availability.New(availability.Config{
		ManualDebounce:  cfg.Availability.ManualDebounce,
		SyncDebounce:    cfg.Availability.SyncDebounce,
		SuspensionDelay: cfg.Availability.SuspensionDelay,
	}, sessions, drivers, rides, store, scheduler, channel, feed, log, publishers...)
	unsubscribe := dispatcher.OnSuspension(synchronizer.HandleSuspension)

	trips := trip.NewService(sessions, rides, synchronizer, channel, log)

	server, err := httpserver.New(cfg, feed, sessions, synchronizer, trips, channel, uiClients, log)
	if err != nil {
		unsubscribe()
		closePublisher(ctx)
		closeStore(ctx)
		log.Error(ctx, "failed to setup http server", err)
		return nil, err
	}

	return &Agent{
		httpServer:     server,
		uiClients:      uiClients,
		sessions:       sessions,
		availability:   synchronizer,
		channel:        channel,
		scheduler:      scheduler,
		unsubscribe:    unsubscribe,
		closeStore:     closeStore,
		closePublisher: closePublisher,
		cfg:            cfg,
		log:            log,
	}, nil
}

func (s *Agent) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "agent closed")
	}()

	// The backend decides the initial online state of a restored session.
	if s.sessions.Valid() {
		if err := s.availability.SyncOnlineStatus(ctx); err != nil {
			s.log.Warn(ctx, "startup sync failed", "error", err.Error())
		}
	}

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "agent started", "addr", s.cfg.Server.Addr())

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

// close stops local side effects only. The backend online flag is left as is
// so the next start can restore it with a sync.
func (s *Agent) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	s.unsubscribe()
	s.channel.Disconnect()
	s.scheduler.Stop()
	s.uiClients.Close()

	if err := s.httpServer.Stop(ctx); err != nil {
		s.log.Warn(ctx, "failed to gracefully close http server", "error", err.Error())
	}

	s.closePublisher(ctx)
	s.closeStore(ctx)
}
