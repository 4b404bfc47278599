package modes

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Temutjin2k/driver-presence/config"
	"github.com/Temutjin2k/driver-presence/internal/adapter/device"
	httpserver "github.com/Temutjin2k/driver-presence/internal/adapter/http/server"
	"github.com/Temutjin2k/driver-presence/internal/adapter/telemetry"
	"github.com/Temutjin2k/driver-presence/internal/service/reporter"
	"github.com/Temutjin2k/driver-presence/internal/service/session"
	telemetryengine "github.com/Temutjin2k/driver-presence/internal/service/telemetry"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
)

// Reporter is the background process. It shares the persisted keys with the
// agent through the store and pushes telemetry while the driver is online.
type Reporter struct {
	httpServer *httpserver.API
	scheduler  *reporter.Scheduler

	closeStore closer

	cfg config.Config
	log logger.Logger
}

func NewReporter(ctx context.Context, cfg config.Config, log logger.Logger) (*Reporter, error) {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to open store", err)
		return nil, err
	}

	feed := device.NewFeed(cfg.Location.Granted, cfg.Location.FixTimeout)
	identity := session.NewIdentityCache(store)

	engine := telemetryengine.NewEngine(telemetryengine.Thresholds{
		DistanceM:     cfg.Telemetry.DistanceThresholdM,
		Time:          cfg.Telemetry.TimeThreshold,
		NearPickupM:   cfg.Telemetry.PickupDistanceThresholdM,
		NearPickupTTL: cfg.Telemetry.PickupTimeThreshold,
	})
	pusher := telemetry.NewClient(cfg.Telemetry.URL, cfg.API.Timeout)
	locationReporter := reporter.New(feed, engine, identity, store, pusher, cfg.Location.MaxAge, cfg.Telemetry.PersistInterval, log)
	scheduler := reporter.NewScheduler(reporter.NewStatusGate(locationReporter, store), cfg.Telemetry.Interval, cfg.Telemetry.CycleTimeout, log)

	server, err := httpserver.New(cfg, feed, nil, nil, nil, nil, nil, log)
	if err != nil {
		closeStore(ctx)
		log.Error(ctx, "failed to setup http server", err)
		return nil, err
	}

	return &Reporter{
		httpServer: server,
		scheduler:  scheduler,
		closeStore: closeStore,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (s *Reporter) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	s.scheduler.Start(ctx)
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "reporter closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "reporter started", "addr", s.cfg.Server.Addr())

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *Reporter) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	s.scheduler.Stop()

	if err := s.httpServer.Stop(ctx); err != nil {
		s.log.Warn(ctx, "failed to gracefully close http server", "error", err.Error())
	}

	s.closeStore(ctx)
}
