package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"go-group-relay/internal/application/facade"
	"go-group-relay/internal/infrastructure/config"
	"go-group-relay/internal/infrastructure/hub"
	"go-group-relay/internal/infrastructure/logger"
	"go-group-relay/internal/infrastructure/metrics"
	"go-group-relay/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	sctx := WithSignal(ctx)

	log := logger.NewLogrusLogger(cfg.Logger())

	metricsRegistry := metrics.NewRegistry()
	hubInstance := hub.New(log, hub.Options{
		Dispatcher: hub.DispatcherOptions{
			SendTimeout: cfg.SendTimeout,
			Concurrency: cfg.BroadcastConcurrency,
		},
		CleanupInterval: cfg.CleanupInterval,
		Recorder:        metrics.NewHubMetrics(metricsRegistry),
	})

	// the gateways refuse members until the hub runs
	if err := hubInstance.Start(ctx); err != nil {
		log.Errorf("failed to start hub: %v", err)
		return
	}

	roles := facade.NewRoleApplicationService(hubInstance, log)
	router := InitRouter(RouterDeps{
		Hub:         hubInstance,
		Roles:       roles,
		Connections: connectionOptions(cfg),
		Metrics:     metrics.Handler(metricsRegistry),
		Logger:      log,
	})

	httpSrv := server.NewHTTPServer(cfg.Addr(), router, server.Timeouts{
		Read:  cfg.ReadTimeout,
		Write: cfg.WriteTimeout,
		Idle:  cfg.IdleTimeout,
	})
	app := newApplication(log, cfg, httpSrv, hubInstance)
	if err := app.Run(sctx); err != nil {
		log.Errorf("failed to run application: %v", err)
	}
}

func connectionOptions(cfg *config.Config) hub.ConnectionOptions {
	return hub.ConnectionOptions{
		WriteTimeout:   cfg.WSWriteTimeout,
		PongTimeout:    cfg.WSPongTimeout,
		MaxMessageSize: cfg.WSMaxMessageSize,
		SendBuffer:     cfg.WSSendBuffer,
		MessageRate:    rate.Limit(cfg.WSMessageRate),
		MessageBurst:   cfg.WSMessageBurst,
		KeepAlive:      cfg.SSEKeepAlive,
		IdleTimeout:    cfg.ConnIdleTimeout,
	}
}

type Application struct {
	logger  logger.Logger
	cfg     *config.Config
	httpSrv server.Server
	hub     *hub.Hub
}

func newApplication(
	logger logger.Logger,
	cfg *config.Config,
	httpSrv server.Server,
	hubInstance *hub.Hub,
) *Application {
	return &Application{
		logger:  logger.WithField("app", "group-relay"),
		cfg:     cfg,
		httpSrv: httpSrv,
		hub:     hubInstance,
	}
}

func (app *Application) Run(ctx context.Context) error {
	eg := errgroup.Group{}

	eg.Go(func() error {
		app.logger.Infof("HTTP server listening on %s", app.cfg.Addr())
		return app.httpSrv.Start(ctx)
	})

	eg.Go(func() error {
		<-ctx.Done()

		gracefulshutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			app.cfg.ShutdownTimeout,
		)
		defer cancel()

		// members are closed before the listener drains
		if err := app.hub.Stop(gracefulshutdownCtx); err != nil {
			app.logger.Errorf("failed to stop hub: %v", err)
		}

		return app.httpSrv.Stop(gracefulshutdownCtx)
	})

	return eg.Wait()
}

func WithSignal(pctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(pctx)

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

		<-sigc

		cancel()
	}()

	return ctx
}
