package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	app "github.com/procflow/engine"
	"github.com/procflow/engine/internal/config"
	"github.com/procflow/engine/internal/event"
	"github.com/procflow/engine/internal/server"
	"github.com/procflow/engine/internal/store"
	"github.com/procflow/engine/pkg/engine"
	"github.com/procflow/engine/pkg/log"
)

type procflow struct {
	cfg        *config.Config
	bridge     *engine.HTTPBridge
	reports    *store.Store
	events     *event.Bus
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &procflow{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *procflow) run() error {
	s.bridge = engine.NewHTTPBridge(s.cfg.BridgeURL, s.cfg.BridgeTimeout)
	s.reports = store.New(&s.cfg.Reports)
	s.events = event.NewBus()

	if err := s.reports.Ping(context.Background()); err != nil {
		slog.Warn("Run report store unreachable, runs will not persist",
			slog.String("redis_addr", s.cfg.Reports.Addr),
			log.Error(err))
	}

	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *procflow) setupLogging() {
	level, ok := logLevels[s.cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Flowsheet service starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("bridge_url", s.cfg.BridgeURL),
		slog.String("redis_addr", s.cfg.Reports.Addr),
		slog.Int("redis_db", s.cfg.Reports.DB),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *procflow) startServer() {
	s.apiServer = server.NewServer(s.bridge, s.reports, s.events)
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *procflow) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()
	s.events.Close()

	if err := s.reports.Close(); err != nil {
		slog.Error("Report store shutdown failed", log.Error(err))
	}

	slog.Info("Server exited")
}
