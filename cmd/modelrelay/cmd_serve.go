package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/modelrelay/internal/server"
	"github.com/HerbHall/modelrelay/internal/version"
)

// runServe runs HTTP mode: the streamable MCP endpoint plus the
// operational and audit routes.
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	_ = fs.Parse(args)

	app := setup(*configPath, "http")
	logger := app.logger
	defer func() { _ = logger.Sync() }()

	srvCfg := server.Config{
		Host:   app.cfg.GetString("server.host"),
		Port:   app.cfg.GetInt("server.port"),
		APIKey: app.cfg.GetString("server.api_key"),
	}

	var ready server.ReadinessChecker
	if app.db != nil {
		db := app.db.DB()
		ready = func(ctx context.Context) error {
			return db.PingContext(ctx)
		}
	}

	srv := server.New(srvCfg, app.mcpSrv, logger, ready)

	// Start server in background
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("ModelRelay server ready",
		zap.String("component", "server"),
		zap.String("addr", srvCfg.Addr()),
	)

	// Human-readable banner for users watching docker logs.
	fmt.Fprintf(os.Stderr, "\n  ModelRelay %s is ready!\n  MCP endpoint: http://localhost:%d/mcp\n\n", version.Short(), srvCfg.Port)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if app.db != nil {
		_ = app.db.Close()
	}

	logger.Info("ModelRelay server stopped")
}
