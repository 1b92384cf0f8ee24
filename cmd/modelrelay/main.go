package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/modelrelay/internal/catalog"
	"github.com/HerbHall/modelrelay/internal/chat"
	"github.com/HerbHall/modelrelay/internal/config"
	"github.com/HerbHall/modelrelay/internal/mcp"
	"github.com/HerbHall/modelrelay/internal/openrouter"
	"github.com/HerbHall/modelrelay/internal/store"
	"github.com/HerbHall/modelrelay/internal/version"
)

func main() {
	// Subcommand dispatch (before flag.Parse).
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "version":
			fmt.Println(version.Info())
			return
		}
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	runStdio(*configPath)
}

// runStdio serves MCP over stdin/stdout for desktop client integration.
// The logger writes to stderr, which keeps the protocol stream clean.
func runStdio(configPath string) {
	app := setup(configPath, "stdio")
	defer func() { _ = app.logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := app.mcpSrv.Run(ctx)
	cancel()
	if app.db != nil {
		_ = app.db.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %v\n", err)
		os.Exit(1)
	}
}

// app holds everything the run modes share.
type app struct {
	cfg    *viper.Viper
	logger *zap.Logger
	db     *store.SQLiteStore // nil when persistence is disabled
	mcpSrv *mcp.Server
}

// setup wires configuration, logging, persistence, the gateway client, and
// the MCP server. transport labels audit rows with the serving mode.
func setup(configPath, transport string) *app {
	v, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("ModelRelay starting",
		zap.String("version", version.Short()),
		zap.String("transport", transport),
	)

	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Info("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	// Open the audit database. An empty database.path disables persistence;
	// tool calls still work, they just leave no audit trail.
	var db *store.SQLiteStore
	if dbPath := v.GetString("database.path"); dbPath == "" {
		logger.Info("audit persistence disabled (database.path is empty)",
			zap.String("component", "database"),
		)
	} else {
		db, err = store.New(dbPath)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		ctx := context.Background()
		if err := db.CheckVersion(ctx, version.Short()); err != nil {
			logger.Fatal("schema version check failed", zap.Error(err))
		}
		if err := db.Migrate(ctx, "mcp", mcp.Migrations()); err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
		logger.Info("database initialized",
			zap.String("component", "database"),
			zap.String("path", dbPath),
		)
	}

	// Gateway client. A missing key is not fatal: the catalog endpoints are
	// public, and chat calls fail with a typed authentication error.
	orCfg := config.OpenRouter(v)
	if orCfg.APIKey == "" {
		logger.Warn("no OpenRouter API key configured; chat tools will fail until OPENROUTER_API_KEY is set",
			zap.String("component", "openrouter"),
		)
	}
	client := openrouter.New(orCfg, logger.Named("openrouter"))

	policy := config.Retry(v)
	chatSvc := chat.New(client, policy, logger.Named("chat"))
	models := catalog.New(client, policy, logger.Named("catalog"))

	mcpSrv := mcp.New(mcp.Config{
		APIKey:    v.GetString("server.api_key"),
		Transport: transport,
	}, chatSvc, models, logger.Named("mcp"))

	if db != nil {
		mcpSrv.SetAuditStore(mcp.NewAuditStore(db.DB()))
	}

	return &app{cfg: v, logger: logger, db: db, mcpSrv: mcpSrv}
}
