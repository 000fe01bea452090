package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/querylens-io/starmart-engine/pkg/config"
	"github.com/querylens-io/starmart-engine/pkg/database"
	"github.com/querylens-io/starmart-engine/pkg/datasource"
	_ "github.com/querylens-io/starmart-engine/pkg/datasource/mssql"
	_ "github.com/querylens-io/starmart-engine/pkg/datasource/postgres"
	"github.com/querylens-io/starmart-engine/pkg/gateway"
	"github.com/querylens-io/starmart-engine/pkg/handlers"
	"github.com/querylens-io/starmart-engine/pkg/mcp"
	"github.com/querylens-io/starmart-engine/pkg/mcp/tools"
	"github.com/querylens-io/starmart-engine/pkg/middleware"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("warehouse_type", cfg.Warehouse.Type),
		zap.String("warehouse", cfg.Warehouse.Host),
		zap.String("database", cfg.Warehouse.Database),
		zap.Strings("allowed_tables", cfg.Guard.AllowedTables()),
	)

	ctx := context.Background()

	if cfg.Warehouse.MigrateOnStart {
		if err := migrateWarehouse(cfg, logger); err != nil {
			logger.Fatal("Migration failed", zap.Error(err))
		}
	}

	backend, err := datasource.New(ctx, datasource.BackendConfig{
		Type:     cfg.Warehouse.Type,
		Host:     config.ResolveHostForDocker(cfg.Warehouse.Host),
		Port:     cfg.Warehouse.Port,
		User:     cfg.Warehouse.User,
		Password: cfg.Warehouse.Password,
		Database: cfg.Warehouse.Database,
		SSLMode:  cfg.Warehouse.SSLMode,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to warehouse", zap.Error(err))
	}
	defer backend.Close()

	gw := gateway.New(backend, cfg.Guard.Policy(), cfg.Guard.QueryTimeout(), logger)

	mcpServer := mcp.NewServer("starmart-engine", cfg.Version, logger)
	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)
	tools.RegisterSQLTools(mcpServer.MCP(), &tools.SQLToolDeps{
		Gateway: gw,
		Logger:  logger,
	})

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSQLHandler(gw, logger).RegisterRoutes(mux)
	handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting starmart-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a development logger locally and a production logger
// everywhere else.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// migrateWarehouse applies the embedded star-schema migrations. Migrations
// run over database/sql; only the postgres warehouse supports them.
func migrateWarehouse(cfg *config.Config, logger *zap.Logger) error {
	if cfg.Warehouse.Type != "postgres" {
		logger.Warn("Skipping migrations: unsupported warehouse type",
			zap.String("type", cfg.Warehouse.Type))
		return nil
	}

	db, err := sql.Open("pgx", cfg.Warehouse.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	return database.RunMigrations(db, logger)
}
