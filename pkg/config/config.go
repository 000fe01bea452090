package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/querylens-io/starmart-engine/pkg/sqlguard"
)

// Config holds all configuration for starmart-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Warehouse is the analytics database queries run against.
	Warehouse WarehouseConfig `yaml:"warehouse"`

	// Guard controls query validation and row limiting.
	Guard GuardConfig `yaml:"guard"`
}

// WarehouseConfig holds connection settings for the star-schema warehouse.
type WarehouseConfig struct {
	// Type selects the backend adapter ("postgres" or "sqlserver").
	Type           string `yaml:"type" env:"WAREHOUSE_TYPE" env-default:"postgres"`
	Host           string `yaml:"host" env:"WAREHOUSE_HOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"WAREHOUSE_PORT" env-default:"5432"`
	User           string `yaml:"user" env:"WAREHOUSE_USER" env-default:"starmart"`
	Password       string `yaml:"-" env:"WAREHOUSE_PASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"WAREHOUSE_DATABASE" env-default:"starmart"`
	SSLMode        string `yaml:"ssl_mode" env:"WAREHOUSE_SSLMODE" env-default:"disable"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"WAREHOUSE_MIGRATE_ON_START" env-default:"false"`
}

// GuardConfig holds query guard settings. The defaults mirror the
// sqlguard package defaults; override them per deployment as needed.
type GuardConfig struct {
	MaxQueryLength int `yaml:"max_query_length" env:"GUARD_MAX_QUERY_LENGTH" env-default:"2000"`
	DefaultLimit   int `yaml:"default_limit" env:"GUARD_DEFAULT_LIMIT" env-default:"100"`
	MaxRowLimit    int `yaml:"max_row_limit" env:"GUARD_MAX_ROW_LIMIT" env-default:"1000"`

	// AllowedTablesStr is a comma-separated list of queryable table names.
	AllowedTablesStr string `yaml:"allowed_tables" env:"GUARD_ALLOWED_TABLES" env-default:"dim_customer,dim_product,dim_date,fact_sales"`

	// QueryTimeoutSeconds bounds how long a single query may run. Zero disables
	// the per-query deadline.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" env:"GUARD_QUERY_TIMEOUT_SECONDS" env-default:"30"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. When no config.yaml exists (containers, tests), configuration
// comes from environment variables alone. The version parameter is injected
// at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string for the warehouse.
// Localhost hosts are rewritten to host.docker.internal when running inside
// a container so the warehouse on the host machine stays reachable.
func (w *WarehouseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(w.Host), w.Port, w.User, w.Password, w.Database, w.SSLMode,
	)
}

// AllowedTables parses the comma-separated allow-list into table names.
func (g *GuardConfig) AllowedTables() []string {
	var tables []string
	for _, name := range strings.Split(g.AllowedTablesStr, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			tables = append(tables, name)
		}
	}
	return tables
}

// Policy builds the sqlguard policy from the configured guard settings.
func (g *GuardConfig) Policy() sqlguard.Policy {
	return sqlguard.NewPolicy(g.AllowedTables(), g.MaxQueryLength, g.DefaultLimit, g.MaxRowLimit)
}

// QueryTimeout returns the per-query deadline as a duration.
func (g *GuardConfig) QueryTimeout() time.Duration {
	return time.Duration(g.QueryTimeoutSeconds) * time.Second
}
