package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// chdir moves the test into dir so Load() resolves config.yaml there.
func chdir(t *testing.T, dir string) {
	t.Helper()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})
}

func clearGuardEnv() {
	os.Unsetenv("GUARD_MAX_QUERY_LENGTH")
	os.Unsetenv("GUARD_DEFAULT_LIMIT")
	os.Unsetenv("GUARD_MAX_ROW_LIMIT")
	os.Unsetenv("GUARD_ALLOWED_TABLES")
	os.Unsetenv("GUARD_QUERY_TIMEOUT_SECONDS")
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
port: "8000"
env: "test"
warehouse:
  host: "warehouse.example.com"
  port: 5432
  user: "testuser"
  database: "testdb"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	chdir(t, tmpDir)
	clearGuardEnv()

	// Set env vars to override YAML values
	t.Setenv("PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Verify env vars override YAML
	if cfg.Port != "9000" {
		t.Errorf("expected Port=9000 (from env), got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}

	// Verify version was set
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}

	// Verify YAML value used for warehouse host (proves YAML was read)
	if cfg.Warehouse.Host != "warehouse.example.com" {
		t.Errorf("expected Warehouse.Host=warehouse.example.com (from yaml), got %s", cfg.Warehouse.Host)
	}
}

func TestLoad_MissingConfigFileFallsBackToEnv(t *testing.T) {
	tmpDir := t.TempDir()
	chdir(t, tmpDir)
	clearGuardEnv()

	t.Setenv("WAREHOUSE_HOST", "envhost")
	t.Setenv("WAREHOUSE_TYPE", "sqlserver")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed without config.yaml: %v", err)
	}

	if cfg.Warehouse.Host != "envhost" {
		t.Errorf("expected Warehouse.Host=envhost (from env), got %s", cfg.Warehouse.Host)
	}
	if cfg.Warehouse.Type != "sqlserver" {
		t.Errorf("expected Warehouse.Type=sqlserver (from env), got %s", cfg.Warehouse.Type)
	}
	// Defaults still apply for everything unset
	if cfg.BindAddr != "127.0.0.1" {
		t.Errorf("expected BindAddr=127.0.0.1 (default), got %s", cfg.BindAddr)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected Port=8000 (default), got %s", cfg.Port)
	}
}

func TestLoad_GuardDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	chdir(t, tmpDir)
	clearGuardEnv()

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Guard.MaxQueryLength != 2000 {
		t.Errorf("expected MaxQueryLength=2000 (default), got %d", cfg.Guard.MaxQueryLength)
	}
	if cfg.Guard.DefaultLimit != 100 {
		t.Errorf("expected DefaultLimit=100 (default), got %d", cfg.Guard.DefaultLimit)
	}
	if cfg.Guard.MaxRowLimit != 1000 {
		t.Errorf("expected MaxRowLimit=1000 (default), got %d", cfg.Guard.MaxRowLimit)
	}
	if cfg.Guard.QueryTimeoutSeconds != 30 {
		t.Errorf("expected QueryTimeoutSeconds=30 (default), got %d", cfg.Guard.QueryTimeoutSeconds)
	}

	wantTables := []string{"dim_customer", "dim_product", "dim_date", "fact_sales"}
	if got := cfg.Guard.AllowedTables(); !reflect.DeepEqual(got, wantTables) {
		t.Errorf("expected default allowed tables %v, got %v", wantTables, got)
	}
	if cfg.Guard.QueryTimeout() != 30*time.Second {
		t.Errorf("expected QueryTimeout=30s, got %v", cfg.Guard.QueryTimeout())
	}
}

func TestLoad_GuardFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
port: "8000"
env: "test"
warehouse:
  host: "localhost"
guard:
  max_query_length: 500
  default_limit: 25
  max_row_limit: 250
  allowed_tables: "dim_store, fact_inventory"
  query_timeout_seconds: 5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	chdir(t, tmpDir)
	clearGuardEnv()

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Guard.MaxQueryLength != 500 {
		t.Errorf("expected MaxQueryLength=500 (from yaml), got %d", cfg.Guard.MaxQueryLength)
	}
	if cfg.Guard.DefaultLimit != 25 {
		t.Errorf("expected DefaultLimit=25 (from yaml), got %d", cfg.Guard.DefaultLimit)
	}

	// Whitespace around names is trimmed
	wantTables := []string{"dim_store", "fact_inventory"}
	if got := cfg.Guard.AllowedTables(); !reflect.DeepEqual(got, wantTables) {
		t.Errorf("expected allowed tables %v, got %v", wantTables, got)
	}

	policy := cfg.Guard.Policy()
	if !policy.TableAllowed("dim_store") {
		t.Error("expected dim_store to be allowed by the built policy")
	}
	if policy.TableAllowed("dim_customer") {
		t.Error("expected dim_customer to be rejected by the built policy")
	}
	if policy.MaxQueryLength != 500 {
		t.Errorf("expected policy MaxQueryLength=500, got %d", policy.MaxQueryLength)
	}
}

func TestLoad_GuardFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	chdir(t, tmpDir)
	clearGuardEnv()

	t.Setenv("GUARD_MAX_ROW_LIMIT", "500")
	t.Setenv("GUARD_ALLOWED_TABLES", "fact_sales")
	t.Setenv("GUARD_QUERY_TIMEOUT_SECONDS", "0")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Guard.MaxRowLimit != 500 {
		t.Errorf("expected MaxRowLimit=500 (from env), got %d", cfg.Guard.MaxRowLimit)
	}
	if got := cfg.Guard.AllowedTables(); len(got) != 1 || got[0] != "fact_sales" {
		t.Errorf("expected allowed tables [fact_sales], got %v", got)
	}
	if cfg.Guard.QueryTimeout() != 0 {
		t.Errorf("expected QueryTimeout=0 (disabled), got %v", cfg.Guard.QueryTimeout())
	}
}

func TestLoad_WarehousePasswordOnlyFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// A password in YAML must be ignored; the field is env-only.
	yamlContent := `
port: "8000"
env: "test"
warehouse:
  host: "localhost"
  password: "from-yaml"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	chdir(t, tmpDir)
	clearGuardEnv()
	os.Unsetenv("WAREHOUSE_PASSWORD")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Warehouse.Password != "" {
		t.Errorf("expected empty password (yaml ignored), got %q", cfg.Warehouse.Password)
	}

	t.Setenv("WAREHOUSE_PASSWORD", "s3cret")
	cfg, err = Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Warehouse.Password != "s3cret" {
		t.Errorf("expected password from env, got %q", cfg.Warehouse.Password)
	}
}
