package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// BackendConfig carries the connection settings for any backend type.
type BackendConfig struct {
	Type     string // "postgres", "sqlserver"
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// BackendFactory creates a backend from its configuration.
type BackendFactory func(ctx context.Context, cfg BackendConfig, logger *zap.Logger) (ReadOnlyBackend, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]BackendFactory)
)

// Register is called by each adapter's init(). Thread-safe for concurrent
// init() calls.
func Register(backendType string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[backendType] = factory
}

// RegisteredTypes returns the registered backend types sorted alphabetically.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// New creates the backend named by cfg.Type. The adapter package must have
// been imported (usually via a blank import in main) so its init() ran.
func New(ctx context.Context, cfg BackendConfig, logger *zap.Logger) (ReadOnlyBackend, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown datasource type %q (registered: %v)", cfg.Type, RegisteredTypes())
	}
	return factory(ctx, cfg, logger)
}
