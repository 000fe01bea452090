package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/querylens-io/starmart-engine/pkg/datasource"
)

func init() {
	datasource.Register("sqlserver", func(ctx context.Context, cfg datasource.BackendConfig, logger *zap.Logger) (datasource.ReadOnlyBackend, error) {
		return New(ctx, cfg, logger)
	})
}
