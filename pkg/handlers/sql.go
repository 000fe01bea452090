package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/querylens-io/starmart-engine/pkg/gateway"
	"github.com/querylens-io/starmart-engine/pkg/logging"
	"github.com/querylens-io/starmart-engine/pkg/sqlguard"
)

// QueryGateway is the execution surface the SQL handler depends on.
type QueryGateway interface {
	Execute(ctx context.Context, rawQuery string, requestedLimit int, params ...any) (*gateway.Result, error)
	DescribeAllowedTables(ctx context.Context) (map[string]gateway.TableSchema, error)
	Policy() sqlguard.Policy
}

// QuerySuccessResponse wraps a gateway result with a status marker.
type QuerySuccessResponse struct {
	*gateway.Result
	Status string `json:"status"`
}

// TablesResponse describes every queryable table.
type TablesResponse struct {
	AvailableTables []string                       `json:"available_tables"`
	TableSchemas    map[string]gateway.TableSchema `json:"table_schemas"`
	TotalTables     int                            `json:"total_tables"`
}

// ExamplesResponse is the static example catalog plus usage guidance.
type ExamplesResponse struct {
	Examples  []gateway.Example `json:"examples"`
	UsageTips []string          `json:"usage_tips"`
}

// SQLHandler exposes the guarded ad-hoc SQL endpoints.
type SQLHandler struct {
	gateway QueryGateway
	logger  *zap.Logger
}

// NewSQLHandler creates a new SQL handler.
func NewSQLHandler(gw QueryGateway, logger *zap.Logger) *SQLHandler {
	return &SQLHandler{
		gateway: gw,
		logger:  logger,
	}
}

// RegisterRoutes registers the SQL handler's routes on the given mux.
func (h *SQLHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /sql", h.Execute)
	mux.HandleFunc("GET /sql/tables", h.Tables)
	mux.HandleFunc("GET /sql/examples", h.Examples)
}

// Execute handles GET /sql?q=<query>&limit=<n>.
// The query text is untrusted; the gateway validates it before execution.
func (h *SQLHandler) Execute(w http.ResponseWriter, r *http.Request) {
	rawQuery := r.URL.Query().Get("q")
	if rawQuery == "" {
		h.writeDetail(w, http.StatusBadRequest, "missing required query parameter 'q'")
		return
	}

	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	result, err := h.gateway.Execute(r.Context(), rawQuery, limit)
	if err != nil {
		h.writeExecuteError(w, rawQuery, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, QuerySuccessResponse{Result: result, Status: "success"}); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}

// Tables handles GET /sql/tables. It introspects live column metadata for
// every table on the allow-list.
func (h *SQLHandler) Tables(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.gateway.DescribeAllowedTables(r.Context())
	if err != nil {
		h.logger.Error("Table introspection failed", zap.Error(err))
		h.writeDetail(w, http.StatusInternalServerError, "failed to describe tables: "+err.Error())
		return
	}

	response := TablesResponse{
		AvailableTables: h.gateway.Policy().AllowedTableNames(),
		TableSchemas:    schemas,
		TotalTables:     len(schemas),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode tables response", zap.Error(err))
	}
}

// Examples handles GET /sql/examples. The catalog is static and needs no
// database round trip.
func (h *SQLHandler) Examples(w http.ResponseWriter, r *http.Request) {
	response := ExamplesResponse{
		Examples:  gateway.Examples(),
		UsageTips: gateway.UsageTips(h.gateway.Policy()),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode examples response", zap.Error(err))
	}
}

// parseLimit reads the optional limit query parameter. Out-of-range values
// are rejected here rather than silently clamped so callers learn the cap.
func (h *SQLHandler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	policy := h.gateway.Policy()

	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return policy.DefaultLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		h.writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q: must be an integer", raw))
		return 0, false
	}
	if limit < 1 || limit > policy.MaxRowLimit {
		h.writeDetail(w, http.StatusBadRequest,
			fmt.Sprintf("limit must be between 1 and %d", policy.MaxRowLimit))
		return 0, false
	}
	return limit, true
}

// writeExecuteError maps gateway errors onto HTTP statuses. Validation and
// analysis failures are the caller's fault; timeouts and backend faults are
// not.
func (h *SQLHandler) writeExecuteError(w http.ResponseWriter, rawQuery string, err error) {
	var rej *sqlguard.Rejection
	if !errors.As(err, &rej) {
		h.logger.Error("Query execution failed", zap.Error(err))
		h.writeDetail(w, http.StatusInternalServerError, "query execution failed")
		return
	}

	status := http.StatusBadRequest
	switch rej.Kind {
	case sqlguard.KindTimeout:
		status = http.StatusGatewayTimeout
	case sqlguard.KindExecutionFailure:
		status = http.StatusInternalServerError
	}

	if status == http.StatusBadRequest {
		h.logger.Debug("Rejected query",
			zap.String("kind", rej.Kind.String()),
			zap.String("query", logging.SanitizeQuery(rawQuery)))
	} else {
		h.logger.Warn("Query failed",
			zap.String("kind", rej.Kind.String()),
			zap.Error(rej))
	}
	h.writeDetail(w, status, rej.Error())
}

func (h *SQLHandler) writeDetail(w http.ResponseWriter, status int, message string) {
	if err := DetailResponse(w, status, message); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
