// Package tools provides MCP tool implementations for starmart-engine.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/querylens-io/starmart-engine/pkg/gateway"
	"github.com/querylens-io/starmart-engine/pkg/sqlguard"
)

// QueryGateway is the execution surface SQL tools depend on.
type QueryGateway interface {
	Execute(ctx context.Context, rawQuery string, requestedLimit int, params ...any) (*gateway.Result, error)
	DescribeAllowedTables(ctx context.Context) (map[string]gateway.TableSchema, error)
	Policy() sqlguard.Policy
}

// SQLToolDeps defines dependencies for the SQL MCP tools.
type SQLToolDeps struct {
	Gateway QueryGateway
	Logger  *zap.Logger
}

// RegisterSQLTools registers the guarded SQL tools with the MCP server.
func RegisterSQLTools(mcpServer *server.MCPServer, deps *SQLToolDeps) {
	registerExecuteSQLTool(mcpServer, deps)
	registerListTablesTool(mcpServer, deps)
	registerSQLExamplesTool(mcpServer, deps)
}

// registerExecuteSQLTool registers the execute_sql tool.
func registerExecuteSQLTool(mcpServer *server.MCPServer, deps *SQLToolDeps) {
	policy := deps.Gateway.Policy()
	tool := mcp.NewTool(
		"execute_sql",
		mcp.WithDescription(fmt.Sprintf(`Execute a read-only SELECT query against the sales star schema.
Only SELECT statements are accepted, and only these tables may be referenced: %v.
Results are capped at %d rows per call. Use $1, $2, ... placeholders with the
params argument to bind untrusted values safely.`,
			policy.AllowedTableNames(), policy.MaxRowLimit)),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The SELECT statement to execute")),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum rows to return (default %d, max %d)",
				policy.DefaultLimit, policy.MaxRowLimit))),
		mcp.WithArray("params",
			mcp.Description("Positional values bound to $1, $2, ... placeholders")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)

		query, ok := args["query"].(string)
		if !ok || query == "" {
			return NewErrorResult("invalid_parameters", "query is required and must be a string"), nil
		}

		policy := deps.Gateway.Policy()
		limit := policy.DefaultLimit
		if limitVal, ok := args["limit"].(float64); ok {
			limit = int(limitVal)
			if limit < 1 || limit > policy.MaxRowLimit {
				return NewErrorResultWithDetails("invalid_parameters",
					fmt.Sprintf("limit must be between 1 and %d", policy.MaxRowLimit),
					map[string]any{
						"parameter":    "limit",
						"actual_value": limitVal,
					}), nil
			}
		}

		var params []any
		if paramsVal, ok := args["params"].([]any); ok {
			params = paramsVal
		}

		result, err := deps.Gateway.Execute(ctx, query, limit, params...)
		if err != nil {
			var rej *sqlguard.Rejection
			if errors.As(err, &rej) && rej.Kind != sqlguard.KindExecutionFailure {
				return NewRejectionResult(rej), nil
			}
			deps.Logger.Error("SQL execution failed", zap.Error(err))
			return nil, fmt.Errorf("failed to execute query: %w", err)
		}

		jsonBytes, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal query result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	}

	mcpServer.AddTool(tool, handler)
}

// listTablesResponse mirrors the HTTP /sql/tables payload.
type listTablesResponse struct {
	AvailableTables []string                       `json:"available_tables"`
	TableSchemas    map[string]gateway.TableSchema `json:"table_schemas"`
	TotalTables     int                            `json:"total_tables"`
}

// registerListTablesTool registers the list_tables tool.
func registerListTablesTool(mcpServer *server.MCPServer, deps *SQLToolDeps) {
	tool := mcp.NewTool(
		"list_tables",
		mcp.WithDescription("List the queryable star-schema tables with their live column metadata"),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		schemas, err := deps.Gateway.DescribeAllowedTables(ctx)
		if err != nil {
			deps.Logger.Error("Table introspection failed", zap.Error(err))
			return nil, fmt.Errorf("failed to describe tables: %w", err)
		}

		jsonBytes, err := json.Marshal(listTablesResponse{
			AvailableTables: deps.Gateway.Policy().AllowedTableNames(),
			TableSchemas:    schemas,
			TotalTables:     len(schemas),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tables: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	}

	mcpServer.AddTool(tool, handler)
}

// sqlExamplesResponse is the response format for sql_examples.
type sqlExamplesResponse struct {
	Examples  []gateway.Example `json:"examples"`
	UsageTips []string          `json:"usage_tips"`
}

// registerSQLExamplesTool registers the sql_examples tool.
func registerSQLExamplesTool(mcpServer *server.MCPServer, deps *SQLToolDeps) {
	tool := mcp.NewTool(
		"sql_examples",
		mcp.WithDescription("Get example queries and usage rules for the sales star schema"),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(sqlExamplesResponse{
			Examples:  gateway.Examples(),
			UsageTips: gateway.UsageTips(deps.Gateway.Policy()),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal examples: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	}

	mcpServer.AddTool(tool, handler)
}
