package tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/querylens-io/starmart-engine/pkg/sqlguard"
)

// ErrorResponse represents a structured error in tool results.
// This is used to return actionable error information to the model
// as a tool result, ensuring error details are visible rather than
// being swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for recoverable/actionable errors the model should see and
// can potentially fix (e.g., a rejected query, an out-of-range limit).
//
// Do NOT use this for system failures (database connection errors,
// internal server errors) - those should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// NewErrorResultWithDetails creates an error result with additional context.
// The details field can carry anything that helps the model correct the
// failed call, like the list of allowed tables.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// NewRejectionResult converts a query rejection into an error result. The
// rejection kind becomes the error code so the model can distinguish a
// forbidden keyword from, say, a missing table.
func NewRejectionResult(rej *sqlguard.Rejection) *mcp.CallToolResult {
	return NewErrorResult(rej.Kind.String(), rej.Error())
}
