package domain

import (
	"context"
)

// ToolHandler processes MCP tool call requests for a group of related tools.
type ToolHandler interface {
	// Handle processes an MCP tool call request.
	// Returns the tool response or an error if processing fails.
	Handle(ctx context.Context, req *ToolRequest) (*ToolResponse, error)

	// ListTools returns the tool definitions this handler serves.
	// Each tool represents a specific operation (e.g., create_work_item).
	ListTools() []ToolDefinition
}
