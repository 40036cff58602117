package application

import (
	"context"
	"fmt"

	"azure-boards-mcp-server/internal/domain"
)

// RequestRouter dispatches MCP tool requests to the handler that registered
// the tool. The registry is built up front from each handler's ListTools, so
// routing is an exact name lookup rather than a prefix convention.
type RequestRouter struct {
	handlers map[string]domain.ToolHandler
	tools    []domain.ToolDefinition
}

// NewRequestRouter creates a new RequestRouter with the provided handlers.
func NewRequestRouter(handlers ...domain.ToolHandler) *RequestRouter {
	router := &RequestRouter{
		handlers: make(map[string]domain.ToolHandler),
	}

	for _, handler := range handlers {
		for _, tool := range handler.ListTools() {
			router.handlers[tool.Name] = handler
			router.tools = append(router.tools, tool)
		}
	}

	return router
}

// Route dispatches a tool request to the handler that registered the tool.
// Returns an error if the tool name is unknown.
func (r *RequestRouter) Route(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	handler, exists := r.handlers[req.Name]
	if !exists {
		return nil, fmt.Errorf("unknown tool: %s (no handler registered)", req.Name)
	}

	return handler.Handle(ctx, req)
}

// ListAllTools returns the tool definitions of all registered handlers.
// This is used for MCP tool discovery (tools/list method).
func (r *RequestRouter) ListAllTools() []domain.ToolDefinition {
	return r.tools
}

// HasTool reports whether a tool name is registered.
// This is useful for testing and debugging.
func (r *RequestRouter) HasTool(name string) bool {
	_, exists := r.handlers[name]
	return exists
}
