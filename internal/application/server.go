package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"azure-boards-mcp-server/internal/domain"
)

const (
	serverName      = "azure-boards-mcp-server"
	serverVersion   = "1.0.0"
	protocolVersion = "2024-11-05"
)

// Server is the main MCP server implementation.
// It orchestrates the transport layer, request routing, and implements the
// MCP protocol methods.
type Server struct {
	transport domain.Transport
	router    *RequestRouter
	mapper    domain.ResponseMapper
	config    *domain.Config
	log       *logrus.Logger
}

// NewServer creates a new MCP server instance.
func NewServer(
	transport domain.Transport,
	router *RequestRouter,
	mapper domain.ResponseMapper,
	config *domain.Config,
	log *logrus.Logger,
) *Server {
	return &Server{
		transport: transport,
		router:    router,
		mapper:    mapper,
		config:    config,
		log:       log,
	}
}

// Start begins the server operation.
// It starts the transport layer and begins processing incoming requests.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Start(ctx); err != nil {
		s.log.WithError(err).WithField("transport_type", s.config.Transport.Type).
			Error("failed to start transport")
		return fmt.Errorf("failed to start transport: %w", err)
	}

	s.log.WithField("transport_type", s.config.Transport.Type).Info("server started")

	go s.processRequests(ctx)

	return nil
}

// processRequests continuously processes incoming JSON-RPC requests.
func (s *Server) processRequests(ctx context.Context) {
	reqChan := s.transport.Receive()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("server shutting down")
			return
		case req, ok := <-reqChan:
			if !ok {
				// Channel closed, transport is shutting down
				return
			}

			s.handleRequest(ctx, req)
		}
	}
}

// handleRequest processes a single JSON-RPC request.
func (s *Server) handleRequest(ctx context.Context, req *domain.Request) {
	s.log.WithFields(logrus.Fields{
		"method":     req.Method,
		"request_id": req.ID,
	}).Debug("received request")

	if err := s.validateRequest(req); err != nil {
		s.sendErrorResponse(req.ID, &domain.Error{
			Code:    domain.InvalidRequest,
			Message: "Invalid Request",
			Data:    err.Error(),
		})
		return
	}

	var response *domain.Response
	var err error

	switch req.Method {
	case "initialize":
		response, err = s.handleInitialize(req)
	case "tools/list":
		response, err = s.handleToolsList(req)
	case "tools/call":
		response, err = s.handleToolsCall(ctx, req)
	default:
		s.sendErrorResponse(req.ID, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: "Method not found",
			Data:    fmt.Sprintf("unknown method: %s", req.Method),
		})
		return
	}

	if err != nil {
		// Error response already sent by the method handler.
		s.log.WithError(err).WithFields(logrus.Fields{
			"method":     req.Method,
			"request_id": req.ID,
		}).Warn("request processing failed")
		return
	}

	if err := s.transport.Send(response); err != nil {
		s.log.WithError(err).WithField("request_id", req.ID).Error("failed to send response")
	}
}

// validateRequest validates the basic structure of a JSON-RPC request.
func (s *Server) validateRequest(req *domain.Request) error {
	if req.JSONRPC != "2.0" {
		return fmt.Errorf("invalid jsonrpc version: %s", req.JSONRPC)
	}

	if req.Method == "" {
		return fmt.Errorf("method is required")
	}

	return nil
}

// handleInitialize handles the MCP initialize method.
// This is the initial handshake between client and server.
func (s *Server) handleInitialize(req *domain.Request) (*domain.Response, error) {
	result := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    serverName,
			"version": serverVersion,
		},
	}

	return &domain.Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}, nil
}

// handleToolsList handles the MCP tools/list method.
// Returns all available tools from registered handlers.
func (s *Server) handleToolsList(req *domain.Request) (*domain.Response, error) {
	result := map[string]interface{}{
		"tools": s.router.ListAllTools(),
	}

	return &domain.Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}, nil
}

// handleToolsCall handles the MCP tools/call method.
// Executes a tool call by routing it to the appropriate handler.
func (s *Server) handleToolsCall(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	toolReq, err := s.parseToolRequest(req.Params)
	if err != nil {
		s.sendErrorResponse(req.ID, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "Invalid params",
			Data:    err.Error(),
		})
		return nil, err
	}

	toolResp, err := s.router.Route(ctx, toolReq)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"tool":       toolReq.Name,
			"request_id": req.ID,
		}).Warn("tool execution failed")

		s.sendErrorResponse(req.ID, s.mapper.MapError(err))
		return nil, err
	}

	return &domain.Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  toolResp,
	}, nil
}

// parseToolRequest parses the params field into a ToolRequest.
func (s *Server) parseToolRequest(params interface{}) (*domain.ToolRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required for tools/call")
	}

	// Round-trip through JSON to handle both map[string]interface{} and
	// already-parsed structs.
	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var toolReq domain.ToolRequest
	if err := json.Unmarshal(jsonData, &toolReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool request: %w", err)
	}

	if toolReq.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}

	if toolReq.Arguments == nil {
		toolReq.Arguments = make(map[string]interface{})
	}

	return &toolReq, nil
}

// sendErrorResponse sends a JSON-RPC error response.
func (s *Server) sendErrorResponse(id interface{}, rpcErr *domain.Error) {
	response := &domain.Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcErr,
	}

	if err := s.transport.Send(response); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"request_id": id,
			"error_code": rpcErr.Code,
		}).Error("failed to send error response")
	}
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.log.Info("closing server")
	return s.transport.Close()
}
