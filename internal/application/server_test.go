package application

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"azure-boards-mcp-server/internal/domain"
)

// mockTransport is a mock implementation of domain.Transport for testing.
type mockTransport struct {
	mu        sync.Mutex
	reqChan   chan *domain.Request
	responses []*domain.Response
	started   bool
	closed    bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		reqChan:   make(chan *domain.Request, 10),
		responses: make([]*domain.Response, 0),
	}
}

func (m *mockTransport) Start(ctx context.Context) error {
	m.started = true
	return nil
}

func (m *mockTransport) Send(response *domain.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
	return nil
}

func (m *mockTransport) Receive() <-chan *domain.Request {
	return m.reqChan
}

func (m *mockTransport) Close() error {
	m.closed = true
	close(m.reqChan)
	return nil
}

func (m *mockTransport) sendRequest(req *domain.Request) {
	m.reqChan <- req
}

func (m *mockTransport) getLastResponse() *domain.Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return nil
	}
	return m.responses[len(m.responses)-1]
}

// mockToolHandler is a mock implementation of domain.ToolHandler for testing.
type mockToolHandler struct {
	tools    []domain.ToolDefinition
	response *domain.ToolResponse
	err      error
}

func (m *mockToolHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockToolHandler) ListTools() []domain.ToolDefinition {
	return m.tools
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// createTestServer creates a server with mock dependencies for testing.
func createTestServer() (*Server, *mockTransport) {
	transport := newMockTransport()

	handler := &mockToolHandler{
		tools: []domain.ToolDefinition{
			{
				Name:        "get_work_item",
				Description: "Get a work item",
				InputSchema: domain.JSONSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"work_item_id": map[string]interface{}{"type": "integer"},
					},
					Required: []string{"work_item_id"},
				},
			},
		},
		response: &domain.ToolResponse{
			Content: []domain.ContentBlock{
				{Type: "text", Text: "work item retrieved"},
			},
		},
	}

	router := NewRequestRouter(handler)

	config := &domain.Config{
		PAT:             "test-pat",
		OrganizationURL: "https://dev.azure.com/testorg",
		Transport: domain.TransportConfig{
			Type: "stdio",
		},
	}

	server := NewServer(transport, router, domain.NewResponseMapper(), config, testLogger())
	return server, transport
}

func TestNewServer(t *testing.T) {
	server, transport := createTestServer()

	if server == nil {
		t.Fatal("NewServer returned nil")
	}

	if server.transport != transport {
		t.Error("Server transport not set correctly")
	}

	if server.router == nil {
		t.Error("Server router is nil")
	}

	if server.mapper == nil {
		t.Error("Server mapper is nil")
	}

	if server.config == nil {
		t.Error("Server config is nil")
	}
}

func TestServerStart(t *testing.T) {
	server, transport := createTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := server.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !transport.started {
		t.Error("Transport was not started")
	}
}

func TestHandleInitialize(t *testing.T) {
	server, transport := createTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	transport.sendRequest(&domain.Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
		Params:  map[string]interface{}{},
	})

	time.Sleep(100 * time.Millisecond)

	resp := transport.getLastResponse()
	if resp == nil {
		t.Fatal("No response received")
	}

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result is not a map")
	}

	if result["protocolVersion"] != protocolVersion {
		t.Errorf("Expected protocolVersion %q, got %v", protocolVersion, result["protocolVersion"])
	}

	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("Missing serverInfo in response")
	}

	if serverInfo["name"] != serverName {
		t.Errorf("Expected server name %q, got %v", serverName, serverInfo["name"])
	}

	if result["capabilities"] == nil {
		t.Error("Missing capabilities in response")
	}
}

func TestHandleToolsList(t *testing.T) {
	server, transport := createTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	transport.sendRequest(&domain.Request{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "tools/list",
	})

	time.Sleep(100 * time.Millisecond)

	resp := transport.getLastResponse()
	if resp == nil {
		t.Fatal("No response received")
	}

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result is not a map")
	}

	tools, ok := result["tools"].([]domain.ToolDefinition)
	if !ok {
		t.Fatal("Tools is not a slice of ToolDefinition")
	}

	if len(tools) != 1 {
		t.Fatalf("Expected 1 tool, got %d", len(tools))
	}

	if tools[0].Name != "get_work_item" {
		t.Errorf("Expected tool name 'get_work_item', got '%s'", tools[0].Name)
	}
}

func TestHandleToolsCall_Success(t *testing.T) {
	server, transport := createTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	transport.sendRequest(&domain.Request{
		JSONRPC: "2.0",
		ID:      3,
		Method:  "tools/call",
		Params: map[string]interface{}{
			"name": "get_work_item",
			"arguments": map[string]interface{}{
				"work_item_id": 42,
			},
		},
	})

	time.Sleep(100 * time.Millisecond)

	resp := transport.getLastResponse()
	if resp == nil {
		t.Fatal("No response received")
	}

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	if resp.Result == nil {
		t.Fatal("Result is nil")
	}
}

func TestHandleToolsCall_MissingParams(t *testing.T) {
	server, transport := createTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	transport.sendRequest(&domain.Request{
		JSONRPC: "2.0",
		ID:      4,
		Method:  "tools/call",
		Params:  nil,
	})

	time.Sleep(100 * time.Millisecond)

	resp := transport.getLastResponse()
	if resp == nil {
		t.Fatal("No response received")
	}

	if resp.Error == nil {
		t.Fatal("Expected error response")
	}

	if resp.Error.Code != domain.InvalidParams {
		t.Errorf("Expected error code %d, got %d", domain.InvalidParams, resp.Error.Code)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	server, transport := createTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	transport.sendRequest(&domain.Request{
		JSONRPC: "2.0",
		ID:      5,
		Method:  "tools/call",
		Params: map[string]interface{}{
			"name":      "unknown_tool",
			"arguments": map[string]interface{}{},
		},
	})

	time.Sleep(100 * time.Millisecond)

	resp := transport.getLastResponse()
	if resp == nil {
		t.Fatal("No response received")
	}

	if resp.Error == nil {
		t.Fatal("Expected error response for unknown tool")
	}

	// Routing failures surface as internal errors; the router's error text
	// identifies the unknown tool.
	if resp.Error.Code != domain.InternalError {
		t.Errorf("Expected error code %d, got %d", domain.InternalError, resp.Error.Code)
	}
}

func TestHandleToolsCall_HandlerValidationError(t *testing.T) {
	transport := newMockTransport()

	handler := &mockToolHandler{
		tools: []domain.ToolDefinition{
			{Name: "create_work_item", Description: "Create a work item"},
		},
		err: &domain.Error{
			Code:    domain.ValidationError,
			Message: "missing required parameter: title",
		},
	}

	server := NewServer(transport, NewRequestRouter(handler), domain.NewResponseMapper(),
		&domain.Config{Transport: domain.TransportConfig{Type: "stdio"}}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	transport.sendRequest(&domain.Request{
		JSONRPC: "2.0",
		ID:      6,
		Method:  "tools/call",
		Params: map[string]interface{}{
			"name":      "create_work_item",
			"arguments": map[string]interface{}{},
		},
	})

	time.Sleep(100 * time.Millisecond)

	resp := transport.getLastResponse()
	if resp == nil {
		t.Fatal("No response received")
	}

	if resp.Error == nil {
		t.Fatal("Expected error response")
	}

	if resp.Error.Code != domain.ValidationError {
		t.Errorf("Expected error code %d, got %d", domain.ValidationError, resp.Error.Code)
	}
}

func TestHandleUnknownMethod(t *testing.T) {
	server, transport := createTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	transport.sendRequest(&domain.Request{
		JSONRPC: "2.0",
		ID:      7,
		Method:  "unknown/method",
	})

	time.Sleep(100 * time.Millisecond)

	resp := transport.getLastResponse()
	if resp == nil {
		t.Fatal("No response received")
	}

	if resp.Error == nil {
		t.Fatal("Expected error response")
	}

	if resp.Error.Code != domain.MethodNotFound {
		t.Errorf("Expected error code %d, got %d", domain.MethodNotFound, resp.Error.Code)
	}
}

func TestValidateRequest_InvalidJSONRPC(t *testing.T) {
	server, _ := createTestServer()

	err := server.validateRequest(&domain.Request{
		JSONRPC: "1.0",
		Method:  "test",
	})
	if err == nil {
		t.Fatal("Expected validation error for invalid JSONRPC version")
	}
}

func TestValidateRequest_MissingMethod(t *testing.T) {
	server, _ := createTestServer()

	err := server.validateRequest(&domain.Request{
		JSONRPC: "2.0",
		Method:  "",
	})
	if err == nil {
		t.Fatal("Expected validation error for missing method")
	}
}

func TestParseToolRequest_Valid(t *testing.T) {
	server, _ := createTestServer()

	toolReq, err := server.parseToolRequest(map[string]interface{}{
		"name": "get_work_item",
		"arguments": map[string]interface{}{
			"work_item_id": 42,
		},
	})
	if err != nil {
		t.Fatalf("Failed to parse tool request: %v", err)
	}

	if toolReq.Name != "get_work_item" {
		t.Errorf("Expected name 'get_work_item', got '%s'", toolReq.Name)
	}

	if toolReq.Arguments["work_item_id"] != float64(42) {
		t.Errorf("Expected work_item_id 42, got '%v'", toolReq.Arguments["work_item_id"])
	}
}

func TestParseToolRequest_NilParams(t *testing.T) {
	server, _ := createTestServer()

	_, err := server.parseToolRequest(nil)
	if err == nil {
		t.Fatal("Expected error for nil params")
	}
}

func TestParseToolRequest_MissingName(t *testing.T) {
	server, _ := createTestServer()

	_, err := server.parseToolRequest(map[string]interface{}{
		"arguments": map[string]interface{}{},
	})
	if err == nil {
		t.Fatal("Expected error for missing tool name")
	}
}

func TestServerClose(t *testing.T) {
	server, transport := createTestServer()

	err := server.Close()
	if err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if !transport.closed {
		t.Error("Transport was not closed")
	}
}
