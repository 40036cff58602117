package application

import (
	"context"
	"strings"
	"testing"

	"azure-boards-mcp-server/internal/domain"
)

func TestNewRequestRouter_RegistersAllTools(t *testing.T) {
	handler := newTestHandler(&fakeWorkItemAPI{})
	router := NewRequestRouter(handler)

	tools := router.ListAllTools()
	if len(tools) != 6 {
		t.Fatalf("expected 6 registered tools, got %d", len(tools))
	}

	for _, name := range []string{
		ToolCreateWorkItem, ToolUpdateWorkItem, ToolAddWorkItemComment,
		ToolGetWorkItem, ToolSearchWorkItems, ToolGetMySprintWorkItems,
	} {
		if !router.HasTool(name) {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestRoute_UnknownTool(t *testing.T) {
	router := NewRequestRouter(newTestHandler(&fakeWorkItemAPI{}))

	_, err := router.Route(context.Background(), &domain.ToolRequest{
		Name:      "does_not_exist",
		Arguments: map[string]interface{}{},
	})
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}

	if !strings.Contains(err.Error(), "does_not_exist") {
		t.Errorf("error should name the unknown tool: %v", err)
	}
}

func TestRoute_DispatchesToHandler(t *testing.T) {
	api := &fakeWorkItemAPI{workItem: testWorkItem(42)}
	router := NewRequestRouter(newTestHandler(api))

	resp, err := router.Route(context.Background(), &domain.ToolRequest{
		Name: ToolGetWorkItem,
		Arguments: map[string]interface{}{
			"work_item_id": float64(42),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp == nil || len(resp.Content) == 0 {
		t.Fatal("expected a non-empty tool response")
	}

	if len(api.calls) != 1 || api.calls[0] != "get" {
		t.Errorf("expected a single get call, got %v", api.calls)
	}
}

func TestRouter_EmptyRouter(t *testing.T) {
	router := NewRequestRouter()

	if len(router.ListAllTools()) != 0 {
		t.Error("empty router should list no tools")
	}

	if router.HasTool(ToolGetWorkItem) {
		t.Error("empty router should not report tools")
	}
}
