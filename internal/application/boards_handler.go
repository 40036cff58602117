package application

import (
	"context"
	"fmt"
	"strings"

	"azure-boards-mcp-server/internal/domain"
)

// BoardsHandler implements ToolHandler for Azure Boards work item
// operations. It validates tool arguments, applies configured defaults,
// builds patch documents, and delegates the remote calls to the work item
// client. All validation failures are reported before any remote call is
// issued.
type BoardsHandler struct {
	client         domain.WorkItemAPI
	mapper         domain.ResponseMapper
	defaultProject string
	defaultTeam    string
}

// NewBoardsHandler creates a new BoardsHandler instance.
func NewBoardsHandler(client domain.WorkItemAPI, mapper domain.ResponseMapper, defaultProject, defaultTeam string) *BoardsHandler {
	return &BoardsHandler{
		client:         client,
		mapper:         mapper,
		defaultProject: defaultProject,
		defaultTeam:    defaultTeam,
	}
}

// Tool name constants for work item operations
const (
	ToolCreateWorkItem       = "create_work_item"
	ToolUpdateWorkItem       = "update_work_item"
	ToolAddWorkItemComment   = "add_work_item_comment"
	ToolGetWorkItem          = "get_work_item"
	ToolSearchWorkItems      = "search_work_items"
	ToolGetMySprintWorkItems = "get_my_sprint_work_items"
)

// Azure DevOps limits batch work item fetches to 200 ids.
const maxBatchIDs = 200

// workItemFieldSchemas returns the schema fragments shared by the create and
// update tools: one entry per mutable work item field.
func workItemFieldSchemas() map[string]interface{} {
	return map[string]interface{}{
		"title": map[string]interface{}{
			"type":        "string",
			"description": "The work item title",
		},
		"description": map[string]interface{}{
			"type":        "string",
			"description": "The work item description (optional)",
		},
		"assigned_to": map[string]interface{}{
			"type":        "string",
			"description": "Assignee email address (optional)",
		},
		"state": map[string]interface{}{
			"type":        "string",
			"description": "The work item state, e.g. Active, Resolved, Closed (optional)",
		},
		"priority": map[string]interface{}{
			"type":        "integer",
			"description": "Priority, 1 (highest) to 4 (optional)",
		},
		"area_path": map[string]interface{}{
			"type":        "string",
			"description": "The area path (optional)",
		},
		"iteration_path": map[string]interface{}{
			"type":        "string",
			"description": "The iteration path (optional)",
		},
		"tags": map[string]interface{}{
			"type":        "string",
			"description": "Comma-separated tags, at most 3 are kept (optional)",
		},
		"original_estimate": map[string]interface{}{
			"type":        "number",
			"description": "Original estimate in hours (optional)",
		},
		"remaining_work": map[string]interface{}{
			"type":        "number",
			"description": "Remaining work in hours (optional)",
		},
	}
}

// ListTools returns the work item tool definitions.
func (h *BoardsHandler) ListTools() []domain.ToolDefinition {
	createProps := map[string]interface{}{
		"project": map[string]interface{}{
			"type":        "string",
			"description": "The project name (optional, defaults to the configured project)",
		},
		"work_item_type": map[string]interface{}{
			"type":        "string",
			"description": "The work item type, e.g. Bug, Task, User Story",
		},
	}
	for name, schema := range workItemFieldSchemas() {
		createProps[name] = schema
	}

	updateProps := map[string]interface{}{
		"work_item_id": map[string]interface{}{
			"type":        "integer",
			"description": "The id of the work item to update",
		},
	}
	for name, schema := range workItemFieldSchemas() {
		updateProps[name] = schema
	}

	return []domain.ToolDefinition{
		{
			Name:        ToolCreateWorkItem,
			Description: "Create a new work item in Azure DevOps",
			InputSchema: domain.JSONSchema{
				Type:       "object",
				Properties: createProps,
				Required:   []string{"work_item_type", "title"},
			},
		},
		{
			Name:        ToolUpdateWorkItem,
			Description: "Update fields of an existing work item; omitted fields are left untouched",
			InputSchema: domain.JSONSchema{
				Type:       "object",
				Properties: updateProps,
				Required:   []string{"work_item_id"},
			},
		},
		{
			Name:        ToolAddWorkItemComment,
			Description: "Add a comment to an existing work item",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"work_item_id": map[string]interface{}{
						"type":        "integer",
						"description": "The id of the work item to comment on",
					},
					"comment": map[string]interface{}{
						"type":        "string",
						"description": "The comment text",
					},
				},
				Required: []string{"work_item_id", "comment"},
			},
		},
		{
			Name:        ToolGetWorkItem,
			Description: "Get details of an existing work item",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"work_item_id": map[string]interface{}{
						"type":        "integer",
						"description": "The id of the work item to fetch",
					},
				},
				Required: []string{"work_item_id"},
			},
		},
		{
			Name:        ToolSearchWorkItems,
			Description: "Search for work items using filters or a raw WIQL query",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"project": map[string]interface{}{
						"type":        "string",
						"description": "The project name (optional, defaults to the configured project)",
					},
					"assigned_to": map[string]interface{}{
						"type":        "string",
						"description": "Filter by assignee display name or email (optional)",
					},
					"iteration_path": map[string]interface{}{
						"type":        "string",
						"description": "Filter by iteration path, matches the path and everything under it (optional)",
					},
					"work_item_types": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Filter by work item types (optional)",
					},
					"states": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Filter by states (optional)",
					},
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Raw WIQL query; when provided all other filters are ignored (optional)",
					},
				},
			},
		},
		{
			Name:        ToolGetMySprintWorkItems,
			Description: "Get work items assigned to the authenticated user in the current and/or next sprint",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"project": map[string]interface{}{
						"type":        "string",
						"description": "The project name (optional, defaults to the configured project)",
					},
					"include_current_sprint": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the current sprint (default true)",
					},
					"include_next_sprint": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the next sprint (default true)",
					},
					"work_item_types": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Filter by work item types (optional)",
					},
				},
			},
		},
	}
}

// Handle processes an MCP tool call request for work item operations.
func (h *BoardsHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	args := req.Arguments
	if args == nil {
		args = make(map[string]interface{})
	}

	switch req.Name {
	case ToolCreateWorkItem:
		return h.handleCreateWorkItem(ctx, args)
	case ToolUpdateWorkItem:
		return h.handleUpdateWorkItem(ctx, args)
	case ToolAddWorkItemComment:
		return h.handleAddComment(ctx, args)
	case ToolGetWorkItem:
		return h.handleGetWorkItem(ctx, args)
	case ToolSearchWorkItems:
		return h.handleSearchWorkItems(ctx, args)
	case ToolGetMySprintWorkItems:
		return h.handleGetMySprintWorkItems(ctx, args)
	default:
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("unknown work item tool: %s", req.Name),
		}
	}
}

// resolveProject returns the project argument or the configured default.
func (h *BoardsHandler) resolveProject(args map[string]interface{}) (string, error) {
	project, err := getStringParam(args, "project", false)
	if err != nil {
		return "", err
	}
	if project == "" {
		project = h.defaultProject
	}
	if project == "" {
		return "", &domain.Error{
			Code:    domain.ValidationError,
			Message: "no project specified and no default project configured",
		}
	}
	return project, nil
}

// fieldRequestFromArgs collects the mutable work item fields present in the
// arguments into a WorkItemRequest. Absent arguments leave the
// corresponding field nil.
func fieldRequestFromArgs(args map[string]interface{}) (*domain.WorkItemRequest, error) {
	req := &domain.WorkItemRequest{}
	var err error

	if req.Title, err = optionalString(args, "title"); err != nil {
		return nil, err
	}
	if req.Description, err = optionalString(args, "description"); err != nil {
		return nil, err
	}
	if req.AssignedTo, err = optionalString(args, "assigned_to"); err != nil {
		return nil, err
	}
	if req.State, err = optionalString(args, "state"); err != nil {
		return nil, err
	}
	if req.Priority, err = optionalInt(args, "priority"); err != nil {
		return nil, err
	}
	if req.AreaPath, err = optionalString(args, "area_path"); err != nil {
		return nil, err
	}
	if req.IterationPath, err = optionalString(args, "iteration_path"); err != nil {
		return nil, err
	}
	if req.Tags, err = optionalString(args, "tags"); err != nil {
		return nil, err
	}
	if req.OriginalEstimate, err = optionalFloat(args, "original_estimate"); err != nil {
		return nil, err
	}
	if req.RemainingWork, err = optionalFloat(args, "remaining_work"); err != nil {
		return nil, err
	}

	return req, nil
}

// handleCreateWorkItem handles the create_work_item tool call.
func (h *BoardsHandler) handleCreateWorkItem(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	workItemType, err := getStringParam(args, "work_item_type", true)
	if err != nil {
		return nil, err
	}
	title, err := getStringParam(args, "title", true)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, &domain.Error{
			Code:    domain.ValidationError,
			Message: "title must not be empty",
		}
	}

	project, err := h.resolveProject(args)
	if err != nil {
		return nil, err
	}

	fieldReq, err := fieldRequestFromArgs(args)
	if err != nil {
		return nil, err
	}
	fieldReq.Title = &title

	doc := domain.BuildPatchDocument(fieldReq)

	created, err := h.client.CreateWorkItem(ctx, project, workItemType, doc)
	if err != nil {
		return nil, h.mapper.MapError(err)
	}

	result := domain.NormalizeWorkItem(created)
	if result.Type == "" {
		result.Type = workItemType
	}
	return h.mapper.MapToToolResponse(result)
}

// handleUpdateWorkItem handles the update_work_item tool call.
func (h *BoardsHandler) handleUpdateWorkItem(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	workItemID, err := getIntParam(args, "work_item_id", true)
	if err != nil {
		return nil, err
	}

	fieldReq, err := fieldRequestFromArgs(args)
	if err != nil {
		return nil, err
	}

	doc := domain.BuildPatchDocument(fieldReq)
	if len(doc) == 0 {
		return nil, &domain.Error{
			Code:    domain.ValidationError,
			Message: "at least one field must be provided for update",
		}
	}

	updated, err := h.client.UpdateWorkItem(ctx, workItemID, doc)
	if err != nil {
		return nil, h.mapper.MapError(err)
	}

	return h.mapper.MapToToolResponse(domain.NormalizeWorkItem(updated))
}

// handleAddComment handles the add_work_item_comment tool call.
func (h *BoardsHandler) handleAddComment(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	workItemID, err := getIntParam(args, "work_item_id", true)
	if err != nil {
		return nil, err
	}
	comment, err := getStringParam(args, "comment", true)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(comment) == "" {
		return nil, &domain.Error{
			Code:    domain.ValidationError,
			Message: "comment text must not be empty",
		}
	}

	// The comments sub-resource is project-scoped; the tool itself takes no
	// project parameter, so the configured default must be present.
	project := h.defaultProject
	if project == "" {
		return nil, &domain.Error{
			Code:    domain.ValidationError,
			Message: "no default project configured; comments require a project scope",
		}
	}

	added, err := h.client.AddComment(ctx, project, workItemID, comment)
	if err != nil {
		return nil, h.mapper.MapError(err)
	}

	return h.mapper.MapToToolResponse(map[string]interface{}{
		"id":           added.ID,
		"work_item_id": workItemID,
		"text":         added.Text,
		"url":          added.URL,
	})
}

// handleGetWorkItem handles the get_work_item tool call.
func (h *BoardsHandler) handleGetWorkItem(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	workItemID, err := getIntParam(args, "work_item_id", true)
	if err != nil {
		return nil, err
	}

	wi, err := h.client.GetWorkItem(ctx, workItemID)
	if err != nil {
		return nil, h.mapper.MapError(err)
	}

	return h.mapper.MapToToolResponse(domain.NormalizeWorkItem(wi))
}

// handleSearchWorkItems handles the search_work_items tool call.
func (h *BoardsHandler) handleSearchWorkItems(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	project, err := h.resolveProject(args)
	if err != nil {
		return nil, err
	}

	query, err := getStringParam(args, "query", false)
	if err != nil {
		return nil, err
	}

	if query == "" {
		assignedTo, err := getStringParam(args, "assigned_to", false)
		if err != nil {
			return nil, err
		}
		iterationPath, err := getStringParam(args, "iteration_path", false)
		if err != nil {
			return nil, err
		}
		workItemTypes, err := getStringSliceParam(args, "work_item_types")
		if err != nil {
			return nil, err
		}
		states, err := getStringSliceParam(args, "states")
		if err != nil {
			return nil, err
		}

		query = domain.BuildWiqlQuery(domain.WiqlFilter{
			Project:       project,
			AssignedTo:    assignedTo,
			IterationPath: iterationPath,
			WorkItemTypes: workItemTypes,
			States:        states,
		})
	}

	results, err := h.queryAndFetch(ctx, project, query)
	if err != nil {
		return nil, h.mapper.MapError(err)
	}

	return h.mapper.MapToToolResponse(map[string]interface{}{
		"project":    project,
		"query":      query,
		"count":      len(results),
		"work_items": results,
	})
}

// handleGetMySprintWorkItems handles the get_my_sprint_work_items tool call.
func (h *BoardsHandler) handleGetMySprintWorkItems(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	project, err := h.resolveProject(args)
	if err != nil {
		return nil, err
	}
	includeCurrent, err := getBoolParam(args, "include_current_sprint", true)
	if err != nil {
		return nil, err
	}
	includeNext, err := getBoolParam(args, "include_next_sprint", true)
	if err != nil {
		return nil, err
	}
	workItemTypes, err := getStringSliceParam(args, "work_item_types")
	if err != nil {
		return nil, err
	}

	connData, err := h.client.GetConnectionData(ctx)
	if err != nil {
		return nil, h.mapper.MapError(err)
	}
	user := map[string]interface{}{
		"id":           connData.AuthenticatedUser.ID,
		"display_name": connData.AuthenticatedUser.DisplayName,
	}

	iterations, err := h.client.GetTeamIterations(ctx, project, h.defaultTeam)
	if err != nil {
		return nil, h.mapper.MapError(err)
	}

	current, next := pickSprints(iterations)

	iterationsInfo := make(map[string]interface{})
	var targetPaths []string
	if includeCurrent && current != nil {
		iterationsInfo["current_sprint"] = sprintInfo(current)
		targetPaths = append(targetPaths, current.Path)
	}
	if includeNext && next != nil {
		iterationsInfo["next_sprint"] = sprintInfo(next)
		targetPaths = append(targetPaths, next.Path)
	}

	if len(targetPaths) == 0 {
		return h.mapper.MapToToolResponse(map[string]interface{}{
			"user":       user,
			"work_items": []interface{}{},
			"message":    "No current or next sprint found",
		})
	}

	query := domain.BuildWiqlQuery(domain.WiqlFilter{
		Project:        project,
		AssignedTo:     connData.AuthenticatedUser.DisplayName,
		IterationPaths: targetPaths,
		WorkItemTypes:  workItemTypes,
	})

	results, err := h.queryAndFetch(ctx, project, query)
	if err != nil {
		return nil, h.mapper.MapError(err)
	}

	// Annotate each item with the sprint it belongs to.
	annotated := make([]map[string]interface{}, 0, len(results))
	for _, item := range results {
		iterationPath, _ := item.Fields["IterationPath"].(string)
		sprintType := "unknown"
		if current != nil && strings.HasPrefix(iterationPath, current.Path) {
			sprintType = "current_sprint"
		} else if next != nil && strings.HasPrefix(iterationPath, next.Path) {
			sprintType = "next_sprint"
		}
		annotated = append(annotated, map[string]interface{}{
			"work_item":   item,
			"sprint_type": sprintType,
		})
	}

	return h.mapper.MapToToolResponse(map[string]interface{}{
		"user":       user,
		"iterations": iterationsInfo,
		"work_items": annotated,
		"count":      len(annotated),
	})
}

// queryAndFetch executes a WIQL query and batch-fetches the matched items.
func (h *BoardsHandler) queryAndFetch(ctx context.Context, project, query string) ([]*domain.WorkItemResult, error) {
	queryResult, err := h.client.QueryWorkItems(ctx, project, query)
	if err != nil {
		return nil, err
	}

	if len(queryResult.WorkItems) == 0 {
		return []*domain.WorkItemResult{}, nil
	}

	ids := make([]int, 0, len(queryResult.WorkItems))
	for _, ref := range queryResult.WorkItems {
		ids = append(ids, ref.ID)
		if len(ids) == maxBatchIDs {
			break
		}
	}

	items, err := h.client.GetWorkItemsBatch(ctx, project, ids, domain.QueryFields)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.WorkItemResult, 0, len(items))
	for i := range items {
		results = append(results, domain.NormalizeWorkItem(&items[i]))
	}
	return results, nil
}

// pickSprints selects the current and next iteration from a team's
// iteration list using the timeFrame attribute.
func pickSprints(iterations []domain.TeamIteration) (current, next *domain.TeamIteration) {
	for i := range iterations {
		switch iterations[i].Attributes.TimeFrame {
		case "current":
			if current == nil {
				current = &iterations[i]
			}
		case "future":
			if next == nil {
				next = &iterations[i]
			}
		}
	}
	return current, next
}

// sprintInfo renders an iteration for the tool response.
func sprintInfo(iteration *domain.TeamIteration) map[string]interface{} {
	return map[string]interface{}{
		"name":       iteration.Name,
		"path":       iteration.Path,
		"start_date": iteration.Attributes.StartDate,
		"end_date":   iteration.Attributes.FinishDate,
	}
}
