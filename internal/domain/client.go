package domain

import (
	"context"
)

// WorkItemAPI defines the remote operations the tool handler needs from the
// Azure DevOps work item tracking API. The infrastructure package provides
// the HTTP implementation; tests substitute fakes.
type WorkItemAPI interface {
	// CreateWorkItem creates a work item of the given type in the project
	// from a JSON Patch document and returns the created item.
	CreateWorkItem(ctx context.Context, project, workItemType string, doc []PatchOperation) (*WorkItem, error)

	// UpdateWorkItem applies a JSON Patch document to an existing work item
	// and returns the updated item.
	UpdateWorkItem(ctx context.Context, id int, doc []PatchOperation) (*WorkItem, error)

	// GetWorkItem fetches a work item by id with all fields expanded.
	GetWorkItem(ctx context.Context, id int) (*WorkItem, error)

	// AddComment posts a comment to the work item's comments sub-resource.
	AddComment(ctx context.Context, project string, id int, text string) (*Comment, error)

	// QueryWorkItems executes a WIQL query scoped to a project and returns
	// the matched work item references.
	QueryWorkItems(ctx context.Context, project, query string) (*WiqlResponse, error)

	// GetWorkItemsBatch fetches multiple work items with a fixed field list.
	GetWorkItemsBatch(ctx context.Context, project string, ids []int, fields []string) ([]WorkItem, error)

	// GetTeamIterations lists the iterations of a team within a project.
	GetTeamIterations(ctx context.Context, project, team string) ([]TeamIteration, error)

	// GetConnectionData returns the authenticated identity.
	GetConnectionData(ctx context.Context) (*ConnectionData, error)
}
