package domain

// WorkItem represents a work item as returned by the Azure DevOps API.
// Fields is the raw reference-name keyed field map; normalization into a
// WorkItemResult happens in the response mapper.
type WorkItem struct {
	ID     int                    `json:"id"`
	Rev    int                    `json:"rev,omitempty"`
	URL    string                 `json:"url,omitempty"`
	Fields map[string]interface{} `json:"fields"`
}

// PatchOperation is a single JSON Patch entry in a work item create or
// update document. Azure DevOps treats "add" as create-or-replace, so it is
// used for both new and changed field values.
type PatchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// WorkItemRequest carries the caller-supplied parameters for create and
// update operations. Optional fields are pointers so an omitted parameter is
// distinguishable from an explicitly supplied empty value; nil fields
// contribute no patch entries and never overwrite remote state.
type WorkItemRequest struct {
	Project          string
	WorkItemType     string
	Title            *string
	Description      *string
	AssignedTo       *string
	State            *string
	Priority         *int
	AreaPath         *string
	IterationPath    *string
	Tags             *string
	OriginalEstimate *float64
	RemainingWork    *float64
}

// CommentCreate is the request body for the work item comments sub-resource.
type CommentCreate struct {
	Text string `json:"text"`
}

// Comment represents a comment returned by the comments sub-resource.
type Comment struct {
	ID         int    `json:"id"`
	WorkItemID int    `json:"workItemId"`
	Text       string `json:"text"`
	URL        string `json:"url,omitempty"`
}

// WiqlRequest is the request body for a WIQL query.
type WiqlRequest struct {
	Query string `json:"query"`
}

// WiqlResponse is the response of a WIQL query. Only the matched work item
// references are returned; field data requires a follow-up batch fetch.
type WiqlResponse struct {
	QueryType string              `json:"queryType,omitempty"`
	WorkItems []WorkItemReference `json:"workItems"`
}

// WorkItemReference identifies a work item matched by a query.
type WorkItemReference struct {
	ID  int    `json:"id"`
	URL string `json:"url,omitempty"`
}

// WorkItemBatchRequest is the request body for a batch work item fetch.
type WorkItemBatchRequest struct {
	IDs    []int    `json:"ids"`
	Fields []string `json:"fields,omitempty"`
}

// WorkItemBatchResponse wraps the batch fetch result list.
type WorkItemBatchResponse struct {
	Count int        `json:"count"`
	Value []WorkItem `json:"value"`
}

// TeamIteration represents a single iteration (sprint) of a team.
type TeamIteration struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Path       string              `json:"path"`
	Attributes IterationAttributes `json:"attributes"`
}

// IterationAttributes carries the date range and time frame of an iteration.
// TimeFrame is "past", "current", or "future".
type IterationAttributes struct {
	StartDate  string `json:"startDate,omitempty"`
	FinishDate string `json:"finishDate,omitempty"`
	TimeFrame  string `json:"timeFrame,omitempty"`
}

// TeamIterationsResponse wraps the team iterations list.
type TeamIterationsResponse struct {
	Count int             `json:"count"`
	Value []TeamIteration `json:"value"`
}

// ConnectionData is the subset of the connection data endpoint used to
// identify the authenticated user.
type ConnectionData struct {
	AuthenticatedUser Identity `json:"authenticatedUser"`
}

// Identity represents an Azure DevOps identity.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"providerDisplayName"`
}
