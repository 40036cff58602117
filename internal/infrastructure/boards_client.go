package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"azure-boards-mcp-server/internal/domain"
)

const (
	apiVersion = "7.1"
	// The comments sub-resource is still versioned as a preview API.
	commentsAPIVersion = "7.1-preview.3"

	contentTypeJSON      = "application/json"
	contentTypeJSONPatch = "application/json-patch+json"
)

// BoardsClient handles Azure DevOps work item tracking API interactions.
// It implements domain.WorkItemAPI. One remote call is issued per method
// invocation; failed calls surface immediately with no retries.
type BoardsClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBoardsClient creates a new Azure DevOps API client.
// The baseURL is the organization URL (e.g., "https://dev.azure.com/myorg").
// The httpClient should be an authenticated client from domain.NewAuthenticatedClient.
func NewBoardsClient(baseURL string, httpClient *http.Client) *BoardsClient {
	return &BoardsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the configured organization base URL.
func (c *BoardsClient) BaseURL() string {
	return c.baseURL
}

// CreateWorkItem creates a work item of the given type in the project.
// The endpoint is type-scoped: POST {project}/_apis/wit/workitems/${type}
// with a JSON Patch body.
func (c *BoardsClient) CreateWorkItem(ctx context.Context, project, workItemType string, doc []domain.PatchOperation) (*domain.WorkItem, error) {
	endpoint := fmt.Sprintf("%s/%s/_apis/wit/workitems/$%s?api-version=%s",
		c.baseURL, url.PathEscape(project), url.PathEscape(workItemType), apiVersion)

	var wi domain.WorkItem
	if err := c.doJSON(ctx, http.MethodPost, endpoint, contentTypeJSONPatch, doc, &wi); err != nil {
		return nil, err
	}
	return &wi, nil
}

// UpdateWorkItem applies a JSON Patch document to an existing work item.
func (c *BoardsClient) UpdateWorkItem(ctx context.Context, id int, doc []domain.PatchOperation) (*domain.WorkItem, error) {
	endpoint := fmt.Sprintf("%s/_apis/wit/workitems/%d?api-version=%s", c.baseURL, id, apiVersion)

	var wi domain.WorkItem
	if err := c.doJSON(ctx, http.MethodPatch, endpoint, contentTypeJSONPatch, doc, &wi); err != nil {
		return nil, err
	}
	return &wi, nil
}

// GetWorkItem fetches a work item by id with all fields expanded.
func (c *BoardsClient) GetWorkItem(ctx context.Context, id int) (*domain.WorkItem, error) {
	endpoint := fmt.Sprintf("%s/_apis/wit/workitems/%d?api-version=%s&$expand=all", c.baseURL, id, apiVersion)

	var wi domain.WorkItem
	if err := c.doJSON(ctx, http.MethodGet, endpoint, "", nil, &wi); err != nil {
		return nil, err
	}
	return &wi, nil
}

// AddComment posts a comment to the work item's comments sub-resource.
func (c *BoardsClient) AddComment(ctx context.Context, project string, id int, text string) (*domain.Comment, error) {
	endpoint := fmt.Sprintf("%s/%s/_apis/wit/workItems/%d/comments?api-version=%s",
		c.baseURL, url.PathEscape(project), id, commentsAPIVersion)

	var comment domain.Comment
	if err := c.doJSON(ctx, http.MethodPost, endpoint, contentTypeJSON, domain.CommentCreate{Text: text}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// QueryWorkItems executes a WIQL query scoped to a project.
func (c *BoardsClient) QueryWorkItems(ctx context.Context, project, query string) (*domain.WiqlResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/_apis/wit/wiql?api-version=%s",
		c.baseURL, url.PathEscape(project), apiVersion)

	var resp domain.WiqlResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, contentTypeJSON, domain.WiqlRequest{Query: query}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetWorkItemsBatch fetches multiple work items with a fixed field list.
func (c *BoardsClient) GetWorkItemsBatch(ctx context.Context, project string, ids []int, fields []string) ([]domain.WorkItem, error) {
	endpoint := fmt.Sprintf("%s/%s/_apis/wit/workitemsbatch?api-version=%s",
		c.baseURL, url.PathEscape(project), apiVersion)

	payload := domain.WorkItemBatchRequest{IDs: ids, Fields: fields}
	var resp domain.WorkItemBatchResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, contentTypeJSON, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// GetTeamIterations lists the iterations of a team within a project.
// An empty team targets the project's default team.
func (c *BoardsClient) GetTeamIterations(ctx context.Context, project, team string) ([]domain.TeamIteration, error) {
	scope := url.PathEscape(project)
	if team != "" {
		scope += "/" + url.PathEscape(team)
	}
	endpoint := fmt.Sprintf("%s/%s/_apis/work/teamsettings/iterations?api-version=%s",
		c.baseURL, scope, apiVersion)

	var resp domain.TeamIterationsResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// GetConnectionData returns the authenticated identity.
func (c *BoardsClient) GetConnectionData(ctx context.Context) (*domain.ConnectionData, error) {
	endpoint := fmt.Sprintf("%s/_apis/connectionData", c.baseURL)

	var data domain.ConnectionData
	if err := c.doJSON(ctx, http.MethodGet, endpoint, "", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// doJSON executes a single HTTP request and decodes the JSON response into
// out. A non-2xx status is returned as domain.HTTPError carrying the status
// code and response body; network failures are returned unwrapped so the
// response mapper can classify them as transport errors.
func (c *BoardsClient) doJSON(ctx context.Context, method, endpoint, contentType string, payload, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return domain.NewHTTPError(resp.StatusCode, http.StatusText(resp.StatusCode), string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
