package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// WorkItemResult is the normalized work item returned to the agent.
// It is constructed fresh from each API response and never cached.
type WorkItemResult struct {
	ID               int                    `json:"id"`
	Type             string                 `json:"type,omitempty"`
	Title            string                 `json:"title,omitempty"`
	State            string                 `json:"state,omitempty"`
	AssignedTo       string                 `json:"assigned_to,omitempty"`
	Description      string                 `json:"description,omitempty"`
	Tags             string                 `json:"tags,omitempty"`
	OriginalEstimate interface{}            `json:"original_estimate,omitempty"`
	RemainingWork    interface{}            `json:"remaining_work,omitempty"`
	URL              string                 `json:"url,omitempty"`
	Fields           map[string]interface{} `json:"fields,omitempty"`
}

// ResponseMapper converts API responses and errors into MCP format.
type ResponseMapper interface {
	// MapToToolResponse converts a result value to MCP format. The value is
	// rendered as a JSON text content block.
	MapToToolResponse(result interface{}) (*ToolResponse, error)

	// MapError converts an error from a tool invocation into a JSON-RPC
	// error with the appropriate taxonomy code.
	MapError(err error) *Error
}

// DefaultResponseMapper is the default implementation of ResponseMapper.
type DefaultResponseMapper struct{}

// NewResponseMapper creates a new instance of DefaultResponseMapper.
func NewResponseMapper() ResponseMapper {
	return &DefaultResponseMapper{}
}

// NormalizeWorkItem converts a raw API work item into a WorkItemResult.
// Well-known fields are lifted into named attributes; everything else stays
// in the Fields map keyed by the last segment of the reference name.
func NormalizeWorkItem(wi *WorkItem) *WorkItemResult {
	result := &WorkItemResult{
		ID:     wi.ID,
		URL:    wi.URL,
		Fields: make(map[string]interface{}),
	}

	lifted := map[string]bool{
		FieldTitle:            true,
		FieldDescription:      true,
		FieldAssignedTo:       true,
		FieldState:            true,
		FieldWorkItemType:     true,
		FieldTags:             true,
		FieldOriginalEstimate: true,
		FieldRemainingWork:    true,
	}

	result.Title = fieldString(wi.Fields, FieldTitle)
	result.Description = fieldString(wi.Fields, FieldDescription)
	result.State = fieldString(wi.Fields, FieldState)
	result.Type = fieldString(wi.Fields, FieldWorkItemType)
	result.Tags = fieldString(wi.Fields, FieldTags)
	result.AssignedTo = identityDisplayName(wi.Fields[FieldAssignedTo])
	result.OriginalEstimate = wi.Fields[FieldOriginalEstimate]
	result.RemainingWork = wi.Fields[FieldRemainingWork]

	for refName, value := range wi.Fields {
		if lifted[refName] {
			continue
		}
		simpleName := refName
		if idx := strings.LastIndex(refName, "."); idx != -1 {
			simpleName = refName[idx+1:]
		}
		result.Fields[simpleName] = value
	}

	return result
}

// fieldString reads a string field from a raw field map.
func fieldString(fields map[string]interface{}, refName string) string {
	if s, ok := fields[refName].(string); ok {
		return s
	}
	return ""
}

// identityDisplayName extracts a display name from an identity field value.
// Azure DevOps returns identity fields either as a plain string or as an
// object with displayName/uniqueName attributes.
func identityDisplayName(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}:
		if name, ok := v["displayName"].(string); ok {
			return name
		}
		if name, ok := v["uniqueName"].(string); ok {
			return name
		}
	}
	return ""
}

// MapToToolResponse converts a result value to MCP format.
func (m *DefaultResponseMapper) MapToToolResponse(result interface{}) (*ToolResponse, error) {
	if result == nil {
		return &ToolResponse{
			Content: []ContentBlock{{Type: "text", Text: "{}"}},
		}, nil
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &ToolResponse{
		Content: []ContentBlock{{Type: "text", Text: string(jsonBytes)}},
	}, nil
}

// MapError converts an error from a tool invocation into a JSON-RPC error.
// HTTP status codes map onto the taxonomy (404 NotFound, 401/403 Auth,
// other 4xx Validation, 5xx Upstream); network-level failures map to
// TransportError.
func (m *DefaultResponseMapper) MapError(err error) *Error {
	if err == nil {
		return nil
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return mapHTTPError(httpErr)
	}

	// url.Error covers dial failures, DNS errors, and client timeouts.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{
			Code:    TransportError,
			Message: fmt.Sprintf("network failure reaching Azure DevOps: %v", urlErr),
			Data:    map[string]interface{}{"kind": ErrorKind(TransportError)},
		}
	}

	return &Error{
		Code:    InternalError,
		Message: err.Error(),
	}
}

// HTTPError represents a non-2xx HTTP response from the Azure DevOps API.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface for HTTPError.
func (e HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Message, e.Body)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(statusCode int, message string, body string) HTTPError {
	return HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Body:       body,
	}
}

// mapHTTPError maps HTTP status codes to taxonomy error codes.
func mapHTTPError(httpErr HTTPError) *Error {
	var code int
	var message string

	switch {
	case httpErr.StatusCode == http.StatusNotFound:
		code = NotFoundError
		message = "work item not found"
	case httpErr.StatusCode == http.StatusUnauthorized:
		code = AuthError
		message = "authentication failed: credential rejected"
	case httpErr.StatusCode == http.StatusForbidden:
		code = AuthError
		message = "access forbidden: insufficient permissions"
	case httpErr.StatusCode >= 400 && httpErr.StatusCode < 500:
		code = ValidationError
		message = "Azure DevOps rejected the request"
	case httpErr.StatusCode >= 500:
		code = UpstreamError
		message = "Azure DevOps service fault"
	default:
		code = InternalError
		message = httpErr.Message
	}

	errorData := map[string]interface{}{
		"kind":       ErrorKind(code),
		"statusCode": httpErr.StatusCode,
	}
	if httpErr.Body != "" {
		errorData["body"] = httpErr.Body
	}

	return &Error{
		Code:    code,
		Message: message,
		Data:    errorData,
	}
}
