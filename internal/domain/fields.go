package domain

import (
	"fmt"
	"strings"
)

// Azure DevOps field reference names used by this server.
const (
	FieldTitle            = "System.Title"
	FieldDescription      = "System.Description"
	FieldAssignedTo       = "System.AssignedTo"
	FieldState            = "System.State"
	FieldPriority         = "Microsoft.VSTS.Common.Priority"
	FieldAreaPath         = "System.AreaPath"
	FieldIterationPath    = "System.IterationPath"
	FieldTags             = "System.Tags"
	FieldOriginalEstimate = "Microsoft.VSTS.Scheduling.OriginalEstimate"
	FieldRemainingWork    = "Microsoft.VSTS.Scheduling.RemainingWork"
	FieldWorkItemType     = "System.WorkItemType"
	FieldTeamProject      = "System.TeamProject"
	FieldCreatedBy        = "System.CreatedBy"
	FieldCreatedDate      = "System.CreatedDate"
	FieldChangedBy        = "System.ChangedBy"
	FieldID               = "System.Id"
)

// fieldReferenceNames maps friendly tool parameter names to Azure DevOps
// field reference names. Every mutable parameter accepted by the create and
// update tools must have an entry here; ValidateFieldMap enforces that at
// startup.
var fieldReferenceNames = map[string]string{
	"title":             FieldTitle,
	"description":       FieldDescription,
	"assigned_to":       FieldAssignedTo,
	"state":             FieldState,
	"priority":          FieldPriority,
	"area_path":         FieldAreaPath,
	"iteration_path":    FieldIterationPath,
	"tags":              FieldTags,
	"original_estimate": FieldOriginalEstimate,
	"remaining_work":    FieldRemainingWork,
}

// MutableParameters lists the friendly names of all mutable work item
// parameters, in schema declaration order.
var MutableParameters = []string{
	"title",
	"description",
	"assigned_to",
	"state",
	"priority",
	"area_path",
	"iteration_path",
	"tags",
	"original_estimate",
	"remaining_work",
}

// FieldReferenceName resolves a friendly parameter name to its Azure DevOps
// reference name.
func FieldReferenceName(param string) (string, bool) {
	ref, ok := fieldReferenceNames[param]
	return ref, ok
}

// ValidateFieldMap checks that every supported mutable parameter has a
// reference-name mapping. An incomplete table is a programming error and is
// treated as a fatal startup condition by the caller.
func ValidateFieldMap() error {
	var missing []string
	for _, param := range MutableParameters {
		if _, ok := fieldReferenceNames[param]; !ok {
			missing = append(missing, param)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("field mapping is missing reference names for: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MaxTags is the maximum number of tags transmitted per work item.
const MaxTags = 3

// NormalizeTags converts a comma-separated tag string into the Azure DevOps
// wire format: trimmed, capped at MaxTags, joined with "; ". Returns ""
// when no usable tags remain.
func NormalizeTags(tags string) string {
	parts := strings.Split(tags, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		normalized = append(normalized, tag)
		if len(normalized) == MaxTags {
			break
		}
	}
	return strings.Join(normalized, "; ")
}

// BuildPatchDocument converts the supplied work item fields into a JSON
// Patch document. Only fields that are present in the request produce
// entries; nil fields are skipped entirely so a partial update can never
// null out remote state. The returned document may be empty; the caller
// decides whether that is an error (update) or acceptable (nothing beyond
// required fields on create).
func BuildPatchDocument(req *WorkItemRequest) []PatchOperation {
	var doc []PatchOperation

	add := func(refName string, value interface{}) {
		doc = append(doc, PatchOperation{
			Op:    "add",
			Path:  "/fields/" + refName,
			Value: value,
		})
	}

	if req.Title != nil {
		add(FieldTitle, *req.Title)
	}
	if req.Description != nil {
		add(FieldDescription, *req.Description)
	}
	if req.AssignedTo != nil {
		add(FieldAssignedTo, *req.AssignedTo)
	}
	if req.State != nil {
		add(FieldState, *req.State)
	}
	if req.Priority != nil {
		add(FieldPriority, *req.Priority)
	}
	if req.AreaPath != nil {
		add(FieldAreaPath, *req.AreaPath)
	}
	if req.IterationPath != nil {
		add(FieldIterationPath, *req.IterationPath)
	}
	if req.Tags != nil {
		if tags := NormalizeTags(*req.Tags); tags != "" {
			add(FieldTags, tags)
		}
	}
	if req.OriginalEstimate != nil {
		add(FieldOriginalEstimate, *req.OriginalEstimate)
	}
	if req.RemainingWork != nil {
		add(FieldRemainingWork, *req.RemainingWork)
	}

	return doc
}
