package domain

import (
	"fmt"
	"strings"
)

// WiqlFilter carries the optional filters for a generated WIQL query.
// Zero-valued filters are omitted from the WHERE clause.
type WiqlFilter struct {
	Project        string
	AssignedTo     string
	IterationPath  string
	IterationPaths []string
	WorkItemTypes  []string
	States         []string
}

// QueryFields is the field list selected by generated WIQL queries and
// requested on the follow-up batch fetch.
var QueryFields = []string{
	FieldID,
	FieldTitle,
	FieldState,
	FieldAssignedTo,
	FieldWorkItemType,
	FieldTags,
	FieldIterationPath,
	FieldCreatedDate,
	FieldOriginalEstimate,
	FieldRemainingWork,
}

// BuildWiqlQuery renders a WIQL query from the filter. The project filter is
// always present; every other condition is ANDed in only when supplied.
// Values are embedded as WIQL string literals with quotes escaped.
func BuildWiqlQuery(filter WiqlFilter) string {
	conditions := []string{
		fmt.Sprintf("[%s] = '%s'", FieldTeamProject, escapeWiqlString(filter.Project)),
	}

	if filter.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("[%s] = '%s'", FieldAssignedTo, escapeWiqlString(filter.AssignedTo)))
	}

	if filter.IterationPath != "" {
		conditions = append(conditions, fmt.Sprintf("[%s] UNDER '%s'", FieldIterationPath, escapeWiqlString(filter.IterationPath)))
	}

	if len(filter.IterationPaths) > 0 {
		var iterConds []string
		for _, path := range filter.IterationPaths {
			if path == "" {
				continue
			}
			iterConds = append(iterConds, fmt.Sprintf("[%s] UNDER '%s'", FieldIterationPath, escapeWiqlString(path)))
		}
		if len(iterConds) > 0 {
			conditions = append(conditions, "("+strings.Join(iterConds, " OR ")+")")
		}
	}

	if len(filter.WorkItemTypes) > 0 {
		var typeConds []string
		for _, wiType := range filter.WorkItemTypes {
			typeConds = append(typeConds, fmt.Sprintf("[%s] = '%s'", FieldWorkItemType, escapeWiqlString(wiType)))
		}
		conditions = append(conditions, "("+strings.Join(typeConds, " OR ")+")")
	}

	if len(filter.States) > 0 {
		var stateConds []string
		for _, state := range filter.States {
			stateConds = append(stateConds, fmt.Sprintf("[%s] = '%s'", FieldState, escapeWiqlString(state)))
		}
		conditions = append(conditions, "("+strings.Join(stateConds, " OR ")+")")
	}

	selected := make([]string, len(QueryFields))
	for i, field := range QueryFields {
		selected[i] = "[" + field + "]"
	}

	return fmt.Sprintf("SELECT %s FROM WorkItems WHERE %s ORDER BY [%s]",
		strings.Join(selected, ", "),
		strings.Join(conditions, " AND "),
		FieldID)
}

// escapeWiqlString escapes a value for embedding in a WIQL string literal.
func escapeWiqlString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
