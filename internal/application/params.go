package application

import (
	"fmt"

	"azure-boards-mcp-server/internal/domain"
)

// getStringParam extracts a string parameter from the arguments map.
// Returns an error if the parameter is required but missing or not a string.
func getStringParam(args map[string]interface{}, name string, required bool) (string, error) {
	value, exists := args[name]
	if !exists {
		if required {
			return "", &domain.Error{
				Code:    domain.ValidationError,
				Message: fmt.Sprintf("missing required parameter: %s", name),
			}
		}
		return "", nil
	}

	strValue, ok := value.(string)
	if !ok {
		return "", &domain.Error{
			Code:    domain.ValidationError,
			Message: fmt.Sprintf("parameter %s must be a string", name),
		}
	}

	return strValue, nil
}

// optionalString returns a pointer to the string argument when present, or
// nil when omitted. Presence with a wrong type is a validation error.
func optionalString(args map[string]interface{}, name string) (*string, error) {
	if _, exists := args[name]; !exists {
		return nil, nil
	}
	value, err := getStringParam(args, name, false)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// getIntParam extracts an integer parameter from the arguments map.
// JSON numbers arrive as float64; both are accepted.
func getIntParam(args map[string]interface{}, name string, required bool) (int, error) {
	value, exists := args[name]
	if !exists {
		if required {
			return 0, &domain.Error{
				Code:    domain.ValidationError,
				Message: fmt.Sprintf("missing required parameter: %s", name),
			}
		}
		return 0, nil
	}

	switch v := value.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, &domain.Error{
			Code:    domain.ValidationError,
			Message: fmt.Sprintf("parameter %s must be an integer", name),
		}
	}
}

// optionalInt returns a pointer to the integer argument when present, or nil
// when omitted.
func optionalInt(args map[string]interface{}, name string) (*int, error) {
	if _, exists := args[name]; !exists {
		return nil, nil
	}
	value, err := getIntParam(args, name, false)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// optionalFloat returns a pointer to the numeric argument when present, or
// nil when omitted.
func optionalFloat(args map[string]interface{}, name string) (*float64, error) {
	value, exists := args[name]
	if !exists {
		return nil, nil
	}

	switch v := value.(type) {
	case float64:
		return &v, nil
	case int:
		f := float64(v)
		return &f, nil
	default:
		return nil, &domain.Error{
			Code:    domain.ValidationError,
			Message: fmt.Sprintf("parameter %s must be a number", name),
		}
	}
}

// getBoolParam extracts a boolean parameter, falling back to a default when
// the parameter is omitted.
func getBoolParam(args map[string]interface{}, name string, defaultValue bool) (bool, error) {
	value, exists := args[name]
	if !exists {
		return defaultValue, nil
	}

	boolValue, ok := value.(bool)
	if !ok {
		return false, &domain.Error{
			Code:    domain.ValidationError,
			Message: fmt.Sprintf("parameter %s must be a boolean", name),
		}
	}

	return boolValue, nil
}

// getStringSliceParam extracts a list-of-strings parameter. JSON arrays
// arrive as []interface{}; each element must be a string.
func getStringSliceParam(args map[string]interface{}, name string) ([]string, error) {
	value, exists := args[name]
	if !exists {
		return nil, nil
	}

	rawSlice, ok := value.([]interface{})
	if !ok {
		return nil, &domain.Error{
			Code:    domain.ValidationError,
			Message: fmt.Sprintf("parameter %s must be an array of strings", name),
		}
	}

	result := make([]string, 0, len(rawSlice))
	for _, item := range rawSlice {
		str, ok := item.(string)
		if !ok {
			return nil, &domain.Error{
				Code:    domain.ValidationError,
				Message: fmt.Sprintf("parameter %s must contain only strings", name),
			}
		}
		result = append(result, str)
	}

	return result, nil
}
