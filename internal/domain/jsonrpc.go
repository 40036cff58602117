package domain

// Request represents a JSON-RPC 2.0 request message.
type Request struct {
	JSONRPC string      `json:"jsonrpc"` // Must be "2.0"
	ID      interface{} `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Response represents a JSON-RPC 2.0 response message.
type Response struct {
	JSONRPC string      `json:"jsonrpc"` // Must be "2.0"
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface for Error.
func (e *Error) Error() string {
	return e.Message
}

// JSON-RPC 2.0 error codes
const (
	// Standard JSON-RPC 2.0 error codes
	ParseError     = -32700 // Invalid JSON received
	InvalidRequest = -32600 // Invalid JSON-RPC request structure
	MethodNotFound = -32601 // Unknown MCP method
	InvalidParams  = -32602 // Invalid method parameters
	InternalError  = -32603 // Server internal error

	// Application-specific error codes (work-item error taxonomy)
	ValidationError = -32001 // Caller-supplied data is malformed or incomplete
	NotFoundError   = -32002 // Referenced work item does not exist
	AuthError       = -32003 // Credential rejected or insufficient scope
	UpstreamError   = -32004 // Azure DevOps service fault
	TransportError  = -32005 // Network-level failure reaching Azure DevOps
)

// ErrorKind returns the taxonomy name for an application error code.
// Standard JSON-RPC codes map to "ProtocolError".
func ErrorKind(code int) string {
	switch code {
	case ValidationError:
		return "ValidationError"
	case NotFoundError:
		return "NotFoundError"
	case AuthError:
		return "AuthError"
	case UpstreamError:
		return "UpstreamError"
	case TransportError:
		return "TransportError"
	default:
		return "ProtocolError"
	}
}
