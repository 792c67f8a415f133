package errx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Type classifies an error for HTTP mapping and logging
type Type string

const (
	TypeValidation     Type = "VALIDATION"
	TypeAuthentication Type = "AUTHENTICATION"
	TypeAuthorization  Type = "AUTHORIZATION"
	TypeNotFound       Type = "NOT_FOUND"
	TypeConflict       Type = "CONFLICT"
	TypeBusiness       Type = "BUSINESS"
	TypeExternal       Type = "EXTERNAL"
	TypeInternal       Type = "INTERNAL"
)

// Code is a registered, fully-qualified error code (e.g. "CHAT_NOT_FOUND")
type Code string

type definition struct {
	errType    Type
	httpStatus int
	message    string
}

// Registry holds the error codes of one domain module
type Registry struct {
	prefix string

	mu   sync.RWMutex
	defs map[Code]definition
}

// NewRegistry creates an error registry with the given domain prefix
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		defs:   make(map[Code]definition),
	}
}

// Register adds an error code to the registry and returns the qualified code
func (r *Registry) Register(code string, errType Type, httpStatus int, message string) Code {
	qualified := Code(r.prefix + "_" + code)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[qualified] = definition{
		errType:    errType,
		httpStatus: httpStatus,
		message:    message,
	}

	return qualified
}

// New creates an Error from a registered code
func (r *Registry) New(code Code) *Error {
	r.mu.RLock()
	def, ok := r.defs[code]
	r.mu.RUnlock()

	if !ok {
		// Unregistered codes degrade to an internal error rather than panic
		return &Error{
			Code:       code,
			Type:       TypeInternal,
			HTTPStatus: http.StatusInternalServerError,
			Message:    string(code),
		}
	}

	return &Error{
		Code:       code,
		Type:       def.errType,
		HTTPStatus: def.httpStatus,
		Message:    def.message,
	}
}

// NewWithCause creates an Error from a registered code wrapping a cause
func (r *Registry) NewWithCause(code Code, cause error) *Error {
	err := r.New(code)
	err.cause = cause
	return err
}

// Error is a typed application error with HTTP mapping and structured details
type Error struct {
	Code       Code           `json:"code"`
	Type       Type           `json:"type"`
	HTTPStatus int            `json:"-"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is/As
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail adds a single key/value detail and returns the error
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges a detail map and returns the error
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithCause attaches an underlying cause and returns the error
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// Wrap creates an unregistered Error of the given type around err
func Wrap(err error, message string, errType Type) *Error {
	return &Error{
		Code:       Code(string(errType)),
		Type:       errType,
		HTTPStatus: statusForType(errType),
		Message:    message,
		cause:      err,
	}
}

// As extracts an *Error from an error chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType reports whether err is an *Error of the given type
func IsType(err error, errType Type) bool {
	e, ok := As(err)
	return ok && e.Type == errType
}

// HTTPResponse is the wire shape the global error handler emits
type HTTPResponse struct {
	Error   string         `json:"error"`
	Type    Type           `json:"type"`
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToHTTPResponse converts the error to its wire shape
func (e *Error) ToHTTPResponse() HTTPResponse {
	return HTTPResponse{
		Error:   e.Message,
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

func statusForType(errType Type) int {
	switch errType {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeAuthentication:
		return http.StatusUnauthorized
	case TypeAuthorization:
		return http.StatusForbidden
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeBusiness:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
