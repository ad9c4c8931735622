package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an application error independently of its message.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindDependency Kind = "dependency"
	KindForbidden  Kind = "forbidden"
	KindInternal   Kind = "internal"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so errors.Is(err, ErrConflict) works
// for any conflict regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, kind Kind, message string, err error) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is checks. Never mutate these.
var (
	ErrValidation = New(http.StatusBadRequest, KindValidation, "Validation error", nil)
	ErrNotFound   = New(http.StatusNotFound, KindNotFound, "Not found", nil)
	ErrConflict   = New(http.StatusConflict, KindConflict, "Conflict", nil)
	ErrDependency = New(http.StatusBadGateway, KindDependency, "Dependency failure", nil)
	ErrForbidden  = New(http.StatusForbidden, KindForbidden, "Forbidden", nil)
	ErrInternal   = New(http.StatusInternalServerError, KindInternal, "Internal server error", nil)
)

// Validation reports a malformed or missing request field.
func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, KindValidation, fmt.Sprintf(format, args...), nil)
}

// NotFound reports a referenced entity that does not exist.
func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, KindNotFound, fmt.Sprintf(format, args...), nil)
}

// Conflict reports a guard violation on a state transition.
func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, KindConflict, fmt.Sprintf(format, args...), nil)
}

// Dependency reports a failing collaborator (mailer, queue, broker).
func Dependency(message string, err error) *Error {
	return New(http.StatusBadGateway, KindDependency, message, err)
}

// Forbidden reports a principal acting on an order it does not own.
func Forbidden(format string, args ...any) *Error {
	return New(http.StatusForbidden, KindForbidden, fmt.Sprintf(format, args...), nil)
}

// Internal wraps an unexpected failure (usually storage).
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, KindInternal, message, err)
}

// As extracts an *Error from err, falling back to an internal error.
func As(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// Respond renders err on a gin context.
func Respond(c *gin.Context, err error) {
	appErr := As(err)
	c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message, "kind": appErr.Kind})
}

// ErrorMiddleware renders the last error attached with c.Error.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			Respond(c, c.Errors.Last().Err)
		}
	}
}
