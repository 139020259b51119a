// Package response renders the hub's JSON envelope. Every endpoint answers
// {success, data} or {success, error: {code, message}}; conflict responses
// carry a domain code so API clients can tell a duplicate ingest from a
// booking-link state clash without parsing the message text.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Envelope is the outer JSON shape of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError carries a machine-readable code alongside the human message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes. The conflict codes are domain-specific: DUPLICATE_MESSAGE for
// an ingest whose payload hash already exists, LINK_STATE_CONFLICT for a
// booking-link transition the state machine does not allow.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeDuplicateMessage = "DUPLICATE_MESSAGE"
	CodeDuplicateTrade   = "DUPLICATE_TRADE"
	CodeLinkConflict     = "LINK_STATE_CONFLICT"
)

// Handle renders data on a nil error, otherwise maps the error onto the
// matching failure response.
func Handle(c *gin.Context, data interface{}, err error) {
	switch {
	case err == nil:
		Success(c, data)
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "Resource not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		Conflict(c, CodeDuplicateTrade, "Resource already exists")
	default:
		InternalError(c, "An unexpected error occurred")
	}
}

// Success renders data; creations (POST) answer 201.
func Success(c *gin.Context, data interface{}) {
	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		status = http.StatusCreated
	}
	c.JSON(status, Envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

func NotFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, CodeNotFound, message)
}

func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, CodeBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	fail(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	fail(c, http.StatusForbidden, CodeForbidden, message)
}

func InternalError(c *gin.Context, message string) {
	fail(c, http.StatusInternalServerError, CodeInternalError, message)
}

// Conflict answers 409 under the given domain code.
func Conflict(c *gin.Context, code, message string) {
	fail(c, http.StatusConflict, code, message)
}
