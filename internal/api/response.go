package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// APIError represents an error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta represents metadata for list responses
type Meta struct {
	Count     int    `json:"count"`
	RequestID string `json:"request_id,omitempty"`
}

// NewMeta builds list metadata, tagging it with the request id when present
func NewMeta(c *gin.Context, count int) *Meta {
	meta := &Meta{Count: count}
	if id, ok := c.Get(RequestIDKey); ok {
		if idStr, ok := id.(string); ok {
			meta.RequestID = idStr
		}
	}
	return meta
}

// Standard error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeUnprocessable = "UNPROCESSABLE"
	ErrCodeUnavailable   = "SERVICE_UNAVAILABLE"
)

// SendSuccess sends a successful response
func SendSuccess(c *gin.Context, statusCode int, data interface{}, meta *Meta) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	}
	c.JSON(statusCode, response)
}

// SendError sends an error response
func SendError(c *gin.Context, statusCode int, code, message, details string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	c.JSON(statusCode, response)
}

// Convenience methods for common responses

func SendValidationError(c *gin.Context, message, details string) {
	SendError(c, http.StatusBadRequest, ErrCodeValidation, message, details)
}

func SendNotFound(c *gin.Context, resource string) {
	SendError(c, http.StatusNotFound, ErrCodeNotFound, resource+" not found", "")
}

func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", message)
}

func SendUnprocessable(c *gin.Context, message, details string) {
	SendError(c, http.StatusUnprocessableEntity, ErrCodeUnprocessable, message, details)
}

// SendUnavailable reports a 503 while still carrying a body describing what
// is unavailable
func SendUnavailable(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusServiceUnavailable, APIResponse{
		Success: false,
		Data:    data,
		Error: &APIError{
			Code:    ErrCodeUnavailable,
			Message: message,
		},
	})
}
