package apperrors

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"creatorvault/internal/creator"
)

// RequestIDHeader is the HTTP header for request ID
const RequestIDHeader = "X-Request-ID"

// ContextKeyRequestID is the echo context key holding the request id.
const ContextKeyRequestID = "request_id"

// ErrorResponse is the standard error response structure
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// RequestIDFromContext returns the request id set by the request id middleware.
func RequestIDFromContext(c echo.Context) string {
	if id, ok := c.Get(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// HTTPErrorHandler returns an Echo error handler that renders every error as
// an ErrorResponse and logs server side failures.
func HTTPErrorHandler(log creator.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		requestID := RequestIDFromContext(c)

		var status int
		var response ErrorResponse

		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			msg, ok := he.Message.(string)
			if !ok {
				msg = http.StatusText(status)
			}
			response = ErrorResponse{Error: "HTTP_ERROR", Message: msg, RequestID: requestID}
			if status >= 500 {
				log.Error("http error", "request_id", requestID, "status", status, "message", msg)
			}
		} else {
			e := FromError(err)
			status = e.HTTPStatus
			response = ErrorResponse{
				Error:     e.Code,
				Message:   e.Message,
				Detail:    e.Detail,
				RequestID: requestID,
			}
			if status >= 500 {
				log.Error("internal error", "request_id", requestID, "code", e.Code, "error", e.Err, "stack", e.Stack)
			} else {
				log.Warn("client error", "request_id", requestID, "code", e.Code, "detail", e.Detail)
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
		} else {
			_ = c.JSON(status, response)
		}
	}
}
