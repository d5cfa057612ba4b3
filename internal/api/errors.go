package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/internal/service"
	"github.com/myblogsite/myblog/internal/storage"
)

// Error is a request failure with the HTTP status it should be answered with
type Error struct {
	Code    int
	Message string
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
}

// statusOf maps an error to the status code and the message shown to the user
func statusOf(err error) (int, string) {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code, apiErr.Message
	case errors.Is(err, service.ErrPostNotFound):
		return http.StatusNotFound, "Post not found"
	case errors.Is(err, service.ErrCommentNotFound):
		return http.StatusNotFound, "Comment not found"
	case errors.Is(err, storage.ErrStorage):
		return http.StatusInternalServerError, "Failed to store the image"
	default:
		return http.StatusInternalServerError, "Something went wrong"
	}
}

// renderError answers with the error page
func (r *Router) renderError(c *gin.Context, err error) {
	status, message := r.logError(c, err)
	c.HTML(status, "error.html", ErrorPage{
		Status:  status,
		Title:   http.StatusText(status),
		Message: message,
	})
	c.Abort()
}

// textError answers with a plain-text error for script-driven endpoints
func (r *Router) textError(c *gin.Context, err error) {
	status, message := r.logError(c, err)
	c.String(status, message)
	c.Abort()
}

func (r *Router) logError(c *gin.Context, err error) (int, string) {
	status, message := statusOf(err)
	if status >= http.StatusInternalServerError {
		r.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	} else {
		r.logger.Debug("Request rejected",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	_ = c.Error(err)
	return status, message
}

// pathID parses a numeric path parameter
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, NewError(http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, c.Param(name)))
	}
	return id, nil
}
