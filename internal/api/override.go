package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/pkg/logging"
)

// methodParam is the form field HTML forms use to tunnel PUT and DELETE through POST
const methodParam = "_method"

// MethodOverride dispatches a POST to the handler registered for its _method value
type MethodOverride struct {
	methods  map[string]gin.HandlerFunc
	fallback gin.HandlerFunc
	onError  func(*gin.Context, error)
	logger   *zap.Logger
}

// NewMethodOverride creates a dispatcher. onError answers requests with no matching handler.
func NewMethodOverride(onError func(*gin.Context, error)) *MethodOverride {
	return &MethodOverride{
		methods: make(map[string]gin.HandlerFunc),
		onError: onError,
		logger:  logging.WithComponent("method-override"),
	}
}

// RegisterMethod registers the handler for one overridden method
func (m *MethodOverride) RegisterMethod(method string, handler gin.HandlerFunc) *MethodOverride {
	m.methods[strings.ToUpper(method)] = handler
	return m
}

// Fallback registers the handler used when the request carries no _method
func (m *MethodOverride) Fallback(handler gin.HandlerFunc) *MethodOverride {
	m.fallback = handler
	return m
}

// Handle dispatches the request
func (m *MethodOverride) Handle(c *gin.Context) {
	method := overriddenMethod(c)

	if handler, ok := m.methods[method]; ok {
		m.logger.Debug("Dispatching overridden method",
			zap.String("method", method),
			zap.String("path", c.Request.URL.Path))
		handler(c)
		return
	}

	if method == "" && m.fallback != nil {
		m.fallback(c)
		return
	}

	m.onError(c, NewError(http.StatusMethodNotAllowed, fmt.Sprintf("method %q is not supported here", method)))
}

// overriddenMethod reads _method from the form body, falling back to the query string
func overriddenMethod(c *gin.Context) string {
	method, ok := c.GetPostForm(methodParam)
	if !ok {
		method = c.Query(methodParam)
	}
	return strings.ToUpper(strings.TrimSpace(method))
}
