package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/internal/models"
	"github.com/myblogsite/myblog/internal/service"
	"github.com/myblogsite/myblog/pkg/config"
	"github.com/myblogsite/myblog/pkg/logging"
)

// BlogService is the set of blog operations the pages are built from
type BlogService interface {
	FindAllPosts(ctx context.Context, offset, limit int) ([]models.FeedPost, error)
	FindPostsByTag(ctx context.Context, tag string, offset, limit int) ([]models.FeedPost, error)
	CountPosts(ctx context.Context, tag string) (int64, error)
	FindAllTags(ctx context.Context) ([]string, error)
	FindPostByID(ctx context.Context, id int64) (*service.PostDetails, error)
	CreatePost(ctx context.Context, input *service.PostInput) (int64, error)
	UpdatePost(ctx context.Context, input *service.PostInput) error
	DeletePost(ctx context.Context, id int64) error
	AddComment(ctx context.Context, postID int64, content string) error
	UpdateComment(ctx context.Context, postID, commentID int64, content string) error
	DeleteComment(ctx context.Context, postID, commentID int64) error
	AddLike(ctx context.Context, postID int64) (int64, error)
}

// Options configures the router
type Options struct {
	Feed config.FeedConfig
	// Uploads serves stored images under UploadPrefix. Nil when images live elsewhere.
	Uploads      http.FileSystem
	UploadPrefix string
	// Health reports whether the backing services are reachable
	Health func(ctx context.Context) error
}

// Router sets up the blog routes
type Router struct {
	posts  BlogService
	opts   Options
	logger *zap.Logger
}

// NewRouter creates a new router
func NewRouter(posts BlogService, opts Options) *Router {
	if opts.Feed.DefaultLimit <= 0 {
		opts.Feed.DefaultLimit = 10
	}
	if opts.Feed.MaxLimit <= 0 {
		opts.Feed.MaxLimit = 100
	}
	return &Router{
		posts:  posts,
		opts:   opts,
		logger: logging.WithComponent("api-router"),
	}
}

// NewEngine builds a gin engine with middleware, templates and all routes
func NewEngine(r *Router) (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(gin.Recovery(), Tracing(), RequestLogger(logging.WithComponent("http")))

	if err := r.SetupRoutes(engine); err != nil {
		return nil, err
	}
	return engine, nil
}

// SetupRoutes sets up all routes
func (r *Router) SetupRoutes(engine *gin.Engine) error {
	tmpl, err := LoadTemplates()
	if err != nil {
		return err
	}
	engine.SetHTMLTemplate(tmpl)

	if err := mountStatic(engine); err != nil {
		return err
	}
	if r.opts.Uploads != nil && r.opts.UploadPrefix != "" {
		engine.StaticFS(r.opts.UploadPrefix, r.opts.Uploads)
	}

	// Health check endpoints
	engine.GET("/health", r.healthHandler)

	// Feed
	engine.GET("/", r.feed)
	engine.GET("/posts", r.feed)

	// Posts
	engine.POST("/posts", r.createPost)
	engine.GET("/posts/:id", r.showPost)
	engine.POST("/posts/:id", NewMethodOverride(r.renderError).
		RegisterMethod(http.MethodPut, r.updatePost).
		RegisterMethod(http.MethodDelete, r.deletePost).
		Handle)
	engine.PUT("/posts/:id", r.updatePost)
	engine.DELETE("/posts/:id", r.deletePost)
	engine.GET("/posts/:id/like", r.likePost)

	// Comments
	engine.POST("/posts/:id/comments", r.addComment)
	engine.POST("/posts/:id/comments/:commentId", NewMethodOverride(r.renderError).
		RegisterMethod(http.MethodPut, r.updateComment).
		RegisterMethod(http.MethodDelete, r.deleteCommentForm).
		Fallback(r.updateComment).
		Handle)
	engine.DELETE("/posts/:id/comments/:commentId", r.deleteComment)

	engine.NoRoute(func(c *gin.Context) {
		r.renderError(c, NewError(http.StatusNotFound, fmt.Sprintf("no page at %s", c.Request.URL.Path)))
	})

	return nil
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	if r.opts.Health != nil {
		if err := r.opts.Health(c.Request.Context()); err != nil {
			r.logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "UNAVAILABLE",
				"service": "myblog",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "myblog",
	})
}
