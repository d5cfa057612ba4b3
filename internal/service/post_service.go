package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/internal/db"
	"github.com/myblogsite/myblog/internal/models"
	"github.com/myblogsite/myblog/internal/storage"
	"github.com/myblogsite/myblog/pkg/logging"
	"github.com/myblogsite/myblog/pkg/telemetry"
)

var (
	// ErrPostNotFound is returned when the requested post does not exist
	ErrPostNotFound = errors.New("post not found")
	// ErrCommentNotFound is returned when the comment does not exist on the post
	ErrCommentNotFound = errors.New("comment not found")
)

// PostRepository persists posts and builds the feed
type PostRepository interface {
	FindPostByID(ctx context.Context, id int64) (*models.Post, error)
	FindAllPosts(ctx context.Context, offset, limit int) ([]models.FeedPost, error)
	FindPostsByTag(ctx context.Context, tag string, offset, limit int) ([]models.FeedPost, error)
	CountPosts(ctx context.Context, tag string) (int64, error)
	Save(ctx context.Context, post *models.Post) (int64, error)
	Update(ctx context.Context, update *models.PostUpdate) error
	Delete(ctx context.Context, id int64) error
}

// CommentRepository persists comments
type CommentRepository interface {
	AddComment(ctx context.Context, comment *models.Comment) (int64, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, postID, commentID int64) error
	FindCommentsByPostID(ctx context.Context, postID int64) ([]models.Comment, error)
}

// TagRepository persists post tags
type TagRepository interface {
	InsertTags(ctx context.Context, postID int64, tags []string) error
	ReplaceTags(ctx context.Context, postID int64, tags []string) error
	FindTagsByPostID(ctx context.Context, postID int64) ([]string, error)
	FindAllTags(ctx context.Context) ([]string, error)
}

// LikeRepository persists like counters
type LikeRepository interface {
	AddLike(ctx context.Context, postID int64) error
	GetLikes(ctx context.Context, postID int64) (int64, error)
}

// PostInput carries a submitted post form. Nil text fields are left unchanged on update.
type PostInput struct {
	ID          int64
	Title       *string
	Description *string
	Content     *string
	Tags        string
	Image       *storage.Upload
}

// PostDetails is a post with everything its page shows
type PostDetails struct {
	Post     models.Post
	Tags     []string
	Comments []models.Comment
	Likes    int64
}

// PostService implements the blog operations on top of the repositories and image storage
type PostService struct {
	posts    PostRepository
	comments CommentRepository
	tags     TagRepository
	likes    LikeRepository
	storage  storage.Storage
	logger   *zap.Logger
	metrics  *telemetry.Metrics
	now      func() time.Time
}

// NewPostService creates a new post service
func NewPostService(posts PostRepository, comments CommentRepository, tags TagRepository, likes LikeRepository, store storage.Storage) *PostService {
	return &PostService{
		posts:    posts,
		comments: comments,
		tags:     tags,
		likes:    likes,
		storage:  store,
		logger:   logging.WithComponent("service"),
		metrics:  telemetry.AppMetrics(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrPostNotFound) && !errors.Is(err, ErrCommentNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// FindAllPosts returns a page of the feed
func (s *PostService) FindAllPosts(ctx context.Context, offset, limit int) ([]models.FeedPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.FindAllPosts")
	posts, err := s.posts.FindAllPosts(ctx, offset, limit)
	endSpan(span, err)
	return posts, err
}

// FindPostsByTag returns a page of the feed restricted to one tag
func (s *PostService) FindPostsByTag(ctx context.Context, tag string, offset, limit int) ([]models.FeedPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.FindPostsByTag",
		trace.WithAttributes(attribute.String("tag", tag)))
	posts, err := s.posts.FindPostsByTag(ctx, tag, offset, limit)
	endSpan(span, err)
	return posts, err
}

// CountPosts counts the posts of the feed, optionally restricted to one tag
func (s *PostService) CountPosts(ctx context.Context, tag string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.CountPosts")
	count, err := s.posts.CountPosts(ctx, tag)
	endSpan(span, err)
	return count, err
}

// FindAllTags lists every tag in use
func (s *PostService) FindAllTags(ctx context.Context) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.FindAllTags")
	tags, err := s.tags.FindAllTags(ctx)
	endSpan(span, err)
	return tags, err
}

// FindPostByID loads a post with its tags, comments and like count
func (s *PostService) FindPostByID(ctx context.Context, id int64) (_ *PostDetails, err error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.FindPostByID",
		trace.WithAttributes(attribute.Int64("post_id", id)))
	defer func() { endSpan(span, err) }()

	post, err := s.requirePost(ctx, id)
	if err != nil {
		return nil, err
	}

	tags, err := s.tags.FindTagsByPostID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags of post %d: %w", id, err)
	}

	comments, err := s.comments.FindCommentsByPostID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments of post %d: %w", id, err)
	}

	likes, err := s.likes.GetLikes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load likes of post %d: %w", id, err)
	}

	return &PostDetails{
		Post:     *post,
		Tags:     tags,
		Comments: comments,
		Likes:    likes,
	}, nil
}

// CreatePost stores the image, inserts the post and attaches its tags
func (s *PostService) CreatePost(ctx context.Context, input *PostInput) (_ int64, err error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.CreatePost")
	defer func() { endSpan(span, err) }()

	imageURL, err := s.storage.Store(ctx, input.Image)
	if err != nil {
		return 0, err
	}

	post := &models.Post{
		Title:       deref(input.Title),
		Description: deref(input.Description),
		Content:     deref(input.Content),
		ImageURL:    imageURL,
		CreatedAt:   s.now(),
	}

	id, err := s.posts.Save(ctx, post)
	if err != nil {
		return 0, fmt.Errorf("failed to save post: %w", err)
	}
	span.SetAttributes(attribute.Int64("post_id", id))

	if err := s.tags.InsertTags(ctx, id, SplitTags(input.Tags)); err != nil {
		// Drop the untagged post so a failed create leaves nothing behind
		if delErr := s.posts.Delete(ctx, id); delErr != nil {
			s.logger.Error("Failed to remove partially created post", zap.Int64("post_id", id), zap.Error(delErr))
		}
		return 0, fmt.Errorf("failed to tag post %d: %w", id, err)
	}

	s.metrics.RecordPostCreated(ctx)
	s.logger.Info("Post created", zap.Int64("post_id", id), zap.String("image", imageURL))
	return id, nil
}

// UpdatePost applies the submitted fields and replaces the tag set.
// The image is only replaced when a new file was uploaded.
func (s *PostService) UpdatePost(ctx context.Context, input *PostInput) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.UpdatePost",
		trace.WithAttributes(attribute.Int64("post_id", input.ID)))
	defer func() { endSpan(span, err) }()

	if _, err := s.requirePost(ctx, input.ID); err != nil {
		return err
	}

	update := &models.PostUpdate{
		ID:          input.ID,
		Title:       input.Title,
		Description: input.Description,
		Content:     input.Content,
	}

	if !input.Image.Empty() {
		imageURL, err := s.storage.Store(ctx, input.Image)
		if err != nil {
			return err
		}
		update.ImageURL = &imageURL
	}

	if err := s.posts.Update(ctx, update); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to update post %d: %w", input.ID, err)
	}

	if err := s.tags.ReplaceTags(ctx, input.ID, SplitTags(input.Tags)); err != nil {
		return fmt.Errorf("failed to retag post %d: %w", input.ID, err)
	}

	s.logger.Info("Post updated", zap.Int64("post_id", input.ID))
	return nil
}

// DeletePost removes a post with its comments, tags and likes
func (s *PostService) DeletePost(ctx context.Context, id int64) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.DeletePost",
		trace.WithAttributes(attribute.Int64("post_id", id)))
	defer func() { endSpan(span, err) }()

	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}

	s.logger.Info("Post deleted", zap.Int64("post_id", id))
	return nil
}

// AddComment attaches a comment to a post. Blank content is ignored.
func (s *PostService) AddComment(ctx context.Context, postID int64, content string) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.AddComment",
		trace.WithAttributes(attribute.Int64("post_id", postID)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(content) == "" {
		return nil
	}

	if _, err := s.requirePost(ctx, postID); err != nil {
		return err
	}

	if _, err := s.comments.AddComment(ctx, &models.Comment{
		PostID:    postID,
		Content:   content,
		CreatedAt: s.now(),
	}); err != nil {
		return fmt.Errorf("failed to add comment to post %d: %w", postID, err)
	}
	return nil
}

// UpdateComment replaces the text of a comment. Blank content is ignored.
func (s *PostService) UpdateComment(ctx context.Context, postID, commentID int64, content string) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.UpdateComment",
		trace.WithAttributes(attribute.Int64("post_id", postID), attribute.Int64("comment_id", commentID)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(content) == "" {
		return nil
	}

	err = s.comments.UpdateComment(ctx, &models.Comment{ID: commentID, PostID: postID, Content: content})
	if errors.Is(err, db.ErrNotFound) {
		return ErrCommentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update comment %d: %w", commentID, err)
	}
	return nil
}

// DeleteComment removes a comment from a post
func (s *PostService) DeleteComment(ctx context.Context, postID, commentID int64) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.DeleteComment",
		trace.WithAttributes(attribute.Int64("post_id", postID), attribute.Int64("comment_id", commentID)))
	defer func() { endSpan(span, err) }()

	err = s.comments.DeleteComment(ctx, postID, commentID)
	if errors.Is(err, db.ErrNotFound) {
		return ErrCommentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete comment %d: %w", commentID, err)
	}
	return nil
}

// AddLike increments the like counter of a post and returns the new count
func (s *PostService) AddLike(ctx context.Context, postID int64) (_ int64, err error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.AddLike",
		trace.WithAttributes(attribute.Int64("post_id", postID)))
	defer func() { endSpan(span, err) }()

	if _, err := s.requirePost(ctx, postID); err != nil {
		return 0, err
	}

	if err := s.likes.AddLike(ctx, postID); err != nil {
		return 0, err
	}
	s.metrics.RecordLike(ctx)

	return s.likes.GetLikes(ctx, postID)
}

// GetLikes returns the like count of a post
func (s *PostService) GetLikes(ctx context.Context, postID int64) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostService.GetLikes")
	likes, err := s.likes.GetLikes(ctx, postID)
	endSpan(span, err)
	return likes, err
}

func (s *PostService) requirePost(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.posts.FindPostByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// AllTags is the feed filter value that selects every post. It is never stored as a tag.
const AllTags = "all"

var tagSeparator = regexp.MustCompile(`[,|\s]+`)

// SplitTags parses a tag string separated by commas, pipes or whitespace.
// Duplicates and AllTags are dropped and the first occurrence order is kept.
func SplitTags(s string) []string {
	seen := map[string]bool{AllTags: true}
	var tags []string
	for _, tag := range tagSeparator.Split(s, -1) {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// JoinTags renders a tag set the way the edit form expects it
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
