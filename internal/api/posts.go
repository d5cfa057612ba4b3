package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/internal/models"
	"github.com/myblogsite/myblog/internal/service"
	"github.com/myblogsite/myblog/internal/storage"
)

// feed renders a page of posts, optionally filtered by tag
func (r *Router) feed(c *gin.Context) {
	ctx := c.Request.Context()

	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		r.renderError(c, err)
		return
	}
	if offset < 0 {
		offset = 0
	}

	limit, err := queryInt(c, "limit", r.opts.Feed.DefaultLimit)
	if err != nil {
		r.renderError(c, err)
		return
	}
	limit = clamp(limit, 1, r.opts.Feed.MaxLimit)

	tagFilter := strings.TrimSpace(c.DefaultQuery("tag-filter", allTags))
	if tagFilter == "" {
		tagFilter = allTags
	}

	tag := ""
	var posts []models.FeedPost
	if tagFilter == allTags {
		posts, err = r.posts.FindAllPosts(ctx, offset, limit)
	} else {
		tag = tagFilter
		posts, err = r.posts.FindPostsByTag(ctx, tag, offset, limit)
	}
	if err != nil {
		r.renderError(c, err)
		return
	}

	total, err := r.posts.CountPosts(ctx, tag)
	if err != nil {
		r.renderError(c, err)
		return
	}

	tags, err := r.posts.FindAllTags(ctx)
	if err != nil {
		r.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "feed.html", newFeedPage(posts, tags, tagFilter, offset, limit, total))
}

// showPost renders a single post with its comments
func (r *Router) showPost(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		r.renderError(c, err)
		return
	}

	details, err := r.posts.FindPostByID(c.Request.Context(), id)
	if err != nil {
		r.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "post.html", newPostPage(details))
}

// createPost handles the new post form
func (r *Router) createPost(c *gin.Context) {
	upload, closeUpload, err := formUpload(c)
	if err != nil {
		r.renderError(c, err)
		return
	}
	defer closeUpload()

	title, description, content := c.PostForm("title"), c.PostForm("description"), c.PostForm("content")
	input := &service.PostInput{
		Title:       &title,
		Description: &description,
		Content:     &content,
		Tags:        c.PostForm("tags"),
		Image:       upload,
	}

	id, err := r.posts.CreatePost(c.Request.Context(), input)
	if err != nil {
		r.renderError(c, err)
		return
	}

	r.logger.Info("Created post from form",
		zap.Int64("post_id", id),
		zap.String("title", title),
		zap.Bool("with_image", !upload.Empty()))
	c.Redirect(http.StatusFound, "/posts")
}

// updatePost handles the edit post form. Fields missing from the form keep their value.
func (r *Router) updatePost(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		r.renderError(c, err)
		return
	}

	upload, closeUpload, err := formUpload(c)
	if err != nil {
		r.renderError(c, err)
		return
	}
	defer closeUpload()

	input := &service.PostInput{
		ID:          id,
		Title:       formValue(c, "title"),
		Description: formValue(c, "description"),
		Content:     formValue(c, "content"),
		Tags:        c.PostForm("tags"),
		Image:       upload,
	}

	if err := r.posts.UpdatePost(c.Request.Context(), input); err != nil {
		r.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, postPath(id))
}

// deletePost removes a post and returns to the feed
func (r *Router) deletePost(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		r.renderError(c, err)
		return
	}

	if err := r.posts.DeletePost(c.Request.Context(), id); err != nil {
		r.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/posts")
}

// likePost increments the like counter and answers with the new count as plain text
func (r *Router) likePost(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		r.textError(c, err)
		return
	}

	likes, err := r.posts.AddLike(c.Request.Context(), id)
	if err != nil {
		r.textError(c, err)
		return
	}

	c.String(http.StatusOK, strconv.FormatInt(likes, 10))
}

// formUpload returns the uploaded image, or nil when the form carries none.
// The returned func releases the upload and is always safe to call.
func formUpload(c *gin.Context) (*storage.Upload, func(), error) {
	noop := func() {}

	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, NewError(http.StatusBadRequest, "invalid multipart form")
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, NewError(http.StatusBadRequest, "unreadable image upload")
	}

	return &storage.Upload{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}, func() { file.Close() }, nil
}

// formValue returns a pointer to the form field, or nil when the form does not carry it
func formValue(c *gin.Context, key string) *string {
	value, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &value
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, NewError(http.StatusBadRequest, "invalid "+key+" "+strconv.Quote(raw))
	}
	return value, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if hi >= lo && v > hi {
		return hi
	}
	return v
}
