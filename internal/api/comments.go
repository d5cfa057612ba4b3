package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func postPath(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10)
}

// addComment handles the comment form. Blank comments are ignored.
func (r *Router) addComment(c *gin.Context) {
	postID, err := pathID(c, "id")
	if err != nil {
		r.renderError(c, err)
		return
	}

	if err := r.posts.AddComment(c.Request.Context(), postID, c.PostForm("content")); err != nil {
		r.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, postPath(postID))
}

// updateComment replaces the text of a comment. Blank comments are ignored.
func (r *Router) updateComment(c *gin.Context) {
	postID, err := pathID(c, "id")
	if err != nil {
		r.renderError(c, err)
		return
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		r.renderError(c, err)
		return
	}

	if err := r.posts.UpdateComment(c.Request.Context(), postID, commentID, c.PostForm("content")); err != nil {
		r.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, postPath(postID))
}

// deleteComment removes a comment. It is called from script and answers in plain text.
func (r *Router) deleteComment(c *gin.Context) {
	if _, err := r.removeComment(c); err != nil {
		r.textError(c, err)
		return
	}

	c.String(http.StatusOK, "Deleted successfully")
}

// deleteCommentForm removes a comment submitted from a form and returns to the post
func (r *Router) deleteCommentForm(c *gin.Context) {
	postID, err := r.removeComment(c)
	if err != nil {
		r.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, postPath(postID))
}

func (r *Router) removeComment(c *gin.Context) (int64, error) {
	postID, err := pathID(c, "id")
	if err != nil {
		return 0, err
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return 0, err
	}

	return postID, r.posts.DeleteComment(c.Request.Context(), postID, commentID)
}
