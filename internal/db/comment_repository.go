package db

import (
	"context"
	"fmt"

	"github.com/myblogsite/myblog/internal/models"
)

// CommentRepository provides comment-related database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// AddComment inserts a comment and returns its generated id
func (r *CommentRepository) AddComment(ctx context.Context, comment *models.Comment) (int64, error) {
	comment.ID = 0
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return 0, fmt.Errorf("failed to insert comment: %w", err)
	}
	if comment.ID == 0 {
		return 0, ErrNoGeneratedKey
	}
	return comment.ID, nil
}

// UpdateComment replaces the content of a comment belonging to comment.PostID
func (r *CommentRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	result := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ? AND post_id = ?", comment.ID, comment.PostID).
		Update("content", comment.Content)
	if result.Error != nil {
		return fmt.Errorf("failed to update comment %d: %w", comment.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComment removes a comment from a post
func (r *CommentRepository) DeleteComment(ctx context.Context, postID, commentID int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND post_id = ?", commentID, postID).
		Delete(&models.Comment{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete comment %d: %w", commentID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindCommentsByPostID lists the comments of a post, oldest first
func (r *CommentRepository) FindCommentsByPostID(ctx context.Context, postID int64) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// CountComments counts the comments of a post
func (r *CommentRepository) CountComments(ctx context.Context, postID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
