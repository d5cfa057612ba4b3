package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/myblogsite/myblog/internal/models"
)

// LikeRepository provides like-counter database operations
type LikeRepository struct {
	*Repository
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(repo *Repository) *LikeRepository {
	return &LikeRepository{Repository: repo}
}

// AddLike creates the counter at 1 or increments it by 1 in a single statement
func (r *LikeRepository) AddLike(ctx context.Context, postID int64) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"likes_count": gorm.Expr("likes.likes_count + 1")}),
	}).Create(&models.Like{PostID: postID, LikesCount: 1}).Error
	if err != nil {
		return fmt.Errorf("failed to add like to post %d: %w", postID, err)
	}
	return nil
}

// GetLikes returns the like count of a post, 0 when it was never liked
func (r *LikeRepository) GetLikes(ctx context.Context, postID int64) (int64, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).First(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return like.LikesCount, nil
}
