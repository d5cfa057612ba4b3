package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/myblogsite/myblog/internal/models"
)

// TagRepository provides tag-related database operations
type TagRepository struct {
	*Repository
}

// NewTagRepository creates a new tag repository
func NewTagRepository(repo *Repository) *TagRepository {
	return &TagRepository{Repository: repo}
}

// InsertTags attaches tags to a post in one batch. Pairs that already exist are skipped.
func (r *TagRepository) InsertTags(ctx context.Context, postID int64, tags []string) error {
	return insertTags(r.db.WithContext(ctx), postID, tags)
}

// DeleteTagsByPostID detaches every tag from a post
func (r *TagRepository) DeleteTagsByPostID(ctx context.Context, postID int64) error {
	return deleteTags(r.db.WithContext(ctx), postID)
}

// ReplaceTags swaps the whole tag set of a post in one transaction
func (r *TagRepository) ReplaceTags(ctx context.Context, postID int64, tags []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteTags(tx, postID); err != nil {
			return err
		}
		return insertTags(tx, postID, tags)
	})
}

// FindTagsByPostID lists the tag names of a post in alphabetical order
func (r *TagRepository) FindTagsByPostID(ctx context.Context, postID int64) ([]string, error) {
	var tags []string
	if err := r.db.WithContext(ctx).
		Model(&models.Tag{}).
		Where("post_id = ?", postID).
		Order("tag_name ASC").
		Pluck("tag_name", &tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// FindAllTags lists every distinct tag name in alphabetical order
func (r *TagRepository) FindAllTags(ctx context.Context) ([]string, error) {
	var tags []string
	if err := r.db.WithContext(ctx).
		Model(&models.Tag{}).
		Distinct("tag_name").
		Order("tag_name ASC").
		Pluck("tag_name", &tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func insertTags(tx *gorm.DB, postID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	rows := make([]models.Tag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, models.Tag{TagName: tag, PostID: postID})
	}

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert tags for post %d: %w", postID, err)
	}
	return nil
}

func deleteTags(tx *gorm.DB, postID int64) error {
	if err := tx.Where("post_id = ?", postID).Delete(&models.Tag{}).Error; err != nil {
		return fmt.Errorf("failed to delete tags for post %d: %w", postID, err)
	}
	return nil
}
