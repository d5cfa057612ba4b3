package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/myblogsite/myblog/internal/models"
)

var (
	// ErrNotFound is returned when an update or delete matched no row
	ErrNotFound = errors.New("record not found")
	// ErrNoGeneratedKey is returned when an insert did not produce an identity
	ErrNoGeneratedKey = errors.New("no key generated for inserted row")
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// tagAggregate returns the dialect's string aggregation over tags.tag_name
func (r *Repository) tagAggregate() string {
	if r.db.Dialector.Name() == "postgres" {
		return "string_agg(t.tag_name, ',')"
	}
	return "group_concat(t.tag_name, ',')"
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// feedRow is one row of the feed query
type feedRow struct {
	ID            int64     `gorm:"column:id"`
	Title         string    `gorm:"column:title"`
	Description   string    `gorm:"column:description"`
	ImageURL      string    `gorm:"column:image_url"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	CommentsCount int64     `gorm:"column:comments_count"`
	LikesCount    int64     `gorm:"column:likes_count"`
	Tags          string    `gorm:"column:tags"`
}

var aggregateSeparator = regexp.MustCompile(`[,|]\s*`)

func (row feedRow) toFeedPost() models.FeedPost {
	var tags []string
	if row.Tags != "" {
		tags = aggregateSeparator.Split(row.Tags, -1)
		sort.Strings(tags)
	}
	return models.FeedPost{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		ImageURL:      row.ImageURL,
		CreatedAt:     row.CreatedAt,
		CommentsCount: row.CommentsCount,
		LikesCount:    row.LikesCount,
		Tags:          tags,
	}
}

func (r *PostRepository) feedSelect() string {
	return fmt.Sprintf(`SELECT p.id, p.title, p.description, p.image_url, p.created_at,
	(SELECT count(*) FROM comments AS c WHERE c.post_id = p.id) AS comments_count,
	COALESCE((SELECT l.likes_count FROM likes AS l WHERE l.post_id = p.id), 0) AS likes_count,
	COALESCE((SELECT %s FROM tags AS t WHERE t.post_id = p.id), '') AS tags
FROM posts AS p`, r.tagAggregate())
}

const feedOrder = ` ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`

// FindPostByID retrieves a post by ID
func (r *PostRepository) FindPostByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// FindAllPosts retrieves a page of the feed, newest first
func (r *PostRepository) FindAllPosts(ctx context.Context, offset, limit int) ([]models.FeedPost, error) {
	var rows []feedRow
	if err := r.db.WithContext(ctx).
		Raw(r.feedSelect()+feedOrder, limit, offset).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}
	return toFeedPosts(rows), nil
}

// FindPostsByTag retrieves a page of the feed restricted to posts carrying tag
func (r *PostRepository) FindPostsByTag(ctx context.Context, tag string, offset, limit int) ([]models.FeedPost, error) {
	query := r.feedSelect() +
		` WHERE EXISTS (SELECT 1 FROM tags AS ft WHERE ft.post_id = p.id AND ft.tag_name = ?)` +
		feedOrder

	var rows []feedRow
	if err := r.db.WithContext(ctx).
		Raw(query, tag, limit, offset).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load feed for tag %q: %w", tag, err)
	}
	return toFeedPosts(rows), nil
}

func toFeedPosts(rows []feedRow) []models.FeedPost {
	posts := make([]models.FeedPost, len(rows))
	for i, row := range rows {
		posts[i] = row.toFeedPost()
	}
	return posts
}

// CountPosts counts all posts, or only those carrying tag when tag is not empty
func (r *PostRepository) CountPosts(ctx context.Context, tag string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{})
	if tag != "" {
		query = query.Where("EXISTS (SELECT 1 FROM tags WHERE tags.post_id = posts.id AND tags.tag_name = ?)", tag)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save inserts a post and returns its generated id
func (r *PostRepository) Save(ctx context.Context, post *models.Post) (int64, error) {
	post.ID = 0
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}
	if post.ID == 0 {
		return 0, ErrNoGeneratedKey
	}
	return post.ID, nil
}

// Update changes the non-nil fields of a post and keeps the rest
func (r *PostRepository) Update(ctx context.Context, update *models.PostUpdate) error {
	result := r.db.WithContext(ctx).Exec(`UPDATE posts SET
		title       = COALESCE(?, title),
		description = COALESCE(?, description),
		content     = COALESCE(?, content),
		image_url   = COALESCE(?, image_url)
	WHERE id = ?`,
		update.Title,
		update.Description,
		update.Content,
		update.ImageURL,
		update.ID,
	)
	if result.Error != nil {
		return fmt.Errorf("failed to update post %d: %w", update.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a post together with its comments, tags and like counter
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{&models.Comment{}, &models.Tag{}, &models.Like{}} {
			if err := tx.Where("post_id = ?", id).Delete(dependent).Error; err != nil {
				return fmt.Errorf("failed to delete dependents of post %d: %w", id, err)
			}
		}

		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete post %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
