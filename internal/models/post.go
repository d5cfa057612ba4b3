package models

import (
	"time"
)

// Post represents a blog post
type Post struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Title       string    `gorm:"type:varchar(255);not null;column:title"`
	Description string    `gorm:"type:varchar(1024);column:description"`
	Content     string    `gorm:"type:text;column:content"`
	ImageURL    string    `gorm:"type:varchar(1024);column:image_url"`
	CreatedAt   time.Time `gorm:"not null;index:posts_created_at_idx;column:created_at"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// PostUpdate carries the mutable fields of a post. Nil fields keep their stored value.
type PostUpdate struct {
	ID          int64
	Title       *string
	Description *string
	Content     *string
	ImageURL    *string
}

// FeedPost is a post row in the feed with its aggregated counters and tags
type FeedPost struct {
	ID            int64
	Title         string
	Description   string
	ImageURL      string
	CreatedAt     time.Time
	CommentsCount int64
	LikesCount    int64
	Tags          []string
}
