package models

import (
	"time"
)

// Comment represents a comment attached to a post
type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	PostID    int64     `gorm:"not null;index:comments_post_id_idx;column:post_id"`
	Content   string    `gorm:"type:text;not null;column:content"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
