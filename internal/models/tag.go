package models

// Tag represents a post-to-tag mapping. A tag has no identity of its own.
type Tag struct {
	TagName string `gorm:"type:varchar(64);primaryKey;column:tag_name"`
	PostID  int64  `gorm:"primaryKey;index:tags_post_id_idx;column:post_id"`
}

// TableName specifies the table name for Tag
func (Tag) TableName() string {
	return "tags"
}
