package models

// Like is the per-post like counter, created lazily on the first like
type Like struct {
	PostID     int64 `gorm:"primaryKey;autoIncrement:false;column:post_id"`
	LikesCount int64 `gorm:"not null;default:0;column:likes_count"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "likes"
}
