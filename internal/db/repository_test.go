package db

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/myblogsite/myblog/internal/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	return openTestRepository(t, ":memory:", 1)
}

// newFileTestRepository opens a SQLite file shared by several pooled connections
func newFileTestRepository(t *testing.T, conns int) *Repository {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "blog.db") + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	return openTestRepository(t, dsn, conns)
}

func openTestRepository(t *testing.T, dsn string, conns int) *Repository {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, NewMigrator(gdb).Migrate(context.Background()))
	return NewRepository(gdb)
}

func savePost(t *testing.T, posts *PostRepository, title string) int64 {
	t.Helper()
	id, err := posts.Save(context.Background(), &models.Post{
		Title:       title,
		Description: title + " description",
		Content:     title + " content",
		ImageURL:    "/images/default_image.jpg",
	})
	require.NoError(t, err)
	require.NotZero(t, id)
	return id
}

func strPtr(s string) *string { return &s }

func TestPostRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	posts := NewPostRepository(newTestRepository(t))

	id := savePost(t, posts, "first")

	post, err := posts.FindPostByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, "first", post.Title)
	assert.Equal(t, "first content", post.Content)
	assert.False(t, post.CreatedAt.IsZero())

	missing, err := posts.FindPostByID(ctx, id+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostRepository_Update(t *testing.T) {
	ctx := context.Background()
	posts := NewPostRepository(newTestRepository(t))
	id := savePost(t, posts, "original")

	err := posts.Update(ctx, &models.PostUpdate{ID: id, Title: strPtr("renamed")})
	require.NoError(t, err)

	post, err := posts.FindPostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", post.Title)
	assert.Equal(t, "original content", post.Content)
	assert.Equal(t, "/images/default_image.jpg", post.ImageURL)

	err = posts.Update(ctx, &models.PostUpdate{ID: id + 100, Title: strPtr("nobody")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostRepository_Feed(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	posts := NewPostRepository(repo)
	tags := NewTagRepository(repo)
	comments := NewCommentRepository(repo)
	likes := NewLikeRepository(repo)

	first := savePost(t, posts, "first")
	second := savePost(t, posts, "second")
	third := savePost(t, posts, "third")

	require.NoError(t, tags.InsertTags(ctx, first, []string{"go", "db"}))
	require.NoError(t, tags.InsertTags(ctx, third, []string{"go"}))
	_, err := comments.AddComment(ctx, &models.Comment{PostID: first, Content: "hello"})
	require.NoError(t, err)
	require.NoError(t, likes.AddLike(ctx, first))
	require.NoError(t, likes.AddLike(ctx, first))

	feed, err := posts.FindAllPosts(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, []int64{third, second, first}, []int64{feed[0].ID, feed[1].ID, feed[2].ID})

	assert.Equal(t, int64(1), feed[2].CommentsCount)
	assert.Equal(t, int64(2), feed[2].LikesCount)
	assert.Equal(t, []string{"db", "go"}, feed[2].Tags)
	assert.Empty(t, feed[1].Tags)
	assert.Zero(t, feed[1].LikesCount)

	page, err := posts.FindAllPosts(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second, page[0].ID)

	tagged, err := posts.FindPostsByTag(ctx, "go", 0, 10)
	require.NoError(t, err)
	require.Len(t, tagged, 2)
	assert.Equal(t, third, tagged[0].ID)
	assert.Equal(t, first, tagged[1].ID)
	assert.Equal(t, []string{"db", "go"}, tagged[1].Tags)

	total, err := posts.CountPosts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	goCount, err := posts.CountPosts(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, int64(2), goCount)
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	posts := NewPostRepository(repo)
	tags := NewTagRepository(repo)
	comments := NewCommentRepository(repo)
	likes := NewLikeRepository(repo)

	id := savePost(t, posts, "doomed")
	require.NoError(t, tags.InsertTags(ctx, id, []string{"x"}))
	_, err := comments.AddComment(ctx, &models.Comment{PostID: id, Content: "bye"})
	require.NoError(t, err)
	require.NoError(t, likes.AddLike(ctx, id))

	require.NoError(t, posts.Delete(ctx, id))

	post, err := posts.FindPostByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, post)

	count, err := comments.CountComments(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, count)

	remaining, err := tags.FindTagsByPostID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	likeCount, err := likes.GetLikes(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, likeCount)

	assert.ErrorIs(t, posts.Delete(ctx, id), ErrNotFound)
}

func TestCommentRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	posts := NewPostRepository(repo)
	comments := NewCommentRepository(repo)

	postID := savePost(t, posts, "commented")
	otherID := savePost(t, posts, "other")

	firstID, err := comments.AddComment(ctx, &models.Comment{PostID: postID, Content: "one"})
	require.NoError(t, err)
	secondID, err := comments.AddComment(ctx, &models.Comment{PostID: postID, Content: "two"})
	require.NoError(t, err)
	assert.NotEqual(t, firstID, secondID)

	list, err := comments.FindCommentsByPostID(ctx, postID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].Content)
	assert.Equal(t, "two", list[1].Content)

	require.NoError(t, comments.UpdateComment(ctx, &models.Comment{ID: firstID, PostID: postID, Content: "uno"}))
	list, err = comments.FindCommentsByPostID(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, "uno", list[0].Content)

	err = comments.UpdateComment(ctx, &models.Comment{ID: firstID, PostID: otherID, Content: "stolen"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, comments.DeleteComment(ctx, otherID, secondID), ErrNotFound)
	require.NoError(t, comments.DeleteComment(ctx, postID, secondID))

	count, err := comments.CountComments(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestTagRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	posts := NewPostRepository(repo)
	tags := NewTagRepository(repo)

	first := savePost(t, posts, "first")
	second := savePost(t, posts, "second")

	require.NoError(t, tags.InsertTags(ctx, first, []string{"b", "a", "b"}))
	require.NoError(t, tags.InsertTags(ctx, first, []string{"a"}))
	require.NoError(t, tags.InsertTags(ctx, first, nil))
	require.NoError(t, tags.InsertTags(ctx, second, []string{"c", "a"}))

	got, err := tags.FindTagsByPostID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	all, err := tags.FindAllTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, all)

	require.NoError(t, tags.ReplaceTags(ctx, first, []string{"z"}))
	got, err = tags.FindTagsByPostID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, got)

	require.NoError(t, tags.DeleteTagsByPostID(ctx, second))
	got, err = tags.FindTagsByPostID(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLikeRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	id := savePost(t, NewPostRepository(repo), "liked")
	likes := NewLikeRepository(repo)

	count, err := likes.GetLikes(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, count)

	for i := 0; i < 3; i++ {
		require.NoError(t, likes.AddLike(ctx, id))
	}

	count, err = likes.GetLikes(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestLikeRepository_ConcurrentFirstLikes(t *testing.T) {
	const likers = 20

	ctx := context.Background()
	repo := newFileTestRepository(t, 8)
	id := savePost(t, NewPostRepository(repo), "popular")
	likes := NewLikeRepository(repo)

	var wg sync.WaitGroup
	errs := make(chan error, likers)
	start := make(chan struct{})
	for i := 0; i < likers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- likes.AddLike(ctx, id)
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	count, err := likes.GetLikes(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(likers), count)

	var rows int64
	require.NoError(t, repo.db.Model(&models.Like{}).Where("post_id = ?", id).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestMigratorRollback(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	migrator := NewMigrator(repo.db)

	statuses, err := migrator.Status(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	assert.True(t, statuses[0].Applied)

	require.NoError(t, migrator.Rollback(ctx))
	assert.False(t, repo.db.Migrator().HasTable(&models.Post{}))

	statuses, err = migrator.Status(ctx)
	require.NoError(t, err)
	assert.False(t, statuses[0].Applied)

	require.NoError(t, migrator.Migrate(ctx))
	assert.True(t, repo.db.Migrator().HasTable(&models.Post{}))
}
