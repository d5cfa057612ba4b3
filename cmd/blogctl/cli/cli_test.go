package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myblogsite/myblog/internal/service"
	"github.com/myblogsite/myblog/pkg/config"
)

type countingSeeder struct {
	posts    int
	comments int
	likes    int
	titles   []string
}

func (s *countingSeeder) CreatePost(_ context.Context, input *service.PostInput) (int64, error) {
	s.posts++
	s.titles = append(s.titles, *input.Title)
	return int64(s.posts), nil
}

func (s *countingSeeder) AddComment(context.Context, int64, string) error {
	s.comments++
	return nil
}

func (s *countingSeeder) AddLike(context.Context, int64) (int64, error) {
	s.likes++
	return int64(s.likes), nil
}

// resetViper isolates tests from configuration loaded by earlier ones
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestSeed(t *testing.T) {
	s := &countingSeeder{}
	created, err := seed(context.Background(), s, seedOptions{Posts: 7, MaxComments: 3, MaxLikes: 4, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, 7, created)
	assert.Equal(t, 7, s.posts)
	assert.LessOrEqual(t, s.comments, 7*3)
	assert.LessOrEqual(t, s.likes, 7*4)
	for _, title := range s.titles {
		assert.NotEmpty(t, title)
	}

	again := &countingSeeder{}
	_, err = seed(context.Background(), again, seedOptions{Posts: 7, MaxComments: 3, MaxLikes: 4, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, s.titles, again.titles)
}

func TestWriteDefaultConfig(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()

	filename, err := writeDefaultConfig(dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), filename)

	_, err = writeDefaultConfig(dir, false)
	assert.Error(t, err)

	_, err = writeDefaultConfig(dir, true)
	require.NoError(t, err)

	t.Setenv("BLOG_CONFIG", filename)
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), *cfg)
}

func TestConfigGenerateCommand(t *testing.T) {
	dir := t.TempDir()

	cmd := NewRootCommand(VersionInfo{Version: "test", Commit: "none"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "generate", "--output", dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Generated")

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_image_path: /images/default_image.jpg")
}

func TestMigrateAndSeedOnSQLite(t *testing.T) {
	resetViper(t)
	t.Setenv("BLOG_DATABASE_DRIVER", "sqlite")
	t.Setenv("BLOG_DATABASE_URL", filepath.Join(t.TempDir(), "blog.db"))

	run := func(args ...string) string {
		cmd := NewRootCommand(VersionInfo{Version: "test", Commit: "none"})
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute(), "blogctl %v", args)
		return out.String()
	}

	run("migrate", "up")
	assert.Contains(t, run("migrate", "status"), "true")
	assert.Contains(t, run("seed", "--posts", "3", "--seed", "7"), "Created 3 posts")
	run("migrate", "down")
	assert.Contains(t, run("migrate", "status"), "false")
}
