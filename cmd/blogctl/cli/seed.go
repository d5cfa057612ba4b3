package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/internal/db"
	"github.com/myblogsite/myblog/internal/service"
	"github.com/myblogsite/myblog/internal/storage"
	"github.com/myblogsite/myblog/pkg/logging"
)

var seedTags = []string{"go", "travel", "food", "music", "books", "photography", "notes", "web"}

// seedOptions controls how much demo content is generated
type seedOptions struct {
	Posts       int
	MaxComments int
	MaxLikes    int
	Seed        int64
}

func newSeedCommand(rt *session) *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo posts",
		Long: `Generate random posts with tags, comments and likes.

Posts use the default image so no upload storage is touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := rt.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.NewMigrator(database.DB).Migrate(cmd.Context()); err != nil {
				return err
			}

			repo := db.NewRepository(database.DB)
			svc := service.NewPostService(
				db.NewPostRepository(repo),
				db.NewCommentRepository(repo),
				db.NewTagRepository(repo),
				db.NewLikeRepository(repo),
				defaultImageStorage(rt.cfg.Storage.DefaultImagePath),
			)

			created, err := seed(cmd.Context(), svc, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d posts\n", created)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Posts, "posts", 20, "number of posts to create")
	cmd.Flags().IntVar(&opts.MaxComments, "max-comments", 5, "maximum comments per post")
	cmd.Flags().IntVar(&opts.MaxLikes, "max-likes", 10, "maximum likes per post")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed, 0 picks a random one")

	return cmd
}

// seeder is the part of the post service the seed command drives
type seeder interface {
	CreatePost(ctx context.Context, input *service.PostInput) (int64, error)
	AddComment(ctx context.Context, postID int64, content string) error
	AddLike(ctx context.Context, postID int64) (int64, error)
}

func seed(ctx context.Context, svc seeder, opts seedOptions) (int, error) {
	faker := gofakeit.New(opts.Seed)
	logger := logging.WithComponent("seed")

	for i := 0; i < opts.Posts; i++ {
		title := strings.TrimSuffix(faker.Sentence(faker.Number(3, 7)), ".")
		description := faker.Sentence(faker.Number(8, 16))
		content := faker.Paragraph(faker.Number(2, 5), faker.Number(3, 6), faker.Number(8, 16), "\n\n")

		tags := make([]string, faker.Number(1, 3))
		for j := range tags {
			tags[j] = seedTags[faker.Number(0, len(seedTags)-1)]
		}

		id, err := svc.CreatePost(ctx, &service.PostInput{
			Title:       &title,
			Description: &description,
			Content:     &content,
			Tags:        strings.Join(tags, ", "),
		})
		if err != nil {
			return i, fmt.Errorf("failed to create post %d: %w", i+1, err)
		}

		for j := faker.Number(0, opts.MaxComments); j > 0; j-- {
			if err := svc.AddComment(ctx, id, faker.Sentence(faker.Number(4, 12))); err != nil {
				return i, fmt.Errorf("failed to comment post %d: %w", id, err)
			}
		}
		for j := faker.Number(0, opts.MaxLikes); j > 0; j-- {
			if _, err := svc.AddLike(ctx, id); err != nil {
				return i, fmt.Errorf("failed to like post %d: %w", id, err)
			}
		}

		logger.Debug("Seeded post", zap.Int64("post_id", id), zap.String("title", title))
	}
	return opts.Posts, nil
}

// defaultImageStorage hands out the default image for every post
type defaultImageStorage string

func (s defaultImageStorage) Store(context.Context, *storage.Upload) (string, error) {
	return string(s), nil
}
