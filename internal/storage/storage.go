package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/myblogsite/myblog/pkg/config"
)

// ErrStorage wraps every failure to persist an uploaded image
var ErrStorage = errors.New("storage failure")

// Upload is an uploaded image as received from a form
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// Empty reports whether no image was actually uploaded
func (u *Upload) Empty() bool {
	return u == nil || u.Content == nil || u.Size == 0
}

// Storage persists uploaded images and returns the path the page should link to
type Storage interface {
	Store(ctx context.Context, upload *Upload) (string, error)
}

// New builds the backend selected by cfg.Backend
func New(ctx context.Context, cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "local", "":
		return NewFileSystem(Config{
			UploadRoot:       cfg.UploadRoot,
			DefaultImagePath: cfg.DefaultImagePath,
			ImageDirectory:   cfg.ImageDirectory,
		}, afero.NewOsFs())
	case "s3":
		return NewS3(ctx, S3Config{
			Endpoint:         cfg.S3.Endpoint,
			AccessKey:        cfg.S3.AccessKey,
			SecretKey:        cfg.S3.SecretKey,
			UseSSL:           cfg.S3.UseSSL,
			Bucket:           cfg.S3.Bucket,
			PublicURL:        cfg.S3.PublicURL,
			DefaultImagePath: cfg.DefaultImagePath,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// FileName reduces an uploaded file name to its base name.
// Names that carry nothing usable are replaced with a random .jpg name.
func FileName(original string) string {
	name := original
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return uuid.NewString() + ".jpg"
	}
	return name
}
