package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/pkg/logging"
)

// Config configures the local filesystem backend
type Config struct {
	// UploadRoot is the directory uploaded files are written to
	UploadRoot string
	// DefaultImagePath is returned when a post has no image
	DefaultImagePath string
	// ImageDirectory is the URL prefix the upload root is served under
	ImageDirectory string
}

// FileSystem stores uploads under a root directory
type FileSystem struct {
	cfg    Config
	fs     afero.Fs
	logger *zap.Logger
}

// NewFileSystem creates the backend and makes sure the upload root exists
func NewFileSystem(cfg Config, fs afero.Fs) (*FileSystem, error) {
	if err := fs.MkdirAll(cfg.UploadRoot, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create upload root %s: %w", ErrStorage, cfg.UploadRoot, err)
	}
	return &FileSystem{
		cfg:    cfg,
		fs:     fs,
		logger: logging.WithComponent("storage"),
	}, nil
}

// Store writes the upload to the upload root, replacing any file of the same name
func (s *FileSystem) Store(ctx context.Context, upload *Upload) (string, error) {
	if upload.Empty() {
		return s.cfg.DefaultImagePath, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := FileName(upload.Name)
	dst := filepath.Join(s.cfg.UploadRoot, name)

	f, err := s.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open %s: %w", ErrStorage, dst, err)
	}

	written, err := io.Copy(f, upload.Content)
	if err != nil {
		f.Close()
		return "", fmt.Errorf("%w: failed to write %s: %w", ErrStorage, dst, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to close %s: %w", ErrStorage, dst, err)
	}

	s.logger.Debug("Stored upload", zap.String("file", dst), zap.Int64("bytes", written))
	return path.Join(s.cfg.ImageDirectory, name), nil
}

// ImageDirectory returns the URL prefix stored images are served under
func (s *FileSystem) ImageDirectory() string {
	return s.cfg.ImageDirectory
}

// HTTPFileSystem exposes the upload root for static serving
func (s *FileSystem) HTTPFileSystem() http.FileSystem {
	return afero.NewHttpFs(afero.NewBasePathFs(s.fs, s.cfg.UploadRoot))
}
