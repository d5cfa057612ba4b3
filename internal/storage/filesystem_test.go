package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFileSystem(t *testing.T, fs afero.Fs) *FileSystem {
	t.Helper()
	s, err := NewFileSystem(Config{
		UploadRoot:       "/data/upload",
		DefaultImagePath: "/images/default_image.jpg",
		ImageDirectory:   "/upload",
	}, fs)
	require.NoError(t, err)
	return s
}

func textUpload(name, content string) *Upload {
	return &Upload{
		Name:    name,
		Size:    int64(len(content)),
		Content: strings.NewReader(content),
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name     string
		original string
		want     string
	}{
		{"plain", "cat.jpg", "cat.jpg"},
		{"unix path", "/home/user/cat.jpg", "cat.jpg"},
		{"windows path", `C:\Users\me\cat.jpg`, "cat.jpg"},
		{"traversal", "../../etc/passwd", "passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName(tt.original); got != tt.want {
				t.Errorf("FileName(%q) = %q, want %q", tt.original, got, tt.want)
			}
		})
	}
}

func TestFileNameGeneratesRandomName(t *testing.T) {
	for _, original := range []string{"", "dir/", ".."} {
		got := FileName(original)
		assert.True(t, strings.HasSuffix(got, ".jpg"), "FileName(%q) = %q", original, got)
		assert.Len(t, got, 36+len(".jpg"))
	}
}

func TestFileSystemStore(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	s := newTestFileSystem(t, fs)

	exists, err := afero.DirExists(fs, "/data/upload")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := s.Store(ctx, textUpload("photos/cat.jpg", "meow"))
	require.NoError(t, err)
	assert.Equal(t, "/upload/cat.jpg", got)

	data, err := afero.ReadFile(fs, filepath.Join("/data/upload", "cat.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "meow", string(data))

	// same name overwrites
	_, err = s.Store(ctx, textUpload("cat.jpg", "purr"))
	require.NoError(t, err)
	data, err = afero.ReadFile(fs, "/data/upload/cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, "purr", string(data))
}

func TestFileSystemStoreDefaultImage(t *testing.T) {
	s := newTestFileSystem(t, afero.NewMemMapFs())

	for _, upload := range []*Upload{nil, {Name: "empty.jpg"}, textUpload("empty.jpg", "")} {
		got, err := s.Store(context.Background(), upload)
		require.NoError(t, err)
		assert.Equal(t, "/images/default_image.jpg", got)
	}
}

var errConnectionReset = errors.New("connection reset")

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errConnectionReset }

func TestFileSystemStoreCopyFailure(t *testing.T) {
	s := newTestFileSystem(t, afero.NewMemMapFs())

	_, err := s.Store(context.Background(), &Upload{Name: "broken.jpg", Size: 10, Content: failingReader{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, errConnectionReset)
}

var errDiskFull = errors.New("no space left on device")

// closeFailingFs hands out files whose Close fails, as a full disk does on flush
type closeFailingFs struct {
	afero.Fs
}

type closeFailingFile struct {
	afero.File
}

func (f closeFailingFile) Close() error {
	_ = f.File.Close()
	return errDiskFull
}

func (fs closeFailingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := fs.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return closeFailingFile{File: f}, nil
}

func TestFileSystemStoreCloseFailure(t *testing.T) {
	s := newTestFileSystem(t, closeFailingFs{Fs: afero.NewMemMapFs()})

	url, err := s.Store(context.Background(), textUpload("cat.jpg", "meow"))
	require.Error(t, err)
	assert.Empty(t, url)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, errDiskFull)
}

func TestFileSystemStoreReadOnly(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data/upload", 0o755))
	readOnly := afero.NewReadOnlyFs(base)

	_, err := NewFileSystem(Config{UploadRoot: "/data/upload"}, readOnly)
	assert.ErrorIs(t, err, ErrStorage)

	s := &FileSystem{cfg: Config{UploadRoot: "/data/upload"}, fs: readOnly, logger: zap.NewNop()}
	_, err = s.Store(context.Background(), textUpload("cat.jpg", "meow"))
	assert.ErrorIs(t, err, ErrStorage)
}

func TestHTTPFileSystemServesUploads(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestFileSystem(t, fs)

	_, err := s.Store(context.Background(), textUpload("dog.jpg", "woof"))
	require.NoError(t, err)

	f, err := s.HTTPFileSystem().Open("/dog.jpg")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "woof", string(data))

	_, err = s.HTTPFileSystem().Open("/missing.jpg")
	assert.Error(t, err)
}
