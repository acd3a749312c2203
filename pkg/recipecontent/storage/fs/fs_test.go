package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/recipe-content/pkg/recipecontent"
)

// smallest valid PNG signature plus IHDR start, enough for content sniffing
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func newTestBackend(t *testing.T, urlPrefix string) *Backend {
	t.Helper()
	backend, err := New(Config{BaseDir: t.TempDir(), URLPrefix: urlPrefix})
	require.NoError(t, err)
	return backend
}

func TestNew_RequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base directory is required")
}

func TestFilesystemBackend(t *testing.T) {
	backend := newTestBackend(t, "http://localhost:8080/blobs/")
	ctx := context.Background()
	key := "recipeImage_recipe-123"

	meta, err := backend.Upload(ctx, strings.NewReader(string(pngHeader)), recipecontent.UploadParams{
		ObjectKey: key,
		MimeType:  "image/png",
		Size:      int64(len(pngHeader)),
		Metadata:  map[string]string{recipecontent.MetadataUploadedBy: "user-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, key, meta.Key)
	assert.Equal(t, int64(len(pngHeader)), meta.Size)
	assert.Equal(t, "image/png", meta.ContentType)
	assert.Equal(t, "user-1", meta.Metadata[recipecontent.MetadataUploadedBy])
	assert.NotEmpty(t, meta.ETag)

	stored, err := backend.GetObjectMeta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "image/png", stored.ContentType)

	url, err := backend.GetDownloadURL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/blobs/recipeImage_recipe-123", url)

	reader, err := backend.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	reader.Close()
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, backend.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(backend.baseDir, key))
	assert.True(t, os.IsNotExist(err))

	err = backend.Delete(ctx, key)
	assert.ErrorIs(t, err, recipecontent.ErrObjectNotFound)
}

func TestFilesystemBackend_FileURLWithoutPrefix(t *testing.T) {
	backend := newTestBackend(t, "")
	ctx := context.Background()

	_, err := backend.Upload(ctx, strings.NewReader("x"), recipecontent.UploadParams{ObjectKey: "recipeImage_a"})
	require.NoError(t, err)

	url, err := backend.GetDownloadURL(ctx, "recipeImage_a")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"), url)
	assert.True(t, strings.HasSuffix(url, "/recipeImage_a"), url)
}

func TestFilesystemBackend_MissingObject(t *testing.T) {
	backend := newTestBackend(t, "")
	ctx := context.Background()

	_, err := backend.GetObjectMeta(ctx, "recipeImage_missing")
	assert.ErrorIs(t, err, recipecontent.ErrObjectNotFound)

	_, err = backend.GetDownloadURL(ctx, "recipeImage_missing")
	assert.ErrorIs(t, err, recipecontent.ErrObjectNotFound)

	_, err = backend.Download(ctx, "recipeImage_missing")
	assert.ErrorIs(t, err, recipecontent.ErrObjectNotFound)
}

func TestFilesystemBackend_RejectsEscapingKeys(t *testing.T) {
	backend := newTestBackend(t, "")
	ctx := context.Background()

	for _, key := range []string{"recipeImage_/../../etc/passwd", "../outside", ".."} {
		t.Run(key, func(t *testing.T) {
			_, err := backend.Upload(ctx, strings.NewReader("x"), recipecontent.UploadParams{ObjectKey: key})
			assert.ErrorIs(t, err, ErrInvalidKey)

			err = backend.Delete(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestFilesystemBackend_CleansEmptyDirectories(t *testing.T) {
	backend := newTestBackend(t, "")
	ctx := context.Background()
	key := "staging/recipeImage_nested"

	_, err := backend.Upload(ctx, strings.NewReader("x"), recipecontent.UploadParams{ObjectKey: key})
	require.NoError(t, err)
	require.NoError(t, backend.Delete(ctx, key))

	_, err = os.Stat(filepath.Join(backend.baseDir, "staging"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(backend.baseDir)
	assert.NoError(t, err)
}
