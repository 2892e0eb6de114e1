package drive

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

type fakeBackend struct {
	folders   map[string]string
	files     map[string][]string
	creates   int
	uploadErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{folders: map[string]string{}, files: map[string][]string{}}
}

func (f *fakeBackend) findFolder(_ context.Context, parentID, name string) (string, error) {
	return f.folders[parentID+"/"+name], nil
}

func (f *fakeBackend) createFolder(_ context.Context, parentID, name string) (string, error) {
	f.creates++
	id := "folder-" + name
	f.folders[parentID+"/"+name] = id
	return id, nil
}

func (f *fakeBackend) listNames(_ context.Context, folderID string) ([]string, error) {
	return f.files[folderID], nil
}

func (f *fakeBackend) upload(_ context.Context, folderID, name string, content io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}
	f.files[folderID] = append(f.files[folderID], name)
	return "file-" + name, nil
}

func TestEnsureFolderIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	client := &Client{api: backend, parentID: "parent"}
	ctx := context.Background()

	first, err := client.EnsureFolder(ctx, "Q0042")
	require.NoError(t, err)
	second, err := client.EnsureFolder(ctx, "Q0042")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.creates)
	assert.Equal(t, "https://drive.google.com/drive/folders/folder-Q0042", first.Link)
}

func TestUploadAndList(t *testing.T) {
	backend := newFakeBackend()
	client := &Client{api: backend, parentID: "parent"}
	ctx := context.Background()

	_, err := client.Upload(ctx, "folder-1", "invoice.pdf", strings.NewReader("pdf"))
	require.NoError(t, err)
	names, err := client.ListFiles(ctx, "folder-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"invoice.pdf"}, names)

	backend.uploadErr = &googleapi.Error{Code: http.StatusTooManyRequests}
	_, err = client.Upload(ctx, "folder-1", "msds.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsRetryable(err))
}

func TestEnsureFolderRequiresName(t *testing.T) {
	client := &Client{api: newFakeBackend(), parentID: "parent"}
	_, err := client.EnsureFolder(context.Background(), " ")
	require.Error(t, err)
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `O\'Neil`, escapeQuery("O'Neil"))
}
