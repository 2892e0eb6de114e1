package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/gcp"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	gdrive "google.golang.org/api/drive/v3"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	folderLinkBase = "https://drive.google.com/drive/folders/"
	listPageSize   = 200
	uploadTimeout  = 2 * time.Minute
	metaTimeout    = 20 * time.Second
)

var errClientNotInitialized = errors.New("drive client not initialized")

// Folder identifies a per-request document folder.
type Folder struct {
	ID   string
	Link string
}

// Store is the hierarchical file store used by submission.
type Store interface {
	EnsureFolder(ctx context.Context, name string) (Folder, error)
	ListFiles(ctx context.Context, folderID string) ([]string, error)
	Upload(ctx context.Context, folderID, name string, content io.Reader) (string, error)
}

type backend interface {
	findFolder(ctx context.Context, parentID, name string) (string, error)
	createFolder(ctx context.Context, parentID, name string) (string, error)
	listNames(ctx context.Context, folderID string) ([]string, error)
	upload(ctx context.Context, folderID, name string, content io.Reader) (string, error)
}

// Client manages request folders under one configured parent.
type Client struct {
	api      backend
	parentID string
}

// NewClient builds the Drive v3 service.
func NewClient(ctx context.Context, gcpCfg config.GCPConfig, cfg config.DriveConfig, logg *logger.Logger) (*Client, error) {
	parent := strings.TrimSpace(cfg.ParentFolderID)
	if parent == "" {
		return nil, fmt.Errorf("drive parent folder id is required")
	}
	svc, err := gdrive.NewService(ctx, gcp.ClientOptions(gcpCfg, gdrive.DriveScope)...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "drive client initialized")
	}
	return &Client{
		api:      &serviceBackend{svc: svc, driveID: strings.TrimSpace(cfg.DriveID)},
		parentID: parent,
	}, nil
}

// FolderLink returns the browser URL for a folder id.
func FolderLink(folderID string) string {
	return folderLinkBase + folderID
}

// EnsureFolder returns the folder named name under the parent, creating it when absent.
func (c *Client) EnsureFolder(ctx context.Context, name string) (Folder, error) {
	if c == nil || c.api == nil {
		return Folder{}, errClientNotInitialized
	}
	if strings.TrimSpace(name) == "" {
		return Folder{}, fmt.Errorf("folder name is required")
	}
	ctx, cancel := context.WithTimeout(ctx, metaTimeout)
	defer cancel()

	id, err := c.api.findFolder(ctx, c.parentID, name)
	if err != nil {
		return Folder{}, gcp.Classify(err, fmt.Sprintf("looking up folder %q", name))
	}
	if id == "" {
		id, err = c.api.createFolder(ctx, c.parentID, name)
		if err != nil {
			return Folder{}, gcp.Classify(err, fmt.Sprintf("creating folder %q", name))
		}
	}
	return Folder{ID: id, Link: FolderLink(id)}, nil
}

// ListFiles returns the names of the files inside the folder.
func (c *Client) ListFiles(ctx context.Context, folderID string) ([]string, error) {
	if c == nil || c.api == nil {
		return nil, errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metaTimeout)
	defer cancel()

	names, err := c.api.listNames(ctx, folderID)
	if err != nil {
		return nil, gcp.Classify(err, "listing folder files")
	}
	return names, nil
}

// Upload stores content as a new file in the folder.
func (c *Client) Upload(ctx context.Context, folderID, name string, content io.Reader) (string, error) {
	if c == nil || c.api == nil {
		return "", errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	id, err := c.api.upload(ctx, folderID, name, content)
	if err != nil {
		return "", gcp.Classify(err, fmt.Sprintf("uploading %q", name))
	}
	return id, nil
}

type serviceBackend struct {
	svc     *gdrive.Service
	driveID string
}

func escapeQuery(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `'`, `\'`)
}

func (b *serviceBackend) list(parentID, extra string) *gdrive.FilesListCall {
	q := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(parentID))
	if extra != "" {
		q += " and " + extra
	}
	call := b.svc.Files.List().
		Q(q).
		PageSize(listPageSize).
		Fields("nextPageToken, files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)
	if b.driveID != "" {
		call = call.Corpora("drive").DriveId(b.driveID)
	}
	return call
}

func (b *serviceBackend) findFolder(ctx context.Context, parentID, name string) (string, error) {
	extra := fmt.Sprintf("name = '%s' and mimeType = '%s'", escapeQuery(name), folderMimeType)
	resp, err := b.list(parentID, extra).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(resp.Files) == 0 {
		return "", nil
	}
	return resp.Files[0].Id, nil
}

func (b *serviceBackend) createFolder(ctx context.Context, parentID, name string) (string, error) {
	file, err := b.svc.Files.Create(&gdrive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}).Fields("id").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return file.Id, nil
}

func (b *serviceBackend) listNames(ctx context.Context, folderID string) ([]string, error) {
	var names []string
	err := b.list(folderID, "").Pages(ctx, func(page *gdrive.FileList) error {
		for _, file := range page.Files {
			names = append(names, file.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (b *serviceBackend) upload(ctx context.Context, folderID, name string, content io.Reader) (string, error) {
	file, err := b.svc.Files.Create(&gdrive.File{
		Name:    name,
		Parents: []string{folderID},
	}).Media(content).Fields("id").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return file.Id, nil
}
