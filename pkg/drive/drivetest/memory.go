// Package drivetest provides an in-memory drive.Store for tests.
package drivetest

import (
	"context"
	"io"
	"sync"

	"github.com/angelmondragon/freightquote-backend/pkg/drive"
)

// Memory records folders and uploaded file contents.
type Memory struct {
	mu         sync.Mutex
	folders    map[string]string
	files      map[string]map[string][]byte
	Created    int
	Uploads    int
	FailUpload func(name string) error
}

func NewMemory() *Memory {
	return &Memory{folders: map[string]string{}, files: map[string]map[string][]byte{}}
}

func (m *Memory) EnsureFolder(_ context.Context, name string) (drive.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.folders[name]
	if !ok {
		id = "folder-" + name
		m.folders[name] = id
		m.files[id] = map[string][]byte{}
		m.Created++
	}
	return drive.Folder{ID: id, Link: drive.FolderLink(id)}, nil
}

func (m *Memory) ListFiles(_ context.Context, folderID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.files[folderID]))
	for name := range m.files[folderID] {
		names = append(names, name)
	}
	return names, nil
}

func (m *Memory) Upload(_ context.Context, folderID, name string, content io.Reader) (string, error) {
	if m.FailUpload != nil {
		if err := m.FailUpload(name); err != nil {
			return "", err
		}
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files[folderID] == nil {
		m.files[folderID] = map[string][]byte{}
	}
	m.files[folderID][name] = data
	m.Uploads++
	return folderID + "/" + name, nil
}

// File returns the stored bytes of an uploaded file.
func (m *Memory) File(folderID, name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[folderID][name]
	return data, ok
}
