// Package staging keeps uploaded attachments on local disk until a quotation is finalized.
//
// Layout: <root>/<session>/<scope>/<field>/<file name>. A scope is the draft or
// ledger entry id that owns the attachments.
package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const dirPerm = 0o750

// ErrInvalidName is returned for path segments that would escape the staging root.
var ErrInvalidName = errors.New("invalid staging name")

// Upload is one file received for an attachment field.
type Upload struct {
	Name    string
	Content io.Reader
}

// Area is a staging directory tree rooted at one path.
type Area struct {
	root string
}

// New ensures root exists and returns the staging area.
func New(root string) (*Area, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("staging root is required")
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("creating staging root: %w", err)
	}
	return &Area{root: root}, nil
}

// Root returns the staging root directory.
func (a *Area) Root() string { return a.root }

// Sync makes the field directory hold exactly the uploaded set. Files present on
// disk but absent from uploads are deleted. It returns the stored names, sorted.
func (a *Area) Sync(session, scope, field string, uploads []Upload) ([]string, error) {
	dir, err := a.dir(session, scope, field)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("creating field dir: %w", err)
	}

	keep := make(map[string]struct{}, len(uploads))
	for _, upload := range uploads {
		name, err := CleanName(upload.Name)
		if err != nil {
			return nil, err
		}
		if err := writeFile(filepath.Join(dir, name), upload.Content); err != nil {
			return nil, err
		}
		keep[name] = struct{}{}
	}

	existing, err := listNames(dir)
	if err != nil {
		return nil, err
	}
	var errs error
	for _, name := range existing {
		if _, ok := keep[name]; ok {
			continue
		}
		errs = multierr.Append(errs, os.Remove(filepath.Join(dir, name)))
	}
	if errs != nil {
		return nil, fmt.Errorf("removing stale files: %w", errs)
	}

	names := make([]string, 0, len(keep))
	for name := range keep {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Files lists the staged names of a field.
func (a *Area) Files(session, scope, field string) ([]string, error) {
	dir, err := a.dir(session, scope, field)
	if err != nil {
		return nil, err
	}
	names, err := listNames(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return names, err
}

// Open opens a staged file for reading.
func (a *Area) Open(session, scope, field, name string) (*os.File, error) {
	dir, err := a.dir(session, scope, field)
	if err != nil {
		return nil, err
	}
	clean, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(dir, clean))
}

// ClearScope removes every field of a draft or entry.
func (a *Area) ClearScope(session, scope string) error {
	dir, err := a.dir(session, scope)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// Clear removes a whole session tree.
func (a *Area) Clear(session string) error {
	dir, err := a.dir(session)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// Sweep deletes session directories with nothing modified since cutoff anywhere
// below them and returns how many were removed.
func (a *Area) Sweep(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return 0, fmt.Errorf("reading staging root: %w", err)
	}
	removed := 0
	var errs error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(a.root, entry.Name())
		latest, err := latestChange(dir)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if latest.After(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		removed++
	}
	return removed, errs
}

// CleanName strips directories from an uploaded file name.
func CleanName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "", ErrInvalidName
	}
	return base, nil
}

func (a *Area) dir(parts ...string) (string, error) {
	segments := []string{a.root}
	for _, part := range parts {
		if part == "" || part != filepath.Base(part) || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, part)
		}
		segments = append(segments, part)
	}
	return filepath.Join(segments...), nil
}

// latestChange is the newest mtime of root or anything under it.
func latestChange(root string) (time.Time, error) {
	var latest time.Time
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	return latest, err
}

func writeFile(path string, content io.Reader) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating staged file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	if content == nil {
		return nil
	}
	if _, err := io.Copy(f, content); err != nil {
		return fmt.Errorf("writing staged file: %w", err)
	}
	return nil
}

func listNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
