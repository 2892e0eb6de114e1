package migrate

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// Annotations every migration must carry. StatementBegin and StatementEnd
// must pair up.
const (
	annotationUp    = "-- +goose Up"
	annotationDown  = "-- +goose Down"
	annotationBegin = "-- +goose StatementBegin"
	annotationEnd   = "-- +goose StatementEnd"
)

// File is one migration found on disk.
type File struct {
	Version int64
	Name    string
	Path    string
}

// ValidateDir checks migration filenames, version uniqueness and goose annotations.
func ValidateDir(dir string) error {
	_, err := Versions(dir)
	return err
}

// Versions returns the migrations in dir, oldest first.
func Versions(dir string) ([]File, error) {
	if dir == "" {
		return nil, errors.New("dir is required")
	}
	return Scan(os.DirFS(dir))
}

// Scan validates every .sql file at the root of fsys.
func Scan(fsys fs.FS) ([]File, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	files := make([]File, 0, len(names))
	byVersion := make(map[int64]string, len(names))
	for _, name := range names {
		f, err := parseFileName(name)
		if err != nil {
			return nil, err
		}
		if other, dup := byVersion[f.Version]; dup {
			return nil, fmt.Errorf("version %d used by both %s and %s", f.Version, other, name)
		}
		byVersion[f.Version] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := checkAnnotations(string(body)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		files = append(files, f)
	}

	slices.SortFunc(files, func(a, b File) int { return cmp.Compare(a.Version, b.Version) })
	return files, nil
}

func parseFileName(name string) (File, error) {
	m := fileNameRe.FindStringSubmatch(path.Base(name))
	if m == nil {
		return File{}, fmt.Errorf("bad migration filename %s, want YYYYMMDDHHMMSS_snake_name.sql", name)
	}
	version, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return File{}, fmt.Errorf("bad migration version in %s: %w", name, err)
	}
	return File{Version: version, Name: m[2], Path: name}, nil
}

func checkAnnotations(body string) error {
	for _, required := range []string{annotationUp, annotationDown} {
		if !strings.Contains(body, required) {
			return fmt.Errorf("missing %q", required)
		}
	}
	if begins, ends := strings.Count(body, annotationBegin), strings.Count(body, annotationEnd); begins != ends {
		return fmt.Errorf("%d StatementBegin against %d StatementEnd", begins, ends)
	}
	return nil
}
