// Package migrate runs the goose SQL migrations under DefaultDir.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// provider opens a goose provider over dir. Repository tests use sqlite
// with inline tables and never come through here.
func provider(db *sql.DB, dir string) (*goose.Provider, error) {
	switch {
	case db == nil:
		return nil, errors.New("db is required")
	case dir == "":
		return nil, errors.New("migrations dir is required")
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("opening goose provider on %s: %w", dir, err)
	}
	return p, nil
}

// Run executes up, down or status against db and reports each migration on out.
func Run(ctx context.Context, db *sql.DB, dir, command string, out io.Writer) error {
	p, err := provider(db, dir)
	if err != nil {
		return err
	}
	defer p.Close()

	switch command {
	case "up":
		results, err := p.Up(ctx)
		report(out, results...)
		return wrap("up", err)
	case "down":
		result, err := p.Down(ctx)
		if result != nil {
			report(out, result)
		}
		return wrap("down", err)
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return wrap("status", err)
		}
		for _, s := range statuses {
			applied := "pending"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "%-20s %d  %s\n", applied, s.Source.Version, s.Source.Path)
		}
		return nil
	}
	return fmt.Errorf("unsupported goose command %q", command)
}

// MigrateToVersion moves the schema up or down until it sits at target
// (YYYYMMDDHHMMSS).
func MigrateToVersion(ctx context.Context, db *sql.DB, dir, target string, out io.Writer) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil || version <= 0 {
		return fmt.Errorf("invalid version %q, expected YYYYMMDDHHMMSS", target)
	}
	p, err := provider(db, dir)
	if err != nil {
		return err
	}
	defer p.Close()

	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return wrap("version", err)
	}
	var results []*goose.MigrationResult
	switch {
	case current < version:
		results, err = p.UpTo(ctx, version)
	case current > version:
		results, err = p.DownTo(ctx, version)
	}
	report(out, results...)
	return wrap("migrate to "+target, err)
}

func report(out io.Writer, results ...*goose.MigrationResult) {
	if out == nil {
		return
	}
	for _, r := range results {
		fmt.Fprintf(out, "%-4s %d  %s  (%s)\n", r.Direction, r.Source.Version, r.Source.Path, r.Duration.Round(1e6))
	}
}

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, goose.ErrNoNextVersion) {
		return nil
	}
	return fmt.Errorf("goose %s: %w", op, err)
}
