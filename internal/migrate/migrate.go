// Package migrate applies the embedded SQL migrations in lexical order.
package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/moffi-scheduler/internal/db"
	"github.com/example/moffi-scheduler/internal/logging"
)

//go:embed *.sql
var migrations embed.FS

// Conn is the subset of *db.DB migrations need.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryRow(ctx context.Context, sql string, args ...any) db.Row
}

func list(fsys fs.ReadDirFS) ([]string, error) {
	entries, err := fsys.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Up applies every migration not yet listed in schema_migrations.
func Up(ctx context.Context, d Conn, l *slog.Logger) error {
	return up(ctx, d, migrations, logging.OrDiscard(l))
}

func up(ctx context.Context, d Conn, fsys fs.ReadFileFS, log *slog.Logger) error {
	dir, ok := fsys.(fs.ReadDirFS)
	if !ok {
		return fmt.Errorf("migrate: filesystem cannot list files")
	}
	files, err := list(dir)
	if err != nil {
		return fmt.Errorf("migrate: list: %w", err)
	}

	if err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	for _, f := range files {
		var applied bool
		if err := d.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, f).Scan(&applied); err != nil {
			return fmt.Errorf("migrate: check %s: %w", f, err)
		}
		if applied {
			continue
		}

		b, err := fsys.ReadFile(f)
		if err != nil {
			return err
		}
		if err := d.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if err := d.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, f); err != nil {
			return fmt.Errorf("migrate: mark %s: %w", f, err)
		}
		log.Info("migration applied", "version", f)
	}
	return nil
}
