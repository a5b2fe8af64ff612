// Package migrate applies the embedded cache schema migrations.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/and161185/stickercache/migrations"
)

// Applied describes one migration run by Up.
type Applied struct {
	Version int64
	Path    string
}

// Up runs all pending migrations and returns the ones it applied.
func Up(ctx context.Context, dsn string) ([]Applied, error) {
	p, closeDB, err := provider(dsn)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	results, err := p.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	out := make([]Applied, 0, len(results))
	for _, r := range results {
		out = append(out, Applied{Version: r.Source.Version, Path: r.Source.Path})
	}
	return out, nil
}

// Version returns the schema version currently recorded in the database.
func Version(ctx context.Context, dsn string) (int64, error) {
	p, closeDB, err := provider(dsn)
	if err != nil {
		return 0, err
	}
	defer closeDB()
	return p.GetDBVersion(ctx)
}

func provider(dsn string) (*goose.Provider, func(), error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return p, func() { _ = db.Close() }, nil
}
