package store

import (
	"context"
	"fmt"
	"path/filepath"
)

// Options carries the backend-specific settings consulted by New.
type Options struct {
	DataDir     string
	PostgresDSN string
	S3          S3Config
}

// New creates a Store based on the backend name.
//
// Supported backends:
//
//	"json"     - one JSON file per slot in DataDir (default)
//	"sqlite"   - SQLite database at DataDir/gwconsole.db
//	"postgres" - Postgres database at PostgresDSN
//	"s3"       - objects in an S3 bucket
//	"memory"   - in-memory (ephemeral, for testing)
func New(ctx context.Context, backend string, opts Options) (Store, error) {
	switch backend {
	case "json", "":
		return NewJsonFileStore(opts.DataDir)
	case "sqlite":
		return NewSqliteStore(filepath.Join(opts.DataDir, "gwconsole.db"))
	case "postgres":
		return NewPostgresStore(ctx, opts.PostgresDSN)
	case "s3":
		return NewS3Store(ctx, opts.S3)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, sqlite, postgres, s3, memory)", backend)
	}
}
