// Package archive keeps a history of matching runs. Summaries are stored as
// JSON payloads keyed by run id, in memory, in SQLite or in Postgres.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/llm-d-incubation/session-matcher/api/v1alpha1"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Store persists run summaries.
type Store interface {
	// Save archives a copy of run and returns its id. A missing RunID or
	// CreatedAt is filled in first.
	Save(ctx context.Context, run *v1alpha1.RunSummary) (string, error)
	// Get returns the run with the given id.
	Get(ctx context.Context, id string) (*v1alpha1.RunSummary, error)
	// List returns up to limit runs, newest first. A limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]v1alpha1.RunSummary, error)
	Close() error
}

// DSN schemes understood by Open.
const (
	SchemeMemory   = "memory"
	SchemeSQLite   = "sqlite"
	SchemePostgres = "postgres"
)

// Open returns the store for dsn:
//
//	""  or "memory://"            in-process store, lost on exit
//	"sqlite://<path>" or "*.db"   SQLite file
//	"postgres://..."              Postgres through pgx
func Open(ctx context.Context, dsn string) (Store, error) {
	switch scheme, rest := splitDSN(dsn); scheme {
	case SchemeMemory:
		return NewMemoryStore(), nil
	case SchemeSQLite:
		return openStore(ctx, sqliteDialect, rest)
	case SchemePostgres:
		return openStore(ctx, postgresDialect, rest)
	default:
		return nil, fmt.Errorf("unsupported archive dsn %q", dsn)
	}
}

func openStore(ctx context.Context, d dialect, dsn string) (Store, error) {
	s, err := openSQL(ctx, d, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func splitDSN(dsn string) (string, string) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "" || strings.HasPrefix(dsn, "memory://"):
		return SchemeMemory, ""
	case strings.HasPrefix(dsn, "sqlite://"):
		return SchemeSQLite, strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return SchemePostgres, dsn
	case strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return SchemeSQLite, dsn
	}
	return "", dsn
}

// prepare fills the generated fields of run in place.
func prepare(run *v1alpha1.RunSummary) {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}
