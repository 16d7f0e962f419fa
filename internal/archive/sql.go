package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/llm-d-incubation/session-matcher/api/v1alpha1"
)

type dialect struct {
	name      string
	driver    string
	blobType  string
	numbered  bool // $1, $2 placeholders instead of ?
	defaultDB string
}

var (
	sqliteDialect   = dialect{name: SchemeSQLite, driver: "sqlite", blobType: "BLOB", defaultDB: "session-matcher.db"}
	postgresDialect = dialect{name: SchemePostgres, driver: "pgx", blobType: "BYTEA", numbered: true}
)

// rebind rewrites ? placeholders for dialects with numbered parameters.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// createdAtLayout is fixed width so that text order matches time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// SQLStore archives runs in a single table of a SQL database.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

var _ Store = (*SQLStore)(nil)

func openSQL(ctx context.Context, d dialect, dsn string) (*SQLStore, error) {
	if dsn == "" {
		dsn = d.defaultDB
	}
	if d.name == SchemeSQLite {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
				return nil, fmt.Errorf("create dirs: %w", err)
			}
		}
	}

	openMu.Lock()
	db, err := sqlOpen(d.driver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}

	s := &SQLStore{db: db, dialect: d}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		score INTEGER NOT NULL,
		payload %s NOT NULL
	)`, s.dialect.blobType)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

// DB exposes the underlying sql.DB for tests.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Save(ctx context.Context, run *v1alpha1.RunSummary) (string, error) {
	if run == nil {
		return "", fmt.Errorf("saving run: nil summary")
	}
	stored := run.DeepCopy()
	prepare(stored)
	payload, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("encode run %s: %w", stored.RunID, err)
	}

	query := s.dialect.rebind(`INSERT INTO runs(id, created_at, score, payload) VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, score = excluded.score, payload = excluded.payload`)
	createdAt := stored.CreatedAt.UTC().Format(createdAtLayout)
	if _, err := s.db.ExecContext(ctx, query, stored.RunID, createdAt, stored.Score, payload); err != nil {
		return "", fmt.Errorf("upsert run %s: %w", stored.RunID, err)
	}
	return stored.RunID, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*v1alpha1.RunSummary, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT payload FROM runs WHERE id = ?`), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select run %s: %w", id, err)
	}
	var run v1alpha1.RunSummary
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]v1alpha1.RunSummary, error) {
	query := `SELECT payload FROM runs ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []v1alpha1.RunSummary
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var run v1alpha1.RunSummary
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error { return s.db.Close() }
