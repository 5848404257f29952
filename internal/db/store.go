package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Store wraps a database/sql handle with the dialect it speaks. The game runs
// on an embedded sqlite file by default; DATABASE_URL switches it to Postgres
// for shared classroom deployments.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
}

// Open connects to Postgres when databaseURL is set, otherwise opens (and if
// needed creates) the sqlite file at sqlitePath. Pass ":memory:" for tests.
func Open(ctx context.Context, databaseURL, sqlitePath string) (*Store, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return openPostgres(ctx, databaseURL)
	}
	return openSQLite(ctx, sqlitePath)
}

func openPostgres(ctx context.Context, databaseURL string) (*Store, error) {
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: sqlDB, Dialect: Postgres}, nil
}

func openSQLite(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps writes serialized and keeps :memory:
	// databases from silently forking per connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply %s: %w", p, err)
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{DB: sqlDB, Dialect: SQLite}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Rebind rewrites ? placeholders to $1..$n for Postgres. Queries are written
// once with ? and rebound per dialect; none of them embed a literal ?.
func (s *Store) Rebind(query string) string {
	if s.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BeginWrite opens a transaction suitable for read-validate-write sequences:
// serializable on Postgres, the default (already exclusive, single-conn)
// level on sqlite, whose driver rejects nonstandard isolation requests.
func (s *Store) BeginWrite(ctx context.Context) (*sql.Tx, error) {
	if s.Dialect == Postgres {
		return s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}
	return s.DB.BeginTx(ctx, nil)
}

// IsRetryable reports whether err is a transient conflict worth retrying:
// a Postgres serialization/deadlock failure or a busy sqlite database.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
