package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestOpenSQLiteMemory(t *testing.T) {
	store, err := Open(context.Background(), "", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if store.Dialect != SQLite {
		t.Fatalf("dialect = %v, want SQLite", store.Dialect)
	}
	if _, err := store.DB.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("exec: %v", err)
	}
}

func TestRebind(t *testing.T) {
	sqlite := &Store{Dialect: SQLite}
	pg := &Store{Dialect: Postgres}

	query := `SELECT cash FROM teams WHERE name = ? AND cash > ?`
	if got := sqlite.Rebind(query); got != query {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
	want := `SELECT cash FROM teams WHERE name = $1 AND cash > $2`
	if got := pg.Rebind(query); got != want {
		t.Fatalf("pg rebind = %q, want %q", got, want)
	}
	if got := pg.Rebind(`SELECT 1`); got != `SELECT 1` {
		t.Fatalf("placeholder-free query changed: %q", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Fatal("nil should not be retryable")
	}
	if IsRetryable(errors.New("syntax error")) {
		t.Fatal("plain error should not be retryable")
	}
	if !IsRetryable(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("busy sqlite should be retryable")
	}
	if !IsRetryable(&pgconn.PgError{Code: "40001"}) {
		t.Fatal("serialization failure should be retryable")
	}
	if !IsRetryable(&pgconn.PgError{Code: "40P01"}) {
		t.Fatal("deadlock should be retryable")
	}
	if IsRetryable(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation should not be retryable")
	}
}
