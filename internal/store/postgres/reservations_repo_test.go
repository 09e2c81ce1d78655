package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"cabinet/backend/internal/store"
)

func TestMapWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "reserved_at unique violation",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "reservations_reserved_at_key"},
			want: store.ErrConflict,
		},
		{
			name: "wrapped unique violation",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "reservations_reserved_at_key"}),
			want: store.ErrConflict,
		},
		{
			name: "other constraint",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "reservations_pkey"},
		},
		{
			name: "other error",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapWriteError(tt.err)
			if tt.want != nil {
				if !errors.Is(got, tt.want) {
					t.Fatalf("err = %v, want %v", got, tt.want)
				}
				return
			}
			if got != tt.err {
				t.Fatalf("err = %v, want passthrough %v", got, tt.err)
			}
		})
	}
}

func TestMapReadError(t *testing.T) {
	if err := mapReadError(sql.ErrNoRows); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, store.ErrNotFound)
	}
	boom := errors.New("boom")
	if err := mapReadError(boom); err != boom {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestExtractGooseUp(t *testing.T) {
	up, err := extractGooseUp("-- +goose Up\nCREATE TABLE a (id int);\n\n-- +goose Down\nDROP TABLE a;\n")
	if err != nil {
		t.Fatalf("extractGooseUp error: %v", err)
	}
	if up != "CREATE TABLE a (id int);" {
		t.Fatalf("up = %q", up)
	}

	if _, err := extractGooseUp("CREATE TABLE a (id int);"); err == nil {
		t.Fatalf("expected error for missing up marker")
	}
}

func TestSplitSQLStatements(t *testing.T) {
	got := splitSQLStatements("CREATE TABLE a (id int);\n\n CREATE INDEX b ON a (id);  ;")
	if len(got) != 2 {
		t.Fatalf("len(stmts) = %d, want 2: %q", len(got), got)
	}
	if got[1] != "CREATE INDEX b ON a (id)" {
		t.Fatalf("stmts[1] = %q", got[1])
	}
}

func TestEmbeddedMigrationsDeclareReservedAtConstraint(t *testing.T) {
	b, err := migrationFiles.ReadFile("migrations/0001_create_reservations.sql")
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	up, err := extractGooseUp(string(b))
	if err != nil {
		t.Fatalf("extractGooseUp error: %v", err)
	}
	if !strings.Contains(up, reservedAtUniqueConstraint) {
		t.Fatalf("migration does not declare %s", reservedAtUniqueConstraint)
	}
	if strings.Contains(up, "DROP TABLE") {
		t.Fatalf("up section contains down statements")
	}
}

func TestQueryLogger_SkipsExpectedErrors(t *testing.T) {
	var buf bytes.Buffer
	h := &queryLogger{log: slog.New(slog.NewTextHandler(&buf, nil)), slow: time.Hour}

	h.AfterQuery(context.Background(), &bun.QueryEvent{StartTime: time.Now(), Query: "SELECT 1", Err: sql.ErrNoRows})
	h.AfterQuery(context.Background(), &bun.QueryEvent{StartTime: time.Now(), Query: "INSERT INTO reservations", Err: &pgconn.PgError{
		Code:           uniqueViolation,
		ConstraintName: reservedAtUniqueConstraint,
	}})
	if buf.Len() != 0 {
		t.Fatalf("expected no log output, got %q", buf.String())
	}

	h.AfterQuery(context.Background(), &bun.QueryEvent{StartTime: time.Now(), Query: "SELECT 1", Err: errors.New("boom")})
	if !strings.Contains(buf.String(), "query failed") {
		t.Fatalf("expected failure log, got %q", buf.String())
	}
}

func TestQueryLogger_SlowQuery(t *testing.T) {
	var buf bytes.Buffer
	h := &queryLogger{log: slog.New(slog.NewTextHandler(&buf, nil)), slow: time.Millisecond}

	h.AfterQuery(context.Background(), &bun.QueryEvent{StartTime: time.Now().Add(-time.Second), Query: "SELECT 1"})
	if !strings.Contains(buf.String(), "slow query") {
		t.Fatalf("expected slow query log, got %q", buf.String())
	}
}
