package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"cabinet/backend/internal/domain"
	"cabinet/backend/internal/store"
)

func TestPostgresIntegration_ReservationLifecycle(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("CABINET_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("CABINET_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "cabinet_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema).Exec(ctx); err != nil {
			return err
		}
		if err := Migrate(ctx, tx); err != nil {
			return err
		}

		repo := NewReservationRepo(tx)
		at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

		created, err := repo.Create(ctx, domain.Reservation{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Phone:     "0102030405",
			Time:      at,
		})
		if err != nil {
			return err
		}
		if created.ID == uuid.Nil {
			return fmt.Errorf("expected assigned id")
		}

		found, err := repo.FindByTime(ctx, at)
		if err != nil {
			return err
		}
		if found.ID != created.ID {
			return fmt.Errorf("FindByTime id = %s, want %s", found.ID, created.ID)
		}

		if _, err := tx.NewRaw("SAVEPOINT duplicate_time").Exec(ctx); err != nil {
			return err
		}
		_, err = repo.Create(ctx, domain.Reservation{FirstName: "x", LastName: "y", Phone: "z", Time: at})
		if !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("duplicate time err = %v, want %v", err, store.ErrConflict)
		}
		if _, err := tx.NewRaw("ROLLBACK TO SAVEPOINT duplicate_time").Exec(ctx); err != nil {
			return err
		}

		rows, err := repo.ListInRange(ctx, at.Add(-time.Hour), at)
		if err != nil {
			return err
		}
		if len(rows) != 1 {
			return fmt.Errorf("len(rows) end inclusive = %d, want 1", len(rows))
		}
		rows, err = repo.ListInRange(ctx, at, at.Add(time.Hour))
		if err != nil {
			return err
		}
		if len(rows) != 0 {
			return fmt.Errorf("len(rows) start exclusive = %d, want 0", len(rows))
		}

		found.Phone = "0600000000"
		found.Time = at.Add(30 * time.Minute)
		updated, err := repo.Update(ctx, found)
		if err != nil {
			return err
		}
		if updated.Phone != "0600000000" {
			return fmt.Errorf("updated phone = %q", updated.Phone)
		}
		if _, err := repo.FindByTime(ctx, at); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("old time lookup err = %v, want %v", err, store.ErrNotFound)
		}

		if err := repo.Delete(ctx, created.ID); err != nil {
			return err
		}
		if _, err := repo.FindByID(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("FindByID after delete err = %v, want %v", err, store.ErrNotFound)
		}
		if err := repo.Delete(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("second delete err = %v, want %v", err, store.ErrNotFound)
		}
		if _, err := repo.Update(ctx, found); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("update after delete err = %v, want %v", err, store.ErrNotFound)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}
