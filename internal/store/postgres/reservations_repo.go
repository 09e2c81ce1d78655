package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"cabinet/backend/internal/domain"
	"cabinet/backend/internal/store"
)

const (
	uniqueViolation            = "23505"
	reservedAtUniqueConstraint = "reservations_reserved_at_key"
)

type ReservationRepo struct {
	db bun.IDB
}

var _ store.ReservationRepository = (*ReservationRepo)(nil)

// NewReservationRepo accepts a *bun.DB or a bun.Tx.
func NewReservationRepo(db bun.IDB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

func (r *ReservationRepo) FindByTime(ctx context.Context, at time.Time) (domain.Reservation, error) {
	var row domain.Reservation
	err := r.db.NewSelect().
		Model(&row).
		Where("reserved_at = ?", at).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Reservation{}, mapReadError(err)
	}
	return row, nil
}

func (r *ReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	var row domain.Reservation
	err := r.db.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Reservation{}, mapReadError(err)
	}
	return row, nil
}

func (r *ReservationRepo) ListInRange(ctx context.Context, startExclusive, endInclusive time.Time) ([]domain.Reservation, error) {
	rows := make([]domain.Reservation, 0)
	err := r.db.NewSelect().
		Model(&rows).
		Where("reserved_at > ?", startExclusive).
		Where("reserved_at <= ?", endInclusive).
		OrderExpr("reserved_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	m := domain.Reservation{
		ID:        res.ID,
		FirstName: res.FirstName,
		LastName:  res.LastName,
		Phone:     res.Phone,
		Time:      res.Time,
		CreatedAt: res.CreatedAt,
		UpdatedAt: res.UpdatedAt,
	}

	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Reservation{}, mapWriteError(err)
	}
	return m, nil
}

func (r *ReservationRepo) Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	m := res

	result, err := r.db.NewUpdate().
		Model(&m).
		Column("first_name", "last_name", "phone", "reserved_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Reservation{}, mapWriteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Reservation{}, err
	}
	if affected == 0 {
		return domain.Reservation{}, store.ErrNotFound
	}
	return m, nil
}

func (r *ReservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*domain.Reservation)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapReadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == reservedAtUniqueConstraint {
		return store.ErrConflict
	}
	return err
}
