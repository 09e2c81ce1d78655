package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cabinet/backend/internal/domain"
)

// ReservationRepository persists reservations. Lookups that match nothing
// return ErrNotFound; writes that collide with an existing reservation time
// return ErrConflict.
type ReservationRepository interface {
	FindByTime(ctx context.Context, at time.Time) (domain.Reservation, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	// ListInRange returns reservations with startExclusive < time <= endInclusive.
	ListInRange(ctx context.Context, startExclusive, endInclusive time.Time) ([]domain.Reservation, error)
	Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	Update(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
