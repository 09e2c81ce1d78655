package reservations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"cabinet/backend/internal/domain"
	"cabinet/backend/internal/store"
)

var (
	ErrInvalidWeekNumber = errors.New("invalid week number")
	// ErrSlotUnavailable covers both an ineligible slot and an already booked one.
	ErrSlotUnavailable = errors.New("slot ineligible or unavailable")
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type SlotStatus int

const (
	SlotAvailable SlotStatus = iota
	SlotIneligible
	SlotBooked
)

func (s SlotStatus) String() string {
	switch s {
	case SlotAvailable:
		return "available"
	case SlotIneligible:
		return "ineligible"
	case SlotBooked:
		return "booked"
	default:
		return "unknown"
	}
}

type Service struct {
	repo store.ReservationRepository
	loc  *time.Location
	now  func() time.Time
}

type Option func(*Service)

// WithLocation sets the calendar's local time zone. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo store.ReservationRepository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		loc:  time.Local,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) weekWindow(week int) (domain.WeekWindow, error) {
	if !domain.IsValidWeekNumber(week) {
		return domain.WeekWindow{}, ErrInvalidWeekNumber
	}
	return domain.ComputeWeekWindow(s.now().In(s.loc), week), nil
}

// ListAvailableSlots returns the free slots of the week, keyed by day. Days
// without a free slot are absent; an empty calendar is not an error.
func (s *Service) ListAvailableSlots(ctx context.Context, week int) (domain.SlotCalendar, error) {
	w, err := s.weekWindow(week)
	if err != nil {
		return nil, err
	}

	out := make(domain.SlotCalendar)
	for day, slots := range domain.EnumerateSlots(w) {
		for _, slot := range slots {
			booked, err := s.isBooked(ctx, slot)
			if err != nil {
				return nil, err
			}
			if booked {
				continue
			}
			key := domain.DayKey(day)
			out[key] = append(out[key], slot)
		}
	}
	return out, nil
}

func (s *Service) CheckSlot(ctx context.Context, at time.Time) (SlotStatus, error) {
	if !domain.IsEligibleSlot(at) {
		return SlotIneligible, nil
	}
	booked, err := s.isBooked(ctx, at)
	if err != nil {
		return 0, err
	}
	if booked {
		return SlotBooked, nil
	}
	return SlotAvailable, nil
}

// CheckSlotValid reports whether at is an eligible slot nobody has booked.
func (s *Service) CheckSlotValid(ctx context.Context, at time.Time) (bool, error) {
	status, err := s.CheckSlot(ctx, at)
	if err != nil {
		return false, err
	}
	return status == SlotAvailable, nil
}

type ReservationInput struct {
	FirstName string
	LastName  string
	Phone     string
	Time      time.Time
}

func (in ReservationInput) normalize() (ReservationInput, error) {
	out := ReservationInput{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
		Time:      in.Time,
	}
	switch {
	case out.LastName == "":
		return ReservationInput{}, validationError("last name is required")
	case out.FirstName == "":
		return ReservationInput{}, validationError("first name is required")
	case out.Phone == "":
		return ReservationInput{}, validationError("phone is required")
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in ReservationInput) (domain.Reservation, error) {
	in, err := in.normalize()
	if err != nil {
		return domain.Reservation{}, err
	}

	status, err := s.CheckSlot(ctx, in.Time)
	if err != nil {
		return domain.Reservation{}, err
	}
	if status != SlotAvailable {
		return domain.Reservation{}, ErrSlotUnavailable
	}

	created, err := s.repo.Create(ctx, domain.Reservation{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Time:      in.Time,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Reservation{}, ErrSlotUnavailable
		}
		return domain.Reservation{}, err
	}
	return s.local(created), nil
}

// Get returns reservation id, or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	return s.local(r), nil
}

// Edit replaces every field of reservation id. Keeping the reservation's own
// time is not a conflict.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, in ReservationInput) (domain.Reservation, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}

	in, err = in.normalize()
	if err != nil {
		return domain.Reservation{}, err
	}

	if !domain.IsEligibleSlot(in.Time) {
		return domain.Reservation{}, ErrSlotUnavailable
	}
	holder, err := s.repo.FindByTime(ctx, in.Time)
	switch {
	case err == nil:
		if holder.ID != existing.ID {
			return domain.Reservation{}, ErrSlotUnavailable
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		return domain.Reservation{}, err
	}

	existing.FirstName = in.FirstName
	existing.LastName = in.LastName
	existing.Phone = in.Phone
	existing.Time = in.Time

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Reservation{}, ErrSlotUnavailable
		}
		return domain.Reservation{}, err
	}
	return s.local(updated), nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ListInWeek returns the reservations with window start < time <= window end.
func (s *Service) ListInWeek(ctx context.Context, week int) ([]domain.Reservation, error) {
	w, err := s.weekWindow(week)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListInRange(ctx, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i] = s.local(rows[i])
	}
	return rows, nil
}

func (s *Service) isBooked(ctx context.Context, at time.Time) (bool, error) {
	_, err := s.repo.FindByTime(ctx, at)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) local(r domain.Reservation) domain.Reservation {
	r.Time = r.Time.In(s.loc)
	return r
}
