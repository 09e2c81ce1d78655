package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cabinet/backend/internal/domain"
	"cabinet/backend/internal/service/reservations"
	"cabinet/backend/internal/store"
)

type reservationService interface {
	ListAvailableSlots(ctx context.Context, week int) (domain.SlotCalendar, error)
	CheckSlot(ctx context.Context, at time.Time) (reservations.SlotStatus, error)
	Create(ctx context.Context, in reservations.ReservationInput) (domain.Reservation, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	Edit(ctx context.Context, id uuid.UUID, in reservations.ReservationInput) (domain.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListInWeek(ctx context.Context, week int) ([]domain.Reservation, error)
}

type Handler struct {
	svc reservationService
	loc *time.Location
	log *slog.Logger
}

// NewHandler parses wire timestamps in loc, which should match the service's
// calendar location.
func NewHandler(svc reservationService, loc *time.Location, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		svc: svc,
		loc: loc,
		log: log.With(slog.String("component", "http.reservations")),
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/horaires", func(r chi.Router) {
		r.Get("/semaine/{week}", h.listSlots)
		r.Post("/valide", h.checkSlot)
	})
	r.Route("/reservations", func(r chi.Router) {
		r.Get("/semaine/{week}", h.listReservations)
		r.Post("/", h.createReservation)
		r.Put("/{id}", h.editReservation)
		r.Delete("/{id}", h.deleteReservation)
	})
	return r
}

func (h *Handler) listSlots(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("route", "horaires.semaine"))

	week, ok := weekParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidWeek, codeInvalidWeek)
		return
	}

	cal, err := h.svc.ListAvailableSlots(r.Context(), week)
	if err != nil {
		if errors.Is(err, reservations.ErrInvalidWeekNumber) {
			writeError(w, http.StatusBadRequest, msgInvalidWeek, codeInvalidWeek)
			return
		}
		log.Error("slots list failed", slog.Any("err", err), slog.Int("week", week))
		writeError(w, http.StatusInternalServerError, msgInternal, codeInternal)
		return
	}
	if len(cal) == 0 {
		writeError(w, http.StatusNotFound, msgNoSlots, codeNotFound)
		return
	}

	log.Debug("slots listed", slog.Int("week", week), slog.Int("days", len(cal)))
	writeJSON(w, http.StatusOK, toSlotsResponse(cal))
}

func (h *Handler) checkSlot(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("route", "horaires.valide"))

	at, err := ParseSlotTime(r.URL.Query().Get("heure"), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidTime, codeInvalidTime)
		return
	}

	status, err := h.svc.CheckSlot(r.Context(), at)
	if err != nil {
		log.Error("slot check failed", slog.Any("err", err), slog.Time("reserved_at", at))
		writeError(w, http.StatusInternalServerError, msgInternal, codeInternal)
		return
	}

	switch status {
	case reservations.SlotIneligible:
		writeError(w, http.StatusBadRequest, msgSlotIneligible, codeSlotIneligible)
	case reservations.SlotBooked:
		writeError(w, http.StatusBadRequest, msgSlotBooked, codeSlotBooked)
	default:
		writeText(w, http.StatusOK, msgValid)
	}
}

func (h *Handler) listReservations(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("route", "reservations.semaine"))

	week, ok := weekParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidWeek, codeInvalidWeek)
		return
	}

	rows, err := h.svc.ListInWeek(r.Context(), week)
	if err != nil {
		if errors.Is(err, reservations.ErrInvalidWeekNumber) {
			writeError(w, http.StatusBadRequest, msgInvalidWeek, codeInvalidWeek)
			return
		}
		log.Error("reservations list failed", slog.Any("err", err), slog.Int("week", week))
		writeError(w, http.StatusInternalServerError, msgInternal, codeInternal)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, msgNoReservation, codeNotFound)
		return
	}

	out := make([]reservationResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toReservationResponse(row))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("route", "reservations.create"))

	in, ok := h.reservationInput(w, r)
	if !ok {
		return
	}

	created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeWriteError(w, log, "reservation create failed", err)
		return
	}

	log.Info(
		"reservation created",
		slog.String("reservation_id", created.ID.String()),
		slog.Time("reserved_at", created.Time),
	)
	writeJSON(w, http.StatusCreated, toReservationResponse(created))
}

func (h *Handler) editReservation(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("route", "reservations.edit"))

	id, ok := idParam(w, r)
	if !ok {
		return
	}
	// An unknown id is reported before the request body is looked at.
	if _, err := h.svc.Get(r.Context(), id); err != nil {
		h.writeWriteError(w, log.With(slog.String("reservation_id", id.String())), "reservation lookup failed", err)
		return
	}
	in, ok := h.reservationInput(w, r)
	if !ok {
		return
	}

	updated, err := h.svc.Edit(r.Context(), id, in)
	if err != nil {
		h.writeWriteError(w, log.With(slog.String("reservation_id", id.String())), "reservation edit failed", err)
		return
	}

	log.Info(
		"reservation updated",
		slog.String("reservation_id", updated.ID.String()),
		slog.Time("reserved_at", updated.Time),
	)
	writeJSON(w, http.StatusOK, toReservationResponse(updated))
}

func (h *Handler) deleteReservation(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("route", "reservations.delete"))

	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("reservation not found", slog.String("reservation_id", id.String()))
			writeError(w, http.StatusNotFound, msgNoReservation, codeNotFound)
			return
		}
		log.Error("reservation delete failed", slog.Any("err", err), slog.String("reservation_id", id.String()))
		writeError(w, http.StatusInternalServerError, msgInternal, codeInternal)
		return
	}

	log.Info("reservation deleted", slog.String("reservation_id", id.String()))
	writeText(w, http.StatusOK, msgSuccess)
}

func (h *Handler) reservationInput(w http.ResponseWriter, r *http.Request) (reservations.ReservationInput, bool) {
	q := r.URL.Query()
	at, err := ParseSlotTime(q.Get("heure"), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidTime, codeInvalidTime)
		return reservations.ReservationInput{}, false
	}
	return reservations.ReservationInput{
		LastName:  q.Get("nom"),
		FirstName: q.Get("prenom"),
		Phone:     q.Get("tel"),
		Time:      at,
	}, true
}

func (h *Handler) writeWriteError(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	if errors.Is(err, reservations.ErrSlotUnavailable) {
		log.Info("slot unavailable", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, msgSlotUnavailable, codeSlotUnavailable)
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNoReservation, codeNotFound)
		return
	}
	var vErr *reservations.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, vErr.Error(), codeInvalidInput)
		return
	}
	log.Error(msg, slog.Any("err", err))
	writeError(w, http.StatusInternalServerError, msgInternal, codeInternal)
}

func weekParam(r *http.Request) (int, bool) {
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		return 0, false
	}
	return week, true
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID, codeInvalidInput)
		return uuid.Nil, false
	}
	return id, true
}
