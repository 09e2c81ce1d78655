package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"cabinet/backend/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const (
	codeInvalidInput    = "INVALID_INPUT"
	codeInvalidWeek     = "INVALID_WEEK"
	codeInvalidTime     = "INVALID_TIME_FORMAT"
	codeSlotIneligible  = "SLOT_INELIGIBLE"
	codeSlotBooked      = "SLOT_BOOKED"
	codeSlotUnavailable = "SLOT_UNAVAILABLE"
	codeNotFound        = "NOT_FOUND"
	codeInternal        = "INTERNAL_ERROR"
)

const (
	msgInvalidWeek     = "Numero de semaine invalide (doit être >= 1 et < 53)"
	msgInvalidTime     = "Format de date invalide (doit être de la forme AAAA-MM-JJ HH:MM:SS)"
	msgInvalidID       = "Identifiant de réservation invalide"
	msgSlotIneligible  = "Horaire non valide car pas dans les bonnes tranches horaire (8h-12h 13h-18h du lundi au vendredi)"
	msgSlotBooked      = "Non disponible car il y a déjà une réservation"
	msgSlotUnavailable = "Horaire invalide ou indisponible, vérifiez via /horaires/valide"
	msgNoSlots         = "Aucune horaires trouvé"
	msgNoReservation   = "Aucune réservation trouvé"
	msgValid           = "Valide"
	msgSuccess         = "Succes"
	msgInternal        = "internal error"
)

type reservationResponse struct {
	ID        string `json:"id"`
	LastName  string `json:"nom"`
	FirstName string `json:"prenom"`
	Phone     string `json:"tel"`
	Time      string `json:"heure"`
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:        r.ID.String(),
		LastName:  r.LastName,
		FirstName: r.FirstName,
		Phone:     r.Phone,
		Time:      r.Time.Format(WireLayout),
	}
}

func toSlotsResponse(cal domain.SlotCalendar) map[string][]string {
	out := make(map[string][]string, len(cal))
	for day, slots := range cal {
		formatted := make([]string, 0, len(slots))
		for _, s := range slots {
			formatted = append(formatted, s.Format(SlotLayout))
		}
		out[day] = formatted
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("response encode failed", slog.Any("err", err))
	}
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
