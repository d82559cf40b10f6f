package api

import (
	"errors"
	"net/http"

	"github.com/promedvoice/clinic-console/internal/clinic"
)

// handleServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, not-found 404, state conflicts 409, everything else 500.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clinic.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, clinic.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, clinic.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, clinic.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, clinic.ErrSettingNotFound):
		writeError(w, http.StatusNotFound, "setting_not_found", err.Error())
	case errors.Is(err, clinic.ErrBookingCancelled):
		writeError(w, http.StatusConflict, "booking_cancelled", err.Error())
	case errors.Is(err, clinic.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, clinic.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, clinic.ErrDoctorInUse):
		writeError(w, http.StatusConflict, "doctor_in_use", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
