package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wolfeidau/sensordash/internal/models"
	"github.com/wolfeidau/sensordash/internal/store"
)

const (
	msgDatabaseError = "Database error."
	msgSensorCreated = "Sensor data created."
	msgUserCreated   = "User created."
	msgUserExists    = "User already exists."
)

func formError(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrInvalidInput, field, err)
}

func (h *handlers) sensorAPIRoutes(r chi.Router) {
	r.Get("/", h.listReadingsJSON)
	r.Post("/", h.createReadingJSON)
}

func (h *handlers) userAPIRoutes(r chi.Router) {
	r.Get("/", h.listUsersJSON)
	r.Post("/", h.createUserJSON)
}

func (h *handlers) listReadingsJSON(w http.ResponseWriter, r *http.Request) {
	readings, err := h.state.Store().ListRecentReadings(r.Context(), store.DefaultRecentReadings)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list sensor readings")
		writeStatus(w, r, http.StatusInternalServerError, msgDatabaseError)
		return
	}

	writeJSON(w, r, http.StatusOK, readings)
}

func (h *handlers) createReadingJSON(w http.ResponseWriter, r *http.Request) {
	var in models.CreateReadingInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.state.Store().CreateReading(r.Context(), in); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	writeStatus(w, r, http.StatusCreated, msgSensorCreated)
}

func (h *handlers) listUsersJSON(w http.ResponseWriter, r *http.Request) {
	users, err := h.state.Store().ListUsers(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list users")
		writeStatus(w, r, http.StatusInternalServerError, msgDatabaseError)
		return
	}

	writeJSON(w, r, http.StatusOK, users)
}

func (h *handlers) createUserJSON(w http.ResponseWriter, r *http.Request) {
	var in models.CreateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.state.Store().CreateUser(r.Context(), in); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	writeStatus(w, r, http.StatusCreated, msgUserCreated)
}

func (h *handlers) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		writeStatus(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUserAlreadyExists):
		writeStatus(w, r, http.StatusConflict, msgUserExists)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("api store error")
		writeStatus(w, r, http.StatusInternalServerError, msgDatabaseError)
	}
}
