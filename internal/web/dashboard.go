package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wolfeidau/sensordash/internal/models"
	"github.com/wolfeidau/sensordash/internal/store"
	"github.com/wolfeidau/sensordash/internal/templates"
)

const (
	dashboardTitle   = "Sensor Dashboard"
	dashboardWelcome = "Welcome to the dashboard."
)

func (h *handlers) dashboardRoutes(r chi.Router) {
	r.Get("/", h.dashboard)
	r.Post("/add", h.addReading)
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	readings, err := h.state.Store().ListRecentReadings(r.Context(), store.DefaultRecentReadings)
	if err != nil {
		// the page still renders, just without readings
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list sensor readings")
		readings = []*models.SensorReading{}
	}

	h.renderPage(w, r, dashboardTemplate, templates.Context{
		"title":   dashboardTitle,
		"content": dashboardWelcome,
		"sensors": readings,
	})
}

func (h *handlers) addReading(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	in, err := parseReadingForm(w, r)
	if err != nil {
		log.Warn().Err(err).Msg("invalid sensor form")
		h.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	reading, err := h.state.Store().CreateReading(r.Context(), in)
	if err != nil {
		log.Error().Err(err).Msg("failed to insert sensor data")
	} else {
		log.Info().Int64("id", reading.ID).Msg("sensor data added")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func parseReadingForm(w http.ResponseWriter, r *http.Request) (models.CreateReadingInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return models.CreateReadingInput{}, err
	}

	temperature, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("temperature")), 64)
	if err != nil {
		return models.CreateReadingInput{}, formError("temperature", err)
	}

	heartRate, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("heart_rate")), 10, 32)
	if err != nil {
		return models.CreateReadingInput{}, formError("heart_rate", err)
	}

	return models.CreateReadingInput{Temperature: temperature, HeartRate: int32(heartRate)}, nil
}
