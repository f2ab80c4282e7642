package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/sensordash/internal/templates"
)

const maxBodyBytes = 64 * 1024

// statusMessage is the JSON body of API write responses.
type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write json response")
	}
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	result := "success"
	if status >= http.StatusBadRequest {
		result = "error"
	}
	writeJSON(w, r, status, statusMessage{Status: result, Message: message})
}

// decodeJSON reads a single JSON object from the request body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// renderPage renders a full page through the shared state. On failure the error page is
// rendered from the last good template set, falling back to plain text.
func (h *handlers) renderPage(w http.ResponseWriter, r *http.Request, name string, data templates.Context) {
	out, err := h.state.RenderPage(name, data)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("failed to render page")
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

func (h *handlers) renderError(w http.ResponseWriter, r *http.Request, status int, cause error) {
	message := http.StatusText(status)
	if h.state.Dev() && cause != nil {
		message = cause.Error()
	}

	out, err := h.state.Templates().Render(errorTemplate, templates.Context{
		"title":   http.StatusText(status),
		"status":  status,
		"message": message,
	})
	if err != nil {
		http.Error(w, message, status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, out)
}
