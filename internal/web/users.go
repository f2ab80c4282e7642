package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wolfeidau/sensordash/internal/models"
	"github.com/wolfeidau/sensordash/internal/templates"
)

func (h *handlers) userRoutes(r chi.Router) {
	r.Get("/", h.users)
	r.Post("/add", h.addUser)
}

func (h *handlers) users(w http.ResponseWriter, r *http.Request) {
	users, err := h.state.Store().ListUsers(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list users")
		users = []*models.User{}
	}

	h.renderPage(w, r, usersTemplate, templates.Context{
		"title": "Users",
		"users": users,
	})
}

func (h *handlers) addUser(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("invalid user form")
		h.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	user, err := h.state.Store().CreateUser(r.Context(), models.CreateUserInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create user")
	} else {
		log.Info().Int64("id", user.ID).Str("username", user.Username).Msg("user added")
	}

	http.Redirect(w, r, "/users", http.StatusSeeOther)
}
