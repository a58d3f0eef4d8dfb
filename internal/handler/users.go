package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"taskflow/internal/command"
	"taskflow/internal/relay"
	"taskflow/pkg/respond"
)

// UserHandler проксирует поиск пользователей во внешний auth-сервис через шину.
type UserHandler struct {
	bus    relay.Relay
	logger *zap.Logger
}

func NewUserHandler(bus relay.Relay, logger *zap.Logger) *UserHandler {
	return &UserHandler{bus: bus, logger: logger}
}

func (h *UserHandler) Routes(r chi.Router) {
	r.Post("/find-many", h.FindMany)
}

func (h *UserHandler) FindMany(w http.ResponseWriter, r *http.Request) {
	var payload command.FindUsersPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	var users []command.FoundUser
	err := h.bus.Request(r.Context(), command.AuthUsersFindMany, payload, &users)
	if err != nil {
		respond.AppError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, users)
}
