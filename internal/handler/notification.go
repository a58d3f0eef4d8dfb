package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskflow/internal/command"
	"taskflow/internal/model"
	"taskflow/internal/relay"
	"taskflow/pkg/respond"
)

type NotificationHandler struct {
	bus    relay.Relay
	logger *zap.Logger
}

func NewNotificationHandler(bus relay.Relay, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{bus: bus, logger: logger}
}

func (h *NotificationHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Patch("/mark-all-read", h.MarkAllRead)
	r.Patch("/{id}/read", h.MarkRead)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFrom(r.Context())

	var feed model.NotificationFeed
	err := h.bus.Request(r.Context(), command.NotificationUserList,
		command.UserListPayload{UserID: userID}, &feed)
	if err != nil {
		respond.AppError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, feed)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid notification id")
		return
	}

	userID, _ := UserFrom(r.Context())
	err = h.bus.Request(r.Context(), command.NotificationMarkRead,
		command.MarkReadPayload{NotificationID: id, UserID: userID}, nil)
	if err != nil {
		respond.AppError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFrom(r.Context())

	err := h.bus.Request(r.Context(), command.NotificationMarkAllRead,
		command.MarkAllReadPayload{UserID: userID}, nil)
	if err != nil {
		respond.AppError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}
