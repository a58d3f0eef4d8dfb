package realtime

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"taskflow/internal/auth"
	"taskflow/internal/forward"
	"taskflow/internal/model"
	"taskflow/pkg/respond"
)

type Handler struct {
	hub      *Hub
	verifier *auth.Verifier
	secret   string
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHandler(hub *Hub, verifier *auth.Verifier, internalSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
		secret:   internalSecret,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Routes монтирует сокет и внутренние эндпоинты пересылки
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ws", h.ServeWS)
	r.Route("/internal/notify", func(r chi.Router) {
		r.Use(h.requireInternalSecret)
		r.Post("/task-created", h.notify(model.EventTaskCreated, h.hub.EmitTaskCreated))
		r.Post("/task-updated", h.notify(model.EventTaskUpdated, h.hub.EmitTaskUpdated))
		r.Post("/comment-new", h.notify(model.EventCommentCreated, h.hub.EmitCommentNew))
	})
}

// ServeWS аутентифицирует хендшейк и поднимает соединение.
// Невалидный токен - соединение не состоится вовсе.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := handshakeToken(r)
	if token == "" {
		respond.Error(w, r, http.StatusUnauthorized, "missing token")
		return
	}

	userID, err := h.verifier.Verify(token)
	if err != nil {
		// Причина остается в логе, клиенту только отказ
		h.logger.Warn("socket auth failed", zap.Error(err))
		respond.Error(w, r, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h.hub, conn, userID)
	h.hub.join(client)
	go client.writePump()
	go client.readPump()
}

func handshakeToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

// requireInternalSecret пропускает всех, пока секрет не настроен
func (h *Handler) requireInternalSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.secret != "" && r.Header.Get(forward.SecretHeader) != h.secret {
			respond.Error(w, r, http.StatusUnauthorized, "invalid internal secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) notify(eventType model.EventType, emit func(model.DomainEvent) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event model.DomainEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			respond.Error(w, r, http.StatusBadRequest, "invalid json")
			return
		}
		// Тип события определяется маршрутом, а не телом
		event.Type = eventType
		emit(event)
		respond.JSON(w, r, http.StatusAccepted, map[string]bool{"ok": true})
	}
}
