// Package realtime держит живые соединения и комнаты по пользователям.
// Состояние только в памяти процесса: комната создается при успешной
// аутентификации и умирает вместе с соединением.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskflow/internal/model"
)

// Frame - кадр, уходящий клиенту по сокету
type Frame struct {
	Event string            `json:"event"`
	Data  model.DomainEvent `json:"data"`
}

type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

func RoomFor(userID uuid.UUID) string {
	return "user:" + userID.String()
}

func (h *Hub) join(c *Client) {
	room := RoomFor(c.userID)
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("socket joined room",
		zap.String("room", room),
		zap.String("user_id", c.userID.String()),
	)
}

func (h *Hub) leave(c *Client) {
	room := RoomFor(c.userID)
	h.mu.Lock()
	if clients, ok := h.rooms[room]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
}

// RoomSize возвращает число живых соединений в комнате пользователя
func (h *Hub) RoomSize(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[RoomFor(userID)])
}

// broadcast доставляет кадр во все перечисленные комнаты.
// Пустой набор получателей - ноль сетевого трафика.
func (h *Hub) broadcast(event string, e model.DomainEvent, recipients []uuid.UUID) int {
	if len(recipients) == 0 {
		return 0
	}

	payload, err := json.Marshal(Frame{Event: event, Data: e})
	if err != nil {
		h.logger.Error("failed to marshal frame", zap.Error(err))
		return 0
	}

	delivered := 0
	h.mu.RLock()
	for _, userID := range recipients {
		for c := range h.rooms[RoomFor(userID)] {
			select {
			case c.send <- payload:
				delivered++
			default:
				// Медленный клиент: кадр отбрасываем, соединение живет
				h.logger.Warn("send buffer full, frame dropped",
					zap.String("user_id", userID.String()))
			}
		}
	}
	h.mu.RUnlock()

	h.logger.Info("broadcast",
		zap.String("event", event),
		zap.String("task_id", e.TaskID.String()),
		zap.Int("rooms", len(recipients)),
		zap.Int("delivered", delivered),
	)
	return delivered
}

// EmitTaskCreated шлет task:created всем назначенным, кроме создателя
func (h *Hub) EmitTaskCreated(e model.DomainEvent) int {
	return h.broadcast("task:created", e, e.Recipients())
}

// EmitTaskUpdated шлет task:updated всем назначенным, кроме автора изменения
func (h *Hub) EmitTaskUpdated(e model.DomainEvent) int {
	return h.broadcast("task:updated", e, e.Recipients())
}

// EmitCommentNew шлет comment:new всем назначенным, кроме автора комментария
func (h *Hub) EmitCommentNew(e model.DomainEvent) int {
	return h.broadcast("comment:new", e, e.Recipients())
}
