package relay

import (
	"context"
	"encoding/json"
	"sync"

	"taskflow/internal/apperr"
)

// MemoryRelay - внутрипроцессная шина для тестов и локального запуска
// без брокера. Команды выполняются синхронно, события - синхронно для
// всех подписчиков (одного на группу).
type MemoryRelay struct {
	mu       sync.RWMutex
	commands map[string]CommandHandler
	events   map[string]map[string]EventHandler // subject -> queue -> handler
}

func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{
		commands: make(map[string]CommandHandler),
		events:   make(map[string]map[string]EventHandler),
	}
}

func (r *MemoryRelay) Request(ctx context.Context, subject string, payload any, out any) error {
	r.mu.RLock()
	h, ok := r.commands[subject]
	r.mu.RUnlock()
	if !ok {
		return apperr.Internal("no handler for " + subject)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// Туда-обратно через JSON, как сделал бы брокер
	res := h(ctx, body)
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	var decoded apperr.Result
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	return decoded.Decode(out)
}

func (r *MemoryRelay) Publish(subject string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	r.mu.RLock()
	handlers := make([]EventHandler, 0, len(r.events[subject]))
	for _, h := range r.events[subject] {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		h(context.Background(), body)
	}
	return nil
}

func (r *MemoryRelay) HandleCommand(subject string, h CommandHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[subject] = h
	return nil
}

func (r *MemoryRelay) HandleEvent(subject, queue string, h EventHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events[subject] == nil {
		r.events[subject] = make(map[string]EventHandler)
	}
	r.events[subject][queue] = h
	return nil
}

func (r *MemoryRelay) Close() {}
