// Package relay - шина сообщений между сервисами. Два режима:
// команды (request/reply с типизированным Result) и события
// (fire-and-forget, ноль и более потребителей).
package relay

import (
	"context"
	"errors"

	"taskflow/internal/apperr"
)

var ErrTimeout = errors.New("relay: request timeout")

// CommandHandler обрабатывает команду и возвращает конверт результата.
// Ошибки через границу очереди не летят - только Result.
type CommandHandler func(ctx context.Context, data []byte) apperr.Result

// EventHandler обрабатывает событие. Ответа нет; паника или ошибка
// одного события не должна валить потребителя.
type EventHandler func(ctx context.Context, data []byte)

type Relay interface {
	// Request отправляет команду и блокируется до ответа.
	// Ответ {ok:false} разворачивается в *apperr.AppError.
	Request(ctx context.Context, subject string, payload any, out any) error

	// Publish отправляет событие без ожидания подтверждения
	Publish(subject string, payload any) error

	// HandleCommand регистрирует единственного владельца субъекта команды
	HandleCommand(subject string, h CommandHandler) error

	// HandleEvent регистрирует потребителя событий в группе queue
	HandleEvent(subject, queue string, h EventHandler) error

	Close()
}
