// Package forward - best-effort доставка пуш-событий в реалтайм-шлюз.
// Пробует основной адрес, затем запасной; при неудаче обоих логирует
// и отбрасывает событие. Очереди повторов нет.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskflow/internal/model"
)

const SecretHeader = "x-internal-secret"

type Forwarder struct {
	client  *http.Client
	bases   []string
	secret  string
	timeout time.Duration
	logger  *zap.Logger
}

func New(baseURL, fallbackURL, secret string, timeout time.Duration, logger *zap.Logger) *Forwarder {
	if timeout <= 0 {
		timeout = 2500 * time.Millisecond
	}
	bases := []string{}
	for _, b := range []string{baseURL, fallbackURL} {
		if b != "" {
			bases = append(bases, strings.TrimRight(b, "/"))
		}
	}
	return &Forwarder{
		client:  &http.Client{},
		bases:   bases,
		secret:  secret,
		timeout: timeout,
		logger:  logger,
	}
}

func pathFor(t model.EventType) string {
	switch t {
	case model.EventTaskCreated:
		return "/internal/notify/task-created"
	case model.EventTaskUpdated:
		return "/internal/notify/task-updated"
	case model.EventCommentCreated:
		return "/internal/notify/comment-new"
	}
	return ""
}

// Forward шлет событие шлюзу. Тело ответа игнорируется, важен только
// статус; ошибка никогда не доходит до пользователя.
func (f *Forwarder) Forward(ctx context.Context, event model.DomainEvent) {
	path := pathFor(event.Type)
	if path == "" {
		f.logger.Warn("no forward path for event type", zap.String("type", string(event.Type)))
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("failed to marshal push payload", zap.Error(err))
		return
	}

	var attempts []string
	for _, base := range f.bases {
		url := base + path
		if err := f.post(ctx, url, body); err != nil {
			attempts = append(attempts, fmt.Sprintf("%s -> %v", url, err))
			continue
		}
		return // успех
	}

	f.logger.Warn("failed to forward push to gateway",
		zap.String("task_id", event.TaskID.String()),
		zap.Strings("attempts", attempts),
	)
}

func (f *Forwarder) post(ctx context.Context, url string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.secret != "" {
		req.Header.Set(SecretHeader, f.secret)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
