package relay

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"taskflow/internal/apperr"
)

const defaultRequestTimeout = 10 * time.Second

// NatsRelay - реализация шины поверх NATS
type NatsRelay struct {
	nc     *nats.Conn
	logger *zap.Logger
	subs   []*nats.Subscription
}

func ConnectNats(url string, logger *zap.Logger) (*NatsRelay, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NatsRelay{nc: nc, logger: logger}, nil
}

func (r *NatsRelay) Request(ctx context.Context, subject string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultRequestTimeout)
		defer cancel()
	}

	msg, err := r.nc.RequestWithContext(ctx, subject, body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	}

	var res apperr.Result
	if err := json.Unmarshal(msg.Data, &res); err != nil {
		return err
	}
	return res.Decode(out)
}

func (r *NatsRelay) Publish(subject string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.nc.Publish(subject, body)
}

func (r *NatsRelay) HandleCommand(subject string, h CommandHandler) error {
	// Группа по имени субъекта: один обработчик на команду,
	// реплики одного сервиса делят нагрузку
	sub, err := r.nc.QueueSubscribe(subject, subject, func(msg *nats.Msg) {
		res := h(context.Background(), msg.Data)
		reply, err := json.Marshal(res)
		if err != nil {
			r.logger.Error("failed to marshal command reply",
				zap.String("subject", subject), zap.Error(err))
			reply, _ = json.Marshal(apperr.Err(apperr.Internal("reply encoding failed")))
		}
		if err := msg.Respond(reply); err != nil {
			r.logger.Error("failed to respond to command",
				zap.String("subject", subject), zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	r.subs = append(r.subs, sub)
	return nil
}

func (r *NatsRelay) HandleEvent(subject, queue string, h EventHandler) error {
	sub, err := r.nc.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		h(context.Background(), msg.Data)
	})
	if err != nil {
		return err
	}
	r.subs = append(r.subs, sub)
	return nil
}

func (r *NatsRelay) Close() {
	for _, sub := range r.subs {
		sub.Unsubscribe()
	}
	r.nc.Drain()
}
