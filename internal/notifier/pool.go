// Package notifier - потребитель доменных событий. Пул воркеров
// разбирает события шины и материализует уведомления; ошибка одного
// события логируется и не блокирует остальные.
package notifier

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"taskflow/internal/command"
	"taskflow/internal/model"
	"taskflow/internal/relay"
	"taskflow/internal/service"
)

const queueGroup = "notifier"

type Pool struct {
	notifications *service.NotificationService
	relay         relay.Relay
	logger        *zap.Logger
	count         int
	queue         chan []byte
	wg            sync.WaitGroup
	stop          chan struct{}
}

func NewPool(notifications *service.NotificationService, bus relay.Relay, logger *zap.Logger, count int) *Pool {
	if count <= 0 {
		count = 1
	}
	return &Pool{
		notifications: notifications,
		relay:         bus,
		logger:        logger,
		count:         count,
		queue:         make(chan []byte, 64),
		stop:          make(chan struct{}),
	}
}

// Start подписывается на субъекты событий и поднимает воркеров
func (p *Pool) Start(ctx context.Context) error {
	p.logger.Info("Starting notifier pool", zap.Int("workers", p.count))

	subjects := []string{
		command.EventTaskCreate,
		command.EventTaskUpdate,
		command.EventTaskComment,
	}
	for _, subject := range subjects {
		if err := p.relay.HandleEvent(subject, queueGroup, p.enqueue); err != nil {
			return err
		}
	}

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	return nil
}

func (p *Pool) Stop() {
	p.logger.Info("Stopping notifier pool...")
	close(p.stop)
	p.wg.Wait()
	p.logger.Info("Notifier pool stopped")
}

func (p *Pool) enqueue(ctx context.Context, data []byte) {
	select {
	case p.queue <- data:
	case <-p.stop:
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case data := <-p.queue:
			p.process(ctx, id, data)
		}
	}
}

// process разбирает и обрабатывает одно событие; ничего не пробрасывает
func (p *Pool) process(ctx context.Context, workerID int, data []byte) {
	var event model.DomainEvent
	if err := json.Unmarshal(data, &event); err != nil {
		p.logger.Error("failed to decode domain event",
			zap.Int("worker", workerID), zap.Error(err))
		return
	}

	if err := p.notifications.HandleEvent(ctx, event); err != nil {
		// Без dead-letter: событие теряется, фиксируем в логе
		p.logger.Error("failed to process domain event",
			zap.Int("worker", workerID),
			zap.String("type", string(event.Type)),
			zap.String("task_id", event.TaskID.String()),
			zap.Error(err),
		)
	}
}
