package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskflow/internal/config"
	"taskflow/internal/forward"
	"taskflow/internal/notifier"
	"taskflow/internal/relay"
	"taskflow/internal/repo"
	"taskflow/internal/service"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg := config.Load()

	// Подключаем БД
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Database.")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("Failed to ping the Database.")
	}
	logger.Info("Successfully connected to the Database!")

	// Подключаем шину
	bus, err := relay.ConnectNats(cfg.NatsURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to NATS: ", zap.Error(err))
	}
	defer bus.Close()

	pusher := forward.New(cfg.GatewayBaseURL, cfg.GatewayFallbackURL, cfg.InternalSecret, cfg.ForwardTimeout, logger)
	notifications := service.NewNotificationService(repo.NewNotificationRepo(pool), pusher, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Пул воркеров потребляет события задач
	workers := notifier.NewPool(notifications, bus, logger, cfg.WorkerCount)
	if err := workers.Start(ctx); err != nil {
		logger.Fatal("Failed to start worker pool: ", zap.Error(err))
	}

	// Команды ленты уведомлений
	commands := notifier.NewCommands(notifications, logger)
	if err := commands.Register(bus); err != nil {
		logger.Fatal("Failed to register command handlers: ", zap.Error(err))
	}
	logger.Info("Notifier started", zap.Int("workers", cfg.WorkerCount))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down notifier...")
	cancel()
	workers.Stop()
	logger.Info("Notifier stopped succsessfully!")
}
