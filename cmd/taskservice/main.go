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
	"taskflow/internal/relay"
	"taskflow/internal/repo"
	"taskflow/internal/service"
	"taskflow/internal/taskmsg"
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
		log.Fatal("Failed to connect to Database.") // Fatal потому что дальнейшая работа теряет смысл
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

	tasks := service.NewTaskService(repo.NewTaskRepo(pool), repo.NewAuditRepo(pool), bus, logger)
	comments := service.NewCommentService(repo.NewCommentRepo(pool), repo.NewTaskRepo(pool), bus, logger)

	consumer := taskmsg.NewConsumer(tasks, comments, logger)
	if err := consumer.Register(bus); err != nil {
		logger.Fatal("Failed to register command handlers: ", zap.Error(err))
	}
	logger.Info("Task service is listening for commands")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down task service...")
	logger.Info("Task service stopped succsessfully!")
}
