package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"taskflow/internal/auth"
	"taskflow/internal/config"
	"taskflow/internal/handler"
	"taskflow/internal/realtime"
	"taskflow/internal/relay"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg := config.Load()

	// Подключаем шину
	bus, err := relay.ConnectNats(cfg.NatsURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to NATS: ", zap.Error(err))
	}
	defer bus.Close()

	verifier := auth.NewVerifier(cfg.JWTSecret)
	hub := realtime.NewHub(logger)

	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	// Вебсокеты и внутренние пуши от notifier
	realtime.NewHandler(hub, verifier, cfg.InternalSecret, logger).Routes(r)

	// REST поверх команд шины
	r.Route("/api", func(r chi.Router) {
		r.Use(handler.RequireAuth(verifier))
		r.Route("/tasks", handler.NewTaskHandler(bus, logger).Routes)
		r.Route("/notifications", handler.NewNotificationHandler(bus, logger).Routes)
		r.Route("/users", handler.NewUserHandler(bus, logger).Routes)
	})

	srv := http.Server{ // Создаем сервер
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Gateway started at ", zap.String("port", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down gateway...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error: ", zap.Error(err))
	}
	logger.Info("Gateway stopped succsessfully!")
}
