package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/hutangku/internal/catalog"
	"github.com/Dan9191/hutangku/internal/config"
	"github.com/Dan9191/hutangku/internal/handler"
	"github.com/Dan9191/hutangku/internal/middleware"
	"github.com/Dan9191/hutangku/internal/reminder"
	"github.com/Dan9191/hutangku/internal/repository"
	"github.com/Dan9191/hutangku/internal/service"
	"github.com/Dan9191/hutangku/internal/utils/email"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize store
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := repository.Open(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	cat, err := catalog.LoadOrDefault(cfg.CompaniesFile)
	if err != nil {
		logger.Fatalf("Failed to load company catalog: %v", err)
	}

	// Initialize layers
	svc := service.NewService(store, logger, cfg, cat)
	h := handler.NewHandler(svc, logger)

	// Reminders
	notifiers := []reminder.Notifier{reminder.NewLogNotifier(logger)}
	if cfg.EmailEnabled() {
		notifiers = append(notifiers, email.NewSender(cfg, logger))
	}
	job := reminder.NewJob(svc, logger, notifiers...)
	if cfg.ReminderSchedule != "" {
		if err := job.Start(cfg.ReminderSchedule); err != nil {
			logger.Fatalf("Failed to schedule reminders: %v", err)
		}
		defer job.Stop()
	}

	// Setup router
	var auth = middleware.AuthMiddleware(cfg)
	if !cfg.AuthEnabled() {
		logger.Warn("JWT_SECRET is not set, API is open")
		auth = nil
	}
	router := handler.NewRouter(h, logger, cfg.CORSOrigins, auth)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}
