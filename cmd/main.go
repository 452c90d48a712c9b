// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/campus-events/platform/internal/auth"
	"github.com/campus-events/platform/internal/config"
	"github.com/campus-events/platform/internal/database"
	"github.com/campus-events/platform/internal/handler"
	"github.com/campus-events/platform/internal/notify"
	"github.com/campus-events/platform/internal/repository"
	"github.com/campus-events/platform/internal/service"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("connect to database")
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.WithError(err).Fatal("apply schema")
	}
	log.Info("connected to postgres")

	// Repositories.
	eventRepo := repository.NewEventRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)

	// Collaborators.
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	discord := notify.NewDiscordWebhook(cfg.Notify.DiscordWebhookTimeout)
	notifier := notify.NewService(&notify.LogSender{Log: log}, discord, log)

	// Services.
	authSvc := service.NewAuthService(userRepo, tokens, log)
	eventSvc := service.NewEventService(eventRepo, userRepo, notifier, log)
	regSvc := service.NewRegistrationService(eventRepo, ticketRepo, teamRepo, userRepo, notifier, log)
	teamSvc := service.NewTeamService(eventRepo, teamRepo, ticketRepo, userRepo, notifier, log)
	feedbackSvc := service.NewFeedbackService(eventRepo, ticketRepo, feedbackRepo, log)

	// Handlers and router.
	r := handler.Routes(
		tokens,
		handler.NewAuthHandler(authSvc, log),
		handler.NewEventHandler(eventSvc, regSvc, feedbackSvc, log),
		handler.NewTeamHandler(teamSvc, log),
		handler.NewTicketHandler(regSvc, log),
		log,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("graceful shutdown failed")
	}
	log.Info("server stopped")
}
