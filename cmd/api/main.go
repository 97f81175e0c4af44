package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/freshpick/smartshop/backend/internal/config"
	"github.com/freshpick/smartshop/backend/internal/handler"
	chathandler "github.com/freshpick/smartshop/backend/internal/handler/chat"
	"github.com/freshpick/smartshop/backend/internal/service/ai"
	chatservice "github.com/freshpick/smartshop/backend/internal/service/chat"
	"github.com/freshpick/smartshop/backend/internal/service/preferences"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logrus.New()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Warn("failed to load .env file, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	chatSvc := chatservice.NewService()
	prefClient := preferences.NewClient(cfg.Preferences.BaseURL, log)

	gemini := ai.NewGeminiClient(cfg.AI.APIKey, cfg.AI.Model)
	aiSvc := ai.NewService(gemini, cfg.AI, log)
	log.WithField("model", cfg.AI.Model).Info("generation service initialized")

	chatHandler := chathandler.New(chatSvc, prefClient, aiSvc, cfg.AI.MaxHistoryTurns, log)
	router := handler.NewRouter(chatHandler)

	startServer(ctx, cfg.Server, router, log)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log *logrus.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.WithField("addr", serverCfg.Addr).Info("chat proxy listening")
	if err := runServer(ctx, srv); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
