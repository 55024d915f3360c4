package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"family-meal-planner/internal/app"
	"family-meal-planner/internal/config"
	"family-meal-planner/internal/telegram"
)

func main() {
	// 1. Load Configuration
	config.LoadDotEnv()
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("Invalid Telegram config: %v", err)
	}

	// 2. Initialize Services
	svc, err := app.Open(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	// 3. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, svc.Planner, svc.Children, svc.Clipper, svc.Metrics)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	// 4. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
