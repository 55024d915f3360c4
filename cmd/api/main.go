package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"family-meal-planner/internal/api"
	"family-meal-planner/internal/app"
	"family-meal-planner/internal/config"
)

func main() {
	issueToken := flag.String("issue-token", "", "Print a bearer token for the given parent id and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of tokens printed with -issue-token")
	flag.Parse()

	// 1. Load Configuration
	config.LoadDotEnv()
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireAPI(); err != nil {
		log.Fatalf("Invalid API config: %v", err)
	}

	if *issueToken != "" {
		token, err := api.GenerateToken(cfg.JWTSecret, *issueToken, *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	// 2. Initialize Services
	svc, err := app.Open(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	router := api.NewRouter(api.Dependencies{
		Planner:        svc.Planner,
		Children:       svc.Children,
		Recipes:        svc.Recipes,
		Importer:       svc.Clipper,
		Metrics:        svc.Metrics,
		DataDir:        filepath.Dir(cfg.DatabasePath),
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// 3. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 API server listening on port %s", cfg.Port)
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
