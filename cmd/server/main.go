package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/sketchrelay/sketchrelay/internal/config"
	"github.com/sketchrelay/sketchrelay/internal/database"
	"github.com/sketchrelay/sketchrelay/internal/handlers"
	"github.com/sketchrelay/sketchrelay/internal/relay"
	"github.com/sketchrelay/sketchrelay/internal/repositories"
	"github.com/sketchrelay/sketchrelay/internal/services"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create postgres pool: %v", err)
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create redis client: %v", err)
	}
	defer redisClient.Close()

	// Repositories and services
	userRepo := repositories.NewPostgresUserRepository(postgresPool)
	whiteboardRepo := repositories.NewPostgresWhiteboardRepository(postgresPool)
	elementRepo := repositories.NewPostgresElementRepository(postgresPool)
	presenceRepo := repositories.NewRedisPresenceRepository(redisClient)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry)
	hub := relay.NewHub(presenceRepo, elementRepo)

	// Initialize HTTP Server
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Health check endpoints
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.Route("/api", func(r chi.Router) {
		r.Mount("/auth", handlers.NewAuthHandler(authService, userRepo).Routes())
		r.Mount("/sessions", handlers.NewSessionHandler(authService, whiteboardRepo, elementRepo, hub).Routes())
		r.Mount("/relay", handlers.NewWSHandler(hub, authService, cfg.AllowedOrigin).Routes())
	})

	// Start Server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}
