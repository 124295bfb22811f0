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

	"github.com/google/uuid"

	"newvision-backend/internal/config"
	"newvision-backend/internal/database"
	"newvision-backend/internal/events"
	"newvision-backend/internal/handlers"
	"newvision-backend/internal/middleware"
	"newvision-backend/internal/models"
	"newvision-backend/internal/repository"
	"newvision-backend/internal/router"
	"newvision-backend/internal/services"
	"newvision-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting New Vision Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	chatRepo := repository.NewChatRepo(pool)
	messageRepo := repository.NewMessageRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	inferenceClient := services.NewInferenceClient(cfg.InferenceURL)
	chatManager := services.NewChatManager(chatRepo, messageRepo)
	orchestrator := services.NewOrchestrator(chatRepo, messageRepo, inferenceClient)

	// ──── Step 5: Start Event Dispatcher ────
	dispatcher := events.NewDispatcher(redisClients.Publisher, 3, 256)
	dispatcher.Start()
	log.Println("✓ Event dispatcher started (3 goroutines)")

	orchestrator.OnCommit = func(userID uuid.UUID, m models.Message) {
		dispatcher.Publish(events.Event{
			UserID: userID,
			Message: models.WSMessage{
				Type:    models.WSMessageCommitted,
				Payload: models.MessageCommittedEvent{ChatID: m.ChatID, Message: m},
			},
		})
	}
	orchestrator.OnChatUpdated = func(userID uuid.UUID, c models.Chat) {
		dispatcher.Publish(events.Event{
			UserID: userID,
			Message: models.WSMessage{
				Type:    models.WSChatUpdated,
				Payload: models.ChatUpdatedEvent{ChatID: c.ID, Title: c.Title, UpdatedAt: c.UpdatedAt},
			},
		})
	}

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.Subscriber, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(chatManager, orchestrator, chatRepo)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(jwtAuth, chatHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // sends wait on the inference endpoint
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		dispatcher.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ New Vision Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
