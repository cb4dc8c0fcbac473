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

	"lms-backend/internal/config"
	"lms-backend/internal/database"
	"lms-backend/internal/handlers"
	"lms-backend/internal/middleware"
	"lms-backend/internal/repository"
	"lms-backend/internal/router"
	"lms-backend/internal/services"
	"lms-backend/internal/websocket"
	"lms-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting LMS Completion Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL, int32(cfg.DatabaseMaxConns))
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
	if err := database.RunMigrations(pool); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 5: Connect Kafka (optional) ────
	kafkaClient, err := database.NewKafkaClient(cfg.KafkaBrokers)
	if err != nil {
		log.Fatalf("✗ Kafka connection failed: %v", err)
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		log.Printf("✓ Kafka connected (topic: %s)", cfg.KafkaSuspiciousTopic)
	} else {
		log.Println("✓ Kafka disabled")
	}

	// ──── Initialize Repositories ────
	eventRepo := repository.NewLearningEventRepo(pool)
	subjectRepo := repository.NewSubjectRepo(pool)
	activityRepo := repository.NewSuspiciousActivityRepo(pool)
	completionRepo := repository.NewCompletionRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Initialize Services ────
	policy := services.DefaultCompletionPolicy()
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	updates := services.NewUpdatePublisher(redisClients.Queue)

	metadata := services.NewSubjectMetadataService(
		subjectRepo,
		services.NewPDFPageCounter(cfg.StoragePath),
		services.NewYouTubeDurationLookup(),
	)
	pdfValidator := services.NewPDFValidator(eventRepo, metadata, policy)
	videoValidator := services.NewVideoValidator(eventRepo, metadata, policy, cfg.VideoFallbackDurationSeconds, cfg.ValidationConcurrency)
	detector := services.NewSuspiciousActivityDetector(policy)

	var recorder *services.ActivityRecorder
	if kafkaClient != nil {
		recorder = services.NewActivityRecorder(activityRepo, updates, services.NewKafkaActivitySink(kafkaClient, cfg.KafkaSuspiciousTopic))
	} else {
		recorder = services.NewActivityRecorder(activityRepo, updates)
	}

	// ──── Initialize Handlers ────
	eventHandler := handlers.NewLearningEventHandler(eventRepo, detector, recorder)
	completionHandler := handlers.NewCompletionHandler(pdfValidator, videoValidator, completionRepo, jobRepo, redisClients.Queue)
	activityHandler := handlers.NewSuspiciousActivityHandler(activityRepo)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		pdfValidator,
		videoValidator,
		jobRepo,
		completionRepo,
		updates,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	ingestLimiter := middleware.NewRateLimiter(cfg.IngestRateLimit, time.Minute)
	defer ingestLimiter.Stop()

	r := router.New(
		jwtAuth,
		eventHandler,
		completionHandler,
		activityHandler,
		wsHub,
		ingestLimiter,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ LMS Completion Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
