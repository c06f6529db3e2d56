package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/agritech-golang/internal/ai"
	"github.com/01moynul/agritech-golang/internal/auth"
	"github.com/01moynul/agritech-golang/internal/config"
	"github.com/01moynul/agritech-golang/internal/content"
	"github.com/01moynul/agritech-golang/internal/database"
	"github.com/01moynul/agritech-golang/internal/diagnosis"
	"github.com/01moynul/agritech-golang/internal/email"
	"github.com/01moynul/agritech-golang/internal/handlers"
	"github.com/01moynul/agritech-golang/internal/kafka"
	"github.com/01moynul/agritech-golang/internal/orders"
	"github.com/01moynul/agritech-golang/internal/routes"
	"github.com/01moynul/agritech-golang/internal/session"
	"github.com/01moynul/agritech-golang/internal/storage"
	"github.com/01moynul/agritech-golang/internal/vision"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 0. --- Configuration ---
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 1. --- Main Database Connection (Read/Write) ---
	db, err := database.OpenDB(cfg.PrimaryDSN)
	if err != nil {
		log.Fatalf("Failed to connect to primary database: %v", err)
	}
	defer db.Close()

	// 2. --- AI Database Connection (Read-Only) ---
	dbReadOnly := db
	if cfg.ReadOnlyDSN == "" {
		log.Println("WARNING: DB_DSN_READONLY is not set. The AI assistant will query through the primary pool.")
	} else {
		dbReadOnly, err = database.OpenDBWithDSN(cfg.ReadOnlyDSN)
		if err != nil {
			log.Fatalf("Failed to connect to read-only database: %v", err)
		}
		defer dbReadOnly.Close()
	}

	// 3. --- Sessions ---
	rdb := session.NewClient(cfg.RedisAddr, cfg.RedisPassword)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
	}
	sessions := session.NewStore(rdb, cfg.SessionTTL)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)

	// 4. --- Email & Storage ---
	mailer, err := email.New(email.SMTPConfig{
		Host:     cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
	})
	if err != nil {
		log.Fatalf("Failed to initialize email: %v", err)
	}

	var store storage.ObjectStore
	routeOpts := routes.Options{CORSOrigin: cfg.CORSOrigin}
	if cfg.StorageBackend == "s3" {
		store, err = storage.NewS3Store(cfg.S3Bucket, cfg.AWSRegion)
	} else {
		store, err = storage.NewLocalStore(cfg.UploadDir, cfg.BaseURL)
		routeOpts.UploadDir = cfg.UploadDir
	}
	if err != nil {
		log.Fatalf("Failed to initialize %s storage: %v", cfg.StorageBackend, err)
	}

	// 5. --- AI & Vision ---
	aiService, err := ai.NewService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, dbReadOnly)
	if err != nil {
		log.Fatalf("Failed to initialize AI Service: %v", err)
	}
	defer aiService.Close()
	plantID := vision.NewClient(cfg.PlantIDBaseURL, cfg.PlantIDAPIKey, cfg.HTTPClientTimeout)

	// 6. --- Order events ---
	var publisher orders.Publisher = orders.NopPublisher{}
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrdersTopic, 1024)
		producer.Start()
		publisher = orders.StreamPublisher{Producer: producer}
		log.Printf("Publishing order events to %s", cfg.KafkaOrdersTopic)
	}

	// --- Application Setup ---
	app := handlers.New(db, dbReadOnly)
	app.Orders = orders.NewService(db, app.Notifications, publisher)
	app.Sessions = sessions
	app.Tokens = tokens
	app.Mailer = mailer
	app.Storage = store
	app.Diagnosis = &diagnosis.Service{Vision: plantID, Advisor: aiService, Scans: app.Scans}
	app.Assistant = aiService

	// --- Background Workers ---
	// The events cache is refreshed every few hours so the first visitor of
	// the day rarely waits on the scrape.
	events := content.NewEventsService(cfg.EventsURL, cfg.HTTPClientTimeout)
	app.Events = events
	refresherDone := make(chan struct{})
	go func() {
		defer close(refresherDone)
		events.Run(ctx, 6*time.Hour)
	}()

	// --- Start Server ---
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           routes.SetupRouter(app, routeOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Starting AgriTech API server on %s...", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	<-refresherDone
	if producer != nil {
		if err := producer.Close(shutdownCtx); err != nil {
			log.Printf("Kafka producer did not flush in time: %v", err)
		}
	}
	log.Println("Server stopped")
}
