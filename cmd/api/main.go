// main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kayapalat/kayapalat-backend/internal/api/handlers"
	"github.com/kayapalat/kayapalat-backend/internal/api/middleware"
	"github.com/kayapalat/kayapalat-backend/internal/config"
	"github.com/kayapalat/kayapalat-backend/internal/cron"
	"github.com/kayapalat/kayapalat-backend/internal/db"
	"github.com/kayapalat/kayapalat-backend/internal/email"
	"github.com/kayapalat/kayapalat-backend/internal/repository"
	"github.com/kayapalat/kayapalat-backend/internal/seed"
	"github.com/kayapalat/kayapalat-backend/internal/service"
	"github.com/kayapalat/kayapalat-backend/internal/socket"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back the latest migration and exit")
	flag.Parse()

	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg := config.Load()
	loc := cfg.Location()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	if *migrateDown {
		if err := db.RollbackMigration(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatalf("❌ Rollback failed: %v", err)
		}
		return
	}

	log.Println("🔄 Running database migrations...")
	if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// ============================================
	// Initialize PostgreSQL (pgxpool + sqlx)
	// ============================================
	pg, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	defer pg.Close()

	repos := repository.NewRepositories(pg.Pool, pg.SQL)
	log.Println("📦 Repositories initialized")

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (continuing without cache)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("⚡ Redis cache enabled")
		}
	}

	// ============================================
	// Initialize Email Service (optional)
	// ============================================
	var emailQueue *email.EmailQueue
	if cfg.SMTPHost != "" {
		emailSvc := email.NewService(&email.Config{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			User:        cfg.SMTPUser,
			Password:    cfg.SMTPPassword,
			From:        cfg.SMTPFrom,
			FromName:    cfg.SMTPFromName,
			UseTLS:      cfg.SMTPUseTLS,
			FrontendURL: cfg.FrontendURL,
		})
		emailQueue = email.NewEmailQueue(emailSvc, 2)
		defer emailQueue.Stop()
		log.Println("📧 Email service initialized")
	} else {
		log.Println("⚠️  Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	hub := socket.NewHub()
	go hub.Run(hubCtx)
	broadcaster := socket.NewBroadcaster(hub)

	// WebSocket handler with JWT secret for self-authentication
	wsHandler := socket.NewHandler(hub, cfg.JWTSecret, cfg.CORSOrigins)
	log.Println("🔌 WebSocket hub initialized")

	// ============================================
	// Seed Data (for development)
	// ============================================
	if !cfg.IsProduction() {
		log.Println("🌱 Seeding development data...")
		seed.SeedData(repos, time.Now().In(loc))
	}

	// ============================================
	// Initialize All Services
	// ============================================
	deps := &service.ServiceDeps{
		Config:   cfg,
		Repos:    repos,
		Notifier: broadcaster,
	}
	// keep optional collaborators as untyped nil when absent
	if redisDB != nil {
		deps.Cache = redisDB
	}
	if emailQueue != nil {
		deps.Mailer = emailQueue
	}
	services := service.NewServices(deps)
	log.Println("✨ All services initialized")

	h := handlers.NewHandlers(services)

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	var digest cron.DigestMailer
	if emailQueue != nil {
		digest = emailQueue
	}
	cronScheduler := cron.NewScheduler(services.Lead, broadcaster, services.User, digest, loc)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-Match"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "ETag"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	var cachePinger handlers.Pinger
	if redisDB != nil {
		cachePinger = redisDB
	}
	health := handlers.NewHealthHandler(pg, cachePinger, hub.GetConnectedClientsCount, emailQueue != nil)
	r.GET("/health", health.Health)

	api := r.Group("/api")
	api.GET("/ws", wsHandler.HandleWebSocket)
	h.Register(api, services.Auth)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
