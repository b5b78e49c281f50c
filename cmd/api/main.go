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

	"github.com/gin-gonic/gin"
	"github.com/imageshare/backend/internal/config"
	"github.com/imageshare/backend/internal/models"
	"github.com/imageshare/backend/internal/server"
	"github.com/imageshare/backend/internal/services"
	"github.com/joho/godotenv"
)

var migrateOnly = flag.Bool("migrate-only", false, "Run DB migrations and seeding, then exit")

func main() {
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize services
	userService := services.NewUserService(db, cfg)
	tagService := services.NewTagService(db)

	seedService := services.NewSeedService(db, cfg, userService, tagService)
	if err := seedService.Seed(context.Background()); err != nil {
		log.Printf("[Seed] completed with errors: %v", err)
	}
	if *migrateOnly {
		log.Println("Migrations and seeding complete")
		return
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	storageService := services.NewStorageService(cfg)
	var s3Service *services.S3Service
	if cfg.MediaS3Enabled() {
		s3Service, err = services.NewS3Service(cfg)
		if err != nil {
			log.Fatalf("Failed to init S3 service: %v", err)
		}
		log.Printf("Mirroring images to s3://%s", s3Service.Bucket())
	}

	authService := services.NewAuthService(userService, redisClient, cfg)
	imageService := services.NewImageService(db, tagService, userService, storageService, s3Service)
	shareCardService := services.NewShareCardService(cfg)

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := server.NewRouter(cfg, server.Deps{
		Redis:            redisClient,
		AuthService:      authService,
		UserService:      userService,
		TagService:       tagService,
		ImageService:     imageService,
		ShareCardService: shareCardService,
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  120 * time.Second, // large uploads
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
