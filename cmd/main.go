package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/crypto/bcrypt"

	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/importer"
	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"
)

// @title Catalog Service API
// @version 1.0.0
// @description B2B wholesale catalog: category tree, product and client bulk imports

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Redis is a cache, not a dependency; run without it when unreachable.
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{Addr: "localhost:6379"}
	}
	redisClient := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
		redisClient = nil
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	appLogger := logrus.New()
	appLogger.SetFormatter(&logrus.JSONFormatter{})
	appLogger.SetLevel(logrus.InfoLevel)

	eventsPublisher, err := events.NewPublisher(appLogger)
	if err != nil {
		log.Printf("WARNING: Failed to initialize events publisher: %v (events won't be published)", err)
	} else {
		log.Println("✓ NATS events publisher initialized")
	}

	// Repositories
	categoryRepo := repository.NewCategoryRepository(db, redisClient)
	productRepo := repository.NewProductRepository(db)
	clientRepo := repository.NewClientRepository(db)

	// Import pipelines
	resolver := importer.NewResolver(categoryRepo)
	hashPassword := func(password string) (string, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		return string(hash), nil
	}
	clientImporter := importer.NewClientImporter(clientRepo, hashPassword, appLogger)
	productImporter := importer.NewProductImporter(productRepo, resolver, appLogger)

	// Handlers
	categoryHandler := handlers.NewCategoryHandler(categoryRepo, eventsPublisher)
	productHandler := handlers.NewProductHandler(productRepo, categoryRepo)
	clientHandler := handlers.NewClientHandler(clientRepo)
	importHandler := handlers.NewImportHandler(clientImporter, productImporter, eventsPublisher, appLogger)
	exportHandler := handlers.NewExportHandler(productRepo, clientRepo, categoryRepo)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)

	// Protected API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		categories := api.Group("/categories")
		{
			categories.GET("", categoryHandler.GetCategoryList)
			categories.GET("/tree", categoryHandler.GetCategoryTree)
			categories.GET("/:id", categoryHandler.GetCategory)
			categories.GET("/:id/ancestors", categoryHandler.GetCategoryAncestors)

			admin := categories.Group("", middleware.RequireAdmin())
			{
				admin.POST("", categoryHandler.CreateCategory)
				admin.PUT("/:id", categoryHandler.UpdateCategory)
				admin.PUT("/:id/move", categoryHandler.MoveCategory)
				admin.DELETE("/:id", categoryHandler.DeleteCategory)
			}
		}

		products := api.Group("/products")
		{
			products.GET("", productHandler.GetProductList)
			products.GET("/:sku", productHandler.GetProductBySKU)

			admin := products.Group("", middleware.RequireAdmin())
			{
				admin.POST("/assign-categories", productHandler.AssignCategories)
				admin.GET("/import/template", importHandler.GetProductImportTemplate)
				admin.POST("/import", importHandler.ImportProducts)
				admin.GET("/export", exportHandler.ExportProducts)
			}
		}

		clients := api.Group("/clients", middleware.RequireAdmin())
		{
			clients.GET("", clientHandler.GetClientList)
			clients.GET("/import/template", importHandler.GetClientImportTemplate)
			clients.POST("/import", importHandler.ImportClients)
			clients.GET("/export", exportHandler.ExportClients)
			clients.GET("/:username", clientHandler.GetClient)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down catalog-service...")

	if eventsPublisher != nil {
		eventsPublisher.Close()
		log.Println("✓ Events publisher closed")
	}

	log.Println("Catalog service stopped")
}
