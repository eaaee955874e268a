// @title           GigPay Backend API
// @version         1.0.0
// @description     Backend API for marketplace project escrow. Handles project offers, two-phase advance/final payments, an append-only transaction ledger, worker reviews and lifecycle notifications.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"log"
	"net/http"
	"net/url"

	"gigpay-backend/docs"
	"gigpay-backend/internal/config"
	"gigpay-backend/internal/database"
	"gigpay-backend/internal/escrow"
	"gigpay-backend/internal/handlers"
	"gigpay-backend/internal/idempotency"
	"gigpay-backend/internal/mailer"
	"gigpay-backend/internal/middleware"
	"gigpay-backend/internal/notify"
	"gigpay-backend/internal/push"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	dbURL := cfg.DatabaseURL
	if dbURL == "" {
		log.Println("Warning: DATABASE_URL not set. Migrations will be skipped.")
		log.Println("Please set DATABASE_URL environment variable with your PostgreSQL connection string")
	}

	// Create database client for direct queries
	var dbClient *database.Client
	if dbURL != "" {
		var err error
		dbClient, err = database.NewClient(dbURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize database client: %v", err)
			log.Println("Database operations will be limited. Please configure DATABASE_URL properly.")
		} else {
			defer dbClient.Close()

			// Run migrations
			migrator, err := database.NewMigrator(dbURL)
			if err != nil {
				log.Printf("Warning: Failed to initialize migrator: %v", err)
			} else {
				defer migrator.Close()
				if err := migrator.Run(); err != nil {
					log.Printf("Warning: Migration failed: %v", err)
				} else {
					log.Println("Migrations completed successfully")
				}
			}
		}
	}

	// Optional Redis-backed idempotency store
	var idemStore escrow.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err := idempotency.Connect(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v", err)
			log.Println("Idempotency keys will not be honored. Please configure REDIS_URL properly.")
		} else {
			idemStore = idempotency.NewRedisStore(redisClient, 0)
		}
	} else {
		log.Println("Warning: REDIS_URL not set. Idempotency keys will not be honored.")
	}

	// Delivery sinks (optional; notifier skips unconfigured sinks)
	var mailerClient *mailer.Client
	if cfg.MailerAPIBaseURL != "" {
		mailerClient = mailer.NewClient(cfg.MailerAPIBaseURL, cfg.MailerAPIKey)
	} else {
		log.Println("Warning: MAILER_API_BASE_URL not set. Email delivery is disabled.")
	}

	var pushClient *push.Client
	if cfg.PushAPIBaseURL != "" {
		pushClient = push.NewClient(cfg.PushAPIBaseURL, cfg.PushAPIKey)
	} else {
		log.Println("Warning: PUSH_API_BASE_URL not set. Push delivery is disabled.")
	}

	var notifyStore notify.Store
	if dbClient != nil {
		notifyStore = dbClient
	}
	notifier := notify.NewService(notifyStore, mailerClient, pushClient)

	// Escrow service (only if dbClient is available; handlers handle nil)
	var escrowService *escrow.Service
	if dbClient != nil {
		escrowService = escrow.NewService(dbClient, dbClient, dbClient, notifier, idemStore, cfg.CommissionPercent, cfg.Currency)
	} else {
		log.Println("Warning: Escrow service not available without a database.")
	}

	// Initialize handlers (escrowService might be nil, handlers should handle this)
	projectsHandler := handlers.NewProjectsHandler(escrowService)
	transactionsHandler := handlers.NewTransactionsHandler(escrowService)
	reviewsHandler := handlers.NewReviewsHandler(escrowService)
	notificationsHandler := handlers.NewNotificationsHandler(dbClient)

	// Setup router
	router := gin.Default()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Project lifecycle
	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/projects/with/:user_id", projectsHandler.ListProjectsWith)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.POST("/projects/:project_id/accept", projectsHandler.AcceptProject)
	api.POST("/projects/:project_id/reject", projectsHandler.RejectProject)
	api.POST("/projects/:project_id/advance-payment", projectsHandler.PayAdvance)
	api.PUT("/projects/:project_id/progress", projectsHandler.UpdateProgress)
	api.POST("/projects/:project_id/complete", projectsHandler.CompleteProject)
	api.POST("/projects/:project_id/final-payment", projectsHandler.PayFinal)
	api.POST("/projects/:project_id/rate", projectsHandler.RateProject)

	// Ledger
	api.GET("/transactions", transactionsHandler.ListTransactions)
	api.GET("/projects/:project_id/transactions", transactionsHandler.ListProjectTransactions)

	// Reviews
	api.GET("/workers/:user_id/reviews", reviewsHandler.GetWorkerReviews)

	// Notifications
	api.GET("/notifications", notificationsHandler.ListNotifications)
	api.POST("/notifications/:notification_id/read", notificationsHandler.MarkNotificationRead)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
