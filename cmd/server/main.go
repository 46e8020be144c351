package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/taskloop/task-tracker-api/internal/auth"
	"github.com/taskloop/task-tracker-api/internal/config"
	"github.com/taskloop/task-tracker-api/internal/database"
	"github.com/taskloop/task-tracker-api/internal/handlers"
	"github.com/taskloop/task-tracker-api/internal/logger"
	"github.com/taskloop/task-tracker-api/internal/middleware"
	"github.com/taskloop/task-tracker-api/internal/repository"
	"github.com/taskloop/task-tracker-api/internal/services"
	"github.com/taskloop/task-tracker-api/internal/storage"
)

func main() {
	// Load configuration. JWT_SECRET is mandatory.
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := logger.New(cfg.GinMode)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		appLog.WithError(err).Fatal("Failed to run migrations")
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		appLog.WithError(err).Fatal("Failed to add indexes")
	}

	// Select the attachment storage backend
	var store storage.Uploader
	switch cfg.StorageDriver {
	case "gcs":
		store, err = storage.NewGCSStore(context.Background(), cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to initialize GCS storage")
		}
	default:
		store, err = storage.NewLocalStore(cfg.UploadDir, cfg.UploadBaseURL)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to initialize local storage")
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Wire repositories, services and handlers
	userRepo := repository.NewUserRepository(database.GetDB())
	taskRepo := repository.NewTaskRepository(database.GetDB())

	attachmentService := services.NewAttachmentService(store, appLog)
	authService := services.NewAuthService(userRepo)
	taskService := services.NewTaskService(taskRepo, userRepo, attachmentService, appLog)
	userService := services.NewUserService(userRepo, attachmentService)

	authHandler := handlers.NewAuthHandler(authService, jwtManager)
	taskHandler := handlers.NewTaskHandler(taskService, appLog)
	adminHandler := handlers.NewAdminHandler(userService, appLog)

	// Initialize Gin router
	r := gin.Default()

	requireAuth := middleware.RequireAuth(jwtManager, userRepo)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Task Tracker API is running",
		})
	})

	// Locally stored attachments are served statically
	if cfg.StorageDriver != "gcs" {
		r.Static(cfg.UploadBaseURL, cfg.UploadDir)
	}

	// User routes
	user := r.Group("/user")
	{
		user.POST("/register", authHandler.Register)
		user.POST("/login", authHandler.Login)
		user.GET("/getUser", requireAuth, authHandler.GetCurrentUser)
		user.GET("/logout", authHandler.Logout)
	}

	// Task routes (protected)
	task := r.Group("/task")
	task.Use(requireAuth)
	{
		task.POST("", taskHandler.CreateTask)
		task.GET("", taskHandler.ListTasks)
		task.PATCH("/:taskId", taskHandler.UpdateTask)
		task.DELETE("/:taskId", taskHandler.DeleteTask)
	}

	// Admin routes (protected, admin only)
	admin := r.Group("/admin")
	admin.Use(requireAuth, middleware.RequireAdmin())
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users", adminHandler.CreateUser)
		admin.PUT("/users/:id", adminHandler.UpdateUser)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
	}

	// Start server
	appLog.Infof("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		appLog.WithError(err).Fatal("Failed to start server")
	}
}
