package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"classtrack-backend/api-service/handlers"
	"classtrack-backend/api-service/middleware"
	"classtrack-backend/api-service/services"
	_ "classtrack-backend/docs"
	"classtrack-backend/shared/config"
	"classtrack-backend/shared/database"
	"classtrack-backend/shared/database/models"
)

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.GetConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	db := database.GetDB()

	// Login service with runtime telemetry detection
	loginService := services.NewLoginService(
		services.NewGormAccountStore(db),
		services.NewGormAuditTrail(db),
		services.NewGormGroupDirectory(db),
		services.JWTTokenIssuer{},
	)

	// Audio storage (MinIO)
	audioStorage, err := services.NewAudioStorage()
	if err != nil {
		log.Fatalf("Failed to initialize audio storage: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, loginService)
	uploadHandler := handlers.NewUploadHandler(audioStorage)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(30 * time.Minute)

	loginConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.GetIntField("LoginRateLimitMaxAttempts", 5),
		TimeWindow:    time.Duration(cfg.GetIntField("LoginRateLimitWindowSeconds", 300)) * time.Second,
		BlockDuration: time.Duration(cfg.GetIntField("LoginRateLimitBlockMinutes", 30)) * time.Minute,
	}
	registerConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.GetIntField("RegisterRateLimitMaxAttempts", 3),
		TimeWindow:    time.Duration(cfg.GetIntField("RegisterRateLimitWindowHours", 24)) * time.Hour,
		BlockDuration: time.Duration(cfg.GetIntField("RegisterRateLimitBlockHours", 48)) * time.Hour,
	}
	passwordResetConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.GetIntField("PasswordResetMaxAttempts", 3),
		TimeWindow:    time.Duration(cfg.GetIntField("PasswordResetWindowMinutes", 60)) * time.Minute,
		BlockDuration: time.Duration(cfg.GetIntField("PasswordResetBlockHours", 24)) * time.Hour,
	}

	router := gin.Default()
	router.Use(cors.Default())

	// Public auth endpoints
	router.POST("/api/auth/login", rateLimiter.LoginRateLimitMiddleware(loginConfig), authHandler.Login)
	router.POST("/api/auth/register/request", rateLimiter.RegistrationRateLimitMiddleware(registerConfig), authHandler.RegisterRequest)
	router.POST("/api/auth/register/verify", rateLimiter.RegistrationRateLimitMiddleware(registerConfig), authHandler.RegisterVerify)
	router.POST("/api/auth/request-reset", rateLimiter.PasswordResetRateLimitMiddleware(passwordResetConfig), authHandler.RequestPasswordReset)
	router.POST("/api/auth/reset", rateLimiter.PasswordResetRateLimitMiddleware(passwordResetConfig), authHandler.ResetPassword)
	router.POST("/api/auth/accept-invite", authHandler.AcceptInvite)

	// Authenticated endpoints
	api := router.Group("/api", middleware.AuthMiddleware())
	{
		api.POST("/auth/invite", middleware.RequireRole(models.UserTypeAdmin), authHandler.Invite)

		api.GET("/users", handlers.GetUsers)
		api.POST("/users", middleware.RequireRole(models.UserTypeAdmin), handlers.CreateUser)
		api.PUT("/users/:id", middleware.RequireRole(models.UserTypeAdmin), handlers.UpdateUser)
		api.DELETE("/users/:id", middleware.RequireRole(models.UserTypeAdmin), handlers.DeleteUser)

		api.GET("/groups", handlers.GetGroups)
		api.POST("/groups", middleware.RequireRole(models.UserTypeAdmin), handlers.CreateGroup)
		api.PUT("/groups/:id", middleware.RequireRole(models.UserTypeAdmin), handlers.UpdateGroup)
		api.DELETE("/groups/:id", middleware.RequireRole(models.UserTypeAdmin), handlers.DeleteGroup)
		api.POST("/groups/:id/members", middleware.RequireRole(models.UserTypeAdmin), handlers.AssignGroupMember)
		api.DELETE("/groups/:id/members/:userId", middleware.RequireRole(models.UserTypeAdmin), handlers.RemoveGroupMember)

		api.GET("/chapters", handlers.GetChapters)
		api.POST("/chapters", middleware.RequireRole(models.UserTypeAdmin), handlers.CreateChapter)
		api.PUT("/chapters/:id", middleware.RequireRole(models.UserTypeAdmin), handlers.UpdateChapter)
		api.DELETE("/chapters/:id", middleware.RequireRole(models.UserTypeAdmin), handlers.DeleteChapter)

		api.GET("/homework", handlers.GetHomework)
		api.POST("/homework", middleware.RequireRole(models.UserTypeStudent), handlers.SubmitHomework)
		api.PUT("/homework/:id/comment", middleware.RequireRole(models.UserTypeTeacher, models.UserTypeAdmin), handlers.CommentHomework)
		api.DELETE("/homework/:id", middleware.RequireRole(models.UserTypeTeacher, models.UserTypeAdmin), handlers.DeleteHomework)

		api.GET("/reports", handlers.GetReports)
		api.POST("/reports", middleware.RequireRole(models.UserTypeTeacher, models.UserTypeAdmin), handlers.CreateReport)
		api.DELETE("/reports/:id", middleware.RequireRole(models.UserTypeTeacher, models.UserTypeAdmin), handlers.DeleteReport)

		api.GET("/dashboard", handlers.GetDashboard)

		api.POST("/upload/audio", middleware.RequireRole(models.UserTypeStudent, models.UserTypeTeacher), uploadHandler.UploadAudio)
		api.GET("/upload/audio/presign", middleware.RequireRole(models.UserTypeStudent, models.UserTypeTeacher), uploadHandler.PresignAudioUpload)

		api.GET("/admin/audit-logs", middleware.RequireRole(models.UserTypeAdmin), handlers.GetAuditLogs)
		api.GET("/admin/monitor/users", middleware.RequireRole(models.UserTypeAdmin), handlers.GetUserMonitorOverview)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "api",
		})
	})

	// Swagger UI, development only
	router.GET("/swagger/*any", func(c *gin.Context) {
		if cfg.IsProduction() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler)(c)
	})

	log.Printf("🚀 API service starting on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start API service: %v", err)
	}
}
