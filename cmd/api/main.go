package main

import (
	"context"
	"log"
	"net/http"

	"commsdesk/internal/config"
	"commsdesk/internal/database"
	"commsdesk/internal/handler"
	"commsdesk/internal/mailer"
	"commsdesk/internal/middleware"
	"commsdesk/internal/repository"
	"commsdesk/internal/service"
	"commsdesk/pkg/auth"
	"commsdesk/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title CommsDesk API
// @version 1.0
// @description Role-gated content publishing and partnership intake backend.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.NewConnection(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := service.SeedDefaultRolesAndPermissions(context.Background(), db); err != nil {
		log.Fatalf("Failed to seed roles and permissions: %v", err)
	}

	// Repositories
	txm := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	contentRepo := repository.NewContentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	coopRepo := repository.NewCooperationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Login rate limiter: shared Redis store when configured, otherwise a
	// single-instance in-memory counter.
	var limiter ratelimit.LoginLimiter
	if cfg.RedisAddr != "" {
		redisLimiter, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.RateLimitLogin, cfg.RateLimitWindow)
		if err != nil {
			log.Fatalf("Failed to set up redis rate limiter: %v", err)
		}
		limiter = redisLimiter
		log.Printf("Login rate limiter: redis (%s)", cfg.RedisAddr)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitLogin, cfg.RateLimitWindow)
		log.Println("Login rate limiter: in-memory")
	}

	var mail mailer.Mailer = mailer.NewSMTPMailer(&cfg)
	if cfg.SMTPUsername == "" {
		mail = mailer.NopMailer{}
		log.Println("Mailer: disabled (MAIL_USERNAME not set)")
	}

	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.AccessTTL, cfg.RefreshTTL)
	middleware.Init(issuer, db)

	// Services
	auditSvc := service.NewAuditService(auditRepo)
	authSvc := service.NewAuthService(userRepo, sessionRepo, roleRepo, txm, issuer, limiter, auditSvc, mail)
	contentSvc := service.NewContentService(contentRepo, categoryRepo, txm, auditSvc)
	categorySvc := service.NewCategoryService(categoryRepo, contentRepo)
	coopSvc := service.NewCooperationService(coopRepo, txm, auditSvc)
	roleSvc := service.NewRoleService(roleRepo)
	userSvc := service.NewUserService(userRepo, sessionRepo, roleRepo, txm, auditSvc, mail)

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	handler.NewAuthHandler(authSvc).RegisterRoutes(api)
	handler.NewContentHandler(contentSvc).RegisterRoutes(api)
	handler.NewCategoryHandler(categorySvc).RegisterRoutes(api)
	handler.NewCooperationHandler(coopSvc).RegisterRoutes(api)
	handler.NewUserHandler(userSvc, roleSvc).RegisterRoutes(api)
	handler.NewAuditHandler(auditSvc).RegisterRoutes(api)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
