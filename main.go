package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"siasa-backend/config"
	"siasa-backend/controllers"
	"siasa-backend/database"
	"siasa-backend/jobs"
	"siasa-backend/middlewares"
	"siasa-backend/mpesa"
	"siasa-backend/repository"
	"siasa-backend/routes"
	"siasa-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	log := config.GetLogger()

	// ---- Database
	database.Connect()
	database.AutoMigrate()
	if err := database.MigrateSchema(); err != nil {
		panic(err)
	}

	// ---- Redis (OTP store). Startup proceeds without it; OTP endpoints fail
	// until the connection comes back.
	if err := config.ConnectRedis(); err != nil {
		log.Warn("redis unavailable at startup: " + err.Error())
	}

	// ---- Repositories and services
	users := repository.NewUserRepository(database.DB)
	paymentRepo := repository.NewPaymentRepository(database.DB)
	auditRepo := repository.NewAuditRepository(database.DB)

	gateway := mpesa.NewClient(mpesa.ConfigFromEnv())
	paymentSvc := services.NewPaymentService(paymentRepo, gateway, log)
	auditSvc := services.NewAuditService(auditRepo, log)
	otpSvc := services.NewOTPService(config.RedisStore{}, services.NewLogSender(log))

	authCtl := controllers.NewAuthController(users, otpSvc, log)
	mpesaCtl := controllers.NewMpesaController(paymentSvc, log)
	auditCtl := controllers.NewAuditController(auditSvc)

	// ---- Limits (configurable via env)
	bodyLimitBytes := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimitBytes <= 0 {
		bodyLimitBytes = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    bodyLimitBytes,
	})

	// ---- CORS
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))

	// ---- Global rate limiter (applies to all routes; tune via env)
	rlMax := envInt("RATE_LIMIT_MAX", 60)
	rlWindow := time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	app.Use(limiter.New(limiter.Config{
		Max:        rlMax,
		Expiration: rlWindow,
		// Default KeyGenerator = client IP; default 429 handler is fine.
	}))

	// ---- Metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ---- Routes
	routes.Register(app, authCtl, mpesaCtl, auditCtl, users, auditSvc)

	// ---- Session sweeper
	sweeper := jobs.NewSessionSweeper(users, log)
	go sweeper.Run(context.Background())

	// ---- Start
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := app.Listen(":" + port); err != nil {
		panic(err)
	}
	fmt.Println("API server started on port", port)
}
