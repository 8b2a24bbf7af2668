package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/cache"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/controllers"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/database"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/mailer"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/middleware"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/repositories"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/routes"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	setupLogger(&cfg.Logging)

	if err := database.Connect(&cfg.Database); err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("error closing database", slog.String("error", err.Error()))
		}
	}()

	if err := database.RunMigrations(&cfg.Database); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	challengeRepo := repositories.NewLoginChallengeRepository(db)
	historyRepo := repositories.NewPasswordHistoryRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Audit sink, closed last so shutdown drains the buffer.
	audit := services.NewAuditService(auditRepo, cfg.Audit.BufferSize)
	defer audit.Close()

	// Services
	sessionService, err := services.NewSessionService(sessionRepo, buildSessionCountCache(cfg), cfg.Session)
	if err != nil {
		log.Fatalf("failed to initialize session service: %v", err)
	}

	policyService, err := services.NewPasswordPolicyService(historyRepo, cfg.Password)
	if err != nil {
		log.Fatalf("failed to initialize password policy: %v", err)
	}

	mail := buildMailer(cfg)
	factor := services.NewEmailCodeChallenge(mail, cfg.TwoFactor)
	verifier := services.NewRecaptchaService(cfg.Recaptcha)

	authService, err := services.NewAuthService(userRepo, challengeRepo, sessionService, policyService, verifier, factor, audit, cfg)
	if err != nil {
		log.Fatalf("failed to initialize auth service: %v", err)
	}

	resetService, err := services.NewPasswordResetService(userRepo, resetRepo, sessionService, policyService, mail, audit, cfg)
	if err != nil {
		log.Fatalf("failed to initialize reset service: %v", err)
	}

	// Controllers
	ctrl := routes.Controllers{
		Auth:     controllers.NewAuthController(authService, cfg),
		Password: controllers.NewPasswordController(authService, policyService, resetService),
		Session:  controllers.NewSessionController(sessionService),
		Audit:    controllers.NewAuditController(auditRepo),
	}

	// Guard pipeline: session checks first, then password expiry. The
	// expiry guard lets the change-password and logout paths through.
	sessionPipeline := middleware.Chain(cfg,
		middleware.SessionGuard(userRepo, sessionService, cfg),
		middleware.PasswordExpiryGuard(policyService, "/user/password", "/auth/logout"),
	)

	// Setup router
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()
	router.Use(corsMiddleware(&cfg.CORS))
	routes.SetupRoutes(router, ctrl, middleware.JWTAuth(cfg), sessionPipeline)

	addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	if rt, err := cfg.Server.GetReadTimeout(); err == nil && rt > 0 {
		srv.ReadTimeout = rt
	}
	if wt, err := cfg.Server.GetWriteTimeout(); err == nil && wt > 0 {
		srv.WriteTimeout = wt
	}

	go func() {
		slog.Info("server running", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to run server: %v", err)
		}
	}()

	waitForShutdown(srv, cfg)
}

func buildSessionCountCache(cfg *config.Config) cache.SessionCountCache {
	if !cfg.Redis.Enabled {
		return cache.NewMemorySessionCountCache()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, using in-memory session count cache", slog.String("error", err.Error()))
		return cache.NewMemorySessionCountCache()
	}

	return cache.NewRedisSessionCountCache(client)
}

func buildMailer(cfg *config.Config) mailer.Mailer {
	if !cfg.Email.Enabled {
		return mailer.NewLogMailer()
	}

	m, err := mailer.NewSMTPMailer(cfg.Email)
	if err != nil {
		slog.Error("smtp init failed, falling back to log mailer", slog.String("error", err.Error()))
		return mailer.NewLogMailer()
	}
	return m
}

func setupLogger(cfg *config.LoggingConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}

func corsMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
	}

	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	if len(corsCfg.AllowMethods) == 0 {
		corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(corsCfg.AllowHeaders) == 0 {
		corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"}
	}
	if maxAge, err := cfg.GetMaxAge(); err == nil && maxAge > 0 {
		corsCfg.MaxAge = maxAge
	}

	return cors.New(corsCfg)
}

func waitForShutdown(srv *http.Server, cfg *config.Config) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down server")

	timeout, err := cfg.Server.GetShutdownTimeout()
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", slog.String("error", err.Error()))
	}
}
