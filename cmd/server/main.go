package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/config"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/handler"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/service"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/sse"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/gateway"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/middleware"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/sessionstore"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting expedition service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	store, err := initSessionStore(cfg.Session)
	if err != nil {
		zapLogger.Fatal("Failed to init session store", zap.Error(err))
	}

	sessionSvc := service.NewSessionService(store, zapLogger)
	gw := gateway.NewClient(cfg.Proxy.URL, cfg.Proxy.Timeout, sessionSvc, zapLogger)
	sessionSvc.SetGateway(gw)

	refdataSvc := service.NewRefDataService(gw, zapLogger)
	viewmodelSvc := service.NewViewModelService(gw, refdataSvc, zapLogger)
	expeditionSvc := service.NewExpeditionService(gw, refdataSvc, zapLogger)

	hub := sse.NewHub()
	app := service.NewAppService(sessionSvc, refdataSvc, viewmodelSvc, expeditionSvc, hub, cfg.Reload.Interval, zapLogger)

	// Replay any persisted session before accepting traffic.
	app.RestoreSession(context.Background())

	handlers := handler.NewHandlers(app, hub, cfg.JWT.Secret, int64(cfg.JWT.Expire.Seconds()), cfg.JWT.Issuer)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initSessionStore(cfg config.SessionConfig) (sessionstore.Store, error) {
	switch cfg.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		return sessionstore.NewRedisStore(rdb, "expedition:session:"), nil
	case "file", "":
		return sessionstore.NewFileStore(cfg.FilePath)
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.Backend)
	}
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	{
		// Session bootstrap (no token yet)
		session := v1.Group("/session")
		{
			session.POST("/login", h.Session.Login)
			session.POST("/restore", h.Session.Restore)
		}

		// SSE push (token via query param)
		sseGroup := v1.Group("/sse")
		sseGroup.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			sseGroup.GET("/events", h.SSE.Stream)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			authorized.POST("/session/filial", h.Session.SelectFilial)
			authorized.POST("/session/filial/switch", h.Session.SwitchFilial)
			authorized.POST("/session/logout", h.Session.Logout)
			authorized.POST("/session/logout/full", h.Session.LogoutFull)
			authorized.POST("/session/ip/reset", h.Session.ResetIP)

			authorized.GET("/state", h.Expedition.State)
			authorized.PUT("/filters", h.Expedition.SetFilter)
			authorized.PUT("/view", h.Expedition.SetActiveView)
			authorized.POST("/expeditions", h.Expedition.Create)
			authorized.POST("/reload", h.Expedition.Reload)
		}
	}
}
