package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"surveychat/internal/cache"
	"surveychat/internal/config"
	"surveychat/internal/service"
	"surveychat/internal/transport/rest"
	"surveychat/internal/transport/ws"
)

func main() {
	zapConfig := zap.NewProductionConfig()
	if os.Getenv("DEBUG") != "" {
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zapConfig.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	cfg := config.Load()

	logger.Info("starting survey chat service",
		zap.String("backend", cfg.BackendBaseURL),
		zap.Duration("idleCountdown", cfg.IdleCountdown),
		zap.Duration("popupCountdown", cfg.PopupCountdown))

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("failed to ping Redis", zap.Error(err))
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	// WebSocket hub
	wsHub := ws.NewHub(logger)

	// Caches
	convCache := cache.NewConversationCache(rdb)

	// Services
	authSvc := service.NewAuthService(cfg)
	surveyClient := service.NewSurveyClient(cfg, logger)
	profileClient := service.NewProfileClient(cfg)
	convSvc := service.NewConversationService(surveyClient, profileClient, convCache, clock.New(), cfg, logger)

	// Inject broadcaster (wsHub implements chat.Notifier)
	convSvc.SetNotifier(wsHub)

	wsHandler := ws.NewHandler(wsHub, authSvc, convSvc, logger)

	container := &rest.Container{
		AuthService:         authSvc,
		ConversationService: convSvc,
		WSHub:               wsHub,
		WSHandler:           wsHandler,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen and serve failed", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
