package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/LJTian/topicfeed/internal/aggregator"
	"github.com/LJTian/topicfeed/internal/api"
	"github.com/LJTian/topicfeed/internal/config"
	"github.com/LJTian/topicfeed/internal/logger"
	"github.com/LJTian/topicfeed/internal/scheduler"
	"github.com/LJTian/topicfeed/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("TOPICS_CONFIG"))
	if err != nil {
		logger.L.Fatalf("load config failed: %v", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		logger.L.Fatalf("init logger failed: %v", err)
	}
	defer logger.Sync()
	logger.Infof("config loaded: port=%s cron=%s windows=%v", cfg.AppPort, cfg.CronSpec, cfg.Collect.WindowHours)

	// REDIS_ADDR 为空时不启用缓存，API 每次都现场采集
	store := storage.NewStore(cfg.RedisAddr, cfg.CacheTTL)
	defer store.Close()

	agg := aggregator.FromConfig(cfg)

	s, err := scheduler.New(cfg.CronSpec, agg, store)
	if err != nil {
		logger.L.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	// API
	r := gin.New()
	r.Use(gin.Recovery())
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(agg, store)
	apiServer.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Infof("starting api server at %s ...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Fatalf("server exit: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Infof("shutting down...")
	<-s.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
}
