package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"sbp-admin/internal/cache"
	"sbp-admin/internal/config"
	"sbp-admin/internal/mockapi"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logger(os.Stdout))
	slog.Info("Starting mock backend", "port", cfg.Mock.Port)

	opts := mockapi.Options{
		JWTSecret: cfg.Mock.JWTSecret,
		TokenTTL:  cfg.Mock.TokenTTL,
		RateLimit: cfg.Mock.RateLimit,
	}
	if cfg.Mock.RedisEnabled {
		redisClient, err := cache.NewClient(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.Info("Connected to Redis", "addr", cfg.Redis.Addr)
		opts.Limiter = redisClient
	}

	store := mockapi.NewStore()
	admin, err := mockapi.Seed(store, cfg.Mock.AdminEmail, cfg.Mock.AdminPassword)
	if err != nil {
		slog.Error("Failed to seed data", "error", err)
		os.Exit(1)
	}
	slog.Info("Seeded backend", "admin_email", admin.Email)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mockapi.NewHandler(store, opts).Register(mux)

	serverAddr := fmt.Sprintf(":%s", cfg.Mock.Port)
	slog.Info("Server listening", "addr", serverAddr)

	if err := http.ListenAndServe(serverAddr, mux); err != nil {
		slog.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}
}
