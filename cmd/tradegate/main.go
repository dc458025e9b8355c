package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tradegate/internal/config"
	"tradegate/internal/gateway"
	"tradegate/internal/guard"
	"tradegate/internal/metrics"
	"tradegate/internal/upstox"
	"tradegate/internal/util"
)

func main() {
	// Load .env if present; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("loading .env: %v", err)
	}

	cfgPath := "config/tradegate.yaml"
	if p := os.Getenv("TRADEGATE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	if cfg.Upstox.AccessToken == "" {
		logger.Warn("UPSTOX_ACCESS_TOKEN is not set; API requests will be rejected with 401")
	}

	m := metrics.New()
	client := upstox.NewClient(cfg.Upstox.BaseURL, cfg.Upstox.AccessToken, cfg.Upstox.Timeout(), m)
	g := guard.New(client, client, cfg.Guard.FallbackPrice, m, logger)
	srv := gateway.NewServer(client, g, cfg.Upstox.AccessToken, cfg.Upstox.TopUpURL,
		util.NewRateLimiter(cfg.RateLimit.PerMinute), m, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("tradegate listening",
			"addr", httpServer.Addr,
			"upstream", cfg.Upstox.BaseURL,
			"rate_limit_per_minute", cfg.RateLimit.PerMinute)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down tradegate")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
