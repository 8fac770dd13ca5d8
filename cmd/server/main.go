package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"docqa/internal/di"
	"docqa/internal/infra"
	"docqa/internal/infra/config"
	"docqa/internal/infra/logger"
	"docqa/internal/infra/telemetry"
)

func main() {
	cfg := config.Load()

	shutdownTelemetry, err := telemetry.Init(context.Background(),
		telemetry.ConfigFromEnv(cfg.OTelEnabled, cfg.Env))
	if err != nil {
		slog.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	log := logger.NewWithOTel(cfg.OTelEnabled)
	slog.SetDefault(log)

	dbPool, err := infra.NewPostgresDB(context.Background(), cfg.DSN())
	if err != nil {
		log.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	components := di.NewApplicationComponents(cfg, dbPool, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	components.Handler.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
}
