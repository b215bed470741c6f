package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	routes "github.com/cosmicdev/devspace/internal/api"
	v1 "github.com/cosmicdev/devspace/internal/api/v1"
	"github.com/cosmicdev/devspace/internal/auth"
	"github.com/cosmicdev/devspace/internal/config"
	"github.com/cosmicdev/devspace/internal/db"
	"github.com/cosmicdev/devspace/internal/models"
	"github.com/cosmicdev/devspace/pkg/logger"
	"github.com/cosmicdev/devspace/pkg/utils"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.LoadConfig()

	log, err := logger.NewLogger(logger.WithAppName("devspace"))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Close()

	rclient, err := storage.NewRedis(ctx, cfg.RedisAddr, "")
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to initialize Redis")
		panic(err)
	}
	defer rclient.Close(log)

	gormDB, err := db.NewDB(ctx, cfg.DSN(), models.RegisterModels(), db.WithLogger(log))
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to initialize PostgreSQL database")
		panic("DB init failed")
	}
	defer db.CloseDB(log)

	auth.SetSecret(cfg.JWTSecret)
	v1.Init(gormDB, rclient, log)

	app := fiber.New(fiber.Config{
		AppName:      "devspace",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	routes.NewRoutes(ctx, app, cfg, gormDB, log, rclient)

	go func() {
		if err := app.Listen(cfg.ServerAddr); err != nil {
			log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Server stopped")
			cancel()
		}
	}()
	log.Info(ctx).WithMeta(utils.Map{"addr": cfg.ServerAddr}).Logs("Server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info(ctx).Logs("Shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Forced shutdown")
	}
	cancel()
}
