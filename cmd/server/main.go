package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mingleapp/mingle-server/internal/app"
	"github.com/mingleapp/mingle-server/internal/config"
	"github.com/mingleapp/mingle-server/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logger.Init()
	defer logger.Sync()

	logger.Info("Starting Mingle partner-matching broker...")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	application, err := app.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", err)
	}

	application.Scheduler.Start()
	logger.Info("Broker started", "env", cfg.AppEnv)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	application.Scheduler.Stop()
	logger.Info("Broker stopped")
}
