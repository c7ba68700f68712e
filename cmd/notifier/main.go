package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Mohannad35/market-hub-sub000/internal/notification/email"
	"github.com/Mohannad35/market-hub-sub000/internal/notification/kafka"
	"github.com/Mohannad35/market-hub-sub000/internal/notification/service"
	"github.com/Mohannad35/market-hub-sub000/pkg/config"
	"github.com/Mohannad35/market-hub-sub000/pkg/db"
	"github.com/Mohannad35/market-hub-sub000/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "notifier")
	if err != nil {
		log.Fatalf("Error starting telemetry: %v", err)
	}

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: "info",
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("error syncing logger: %v", err)
		}
	}()

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("error creating postgres pool: %v", err)
	}
	defer pool.Close()

	emailSender := email.NewSMTPSender(cfg.SMTP, logger)
	notificationService := service.NewNotificationService(emailSender, logger, pool)

	consumer := kafka.NewConsumer(notificationService, logger, cfg.Kafka.Topic)

	logger.Info("Notifier service started!")

	consumer.Start(ctx, cfg.Kafka.Brokers)

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), 5*time.Second)
	defer exit()

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error closing telemetry: %v\n", err)
	} else {
		log.Printf("Closed telemetry successfully")
	}
}
