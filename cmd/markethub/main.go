package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Mohannad35/market-hub-sub000/internal/repository"
	"github.com/Mohannad35/market-hub-sub000/internal/service"
	httptransport "github.com/Mohannad35/market-hub-sub000/internal/transport/http"
	"github.com/Mohannad35/market-hub-sub000/internal/transport/http/handler"
	"github.com/Mohannad35/market-hub-sub000/pkg/config"
	"github.com/Mohannad35/market-hub-sub000/pkg/db"
	"github.com/Mohannad35/market-hub-sub000/pkg/kafka"
	outboxRepository "github.com/Mohannad35/market-hub-sub000/pkg/outbox/repository"
	outboxWorker "github.com/Mohannad35/market-hub-sub000/pkg/outbox/worker"
	"github.com/Mohannad35/market-hub-sub000/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "markethub")
	if err != nil {
		log.Fatalf("Failed to init trace: %v", err)
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

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("error closing redis client: %v", err)
		}
	}()

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			log.Printf("error closing kafka producer: %v", err)
		}
	}()

	cartRepo := repository.NewCartRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	rateRepo := repository.NewRateRepository(pool, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(pool, logger)

	cartService := service.NewCartService(pool, logger, cartRepo, productRepo)
	couponService := service.NewCouponService(logger, couponRepo, cartRepo)
	orderService := service.NewOrderService(logger, orderRepo)
	productService := service.NewCachedProductService(
		service.NewProductService(pool, logger, productRepo, rateRepo),
		redisClient,
		logger,
	)
	checkoutService := service.NewCheckoutService(
		pool, logger, cartRepo, couponRepo, orderRepo, outboxRepo, cfg.Kafka.Topic,
	)

	outboxProcessor := outboxWorker.NewOutboxProcessor(pool, outboxRepo, producer, logger)
	go outboxProcessor.Start(ctx)

	app := fiber.New(fiber.Config{
		ReadTimeout: cfg.HTTP.Timeout,
	})

	app.Use(otelfiber.Middleware())

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Limiter.Max,
		Expiration: cfg.Limiter.Expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Try again later.",
			})
		},
	}))

	handlers := &httptransport.Handlers{
		Cart:     handler.NewCartHandler(cartService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger, cfg.Checkout.Timeout),
		Coupon:   handler.NewCouponHandler(couponService, logger),
		Product:  handler.NewProductHandler(productService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
	}

	httptransport.RegisterRoutes(app, handlers)

	logger.Info("Markethub service started!")

	go func() {
		log.Println("HTTP Service listening on: " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownContext); err != nil {
		log.Printf("Error shutting down HTTP app: %v\n", err)
	} else {
		log.Println("HTTP App stopped gracefully")
	}

	if err := tp.Shutdown(shutdownContext); err != nil {
		log.Printf("Error shutting down telemetry: %v\n", err)
	} else {
		log.Println("Telemetry stopped correctly")
	}
}
