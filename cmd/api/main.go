package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/ecom-cart-api/internal/config"
	"github.com/flicky/ecom-cart-api/internal/dto"
	"github.com/flicky/ecom-cart-api/internal/events"
	"github.com/flicky/ecom-cart-api/internal/handler"
	"github.com/flicky/ecom-cart-api/internal/middleware"
	"github.com/flicky/ecom-cart-api/internal/repository"
	"github.com/flicky/ecom-cart-api/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("connected to PostgreSQL")

	if cfg.DB.Migrate {
		if err := repository.RunMigrations(ctx, dbPool, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	log.Info("connected to Redis")

	probes := map[string]handler.Probe{
		"postgres": dbPool.Ping,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}

	// Prometheus
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(registry)

	cartOpts := []service.CartOption{service.WithOperationCounter(metrics.CartOperations)}

	// RabbitMQ
	if cfg.RabbitMQ.URL != "" {
		amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		defer amqpConn.Close()

		amqpCh, err := amqpConn.Channel()
		if err != nil {
			return fmt.Errorf("open RabbitMQ channel: %w", err)
		}
		defer amqpCh.Close()

		if err := events.Setup(amqpCh); err != nil {
			return fmt.Errorf("setup RabbitMQ: %w", err)
		}
		log.Info("connected to RabbitMQ")

		cartOpts = append(cartOpts, service.WithEventPublisher(events.NewPublisher(amqpCh)))
		probes["rabbitmq"] = events.ReadyCheck(amqpConn, amqpCh)
	} else {
		log.Warn("RABBITMQ_URL not set, cart events disabled")
	}

	// Repositories
	tx := repository.NewTransactor(dbPool)
	repos := repository.NewRepositories(dbPool)
	userRepo := repository.NewUserRepository(dbPool)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	productSvc := service.NewProductService(repos.Products, tx, redisClient, log)
	cartSvc := service.NewCartService(repos.Carts, tx, log, cartOpts...)
	wishlistSvc := service.NewWishlistService(repos.Wishlists, tx)
	reviewSvc := service.NewReviewService(repository.NewReviewRepository(dbPool), repos.Products, userRepo)
	userSvc := service.NewUserService(userRepo)

	// Router
	gin.SetMode(gin.ReleaseMode)
	if err := dto.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}
	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
		Metrics:   metrics,
		Gatherer:  registry,
		Auth:      handler.NewAuthHandler(authSvc, log),
		Products:  handler.NewProductHandler(productSvc, log),
		Reviews:   handler.NewReviewHandler(reviewSvc, log),
		Users:     handler.NewUserHandler(userSvc, log),
		Cart:      handler.NewCartHandler(cartSvc, log),
		Wishlist:  handler.NewWishlistHandler(wishlistSvc, log),
		Health:    handler.NewHealthHandler(probes),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
	log.Info("server stopped")
	return nil
}
