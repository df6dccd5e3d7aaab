package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/adapter/auth"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/adapter/events"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/adapter/handler"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/adapter/storage"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/config"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/service"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/platform/logger"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/platform/observability"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		os.Stderr.WriteString("init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint:       cfg.Tracing.OTLPEndpoint,
		Insecure:       cfg.Tracing.Insecure,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
	})
	if err != nil {
		return err
	}

	// Initialize store
	store, closeStore, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}

	// Initialize idempotency keys
	var (
		idempotency port.IdempotencyRepository = storage.NewMemoryIdempotency()
		rdb         *redis.Client
	)
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		idempotency = storage.NewRedisAdapter(rdb)
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Address))
	}

	// Initialize event dispatch
	var sink events.Sink = events.NewLogSink(log)
	if len(cfg.Kafka.Brokers) > 0 {
		sink = events.NewKafkaSink(events.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		log.Info("publishing events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	dispatcher := events.NewDispatcher(sink, cfg.Events.Workers, cfg.Events.QueueSize, log)

	authenticator, err := auth.NewJWTAuthenticator(auth.Config{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TokenTTL: cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	// Initialize services
	cache := service.NewInventoryCache(store, service.CacheOptions{
		SlidingWindow: cfg.Cache.SlidingWindow,
		AbsoluteTTL:   cfg.Cache.AbsoluteTTL,
		Strategy:      service.CacheStrategy(cfg.Cache.Strategy),
	})
	inventoryService := service.NewInventoryService(store, cache, dispatcher, log.Named("inventory"))
	orderService := service.NewOrderService(store, store, cache, idempotency, dispatcher, log.Named("orders"))

	if cfg.Store.Seed {
		if err := seedInventory(ctx, store, inventoryService); err != nil {
			log.Warn("seed inventory failed", zap.Error(err))
		}
	}

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	grpcHandler := handler.NewGRPCHandler(store, log.Named("grpc"))
	grpcHandler.Register(grpcServer)
	go grpcHandler.Watch(ctx, cfg.GRPC.HealthInterval)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return err
	}

	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPC.Address))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpHandler := handler.NewHTTPHandler(inventoryService, orderService, authenticator, store, log.Named("http"))
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           httpHandler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	// Stop HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown", zap.Error(err))
	}
	log.Info("HTTP server stopped")

	// Stop gRPC server
	grpcHandler.Shutdown()
	grpcServer.GracefulStop()
	cancel()
	log.Info("gRPC server stopped")

	// Drain pending events
	if err := dispatcher.Close(); err != nil {
		log.Warn("close event sink", zap.Error(err))
	}
	log.Info("event workers stopped")

	// Close connections
	if rdb != nil {
		rdb.Close()
	}
	closeStore()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown", zap.Error(err))
	}
	log.Info("connections closed", zap.Any("inventory_cache", cache.Stats()))
	return nil
}

func openStore(ctx context.Context, cfg config.Store, log *zap.Logger) (port.DatabaseRepository, func(), error) {
	if cfg.Driver == "memory" {
		log.Warn("using in-memory store, data is lost on restart")
		return storage.NewMemoryAdapter(), func() {}, nil
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping mysql: %w", err)
	}
	log.Info("connected to mysql")

	adapter := storage.NewMySQLAdapter(db)
	if cfg.Migrate {
		if err := adapter.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return adapter, func() { db.Close() }, nil
}

// seedInventory adds a starter item when the inventory is empty.
func seedInventory(ctx context.Context, store port.InventoryRepository, inventory *service.InventoryService) error {
	items, err := store.ListInventory(ctx)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}
	_, err = inventory.Create(ctx, domain.InventoryItem{
		Name:     "Pallet Jack",
		Quantity: 12,
		Location: "Warehouse A",
	})
	return err
}
