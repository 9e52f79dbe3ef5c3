package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/cache"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/catalog"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/config"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/consumer"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/db"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/db/memory"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/directory"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/discovery"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/handlers"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/ledger"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/messaging"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/publisher"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStore()

	policy, err := ledger.PolicyByName(cfg.StatusPolicy)
	if err != nil {
		log.Fatalf("Invalid status policy: %v", err)
	}

	products := catalog.New(store)
	customers := directory.New(store)
	orders := ledger.New(store, products).WithPolicy(policy)

	// Redis is optional: without it every read goes to the database
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cfg.RedisHost, cfg.RedisPort, cfg.CacheTTL)
		if err != nil {
			log.Printf("⚠️ Running without product cache: %v", err)
		} else {
			defer redisCache.Close()
			products.WithCache(redisCache)
			// entries from a previous run may predate edits made while it was down
			if err := products.ResetCache(ctx); err != nil {
				log.Printf("⚠️ %v", err)
			}
		}
	}

	// RabbitMQ is optional: without it no order events are published
	if cfg.RabbitMQEnabled {
		rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitMQHost, cfg.RabbitMQPort, cfg.RabbitMQUser, cfg.RabbitMQPassword)
		if err != nil {
			log.Printf("⚠️ Running without order events: %v", err)
		} else {
			defer rabbitMQ.Close()
			if err := startEvents(ctx, rabbitMQ, orders, products); err != nil {
				log.Printf("⚠️ Running without order events: %v", err)
			}
		}
	}

	if cfg.SeedSample {
		if err := seedSampleData(ctx, products, customers); err != nil {
			log.Fatalf("Failed to seed sample data: %v", err)
		}
	}

	router := handlers.NewRouter(
		cfg.ServiceName,
		handlers.NewProductHandler(products),
		handlers.NewCustomerHandler(customers),
		handlers.NewOrderHandler(orders),
	)

	if cfg.ConsulEnabled {
		consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
		if err != nil {
			log.Printf("⚠️ Running without Consul registration: %v", err)
		} else {
			err = consul.Register(discovery.ServiceConfig{
				Name: cfg.ServiceName,
				ID:   cfg.ServiceID,
				Port: cfg.ServicePort,
				Tags: []string{"api", "products", "customers", "orders"},
			})
			if err != nil {
				log.Printf("⚠️ %v", err)
			} else {
				// Deregister on shutdown
				defer consul.Deregister(cfg.ServiceID)
			}
		}
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServicePort),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️ Shutdown: %v", err)
		}
	}()

	log.Printf("🚀 %s starting on http://localhost:%d (storage: %s, status policy: %s)",
		cfg.ServiceName, cfg.ServicePort, cfg.Storage, cfg.StatusPolicy)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, func(), error) {
	switch cfg.Storage {
	case "memory":
		log.Println("⚠️ Using in-memory storage, data is lost on restart")
		return memory.New(), func() {}, nil
	case "postgres", "":
		database, err := db.NewPostgresDB(db.PostgresConfig{
			Host:         cfg.DBHost,
			Port:         cfg.DBPort,
			User:         cfg.DBUser,
			Password:     cfg.DBPassword,
			DBName:       cfg.DBName,
			SSLMode:      cfg.DBSSLMode,
			MaxOpenConns: cfg.DBMaxOpen,
			MaxIdleConns: cfg.DBMaxIdle,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
		return database, func() { database.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

// startEvents publishes ledger changes and consumes them to keep the product
// cache in step with stock moved by orders.
func startEvents(ctx context.Context, mq *messaging.RabbitMQ, orders *ledger.Ledger, products *catalog.Catalog) error {
	orderPublisher, err := publisher.NewOrderPublisher(mq)
	if err != nil {
		return err
	}
	orders.WithNotifier(orderPublisher)

	messages, err := mq.Consume(publisher.OrderEventsQueue)
	if err != nil {
		return err
	}

	go consumer.NewStockCacheConsumer(products).ProcessOrderEvents(ctx, messages)
	return nil
}
