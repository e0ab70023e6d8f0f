package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/constituent-service/internal/api"
	"github.com/ignite/constituent-service/internal/config"
	"github.com/ignite/constituent-service/internal/export"
	"github.com/ignite/constituent-service/internal/pkg/distlock"
	"github.com/ignite/constituent-service/internal/pkg/logger"
	"github.com/ignite/constituent-service/internal/repository/sqlstore"
	"github.com/ignite/constituent-service/internal/service/constituent"
	"github.com/ignite/constituent-service/internal/storage"
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w\n"+
			"  Hint: Run 'lsof -i' to find the blocking process", addr, err)
	}
	ln.Close()
	return nil
}

// connectRedis returns nil when Redis is not configured or unreachable;
// locking then falls back to in-process locks plus the database's own
// transaction-scoped locking.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		logger.Info("redis not configured, using in-process constituent locks")
		return nil
	}
	var client *redis.Client
	opts, err := redis.ParseURL(url)
	if err != nil {
		client = redis.NewClient(&redis.Options{Addr: url})
	} else {
		client = redis.NewClient(opts)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed, falling back to in-process locks", "error", err)
		client.Close()
		return nil
	}
	logger.Info("redis connected, distributed locking enabled")
	return client
}

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.Redact())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		log.Fatal(err)
	}

	db, dialect, err := sqlstore.Open(ctx, sqlstore.OptionsFromConfig(cfg.Database))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	logger.Info("database connected", "driver", string(dialect))

	if cfg.Database.AutoMigrate {
		if _, err := sqlstore.EnsureSchema(ctx, db, dialect); err != nil {
			log.Fatalf("Failed to bootstrap schema: %v", err)
		}
	}

	redisClient := connectRedis(ctx, cfg.Redis.URL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	repo := sqlstore.NewConstituentRepo(db, dialect)
	constituents := constituent.NewService(repo,
		constituent.WithMaxLimit(cfg.Listing.MaxLimit),
		constituent.WithLocks(lockFactory(redisClient, cfg.Redis.LockTTL())),
	)

	store, err := storage.New(ctx, cfg.Export)
	if err != nil {
		log.Fatalf("Failed to initialize export store: %v", err)
	}
	exportOpts := []export.Option{export.WithKeyPrefix(cfg.Export.KeyPrefix)}
	if cfg.Export.GenerateOnDemand {
		gen := export.NewGenerator(constituents, store, cfg.Export.KeyPrefix)
		exportOpts = append(exportOpts, export.WithGenerateOnDemand(gen))
	}
	logger.Info("export store ready", "backend", cfg.Export.Backend, "generate_on_demand", cfg.Export.GenerateOnDemand)

	server := api.NewServer(cfg.Server, api.Deps{
		DB:           db,
		Redis:        redisClient,
		Constituents: constituents,
		Exports:      export.NewService(store, exportOpts...),
		ExportStore:  store,
		Listing:      cfg.Listing,
		CORS:         cfg.CORS,
	})

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

func lockFactory(redisClient *redis.Client, ttl time.Duration) constituent.LockFactory {
	return func(key string) constituent.Lock {
		return distlock.NewLock(redisClient, key, ttl)
	}
}
