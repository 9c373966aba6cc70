package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tillpoint-pos-api/internal/cache"
	"tillpoint-pos-api/internal/config"
	"tillpoint-pos-api/internal/connectivity"
	"tillpoint-pos-api/internal/handler"
	"tillpoint-pos-api/internal/queue"
	"tillpoint-pos-api/internal/repository"
	"tillpoint-pos-api/internal/router"
	"tillpoint-pos-api/internal/service"
	"tillpoint-pos-api/internal/store"
	"tillpoint-pos-api/internal/syncer"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting TillPoint POS API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize the remote POS repository based on config
	var posRepo repository.POSRepository
	switch cfg.RemoteDB.Type {
	case "mysql":
		mysqlDB, err := sql.Open("mysql", cfg.RemoteDB.DSN())
		if err != nil {
			log.Fatalf("Failed to open MySQL connection: %v", err)
		}
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		mysqlRepo, err := repository.NewMySQLPOSRepository(mysqlDB)
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		defer mysqlRepo.Close()
		posRepo = mysqlRepo
		log.Println("MySQL POS repository initialized")
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresPOSRepository(cfg.RemoteDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		posRepo = pgRepo
		log.Println("PostgreSQL POS repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLitePOSRepository(cfg.RemoteDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		posRepo = sqliteRepo
		log.Println("SQLite POS repository initialized")
	}

	// Initialize the sync audit log (optional)
	var syncLog repository.SyncLogRepository
	sqliteSyncLog, err := repository.NewSQLiteSyncLogRepository(cfg.Sync.LogPath)
	if err != nil {
		log.Printf("Warning: sync log initialization failed: %v", err)
	} else {
		defer sqliteSyncLog.Close()
		syncLog = sqliteSyncLog
		log.Println("Sync audit log initialized")
	}

	// Initialize the local persistent key-value store
	var kv store.KeyValueStore
	switch cfg.LocalStore.Type {
	case "redis":
		redisStore, err := store.NewRedisStore(store.RedisStoreConfig{
			Addr:      cfg.LocalStore.RedisAddress(),
			Password:  cfg.LocalStore.RedisPassword,
			DB:        cfg.LocalStore.RedisDB,
			KeyPrefix: cfg.LocalStore.RedisPrefix,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Redis store: %v", err)
		}
		kv = redisStore
		log.Println("Redis key-value store initialized")
	case "memory":
		kv = store.NewMemoryStore()
		log.Println("In-memory key-value store initialized (no durability)")
	default: // file
		fileStore, err := store.NewFileStore(cfg.LocalStore.Path)
		if err != nil {
			log.Fatalf("Failed to initialize file store: %v", err)
		}
		kv = fileStore
		log.Println("File key-value store initialized")
	}
	defer kv.Close()

	snapshots := cache.NewSnapshotCache(kv)

	// Restore any actions queued before the last shutdown
	actionQueue := queue.NewActionQueue(kv)
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := actionQueue.Load(startupCtx); err != nil {
		cancelStartup()
		log.Fatalf("Failed to restore pending action queue: %v", err)
	}
	if n := actionQueue.PendingCount(); n > 0 {
		log.Printf("Restored %d pending action(s) from the local store", n)
	}

	monitor := connectivity.NewMonitor(cfg.App.StartOnline)

	engine := syncer.NewEngine(posRepo, actionQueue, snapshots, monitor, syncLog, syncer.Config{
		MaxAttempts:   cfg.Sync.MaxAttempts,
		BaseBackoff:   cfg.Sync.BaseBackoff,
		ActionTimeout: cfg.Sync.ActionTimeout,
	})

	// Drain automatically whenever connectivity comes back
	monitor.Subscribe(func(online bool) {
		if !online {
			return
		}
		if _, err := engine.Drain(context.Background(), syncer.TriggerReconnect); err != nil &&
			!errors.Is(err, syncer.ErrDrainInFlight) {
			log.Printf("Reconnect drain failed: %v", err)
		}
	})

	if cfg.App.StartOnline {
		if cfg.Checkout.SeedDemoData {
			if seeder, ok := posRepo.(interface {
				SeedDemoProducts(ctx context.Context) error
			}); ok {
				if err := seeder.SeedDemoProducts(startupCtx); err != nil {
					log.Printf("Warning: demo data seed failed: %v", err)
				}
			}
		}

		// Pick up anything that was queued while the service was down, then
		// make sure the local snapshots reflect the remote store.
		if applied, err := engine.Drain(startupCtx, syncer.TriggerStartup); err != nil {
			log.Printf("Startup drain failed: %v", err)
		} else if applied > 0 {
			log.Printf("Startup drain applied %d action(s)", applied)
		}
		engine.RefreshSnapshots(startupCtx)
	}
	cancelStartup()

	// Initialize services
	checkoutService := service.NewCheckoutService(posRepo, actionQueue, snapshots, monitor, cfg.Checkout.TaxRate)

	if syncLog != nil {
		retention := service.NewRetentionScheduler(syncLog, service.RetentionConfig{
			MaxAge: cfg.Sync.RetentionAge,
		})
		retention.Start()
		defer retention.Stop()
	}

	// Initialize handlers
	healthHandler := handler.New(posRepo, monitor, cfg.App.Version)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	syncHandler := handler.NewSyncHandler(engine, actionQueue, monitor)
	connectivityHandler := handler.NewConnectivityHandler(monitor)
	resourceHandler := handler.NewResourceHandler(snapshots)
	adminHandler := handler.NewAdminHandler(actionQueue, engine, monitor, syncLog, cfg.RemoteDB.Type, cfg.LocalStore.Type)

	// Create router
	r := router.New(router.Config{
		Handler:             healthHandler,
		CheckoutHandler:     checkoutHandler,
		SyncHandler:         syncHandler,
		ConnectivityHandler: connectivityHandler,
		ResourceHandler:     resourceHandler,
		AdminHandler:        adminHandler,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if n := actionQueue.PendingCount(); n > 0 {
		fmt.Printf("Note: %d pending action(s) remain queued and will sync on next start\n", n)
	}

	log.Println("Server stopped")
}
