package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wbanalytics_api/config"
	"wbanalytics_api/internal/api"
	"wbanalytics_api/internal/scheduler"
	"wbanalytics_api/internal/storage"
	"wbanalytics_api/internal/sync"
	"wbanalytics_api/internal/wildberries/client"
	"wbanalytics_api/migrations/infrastructure"
	"wbanalytics_api/migrations/wb"
	"wbanalytics_api/pkg/dbconnect"
	"wbanalytics_api/pkg/dbconnect/migration"
	"wbanalytics_api/pkg/dbconnect/postgres"
	"wbanalytics_api/pkg/locker"
	"wbanalytics_api/pkg/logger"
	"wbanalytics_api/pkg/secret"
)

const appConfigPath = "config.yaml"

// Run собирает все зависимости и держит процесс до сигнала остановки.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appCfg, err := config.LoadAppConfig(appConfigPath)
	if err != nil {
		return err
	}

	if err := logger.InitLogger(cfg.Server.Env); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.SyncLogger()
	log := logger.GetLogger()
	log.Info("starting wb analytics service")

	var connector dbconnect.Database = postgres.NewPgConnector(cfg.Postgres)
	db, err := connector.Connect()
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	migrationApply := []migration.MigrationInterface{
		&infrastructure.MigrationsSchema{},
		&wb.CreateCabinetsTable{},
		&wb.CreateProductsTable{},
		&wb.CreateSalesHistoryTable{},
		&wb.CreateSyncHistoryTable{},
	}
	for _, m := range migrationApply {
		if err := m.UpMigration(db.DB); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	log.Info("migrations applied")

	store := storage.NewStore(db)

	cipher, err := secret.NewCipher(cfg.Crypto.EncryptionKey)
	if err != nil {
		return fmt.Errorf("initializing token cipher: %w", err)
	}

	var locks locker.Locker
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		locks = locker.NewRedisLocker(redisClient, "wbanalytics:")
	} else {
		locks = locker.NewMemoryLocker()
	}

	// лимитеры общие на процесс: все кабинеты делят бюджет WB API
	limiters := client.NewLimiters()
	apiFactory := sync.APIFactory(func(token string) sync.API {
		return client.NewClient(token, limiters, log)
	})

	service := sync.NewService(store, apiFactory, cipher, locks, sync.Config{
		SalesDepthDays: appCfg.Sync.SalesDepthDays,
		PageLimit:      appCfg.Sync.PageLimit,
	}, log)

	sched := scheduler.New(service, scheduler.Config{
		Workers:          appCfg.Sync.Workers,
		JobRetries:       appCfg.Sync.JobRetries,
		JobRetryDelay:    appCfg.Sync.JobRetryDelay.Std(),
		ProductsInterval: appCfg.Sync.ProductsInterval.Std(),
		SalesInterval:    appCfg.Sync.SalesInterval.Std(),
		StocksInterval:   appCfg.Sync.StocksInterval.Std(),
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	probe := api.TokenProbe(func(ctx context.Context, token string) error {
		_, err := client.NewClient(token, limiters, log).Stocks(ctx, "")
		return err
	})
	handler := api.NewHandler(store, sched, probe, cipher, appCfg.Dashboard.LowStockThreshold, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler.Router(),
	}
	go func() {
		log.Info("http server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server forced to shutdown", zap.Error(err))
	}

	cancel()
	sched.Stop()
	log.Info("stopped")
	return nil
}
