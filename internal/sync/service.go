package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wbanalytics_api/internal/models"
	"wbanalytics_api/internal/storage"
	"wbanalytics_api/internal/wildberries/aggregate"
	"wbanalytics_api/internal/wildberries/catalog"
	"wbanalytics_api/internal/wildberries/client"
	"wbanalytics_api/internal/wildberries/dto"
	"wbanalytics_api/metrics"
	"wbanalytics_api/pkg/locker"
)

const (
	DefaultSalesDepthDays = 90
	DefaultLockTTL        = 30 * time.Minute
)

// API -- подмножество wb-клиента, нужное заданиям синхронизации.
type API interface {
	Cards(ctx context.Context, cursor dto.Cursor) (*dto.CardsResponse, error)
	Stocks(ctx context.Context, dateFrom string) ([]dto.Stock, error)
	Sales(ctx context.Context, dateFrom string, flag int) ([]dto.Sale, error)
	Orders(ctx context.Context, dateFrom string, flag int) ([]dto.Order, error)
}

// APIFactory строит клиент под расшифрованный токен кабинета; лимитеры
// при этом остаются общими на процесс.
type APIFactory func(token string) API

// Store -- persistence-срез, нужный заданиям.
type Store interface {
	StatusStore
	Cabinet(ctx context.Context, id int64) (*models.Cabinet, error)
	Cabinets(ctx context.Context) ([]models.Cabinet, error)
	SaveCatalog(ctx context.Context, cabinetID int64, cards []catalog.Card) error
	SaveDailySales(ctx context.Context, cabinetID int64, daily map[aggregate.Key]aggregate.Metrics) error
	SaveStockTotals(ctx context.Context, totals map[int64]int) error
}

// Decryptor снимает шифрование с токена кабинета.
type Decryptor interface {
	Decrypt(encoded string) (string, error)
}

type Config struct {
	SalesDepthDays int
	PageLimit      int
	LockTTL        time.Duration
}

// Service выполняет задания синхронизации одного вида для одного кабинета
// и раздает их по всем кабинетам.
type Service struct {
	store   Store
	newAPI  APIFactory
	secrets Decryptor
	locks   locker.Locker
	tracker *Tracker
	cfg     Config
	log     *zap.Logger
}

func NewService(store Store, newAPI APIFactory, secrets Decryptor, locks locker.Locker, cfg Config, log *zap.Logger) *Service {
	if cfg.SalesDepthDays <= 0 {
		cfg.SalesDepthDays = DefaultSalesDepthDays
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = catalog.DefaultPageLimit
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	return &Service{
		store:   store,
		newAPI:  newAPI,
		secrets: secrets,
		locks:   locks,
		tracker: NewTracker(store, log),
		cfg:     cfg,
		log:     log,
	}
}

// Sync выполняет одно задание (cabinet, kind) под замком от повторного
// срабатывания планировщика. Уже идущее задание молча пропускается.
func (s *Service) Sync(ctx context.Context, kind models.SyncType, cabinetID int64) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown sync type %q", kind)
	}

	lockKey := fmt.Sprintf("sync:%d:%s", cabinetID, kind)
	acquired, err := s.locks.TryLock(ctx, lockKey, s.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("acquiring sync lock: %w", err)
	}
	if !acquired {
		s.log.Warn("sync already running, skipping",
			zap.Int64("cabinet_id", cabinetID), zap.String("sync_type", string(kind)))
		return nil
	}
	defer func() {
		if err := s.locks.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
			s.log.Error("failed to release sync lock", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	started := time.Now()
	err = s.run(ctx, kind, cabinetID)
	metrics.ObserveSyncRun(string(kind), err == nil, time.Since(started))
	return err
}

func (s *Service) run(ctx context.Context, kind models.SyncType, cabinetID int64) error {
	// статус in_progress ставится до любого обращения к upstream
	if err := s.tracker.Begin(ctx, cabinetID, kind); err != nil {
		return fmt.Errorf("starting %s sync: %w", kind, err)
	}

	api, err := s.apiForCabinet(ctx, cabinetID)
	if err != nil {
		s.tracker.Fail(ctx, cabinetID, kind, err)
		return err
	}

	switch kind {
	case models.SyncProducts:
		err = s.syncProducts(ctx, api, cabinetID)
	case models.SyncSales:
		err = s.syncSales(ctx, api, cabinetID)
	case models.SyncStocks:
		err = s.syncStocks(ctx, api, cabinetID)
	}

	if err != nil {
		s.log.Error("sync failed",
			zap.Int64("cabinet_id", cabinetID), zap.String("sync_type", string(kind)), zap.Error(err))
		s.tracker.Fail(ctx, cabinetID, kind, err)
		return err
	}

	s.tracker.Success(ctx, cabinetID, kind)
	s.log.Info("sync completed",
		zap.Int64("cabinet_id", cabinetID), zap.String("sync_type", string(kind)))
	return nil
}

func (s *Service) apiForCabinet(ctx context.Context, cabinetID int64) (API, error) {
	cabinet, err := s.store.Cabinet(ctx, cabinetID)
	if err != nil {
		return nil, err
	}
	token, err := s.secrets.Decrypt(cabinet.APIToken)
	if err != nil {
		return nil, fmt.Errorf("decrypting token for cabinet %d: %w", cabinetID, err)
	}
	return s.newAPI(token), nil
}

func (s *Service) syncProducts(ctx context.Context, api API, cabinetID int64) error {
	paginator := catalog.NewPaginator(api, s.cfg.PageLimit, s.log)
	cards, err := paginator.FetchAll(ctx)
	if err != nil {
		return err
	}
	s.log.Info("sync_products fetched",
		zap.Int64("cabinet_id", cabinetID), zap.Int("cards", len(cards)))
	return s.store.SaveCatalog(ctx, cabinetID, cards)
}

func (s *Service) syncSales(ctx context.Context, api API, cabinetID int64) error {
	dateFrom := time.Now().UTC().
		AddDate(0, 0, -s.cfg.SalesDepthDays).
		Format("2006-01-02T15:04:05")

	orders, err := api.Orders(ctx, dateFrom, 0)
	if err != nil {
		return fmt.Errorf("fetching orders: %w", err)
	}
	sales, err := api.Sales(ctx, dateFrom, 0)
	if err != nil {
		return fmt.Errorf("fetching sales: %w", err)
	}
	s.log.Info("sync_sales fetched",
		zap.Int64("cabinet_id", cabinetID),
		zap.Int("orders", len(orders)), zap.Int("sales", len(sales)))

	daily := aggregate.Daily(orders, sales)
	return s.store.SaveDailySales(ctx, cabinetID, daily)
}

func (s *Service) syncStocks(ctx context.Context, api API, cabinetID int64) error {
	stocks, err := api.Stocks(ctx, "")
	if err != nil {
		return fmt.Errorf("fetching stocks: %w", err)
	}
	s.log.Info("sync_stocks fetched",
		zap.Int64("cabinet_id", cabinetID), zap.Int("stocks", len(stocks)))

	return s.store.SaveStockTotals(ctx, aggregate.StockTotals(stocks))
}

// CabinetIDs отдает все кабинеты для fan-out'а планировщика.
func (s *Service) CabinetIDs(ctx context.Context) ([]int64, error) {
	cabinets, err := s.store.Cabinets(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(cabinets))
	for _, cabinet := range cabinets {
		ids = append(ids, cabinet.ID)
	}
	return ids, nil
}

// Retryable сообщает планировщику, стоит ли перезапускать упавшее задание:
// невалидный токен, контрактные ошибки и отсутствующий кабинет терминальны.
func Retryable(err error) bool {
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
