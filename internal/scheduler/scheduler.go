package scheduler

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wbanalytics_api/internal/models"
	"wbanalytics_api/internal/sync"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64

	// повторы целого задания; не путать с повторами одного запроса
	DefaultJobRetries    = 3
	DefaultJobRetryDelay = 60 * time.Second

	// интервалы запуска по видам
	DefaultProductsInterval = 6 * time.Hour
	DefaultSalesInterval    = 30 * time.Minute
	DefaultStocksInterval   = time.Hour
)

// Syncer -- то, что планировщик умеет запускать.
type Syncer interface {
	Sync(ctx context.Context, kind models.SyncType, cabinetID int64) error
	CabinetIDs(ctx context.Context) ([]int64, error)
}

type Config struct {
	Workers       int
	QueueSize     int
	JobRetries    int
	JobRetryDelay time.Duration

	ProductsInterval time.Duration
	SalesInterval    time.Duration
	StocksInterval   time.Duration
}

func (c *Config) fillDefaults() {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.JobRetries <= 0 {
		c.JobRetries = DefaultJobRetries
	}
	if c.JobRetryDelay <= 0 {
		c.JobRetryDelay = DefaultJobRetryDelay
	}
	if c.ProductsInterval <= 0 {
		c.ProductsInterval = DefaultProductsInterval
	}
	if c.SalesInterval <= 0 {
		c.SalesInterval = DefaultSalesInterval
	}
	if c.StocksInterval <= 0 {
		c.StocksInterval = DefaultStocksInterval
	}
}

type job struct {
	id        string
	kind      models.SyncType
	cabinetID int64
}

// Scheduler гонит задания через пул воркеров: по одному независимому
// заданию на кабинет, падение одного кабинета не мешает остальным.
type Scheduler struct {
	service Syncer
	cfg     Config
	jobs    chan job
	log     *zap.Logger

	mu      gosync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      gosync.WaitGroup
}

func New(service Syncer, cfg Config, log *zap.Logger) *Scheduler {
	cfg.fillDefaults()
	return &Scheduler{
		service: service,
		cfg:     cfg,
		jobs:    make(chan job, cfg.QueueSize),
		log:     log,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.startTicker(ctx, models.SyncProducts, s.cfg.ProductsInterval)
	s.startTicker(ctx, models.SyncSales, s.cfg.SalesInterval)
	s.startTicker(ctx, models.SyncStocks, s.cfg.StocksInterval)

	s.log.Info("scheduler started",
		zap.Int("workers", s.cfg.Workers),
		zap.Duration("products_interval", s.cfg.ProductsInterval),
		zap.Duration("sales_interval", s.cfg.SalesInterval),
		zap.Duration("stocks_interval", s.cfg.StocksInterval))
	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) startTicker(ctx context.Context, kind models.SyncType, interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.SyncAll(ctx, kind); err != nil {
					s.log.Error("scheduled fan-out failed",
						zap.String("sync_type", string(kind)), zap.Error(err))
				}
			}
		}
	}()
}

// SyncAll ставит в очередь по одному заданию вида kind на каждый кабинет.
func (s *Scheduler) SyncAll(ctx context.Context, kind models.SyncType) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown sync type %q", kind)
	}
	ids, err := s.service.CabinetIDs(ctx)
	if err != nil {
		return fmt.Errorf("loading cabinets: %w", err)
	}
	for _, id := range ids {
		s.enqueue(ctx, kind, id)
	}
	s.log.Info("sync fan-out enqueued",
		zap.String("sync_type", string(kind)), zap.Int("cabinets", len(ids)))
	return nil
}

func (s *Scheduler) enqueue(ctx context.Context, kind models.SyncType, cabinetID int64) {
	j := job{id: uuid.NewString(), kind: kind, cabinetID: cabinetID}
	select {
	case s.jobs <- j:
	case <-ctx.Done():
	}
}

func (s *Scheduler) worker(ctx context.Context, n int) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			s.runJob(ctx, n, j)
		}
	}
}

// runJob выполняет задание с ограниченным числом перезапусков целиком.
// Терминальные ошибки (токен, контракт, отсутствующий кабинет) не повторяются;
// после исчерпания попыток задание остается failed в sync_history.
func (s *Scheduler) runJob(ctx context.Context, worker int, j job) {
	log := s.log.With(
		zap.String("job_id", j.id),
		zap.String("sync_type", string(j.kind)),
		zap.Int64("cabinet_id", j.cabinetID),
		zap.Int("worker", worker))

	var err error
	for attempt := 1; attempt <= s.cfg.JobRetries; attempt++ {
		err = s.service.Sync(ctx, j.kind, j.cabinetID)
		if err == nil {
			return
		}
		if !sync.Retryable(err) {
			log.Error("job failed with terminal error", zap.Error(err))
			return
		}
		if attempt == s.cfg.JobRetries {
			break
		}
		log.Warn("job failed, will retry",
			zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.JobRetryDelay):
		}
	}
	log.Error("job failed after all attempts",
		zap.Int("attempts", s.cfg.JobRetries), zap.Error(err))
}
