package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wbanalytics_api/internal/models"
)

// StatusStore -- персистентная часть машины состояний sync_history.
type StatusStore interface {
	BeginSync(ctx context.Context, cabinetID int64, kind models.SyncType, at time.Time) error
	FinishSync(ctx context.Context, cabinetID int64, kind models.SyncType, status models.SyncStatus, errMsg string) error
}

// Tracker обрамляет каждое задание: in_progress до первого запроса к WB,
// затем ровно один терминальный переход success либо failed.
type Tracker struct {
	store StatusStore
	log   *zap.Logger
}

func NewTracker(store StatusStore, log *zap.Logger) *Tracker {
	return &Tracker{store: store, log: log}
}

func (t *Tracker) Begin(ctx context.Context, cabinetID int64, kind models.SyncType) error {
	return t.store.BeginSync(ctx, cabinetID, kind, time.Now().UTC())
}

func (t *Tracker) Success(ctx context.Context, cabinetID int64, kind models.SyncType) {
	if err := t.store.FinishSync(ctx, cabinetID, kind, models.StatusSuccess, ""); err != nil {
		t.log.Error("failed to mark sync success",
			zap.Int64("cabinet_id", cabinetID), zap.String("sync_type", string(kind)), zap.Error(err))
	}
}

// Fail записывает сообщение исходной ошибки; сама ошибка поднимается
// дальше вызывающим кодом.
func (t *Tracker) Fail(ctx context.Context, cabinetID int64, kind models.SyncType, cause error) {
	if err := t.store.FinishSync(ctx, cabinetID, kind, models.StatusFailed, cause.Error()); err != nil {
		t.log.Error("failed to mark sync failed",
			zap.Int64("cabinet_id", cabinetID), zap.String("sync_type", string(kind)), zap.Error(err))
	}
}
