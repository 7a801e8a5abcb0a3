package storage

import (
	"context"
	"fmt"
	"time"

	"wbanalytics_api/internal/models"
)

// BeginSync ставит записи (cabinet, sync_type) статус in_progress и штамп
// запуска до первого обращения к upstream. Строка одна на пару и
// перезаписывается на месте.
func (s *Store) BeginSync(ctx context.Context, cabinetID int64, kind models.SyncType, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_history (cabinet_id, sync_type, status, last_sync_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cabinet_id, sync_type) DO UPDATE
		SET
			status         = EXCLUDED.status,
			last_sync_date = EXCLUDED.last_sync_date,
			error_message  = NULL`,
		cabinetID, kind, models.StatusInProgress, at)
	if err != nil {
		return fmt.Errorf("marking sync in_progress: %w", err)
	}
	return nil
}

// FinishSync переводит запись в success (сообщение очищается) либо failed
// (сообщение сохраняется).
func (s *Store) FinishSync(ctx context.Context, cabinetID int64, kind models.SyncType, status models.SyncStatus, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_history
		SET status = $3, error_message = NULLIF($4, '')
		WHERE cabinet_id = $1 AND sync_type = $2`,
		cabinetID, kind, status, errMsg)
	if err != nil {
		return fmt.Errorf("marking sync %s: %w", status, err)
	}
	return nil
}

func (s *Store) SyncHistory(ctx context.Context) ([]models.SyncHistory, error) {
	var rows []models.SyncHistory
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM sync_history ORDER BY cabinet_id, sync_type`)
	if err != nil {
		return nil, fmt.Errorf("selecting sync history: %w", err)
	}
	return rows, nil
}
