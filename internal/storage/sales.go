package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"wbanalytics_api/internal/models"
	"wbanalytics_api/internal/wildberries/aggregate"
)

// SaveDailySales апсертит суточные агрегаты одного задания в одной
// транзакции. На конфликте (nm_id, date) счетчики полностью заменяются
// свежими значениями, а не прибавляются: повторный прогон того же окна
// сходится к тому же состоянию.
func (s *Store) SaveDailySales(ctx context.Context, cabinetID int64, daily map[aggregate.Key]aggregate.Metrics) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for key, m := range daily {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sales_history (nm_id, cabinet_id, date, orders_count, buyouts_count, revenue)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (nm_id, date) DO UPDATE
				SET
					orders_count  = EXCLUDED.orders_count,
					buyouts_count = EXCLUDED.buyouts_count,
					revenue       = EXCLUDED.revenue`,
				key.NmID, cabinetID, key.Date, m.Orders, m.Buyouts, m.Revenue)
			if err != nil {
				return fmt.Errorf("upserting sales for (%d, %s): %w", key.NmID, key.Date, err)
			}
		}
		return nil
	})
}

func (s *Store) SalesHistory(ctx context.Context, nmID int64) ([]models.SalesHistory, error) {
	var rows []models.SalesHistory
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM sales_history WHERE nm_id = $1 ORDER BY date`, nmID)
	if err != nil {
		return nil, fmt.Errorf("selecting sales history for %d: %w", nmID, err)
	}
	return rows, nil
}
