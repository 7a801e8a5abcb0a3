package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"wbanalytics_api/internal/models"
	"wbanalytics_api/internal/wildberries/catalog"
)

// SaveCatalog апсертит пачку карточек одного задания в одной транзакции.
// На конфликте nm_id перезаписываются только каталожные поля: stock_wb,
// stock_own и принадлежность кабинету остаются как были.
func (s *Store) SaveCatalog(ctx context.Context, cabinetID int64, cards []catalog.Card) error {
	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, card := range cards {
			if err := upsertProduct(ctx, tx, cabinetID, card, now); err != nil {
				return fmt.Errorf("upserting product %d: %w", card.NmID, err)
			}
		}
		return nil
	})
}

func upsertProduct(ctx context.Context, tx *sqlx.Tx, cabinetID int64, card catalog.Card, now time.Time) error {
	sizes, err := json.Marshal(card.Sizes)
	if err != nil {
		sizes = []byte("[]")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (nm_id, cabinet_id, vendor_code, barcode, title, manager, image_url, sizes, last_update)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (nm_id) DO UPDATE
		SET
			vendor_code = EXCLUDED.vendor_code,
			barcode     = EXCLUDED.barcode,
			title       = EXCLUDED.title,
			manager     = EXCLUDED.manager,
			image_url   = EXCLUDED.image_url,
			sizes       = EXCLUDED.sizes,
			last_update = EXCLUDED.last_update`,
		card.NmID, cabinetID,
		nullable(card.VendorCode), nullable(card.Barcode), nullable(card.Title),
		nullable(strings.Join(card.Tags, ",")), nullable(card.ImageURL),
		sizes, now)
	return err
}

// SaveStockTotals заменяет stock_wb у каждого артикула суммой по складам.
// Каталожные поля не трогаются.
func (s *Store) SaveStockTotals(ctx context.Context, totals map[int64]int) error {
	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for nmID, total := range totals {
			_, err := tx.ExecContext(ctx,
				`UPDATE products SET stock_wb = $1, last_update = $2 WHERE nm_id = $3`,
				total, now, nmID)
			if err != nil {
				return fmt.Errorf("updating stock for %d: %w", nmID, err)
			}
		}
		return nil
	})
}

// UpdateOwnStock пишет остаток собственного склада; используется внешним
// bulk-import коллаборатором, sync его не трогает.
func (s *Store) UpdateOwnStock(ctx context.Context, nmID int64, stockOwn int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET stock_own = $1 WHERE nm_id = $2`, stockOwn, nmID)
	if err != nil {
		return fmt.Errorf("updating own stock for %d: %w", nmID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %d: %w", nmID, ErrNotFound)
	}
	return nil
}

func (s *Store) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, `SELECT * FROM products ORDER BY nm_id`); err != nil {
		return nil, fmt.Errorf("selecting products: %w", err)
	}
	return products, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
