package models

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SyncType -- вид задания синхронизации.
type SyncType string

const (
	SyncProducts SyncType = "products"
	SyncSales    SyncType = "sales"
	SyncStocks   SyncType = "stocks"
)

func (t SyncType) Valid() bool {
	switch t {
	case SyncProducts, SyncSales, SyncStocks:
		return true
	}
	return false
}

// SyncStatus -- состояние записи sync_history. Запись стартует только из
// in_progress и переходит в success либо failed.
type SyncStatus string

const (
	StatusInProgress SyncStatus = "in_progress"
	StatusSuccess    SyncStatus = "success"
	StatusFailed     SyncStatus = "failed"
)

// Cabinet -- кабинет продавца WB; api_token хранится зашифрованным.
type Cabinet struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	APIToken  string    `db:"api_token" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product -- карточка каталога, ключ nm_id глобально уникален.
// Каталожные поля пишет только products-sync, stock_wb -- только stocks-sync.
type Product struct {
	NmID       int64          `db:"nm_id" json:"nm_id"`
	CabinetID  int64          `db:"cabinet_id" json:"cabinet_id"`
	VendorCode sql.NullString `db:"vendor_code" json:"vendor_code"`
	Barcode    sql.NullString `db:"barcode" json:"barcode"`
	Title      sql.NullString `db:"title" json:"title"`
	Manager    sql.NullString `db:"manager" json:"manager"`
	ImageURL   sql.NullString `db:"image_url" json:"image_url"`
	StockWB    int            `db:"stock_wb" json:"stock_wb"`
	StockOwn   int            `db:"stock_own" json:"stock_own"`
	LastUpdate sql.NullTime   `db:"last_update" json:"last_update"`
	Sizes      types.JSONText `db:"sizes" json:"sizes"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// SalesHistory -- суточная строка фактов; UNIQUE(nm_id, date).
type SalesHistory struct {
	ID           int64     `db:"id" json:"id"`
	NmID         int64     `db:"nm_id" json:"nm_id"`
	CabinetID    int64     `db:"cabinet_id" json:"cabinet_id"`
	Date         time.Time `db:"date" json:"date"`
	OrdersCount  int       `db:"orders_count" json:"orders_count"`
	BuyoutsCount int       `db:"buyouts_count" json:"buyouts_count"`
	Revenue      float64   `db:"revenue" json:"revenue"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SyncHistory -- одна перезаписываемая строка на (cabinet, sync_type).
type SyncHistory struct {
	ID           int64          `db:"id" json:"id"`
	CabinetID    int64          `db:"cabinet_id" json:"cabinet_id"`
	SyncType     SyncType       `db:"sync_type" json:"sync_type"`
	LastSyncDate time.Time      `db:"last_sync_date" json:"last_sync_date"`
	Status       SyncStatus     `db:"status" json:"status"`
	ErrorMessage sql.NullString `db:"error_message" json:"error_message"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
