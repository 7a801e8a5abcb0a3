package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbanalytics_api/internal/models"
	"wbanalytics_api/internal/wildberries/aggregate"
	"wbanalytics_api/internal/wildberries/catalog"
	"wbanalytics_api/migrations/infrastructure"
	"wbanalytics_api/migrations/wb"
	"wbanalytics_api/pkg/dbconnect/migration"
)

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "x", nullable("x"))
}

// testStore подключается к БД из TEST_DATABASE_URL; без нее интеграционные
// тесты пропускаются.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, m := range []migration.MigrationInterface{
		&infrastructure.MigrationsSchema{},
		&wb.CreateCabinetsTable{},
		&wb.CreateProductsTable{},
		&wb.CreateSalesHistoryTable{},
		&wb.CreateSyncHistoryTable{},
	} {
		require.NoError(t, m.UpMigration(db.DB))
	}

	_, err = db.Exec(`TRUNCATE sales_history, sync_history, products, cabinets RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return NewStore(db)
}

func TestSaveCatalogUpsertKeepsStockFields(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	cabinet, err := store.CreateCabinet(ctx, "main", "enc:token")
	require.NoError(t, err)

	cards := []catalog.Card{{NmID: 10, VendorCode: "SKU-10", Title: "Футболка", Tags: []string{"ivanov"}}}
	require.NoError(t, store.SaveCatalog(ctx, cabinet.ID, cards))
	require.NoError(t, store.SaveStockTotals(ctx, map[int64]int{10: 42}))

	// повторный каталожный апсерт не должен сбросить stock_wb
	cards[0].Title = "Футболка v2"
	require.NoError(t, store.SaveCatalog(ctx, cabinet.ID, cards))

	products, err := store.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Футболка v2", products[0].Title.String)
	assert.Equal(t, "ivanov", products[0].Manager.String)
	assert.Equal(t, 42, products[0].StockWB)
}

func TestSaveDailySalesReplacesOnRerun(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	cabinet, err := store.CreateCabinet(ctx, "main", "enc:token")
	require.NoError(t, err)
	require.NoError(t, store.SaveCatalog(ctx, cabinet.ID, []catalog.Card{{NmID: 7}}))

	key := aggregate.Key{NmID: 7, Date: "2024-01-01"}
	require.NoError(t, store.SaveDailySales(ctx, cabinet.ID,
		map[aggregate.Key]aggregate.Metrics{key: {Orders: 1, Buyouts: 1, Revenue: 500}}))
	// повторная выгрузка того же дня перезаписывает, а не суммирует
	require.NoError(t, store.SaveDailySales(ctx, cabinet.ID,
		map[aggregate.Key]aggregate.Metrics{key: {Orders: 2, Buyouts: 1, Revenue: 500}}))

	rows, err := store.SalesHistory(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].OrdersCount)
	assert.Equal(t, 1, rows[0].BuyoutsCount)
	assert.Equal(t, 500.0, rows[0].Revenue)
}

func TestSyncHistorySingleRowPerCabinetAndKind(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	cabinet, err := store.CreateCabinet(ctx, "main", "enc:token")
	require.NoError(t, err)

	require.NoError(t, store.BeginSync(ctx, cabinet.ID, models.SyncSales, time.Now().UTC()))
	require.NoError(t, store.FinishSync(ctx, cabinet.ID, models.SyncSales, models.StatusFailed, "boom"))
	require.NoError(t, store.BeginSync(ctx, cabinet.ID, models.SyncSales, time.Now().UTC()))
	require.NoError(t, store.FinishSync(ctx, cabinet.ID, models.SyncSales, models.StatusSuccess, ""))

	rows, err := store.SyncHistory(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.StatusSuccess, rows[0].Status)
	// сообщение прошлой ошибки очищено успешным прогоном
	assert.False(t, rows[0].ErrorMessage.Valid)
}

func TestCabinetNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.Cabinet(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
