package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbanalytics_api/internal/wildberries/dto"
)

func TestDailyCountsBuyout(t *testing.T) {
	orders := []dto.Order{{NmID: 7, Date: "2024-01-01T10:15:00"}}
	sales := []dto.Sale{{NmID: 7, Date: "2024-01-01T12:00:00", SaleID: "s1", PriceWithDisc: 500}}

	got := Daily(orders, sales)

	require.Len(t, got, 1)
	m := got[Key{NmID: 7, Date: "2024-01-01"}]
	assert.Equal(t, 1, m.Orders)
	assert.Equal(t, 1, m.Buyouts)
	assert.Equal(t, 500.0, m.Revenue)
}

func TestDailyExcludesCancelledSale(t *testing.T) {
	orders := []dto.Order{{NmID: 7, Date: "2024-01-01T10:15:00"}}
	sales := []dto.Sale{{NmID: 7, Date: "2024-01-01T12:00:00", SaleID: "s1", CancelID: "c1", PriceWithDisc: 500}}

	got := Daily(orders, sales)

	require.Len(t, got, 1)
	m := got[Key{NmID: 7, Date: "2024-01-01"}]
	assert.Equal(t, 1, m.Orders)
	assert.Equal(t, 0, m.Buyouts)
	assert.Equal(t, 0.0, m.Revenue)
}

func TestDailySaleWithoutSaleIDIsNotBuyout(t *testing.T) {
	sales := []dto.Sale{{NmID: 3, Date: "2024-02-10T09:00:00", PriceWithDisc: 100}}

	got := Daily(nil, sales)

	m := got[Key{NmID: 3, Date: "2024-02-10"}]
	assert.Equal(t, 0, m.Buyouts)
	assert.Equal(t, 0.0, m.Revenue)
}

func TestDailyGroupsByProductAndDay(t *testing.T) {
	orders := []dto.Order{
		{NmID: 1, Date: "2024-03-01T08:00:00"},
		{NmID: 1, Date: "2024-03-01T20:00:00"},
		{NmID: 1, Date: "2024-03-02T08:00:00"},
		{NmID: 2, Date: "2024-03-01T08:00:00"},
	}
	sales := []dto.Sale{
		{NmID: 1, Date: "2024-03-01T10:00:00", SaleID: "s1", PriceWithDisc: 150.5},
		{NmID: 1, Date: "2024-03-01T11:00:00", SaleID: "s2", PriceWithDisc: 99.5},
	}

	got := Daily(orders, sales)

	require.Len(t, got, 3)
	assert.Equal(t, Metrics{Orders: 2, Buyouts: 2, Revenue: 250.0}, got[Key{NmID: 1, Date: "2024-03-01"}])
	assert.Equal(t, Metrics{Orders: 1}, got[Key{NmID: 1, Date: "2024-03-02"}])
	assert.Equal(t, Metrics{Orders: 1}, got[Key{NmID: 2, Date: "2024-03-01"}])
}

func TestDailySkipsUnparsableDates(t *testing.T) {
	orders := []dto.Order{{NmID: 1, Date: "not-a-date"}}

	got := Daily(orders, nil)

	assert.Empty(t, got)
}

func TestEventDateLayouts(t *testing.T) {
	for _, raw := range []string{
		"2024-01-01T10:15:00Z",
		"2024-01-01T10:15:00",
		"2024-01-01",
	} {
		date, ok := EventDate(raw)
		require.True(t, ok, raw)
		assert.Equal(t, "2024-01-01", date)
	}
}

func TestStockTotalsSumWarehouses(t *testing.T) {
	stocks := []dto.Stock{
		{NmID: 10, WarehouseName: "Koledino", Quantity: 5},
		{NmID: 10, WarehouseName: "Kazan", Quantity: 7},
		{NmID: 11, WarehouseName: "Koledino", Quantity: 0},
	}

	totals := StockTotals(stocks)

	assert.Equal(t, map[int64]int{10: 12, 11: 0}, totals)
}
