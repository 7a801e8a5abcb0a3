package aggregate

import (
	"time"

	"wbanalytics_api/internal/wildberries/dto"
)

// Key -- корзина суточной агрегации: артикул + календарный день.
type Key struct {
	NmID int64
	Date string // YYYY-MM-DD
}

type Metrics struct {
	Orders  int
	Buyouts int
	Revenue float64
}

var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// EventDate выделяет календарную дату события (без учета таймзоны).
func EventDate(raw string) (string, bool) {
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// Daily сводит потоки заказов и продаж в счетчики по (nm_id, день).
// Чистая свертка без побочных эффектов:
//   - заказ дает +1 в orders своей корзины;
//   - продажа -- выкуп, если есть saleID и нет cancelID; выкуп дает +1 в
//     buyouts и priceWithDisc в revenue, отмененные не дают ничего;
//   - в результате только реально встреченные ключи, не полная сетка дат.
func Daily(orders []dto.Order, sales []dto.Sale) map[Key]Metrics {
	result := make(map[Key]Metrics)

	for _, order := range orders {
		date, ok := EventDate(order.Date)
		if !ok {
			continue
		}
		key := Key{NmID: order.NmID, Date: date}
		m := result[key]
		m.Orders++
		result[key] = m
	}

	for _, sale := range sales {
		date, ok := EventDate(sale.Date)
		if !ok {
			continue
		}
		key := Key{NmID: sale.NmID, Date: date}
		m := result[key]
		if sale.IsBuyout() {
			m.Buyouts++
			m.Revenue += sale.PriceWithDisc
		}
		result[key] = m
	}

	return result
}

// StockTotals суммирует остатки по всем складам для каждого артикула.
func StockTotals(stocks []dto.Stock) map[int64]int {
	totals := make(map[int64]int)
	for _, stock := range stocks {
		totals[stock.NmID] += stock.Quantity
	}
	return totals
}
