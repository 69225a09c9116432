package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Revenue holds realised totals per currency. Amounts in different currencies are never summed.
type Revenue map[currency.Unit]decimal.Decimal

// In returns the total for unit, zero when nothing was earned in it.
func (r Revenue) In(unit currency.Unit) decimal.Decimal {
	return r[unit]
}

type OrderStats struct {
	TotalOrders    int64
	ByStatus       map[OrderStatus]int64
	TotalRevenue   Revenue
	MonthlyRevenue Revenue
}

func (s OrderStats) Count(status OrderStatus) int64 {
	return s.ByStatus[status]
}

// MonthStart returns the first instant of now's calendar month in now's location.
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}
