package derive

import (
	"time"

	"ledger/internal/core"
)

// DayBucket counts the records on one calendar day.
type DayBucket struct {
	PurchaseCount int
	SaleCount     int
}

// BucketByMonth groups records by business date within year/month, keyed by
// day of month. Days without records are absent.
func BucketByMonth(records []core.Transaction, year int, month time.Month) map[int]DayBucket {
	buckets := make(map[int]DayBucket)
	for _, tx := range records {
		if tx.Date.Year() != year || tx.Date.Month() != int(month) {
			continue
		}
		b := buckets[tx.Date.Day()]
		switch tx.Type {
		case core.Purchase:
			b.PurchaseCount++
		case core.Sale:
			b.SaleCount++
		}
		buckets[tx.Date.Day()] = b
	}
	return buckets
}

// ShiftMonth moves year/month by delta months.
func ShiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
