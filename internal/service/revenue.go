package service

import (
	"math"

	"github.com/iliyamo/orvella-storefront/internal/model"
)

// TotalRevenue sums TotalPrice over orders that are not cancelled.  The sum
// saturates at math.MaxInt64 instead of wrapping.
func TotalRevenue(orders []model.Order) int64 {
	var total int64
	for _, o := range orders {
		if o.Status == model.StatusCancelled {
			continue
		}
		next, ok := addAmounts(total, o.TotalPrice)
		if !ok {
			return math.MaxInt64
		}
		total = next
	}
	return total
}
