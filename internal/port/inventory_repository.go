package port

import (
	"context"

	"github.com/warebridge/stocksync/internal/core/domain"
)

type InventoryRepository interface {
	// FindStockItem retrieves a stock item with its owning product,
	// returns nil when no such record exists
	FindStockItem(ctx context.Context, id int64) (*domain.StockItem, error)

	// SumQuantityByProduct totals the on-hand quantity across every stock
	// item of the product; an empty set sums to zero
	SumQuantityByProduct(ctx context.Context, productID int64) (float64, error)
}
