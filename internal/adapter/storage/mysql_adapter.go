package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warebridge/stocksync/internal/core/domain"
)

// MySQLAdapter reads stock data from the host inventory database. This
// service never writes to it.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) FindStockItem(ctx context.Context, id int64) (*domain.StockItem, error) {
	var (
		item domain.StockItem
		qty  sql.NullFloat64
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT si.id, si.quantity, si.updated_at, p.id, p.name
		FROM stock_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.id = ?`, id,
	).Scan(&item.ID, &qty, &item.UpdatedAt, &item.Product.ID, &item.Product.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query stock item: %w", err)
	}

	item.Quantity = qty.Float64
	return &item, nil
}

func (m *MySQLAdapter) SumQuantityByProduct(ctx context.Context, productID int64) (float64, error) {
	var total float64
	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM stock_items
		WHERE product_id = ?`, productID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum product quantity: %w", err)
	}

	return total, nil
}
