package port

import (
	"context"

	"github.com/warebridge/stocksync/internal/core/domain"
)

type CatalogClient interface {
	// GetProductBySKU fetches a remote product, returns nil when the
	// catalog reports it missing
	GetProductBySKU(ctx context.Context, sku string) (*domain.RemoteProduct, error)

	// UpdateStock pushes a full-state quantity update; inStock defaults to
	// qty > 0 when nil
	UpdateStock(ctx context.Context, sku string, qty float64, inStock *bool) error

	// TestConnection performs a cheap authenticated read against the remote
	TestConnection(ctx context.Context) error
}
