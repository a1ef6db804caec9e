package domain

import "time"

// Product is the host system's product. Its name doubles as the remote
// catalog SKU, so a product with an empty name cannot be synced.
type Product struct {
	ID   int64
	Name string
}

// StockItem is a single stock record (line item, location, batch) owned by
// the host inventory system. Many stock items may belong to one product.
// Read-only from this service's point of view.
type StockItem struct {
	ID        int64
	Product   Product
	Quantity  float64
	UpdatedAt time.Time
}

// SKU returns the remote catalog identifier for the item's product.
func (s StockItem) SKU() string {
	return s.Product.Name
}
