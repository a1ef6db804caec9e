package domain

// RemoteProduct is the remote catalog's view of a product. Only existence
// and identity matter here; the catalog owns everything else.
type RemoteProduct struct {
	ID     int64  `json:"id"`
	SKU    string `json:"sku"`
	Name   string `json:"name"`
	Status int    `json:"status"`
}
