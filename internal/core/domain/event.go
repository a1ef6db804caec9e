package domain

// Stock event names emitted by the host inventory system.
const (
	EventStockItemCreated              = "stockitem.created"
	EventStockItemDeleted              = "stockitem.deleted"
	EventStockItemQuantityUpdated      = "stockitem.quantityupdated"
	EventStockItemMoved                = "stockitem.moved"
	EventStockItemCounted              = "stockitem.counted"
	EventStockItemSplit                = "stockitem.split"
	EventStockItemAssignedToCustomer   = "stockitem.assignedtocustomer"
	EventStockItemReturnedFromCustomer = "stockitem.returnedfromcustomer"
	EventStockItemInstalled            = "stockitem.installed"
)

// StockEvent is a single inventory change notification. Item carries a
// snapshot of the affected record when the host delivers one; for delete
// events the snapshot is the only source, since the record is already gone
// from the store by the time the event arrives.
type StockEvent struct {
	Name        string
	StockItemID int64
	Model       string
	Item        *StockItem
}
