package service

import "github.com/warebridge/stocksync/internal/core/domain"

// eventClass groups stock events for the per-class toggles. Everything that
// changes quantity without creating or deleting a record counts as an update.
type eventClass int

const (
	classNone eventClass = iota
	classCreate
	classUpdate
	classDelete
)

// stockEvents is the authoritative allow-list of events that can change the
// total on-hand quantity of a product.
var stockEvents = map[string]eventClass{
	domain.EventStockItemCreated:              classCreate,
	domain.EventStockItemDeleted:              classDelete,
	domain.EventStockItemQuantityUpdated:      classUpdate,
	domain.EventStockItemMoved:                classUpdate,
	domain.EventStockItemCounted:              classUpdate,
	domain.EventStockItemSplit:                classUpdate,
	domain.EventStockItemAssignedToCustomer:   classUpdate,
	domain.EventStockItemReturnedFromCustomer: classUpdate,
	domain.EventStockItemInstalled:            classUpdate,
}

// ShouldProcess decides whether an inbound event warrants a sync attempt.
// Pure and O(1); it runs before any data access, so disabling sync or
// narrowing the accepted set is the only throttle the pipeline has.
func ShouldProcess(eventName string, s domain.Settings) bool {
	if !s.EnableSync {
		return false
	}

	switch stockEvents[eventName] {
	case classCreate:
		return s.SyncOnCreate
	case classUpdate:
		return s.SyncOnUpdate
	case classDelete:
		return s.SyncOnDelete
	default:
		return false
	}
}
