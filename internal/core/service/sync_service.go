package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/warebridge/stocksync/internal/core/domain"
	"github.com/warebridge/stocksync/internal/port"
)

var (
	ErrItemNotResolved = errors.New("stock item could not be resolved")
	ErrProductNoName   = errors.New("product has no name, cannot derive SKU")
)

// SyncService drives one stock event through the decision pipeline: policy
// gate, item and SKU resolution, quantity aggregation, then the remote
// update. Events are processed synchronously and independently; nothing is
// shared between invocations beyond the injected collaborators.
type SyncService struct {
	inventory port.InventoryRepository
	settings  port.SettingsRepository
	catalog   port.CatalogClient
	logger    *slog.Logger
}

func NewSyncService(inventory port.InventoryRepository, settings port.SettingsRepository, catalog port.CatalogClient, logger *slog.Logger) *SyncService {
	return &SyncService{
		inventory: inventory,
		settings:  settings,
		catalog:   catalog,
		logger:    logger,
	}
}

// HandleEvent processes a single stock event to completion or abandonment.
// It never returns an error and never panics past its boundary: one bad
// event must not disturb the host's dispatch loop, so every failure is
// logged here and swallowed. Outcomes are observable through logs only.
func (s *SyncService) HandleEvent(ctx context.Context, evt domain.StockEvent) {
	logger := s.logger.With(
		slog.String("event", evt.Name),
		slog.Int64("stock_item_id", evt.StockItemID),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing stock event", slog.Any("panic", r))
		}
	}()

	settings, err := s.settings.Load(ctx)
	if err != nil {
		logger.Error("load sync settings", slog.Any("error", err))
		return
	}

	if !ShouldProcess(evt.Name, settings) {
		logger.Debug("event skipped by sync policy")
		return
	}

	if err := s.sync(ctx, evt, settings, logger); err != nil {
		logger.Error("stock sync abandoned", slog.Any("error", err))
	}
}

func (s *SyncService) sync(ctx context.Context, evt domain.StockEvent, settings domain.Settings, logger *slog.Logger) error {
	item, err := s.resolveItem(ctx, evt)
	if err != nil {
		return err
	}

	sku := item.SKU()
	if sku == "" {
		return ErrProductNoName
	}

	qty := s.totalQuantity(ctx, item.Product, logger)

	if settings.DryRun {
		logger.Info("dry run: would update remote stock",
			slog.String("sku", sku),
			slog.Float64("qty", qty),
		)
		return nil
	}

	remote, err := s.catalog.GetProductBySKU(ctx, sku)
	if err != nil {
		return err
	}
	if remote == nil {
		// Products are never created remotely from here.
		logger.Warn("sku not listed in remote catalog, skipping", slog.String("sku", sku))
		return nil
	}

	if err := s.catalog.UpdateStock(ctx, sku, qty, nil); err != nil {
		return err
	}

	logger.Info("remote stock synced",
		slog.String("sku", sku),
		slog.Float64("qty", qty),
	)
	return nil
}

// resolveItem prefers the snapshot delivered with the event. Delete events
// depend on it, the record is already gone from the store.
func (s *SyncService) resolveItem(ctx context.Context, evt domain.StockEvent) (*domain.StockItem, error) {
	if evt.Item != nil {
		return evt.Item, nil
	}
	if evt.Name == domain.EventStockItemDeleted {
		return nil, ErrItemNotResolved
	}

	item, err := s.inventory.FindStockItem(ctx, evt.StockItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotResolved
	}
	return item, nil
}

// totalQuantity sums the on-hand quantity of every stock item belonging to
// the product. A read error degrades to zero instead of skipping the sync:
// pushing an explicit zero is the safer failure mode than leaving a stale
// positive quantity in the remote catalog.
func (s *SyncService) totalQuantity(ctx context.Context, product domain.Product, logger *slog.Logger) float64 {
	qty, err := s.inventory.SumQuantityByProduct(ctx, product.ID)
	if err != nil {
		logger.Error("aggregate product quantity, degrading to zero",
			slog.Int64("product_id", product.ID),
			slog.Any("error", err),
		)
		return 0
	}
	return qty
}

// ValidateConnection exercises the remote connectivity check, used by the
// configuration validation surface rather than the sync hot path.
func (s *SyncService) ValidateConnection(ctx context.Context) error {
	return s.catalog.TestConnection(ctx)
}
