package tests

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warebridge/stocksync/internal/adapter/handler"
	"github.com/warebridge/stocksync/internal/adapter/magento"
	"github.com/warebridge/stocksync/internal/adapter/storage"
	"github.com/warebridge/stocksync/internal/core/domain"
	"github.com/warebridge/stocksync/internal/core/service"
)

// memoryInventory stands in for the host inventory database in tests that do
// not need a real MySQL instance.
type memoryInventory struct {
	items  map[int64]domain.StockItem
	totals map[int64]float64
}

func (m *memoryInventory) FindStockItem(ctx context.Context, id int64) (*domain.StockItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *memoryInventory) SumQuantityByProduct(ctx context.Context, productID int64) (float64, error) {
	return m.totals[productID], nil
}

// remoteCatalog is a fake Magento 2 REST endpoint.
type remoteCatalog struct {
	skus    map[string]bool
	fetches atomic.Int32
	updates atomic.Int32
	lastPut atomic.Value // raw body of the last stock update
}

func (rc *remoteCatalog) server() *httptest.Server {
	mux := chi.NewRouter()
	mux.Get("/rest/V1/products/{sku}", func(w http.ResponseWriter, r *http.Request) {
		rc.fetches.Add(1)
		sku := chi.URLParam(r, "sku")
		if !rc.skus[sku] {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 1, "sku": sku})
	})
	mux.Put("/rest/V1/products/{sku}/stockItems/1", func(w http.ResponseWriter, r *http.Request) {
		rc.updates.Add(1)
		body, _ := io.ReadAll(r.Body)
		rc.lastPut.Store(string(body))
		w.WriteHeader(http.StatusOK)
	})
	mux.Get("/rest/V1/store/storeConfigs", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":1,"code":"default"}]`)
	})
	return httptest.NewServer(mux)
}

type stockUpdateBody struct {
	StockItem struct {
		Qty       float64 `json:"qty"`
		IsInStock bool    `json:"is_in_stock"`
	} `json:"stockItem"`
}

func (rc *remoteCatalog) lastUpdate(t *testing.T) stockUpdateBody {
	t.Helper()
	raw, _ := rc.lastPut.Load().(string)
	require.NotEmpty(t, raw, "no stock update was received")
	var body stockUpdateBody
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	return body
}

type pipeline struct {
	api      *httptest.Server
	remote   *remoteCatalog
	settings *miniredis.Miniredis
}

func newPipeline(t *testing.T, inv *memoryInventory, remoteSKUs map[string]bool, extraSettings map[string]string) *pipeline {
	t.Helper()

	remote := &remoteCatalog{skus: remoteSKUs}
	remoteSrv := remote.server()
	t.Cleanup(remoteSrv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	mr.HSet("stocksync:settings",
		"MAGENTO_URL", remoteSrv.URL,
		"ACCESS_TOKEN", "integration-token",
		"ENABLE_SYNC", "true",
	)
	for k, v := range extraSettings {
		mr.HSet("stocksync:settings", k, v)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	settingsRepo := storage.NewRedisSettings(rdb)

	initial, err := settingsRepo.Load(context.Background())
	require.NoError(t, err)

	catalog := magento.NewClient(magento.Config{
		BaseURL:        initial.RemoteURL,
		AccessToken:    initial.AccessToken,
		Timeout:        initial.Timeout,
		VerifySSL:      initial.VerifySSL,
		InitialBackoff: time.Millisecond,
	}, logger)

	syncService := service.NewSyncService(inv, settingsRepo, catalog, logger)
	httpHandler := handler.NewHTTPHandler(syncService, logger)

	router := chi.NewRouter()
	router.Get("/healthz", httpHandler.HealthCheck)
	router.Post("/api/v1/events", httpHandler.StockEvent)
	router.Post("/api/v1/connection/test", httpHandler.TestConnection)

	api := httptest.NewServer(router)
	t.Cleanup(api.Close)

	return &pipeline{api: api, remote: remote, settings: mr}
}

func postJSON(t *testing.T, url string, body map[string]any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPipeline_QuantityUpdateReachesRemote(t *testing.T) {
	inv := &memoryInventory{
		items: map[int64]domain.StockItem{
			42: {ID: 42, Product: domain.Product{ID: 7, Name: "WIDGET-1"}, Quantity: 5},
		},
		totals: map[int64]float64{7: 25},
	}
	p := newPipeline(t, inv, map[string]bool{"WIDGET-1": true}, nil)

	resp := postJSON(t, p.api.URL+"/api/v1/events", map[string]any{
		"event": "stockitem.quantityupdated",
		"id":    42,
		"model": "StockItem",
	})

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, int32(1), p.remote.fetches.Load())
	require.Equal(t, int32(1), p.remote.updates.Load())

	put := p.remote.lastUpdate(t)
	assert.Equal(t, 25.0, put.StockItem.Qty)
	assert.True(t, put.StockItem.IsInStock)
}

func TestPipeline_DryRunMakesNoRemoteCalls(t *testing.T) {
	inv := &memoryInventory{
		items: map[int64]domain.StockItem{
			3: {ID: 3, Product: domain.Product{ID: 9, Name: "GADGET"}},
		},
		totals: map[int64]float64{9: 12},
	}
	p := newPipeline(t, inv, map[string]bool{"GADGET": true}, map[string]string{"DRY_RUN": "true"})

	resp := postJSON(t, p.api.URL+"/api/v1/events", map[string]any{
		"event": "stockitem.quantityupdated",
		"id":    3,
	})

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Zero(t, p.remote.fetches.Load())
	assert.Zero(t, p.remote.updates.Load())
}

func TestPipeline_UnknownSKUSkipsUpdate(t *testing.T) {
	inv := &memoryInventory{
		items: map[int64]domain.StockItem{
			5: {ID: 5, Product: domain.Product{ID: 2, Name: "UNLISTED"}},
		},
		totals: map[int64]float64{2: 8},
	}
	p := newPipeline(t, inv, map[string]bool{}, nil)

	resp := postJSON(t, p.api.URL+"/api/v1/events", map[string]any{
		"event": "stockitem.quantityupdated",
		"id":    5,
	})

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, int32(1), p.remote.fetches.Load())
	assert.Zero(t, p.remote.updates.Load())
}

func TestPipeline_SettingsChangeTakesEffectPerEvent(t *testing.T) {
	inv := &memoryInventory{
		items: map[int64]domain.StockItem{
			42: {ID: 42, Product: domain.Product{ID: 7, Name: "WIDGET-1"}},
		},
		totals: map[int64]float64{7: 25},
	}
	p := newPipeline(t, inv, map[string]bool{"WIDGET-1": true}, nil)

	event := map[string]any{"event": "stockitem.quantityupdated", "id": 42}

	postJSON(t, p.api.URL+"/api/v1/events", event)
	require.Equal(t, int32(1), p.remote.updates.Load())

	// Operator flips the switch off; the next event must not sync.
	p.settings.HSet("stocksync:settings", "ENABLE_SYNC", "false")
	postJSON(t, p.api.URL+"/api/v1/events", event)
	assert.Equal(t, int32(1), p.remote.updates.Load())
}

func TestPipeline_ConnectionTest(t *testing.T) {
	inv := &memoryInventory{items: map[int64]domain.StockItem{}, totals: map[int64]float64{}}
	p := newPipeline(t, inv, map[string]bool{}, nil)

	resp, err := http.Post(p.api.URL+"/api/v1/connection/test", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

// TestPipeline_AgainstMySQL runs the aggregation path against a real host
// database. Skipped unless MYSQL_DSN points at a reachable instance.
func TestPipeline_AgainstMySQL(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	defer db.Close()
	if err := db.PingContext(context.Background()); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (id BIGINT PRIMARY KEY, name VARCHAR(255) NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS stock_items (
			id BIGINT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			quantity DECIMAL(15,5) NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`DELETE FROM stock_items`,
		`DELETE FROM products`,
		`INSERT INTO products (id, name) VALUES (7, 'WIDGET-1')`,
		`INSERT INTO stock_items (id, product_id, quantity) VALUES (42, 7, 10), (43, 7, 15)`,
	}
	for _, stmt := range stmts {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	remote := &remoteCatalog{skus: map[string]bool{"WIDGET-1": true}}
	remoteSrv := remote.server()
	defer remoteSrv.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.HSet("stocksync:settings",
		"MAGENTO_URL", remoteSrv.URL,
		"ACCESS_TOKEN", "integration-token",
		"ENABLE_SYNC", "true",
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := magento.NewClient(magento.Config{
		BaseURL:     remoteSrv.URL,
		AccessToken: "integration-token",
	}, logger)

	syncService := service.NewSyncService(
		storage.NewMySQLAdapter(db),
		storage.NewRedisSettings(rdb),
		catalog,
		logger,
	)

	syncService.HandleEvent(ctx, domain.StockEvent{
		Name:        "stockitem.quantityupdated",
		StockItemID: 42,
	})

	require.Equal(t, int32(1), remote.updates.Load())
	assert.Equal(t, 25.0, remote.lastUpdate(t).StockItem.Qty)
}
