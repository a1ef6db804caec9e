package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/warebridge/stocksync/internal/adapter/magento"
	"github.com/warebridge/stocksync/internal/core/domain"
)

// StockEventService is the slice of the sync service the HTTP surface needs.
type StockEventService interface {
	HandleEvent(ctx context.Context, evt domain.StockEvent)
	ValidateConnection(ctx context.Context) error
}

type HTTPHandler struct {
	syncService StockEventService
	logger      *slog.Logger
}

func NewHTTPHandler(syncService StockEventService, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{syncService: syncService, logger: logger}
}

type productSnapshot struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type stockItemSnapshot struct {
	ID       int64           `json:"id"`
	Quantity float64         `json:"quantity"`
	Product  productSnapshot `json:"product"`
}

type stockEventRequest struct {
	Event    string             `json:"event"`
	ID       int64              `json:"id"`
	Model    string             `json:"model"`
	Instance *stockItemSnapshot `json:"instance"`
}

type eventResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// StockEvent ingests one inventory change event from the host dispatcher and
// runs it through the sync pipeline synchronously. The sync outcome never
// reaches the caller; a 202 only acknowledges ingestion.
func (h *HTTPHandler) StockEvent(w http.ResponseWriter, r *http.Request) {
	var req stockEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, eventResponse{Message: "invalid request body"})
		return
	}

	if req.Event == "" || (req.ID == 0 && req.Instance == nil) {
		writeJSON(w, http.StatusBadRequest, eventResponse{Message: "event name and stock item id are required"})
		return
	}

	evt := domain.StockEvent{
		Name:        req.Event,
		StockItemID: req.ID,
		Model:       req.Model,
	}
	if req.Instance != nil {
		evt.Item = &domain.StockItem{
			ID:       req.Instance.ID,
			Quantity: req.Instance.Quantity,
			Product: domain.Product{
				ID:   req.Instance.Product.ID,
				Name: req.Instance.Product.Name,
			},
		}
		if evt.StockItemID == 0 {
			evt.StockItemID = req.Instance.ID
		}
	}

	correlationID := uuid.NewString()
	h.logger.Debug("stock event received",
		slog.String("correlation_id", correlationID),
		slog.String("event", req.Event),
		slog.String("model", req.Model),
		slog.Int64("stock_item_id", evt.StockItemID),
	)

	h.syncService.HandleEvent(r.Context(), evt)

	writeJSON(w, http.StatusAccepted, eventResponse{Accepted: true})
}

// TestConnection validates the remote configuration outside the sync path.
func (h *HTTPHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	err := h.syncService.ValidateConnection(r.Context())
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if errors.Is(err, magento.ErrNotConfigured) {
		writeJSON(w, http.StatusConflict, eventResponse{Message: "remote URL and access token are not configured"})
		return
	}

	h.logger.Warn("remote connection test failed", slog.Any("error", err))
	writeJSON(w, http.StatusBadGateway, eventResponse{Message: "remote catalog unreachable"})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
