package magento

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/warebridge/stocksync/internal/core/domain"
)

var (
	ErrNotConfigured     = errors.New("magento: base URL and access token must be configured")
	ErrRemoteUnavailable = errors.New("magento: remote unavailable")
)

// RemoteError is a non-2xx response outside the transient retry set.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("magento: HTTP %d: %s", e.StatusCode, e.Body)
}

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
	maxBackoff         = 30 * time.Second
	backoffMultiplier  = 2.0
	maxErrorBodySize   = 4 * 1024
)

// Statuses worth retrying on idempotent requests. Updates are full-state
// PUTs, so they are retried on the same set.
var transientStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	VerifySSL   bool

	// MaxAttempts and InitialBackoff override the retry policy, zero values
	// keep the defaults
	MaxAttempts    int
	InitialBackoff time.Duration
}

// Client talks to the Magento 2 REST API. A single instance is constructed
// at startup and reused; connection pooling lives inside the transport.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	backoff := cfg.InitialBackoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AccessToken,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger:      logger,
		maxAttempts: attempts,
		backoff:     backoff,
	}
}

// GetProductBySKU fetches a product from the remote catalog. A 404 from the
// remote means the product simply is not listed there, so it returns
// (nil, nil) rather than an error.
func (c *Client) GetProductBySKU(ctx context.Context, sku string) (*domain.RemoteProduct, error) {
	data, err := c.do(ctx, http.MethodGet, "/rest/V1/products/"+url.PathEscape(sku), nil)
	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var product domain.RemoteProduct
	if len(data) > 0 {
		if err := json.Unmarshal(data, &product); err != nil {
			return nil, fmt.Errorf("magento: decode product %q: %w", sku, err)
		}
	}
	return &product, nil
}

type stockItemPayload struct {
	Qty       float64 `json:"qty"`
	IsInStock bool    `json:"is_in_stock"`
}

type updateStockRequest struct {
	StockItem stockItemPayload `json:"stockItem"`
}

// UpdateStock sets the absolute stock quantity for a SKU. When inStock is
// nil the flag is derived from the quantity.
func (c *Client) UpdateStock(ctx context.Context, sku string, qty float64, inStock *bool) error {
	stocked := qty > 0
	if inStock != nil {
		stocked = *inStock
	}

	payload := updateStockRequest{
		StockItem: stockItemPayload{Qty: qty, IsInStock: stocked},
	}

	endpoint := "/rest/V1/products/" + url.PathEscape(sku) + "/stockItems/1"
	if _, err := c.do(ctx, http.MethodPut, endpoint, payload); err != nil {
		return err
	}

	c.logger.Debug("remote stock updated",
		slog.String("sku", sku),
		slog.Float64("qty", qty),
		slog.Bool("in_stock", stocked),
	)
	return nil
}

// TestConnection verifies URL, token and reachability with a cheap read.
// Not part of the sync hot path.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/rest/V1/store/storeConfigs", nil)
	return err
}

// do issues one API request with retry on transient failures. A 2xx with an
// empty body is success with no payload.
func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	if c.baseURL == "" || c.token == "" {
		return nil, ErrNotConfigured
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("magento: encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
			c.logger.Debug("retrying remote request",
				slog.String("method", method),
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt+1),
			)
		}

		data, err := c.once(ctx, method, endpoint, body)
		if err == nil {
			return data, nil
		}

		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) && !transientStatus[remoteErr.StatusCode] {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, ctx.Err())
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRemoteUnavailable, c.maxAttempts, lastErr)
}

func (c *Client) once(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("magento: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("magento: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("magento: read response: %w", err)
		}
		return data, nil
	}

	errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return nil, &RemoteError{StatusCode: resp.StatusCode, Body: string(errBody)}
}

// wait sleeps for the exponential backoff delay before the given attempt,
// aborting early on context cancellation.
func (c *Client) wait(ctx context.Context, attempt int) error {
	delay := float64(c.backoff)
	for i := 1; i < attempt; i++ {
		delay *= backoffMultiplier
	}
	d := time.Duration(delay)
	if d > maxBackoff {
		d = maxBackoff
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, ctx.Err())
	case <-timer.C:
		return nil
	}
}
