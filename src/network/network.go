package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ipo-wizard/src/helpers"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"
)

const userAgent = "ipo-wizard/1.0"

// NetworkManager talks to the upstream IPO gateway. GETs are retried with
// backoff; POSTs are sent exactly once.
type NetworkManager struct {
	Config  *models.MConfig
	Client  *http.Client
	Logger  *logger.Logger
	Backoff time.Duration
}

// -----------------------------------------------------------------------------

func NewNetworkManager(cfg *models.MConfig, log *logger.Logger) *NetworkManager {
	return &NetworkManager{
		Config: cfg,
		Client: &http.Client{
			Timeout: time.Duration(cfg.Network.RequestTimeout) * time.Second,
		},
		Logger:  log,
		Backoff: time.Second,
	}
}

// -----------------------------------------------------------------------------

func (nm *NetworkManager) newRequest(ctx context.Context, method, urlStr string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if key := nm.Config.Catalog.APIKey; key != "" {
		req.Header.Set("X-API-Key", key)
	}
	return req, nil
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries. A 404 is returned at once as
// helpers.ErrNotFound.
func (nm *NetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	maxRetries := nm.Config.Network.MaxRetries
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i*i) * nm.Backoff):
			}
		}

		req, err := nm.newRequest(ctx, http.MethodGet, finalURL, nil)
		if err != nil {
			return nil, err
		}

		body, status, err := nm.do(req)
		if err != nil {
			lastErr = err
			nm.Logger.Info("Request failed (attempt %d/%d): %v", i+1, maxRetries+1, err)
			continue
		}
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", reqURL.Path, helpers.ErrNotFound)
		}
		if status != http.StatusOK {
			lastErr = fmt.Errorf("bad status: %d", status)
			nm.Logger.Info("Bad status %d from %s", status, reqURL.Path)
			continue
		}
		return body, nil
	}

	return nil, helpers.NewNetworkError("max retries exceeded for "+reqURL.Path, lastErr)
}

// -----------------------------------------------------------------------------

// PostJSON sends body as JSON once and decodes a 2xx response into out.
func (nm *NetworkManager) PostJSON(ctx context.Context, urlStr string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := nm.newRequest(ctx, http.MethodPost, urlStr, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, status, err := nm.do(req)
	if err != nil {
		return helpers.NewNetworkError("POST "+req.URL.Path+" failed", err)
	}
	if status < 200 || status >= 300 {
		return helpers.NewNetworkError(fmt.Sprintf("POST %s returned %d", req.URL.Path, status), fmt.Errorf("%s", bytes.TrimSpace(respBody)))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (nm *NetworkManager) do(req *http.Request) ([]byte, int, error) {
	resp, err := nm.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
