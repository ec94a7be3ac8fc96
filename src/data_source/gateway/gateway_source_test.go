package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ipo-wizard/src/helpers"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"
	"ipo-wizard/src/network"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, h http.Handler) *GatewaySource {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := &models.MConfig{
		Network: models.MNetworkConfig{RequestTimeout: 5},
		Catalog: models.MCatalogConfig{Type: "gateway", BaseURL: srv.URL + "/", Exchange: "BSE"},
	}
	nm := network.NewNetworkManager(cfg, logger.NewNopLogger("Network"))
	nm.Backoff = 0
	return NewGatewaySource(cfg, nm, logger.NewNopLogger("Gateway"))
}

func TestGatewayFetchIssueAndRoster(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/issues/ipo-001", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BSE", r.URL.Query().Get("exchange"))
		w.Write([]byte(`{"id":"ipo-001","lot_size":100,"cut_off_price":"135","price_range":{"min":"120","max":"140"},"max_lots_per_application":13}`))
	})
	mux.HandleFunc("/actors/broker-01/clients", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"clients":[{"id":"client-001","available_funds":"500000","kyc_status":"Verified"}]}`))
	})
	g := newGateway(t, mux)

	issue, err := g.FetchIssue(context.Background(), "ipo-001")
	require.NoError(t, err)
	assert.Equal(t, "135", issue.CutOffPrice.String())
	assert.Equal(t, 100, issue.LotSize)

	clients, err := g.FetchRoster(context.Background(), "broker-01")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.True(t, clients[0].IsVerified())

	_, err = g.FetchIssue(context.Background(), "ipo-404")
	assert.ErrorIs(t, err, helpers.ErrNotFound)
}

func TestGatewaySubmitApplication(t *testing.T) {
	var got models.MSubmissionPayload
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/applications", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(models.MSubmissionResult{Success: true, ReferenceID: "NSE-778"})
	}))

	res, err := g.SubmitApplication(context.Background(), models.MSubmissionPayload{
		ApplicationID: "app-1",
		GrandTotal:    decimal.RequireFromString("13532.805"),
	})
	require.NoError(t, err)
	assert.Equal(t, "NSE-778", res.ReferenceID)
	assert.Equal(t, "app-1", got.ApplicationID)
	assert.Equal(t, "13532.805", got.GrandTotal.String())
}

func TestGatewaySubmitFailure(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "exchange closed", http.StatusServiceUnavailable)
	}))

	res, err := g.SubmitApplication(context.Background(), models.MSubmissionPayload{ApplicationID: "app-1"})
	assert.Error(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "exchange closed")
}
