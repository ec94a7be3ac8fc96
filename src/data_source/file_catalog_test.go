package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ipo-wizard/src/helpers"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
issues:
  - id: ipo-001
    company_name: TechCorp Industries Ltd
    sector: Technology
    exchange: NSE
    price_range: {min: "120", max: "140"}
    lot_size: 100
    cut_off_price: "135"
    min_investment: "12000"
    max_investment: "200000"
    max_lots_per_application: 13
    subscription_start: 2025-01-15T10:00:00+05:30
    subscription_end: 2025-01-17T17:00:00+05:30
    listing_date: 2025-01-22T10:00:00+05:30
rosters:
  broker-01:
    - id: client-001
      name: Rajesh Kumar Sharma
      available_funds: "500000"
      kyc_status: Verified
    - id: client-004
      name: Sunita Agarwal
      available_funds: "50000"
      kyc_status: Pending
`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestFileCatalogFetchIssue(t *testing.T) {
	fc, err := NewFileCatalog(writeCatalog(t, catalogYAML), logger.NewNopLogger("Catalog"))
	require.NoError(t, err)

	issue, err := fc.FetchIssue(context.Background(), "ipo-001")
	require.NoError(t, err)
	assert.Equal(t, "TechCorp Industries Ltd", issue.CompanyName)
	assert.Equal(t, "135", issue.CutOffPrice.String())
	assert.Equal(t, "140", issue.PriceRange.Max.String())
	assert.Equal(t, 13, issue.MaxLotsPerApplication)
	assert.True(t, issue.SubscriptionEnd.Equal(time.Date(2025, 1, 17, 11, 30, 0, 0, time.UTC)))

	_, err = fc.FetchIssue(context.Background(), "ipo-999")
	assert.ErrorIs(t, err, helpers.ErrNotFound)
}

func TestFileCatalogFetchRoster(t *testing.T) {
	fc, err := NewFileCatalog(writeCatalog(t, catalogYAML), logger.NewNopLogger("Catalog"))
	require.NoError(t, err)

	clients, err := fc.FetchRoster(context.Background(), "broker-01")
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, models.KYCPending, clients[1].KYCStatus)
	assert.Equal(t, "500000", clients[0].AvailableFunds.String())

	clients[0].Name = "mutated"
	again, _ := fc.FetchRoster(context.Background(), "broker-01")
	assert.Equal(t, "Rajesh Kumar Sharma", again[0].Name)

	none, err := fc.FetchRoster(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFileCatalogReloadKeepsOldContentsOnError(t *testing.T) {
	path := writeCatalog(t, catalogYAML)
	fc, err := NewFileCatalog(path, logger.NewNopLogger("Catalog"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("issues: [ {company_name: x} ]"), 0644))
	assert.Error(t, fc.Reload())

	_, err = fc.FetchIssue(context.Background(), "ipo-001")
	assert.NoError(t, err)
}
