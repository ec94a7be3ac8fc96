package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"ipo-wizard/src/interfaces"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"
)

// GatewaySource reads the catalog and client directory from the upstream
// IPO gateway and forwards submissions to it.
//
//	GET  {base}/issues/{id}
//	GET  {base}/actors/{id}/clients
//	POST {base}/applications
type GatewaySource struct {
	BaseURL  string
	Exchange string
	Network  interfaces.INetworkManager
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewGatewaySource(cfg *models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *GatewaySource {
	return &GatewaySource{
		BaseURL:  strings.TrimRight(cfg.Catalog.BaseURL, "/"),
		Exchange: cfg.Catalog.Exchange,
		Network:  netMgr,
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

func (g *GatewaySource) FetchIssue(ctx context.Context, issueID string) (models.MIssueDescriptor, error) {
	body, err := g.Network.Get(ctx, g.BaseURL+"/issues/"+url.PathEscape(issueID), map[string]string{"exchange": g.Exchange})
	if err != nil {
		return models.MIssueDescriptor{}, err
	}

	var issue models.MIssueDescriptor
	if err := json.Unmarshal(body, &issue); err != nil {
		return models.MIssueDescriptor{}, fmt.Errorf("failed to decode issue %s: %w", issueID, err)
	}
	return issue, nil
}

// -----------------------------------------------------------------------------

func (g *GatewaySource) FetchRoster(ctx context.Context, actorID string) ([]models.MClient, error) {
	body, err := g.Network.Get(ctx, g.BaseURL+"/actors/"+url.PathEscape(actorID)+"/clients", nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Clients []models.MClient `json:"clients"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode roster for %s: %w", actorID, err)
	}
	g.Logger.Debug("Fetched %d clients for %s", len(envelope.Clients), actorID)
	return envelope.Clients, nil
}

// -----------------------------------------------------------------------------

// SubmitApplication posts once; the gateway deduplicates on application_id.
func (g *GatewaySource) SubmitApplication(ctx context.Context, payload models.MSubmissionPayload) (models.MSubmissionResult, error) {
	var res models.MSubmissionResult
	if err := g.Network.PostJSON(ctx, g.BaseURL+"/applications", payload, &res); err != nil {
		return models.MSubmissionResult{Success: false, Error: err.Error()}, err
	}
	return res, nil
}
