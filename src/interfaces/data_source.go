package interfaces

import (
	"context"

	"ipo-wizard/src/models"
)

// -----------------------------------------------------------------------------
// IIssueCatalog is the externally owned, read-only IPO catalog.
// -----------------------------------------------------------------------------

type IIssueCatalog interface {

	// FetchIssue returns the descriptor for issueID or helpers.ErrNotFound.
	FetchIssue(ctx context.Context, issueID string) (models.MIssueDescriptor, error)
}

// -----------------------------------------------------------------------------
// IClientDirectory is the externally owned client directory. The wizard never mutates it.
// -----------------------------------------------------------------------------

type IClientDirectory interface {

	// FetchRoster returns the clients an actor may apply for, in display order.
	FetchRoster(ctx context.Context, actorID string) ([]models.MClient, error)
}
