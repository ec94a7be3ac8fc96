package interfaces

import (
	"context"

	"ipo-wizard/src/models"
)

// -----------------------------------------------------------------------------
// ISubmissionSink receives finished applications.
// -----------------------------------------------------------------------------

type ISubmissionSink interface {

	// SubmitApplication must be idempotent per payload.ApplicationID: a repeated
	// call returns the reference issued the first time.
	SubmitApplication(ctx context.Context, payload models.MSubmissionPayload) (models.MSubmissionResult, error)
}

// -----------------------------------------------------------------------------
// IApplicationBook records which applications were accepted and under which reference.
// -----------------------------------------------------------------------------

type IApplicationBook interface {
	FindApplication(ctx context.Context, applicationID string) (referenceID string, found bool, err error)
	RecordApplication(ctx context.Context, payload models.MSubmissionPayload, referenceID string) error
}

// -----------------------------------------------------------------------------
// IDraftStore persists in-progress applications.
// -----------------------------------------------------------------------------

type IDraftStore interface {
	SaveDraft(ctx context.Context, draft models.MWizardDraft) (models.MDraftResult, error)

	// LoadDraft returns helpers.ErrNotFound for unknown ids.
	LoadDraft(ctx context.Context, draftID string) (models.MWizardDraft, error)
}

// -----------------------------------------------------------------------------
// IPinger reports whether a backend is reachable.
// -----------------------------------------------------------------------------

type IPinger interface {
	Ping(ctx context.Context) error
}

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {
	ISubmissionSink
	IApplicationBook
	IDraftStore
	IPinger

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// CleanupOldData removes drafts older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
