package storage

import (
	"context"
	"errors"

	"ipo-wizard/src/interfaces"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"
)

// ForwardingSink sends applications upstream once per application id and
// keeps the upstream reference in the local book, so a manual retry after a
// lost response does not create a second application.
type ForwardingSink struct {
	Book     interfaces.IApplicationBook
	Upstream interfaces.ISubmissionSink
	Logger   *logger.Logger
}

func NewForwardingSink(book interfaces.IApplicationBook, upstream interfaces.ISubmissionSink, log *logger.Logger) *ForwardingSink {
	return &ForwardingSink{Book: book, Upstream: upstream, Logger: log}
}

// -----------------------------------------------------------------------------

func (f *ForwardingSink) SubmitApplication(ctx context.Context, p models.MSubmissionPayload) (models.MSubmissionResult, error) {
	ref, found, err := f.Book.FindApplication(ctx, p.ApplicationID)
	if err != nil {
		return models.MSubmissionResult{Error: err.Error()}, err
	}
	if found {
		f.Logger.Info("Application %s already accepted as %s", p.ApplicationID, ref)
		return models.MSubmissionResult{Success: true, ReferenceID: ref}, nil
	}

	res, err := f.Upstream.SubmitApplication(ctx, p)
	if err == nil && !res.Success {
		err = errors.New(res.Error)
	}
	if err != nil {
		return res, err
	}

	if err := f.Book.RecordApplication(ctx, p, res.ReferenceID); err != nil {
		// accepted upstream; the gateway deduplicates a retry on its side
		f.Logger.Error("Application %s accepted as %s but not recorded: %v", p.ApplicationID, res.ReferenceID, err)
	}
	return res, nil
}
