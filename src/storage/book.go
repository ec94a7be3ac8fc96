package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ipo-wizard/src/helpers"
	"ipo-wizard/src/models"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// sqlBook is the SQL shared by the SQLite and Postgres stores. Queries are
// written with '?' placeholders and rebound for the driver.
type sqlBook struct {
	db           *sql.DB
	applications string
	drafts       string
	numbered     bool // $1, $2 ... placeholders
	now          func() time.Time
}

// -----------------------------------------------------------------------------

func (b *sqlBook) bind(query string) string {
	if !b.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// -----------------------------------------------------------------------------

// NewReferenceID issues an application reference such as "IPO-3F2A9C1B7D04".
func NewReferenceID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "IPO-" + strings.ToUpper(id[:12])
}

// -----------------------------------------------------------------------------
// Applications
// -----------------------------------------------------------------------------

func (b *sqlBook) findApplication(ctx context.Context, applicationID string) (string, bool, error) {
	var ref string
	err := b.db.QueryRowContext(ctx,
		b.bind(fmt.Sprintf("SELECT reference_id FROM %s WHERE application_id = ?", b.applications)),
		applicationID).Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, helpers.NewDatabaseError("failed to look up application "+applicationID, err)
	}
	return ref, true, nil
}

// recordApplication inserts the application unless its id is already known.
func (b *sqlBook) recordApplication(ctx context.Context, p models.MSubmissionPayload, referenceID string) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode application: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (application_id, reference_id, actor_id, issue_id, grand_total, payload, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (application_id) DO NOTHING
	`, b.applications)
	_, err = b.db.ExecContext(ctx, b.bind(query),
		p.ApplicationID, referenceID, p.ActorID, p.Issue.ID, p.GrandTotal.String(), body, p.SubmittedAt.UTC().Unix())
	if err != nil {
		return helpers.NewDatabaseError("failed to record application "+p.ApplicationID, err)
	}
	return nil
}

// submit is idempotent per application id: a repeat returns the first reference.
func (b *sqlBook) submit(ctx context.Context, p models.MSubmissionPayload) (models.MSubmissionResult, error) {
	if p.ApplicationID == "" {
		return models.MSubmissionResult{Error: "application id is required"}, helpers.NewValidationError("application_id", "application id is required")
	}

	if err := b.recordApplication(ctx, p, NewReferenceID()); err != nil {
		return models.MSubmissionResult{Error: err.Error()}, err
	}
	ref, found, err := b.findApplication(ctx, p.ApplicationID)
	if err == nil && !found {
		err = helpers.NewDatabaseError("application vanished after insert", nil)
	}
	if err != nil {
		return models.MSubmissionResult{Error: err.Error()}, err
	}
	return models.MSubmissionResult{Success: true, ReferenceID: ref}, nil
}

// -----------------------------------------------------------------------------
// Drafts
// -----------------------------------------------------------------------------

func (b *sqlBook) saveDraft(ctx context.Context, d models.MWizardDraft) (models.MDraftResult, error) {
	if d.DraftID == "" {
		d.DraftID = uuid.NewString()
	}
	if d.SavedAt.IsZero() {
		d.SavedAt = b.now().UTC()
	}

	blob, err := msgpack.Marshal(&d)
	if err != nil {
		return models.MDraftResult{}, fmt.Errorf("failed to encode draft: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (draft_id, actor_id, issue_id, current_step, payload, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (draft_id) DO UPDATE SET
			current_step = excluded.current_step,
			payload = excluded.payload,
			saved_at = excluded.saved_at
	`, b.drafts)
	_, err = b.db.ExecContext(ctx, b.bind(query), d.DraftID, d.ActorID, d.IssueID, d.CurrentStep, blob, d.SavedAt.Unix())
	if err != nil {
		return models.MDraftResult{}, helpers.NewDatabaseError("failed to save draft "+d.DraftID, err)
	}
	return models.MDraftResult{Success: true, DraftID: d.DraftID}, nil
}

func (b *sqlBook) loadDraft(ctx context.Context, draftID string) (models.MWizardDraft, error) {
	var blob []byte
	err := b.db.QueryRowContext(ctx,
		b.bind(fmt.Sprintf("SELECT payload FROM %s WHERE draft_id = ?", b.drafts)),
		draftID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MWizardDraft{}, fmt.Errorf("draft %s: %w", draftID, helpers.ErrNotFound)
	}
	if err != nil {
		return models.MWizardDraft{}, helpers.NewDatabaseError("failed to load draft "+draftID, err)
	}

	var d models.MWizardDraft
	if err := msgpack.Unmarshal(blob, &d); err != nil {
		return models.MWizardDraft{}, helpers.NewDatabaseError("corrupt draft "+draftID, err)
	}
	return d, nil
}

// cleanup removes drafts saved before cutoff and reports how many went.
func (b *sqlBook) cleanup(cutoff time.Time) (int64, error) {
	res, err := b.db.Exec(b.bind(fmt.Sprintf("DELETE FROM %s WHERE saved_at < ?", b.drafts)), cutoff.UTC().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
