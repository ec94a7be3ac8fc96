package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"
	"ipo-wizard/src/utils"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
	book   *sqlBook
}

// -----------------------------------------------------------------------------

// NewPostgresDB names the schema after the running executable.
func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db
	d.book = &sqlBook{
		db:           db,
		applications: fmt.Sprintf(`"%s"."applications"`, d.Schema),
		drafts:       fmt.Sprintf(`"%s"."drafts"`, d.Schema),
		numbered:     true,
		now:          time.Now,
	}

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	queries := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				application_id TEXT PRIMARY KEY,
				reference_id TEXT NOT NULL,
				actor_id TEXT NOT NULL,
				issue_id TEXT NOT NULL,
				grand_total NUMERIC NOT NULL,
				payload BYTEA NOT NULL,
				submitted_at BIGINT NOT NULL
			);
		`, d.book.applications),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				draft_id TEXT PRIMARY KEY,
				actor_id TEXT NOT NULL,
				issue_id TEXT NOT NULL,
				current_step INTEGER NOT NULL,
				payload BYTEA NOT NULL,
				saved_at BIGINT NOT NULL
			);
		`, d.book.drafts),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS drafts_saved_at_idx ON %s (saved_at);`, d.book.drafts),
	}
	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return fmt.Errorf("failed to create tables in %s: %w", d.Schema, err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Ping(ctx context.Context) error {
	if d.DB == nil {
		return sql.ErrConnDone
	}
	return d.DB.PingContext(ctx)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SubmitApplication(ctx context.Context, p models.MSubmissionPayload) (models.MSubmissionResult, error) {
	return d.book.submit(ctx, p)
}

func (d *PostgresDB) FindApplication(ctx context.Context, applicationID string) (string, bool, error) {
	return d.book.findApplication(ctx, applicationID)
}

func (d *PostgresDB) RecordApplication(ctx context.Context, p models.MSubmissionPayload, referenceID string) error {
	return d.book.recordApplication(ctx, p, referenceID)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveDraft(ctx context.Context, draft models.MWizardDraft) (models.MDraftResult, error) {
	return d.book.saveDraft(ctx, draft)
}

func (d *PostgresDB) LoadDraft(ctx context.Context, draftID string) (models.MWizardDraft, error) {
	return d.book.loadDraft(ctx, draftID)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.DraftRetentionDays
	cutoff := utils.RetentionCutoff(time.Now().UTC(), retentionDays)

	n, err := d.book.cleanup(cutoff)
	if err != nil {
		d.Logger.Error("PostgresDB: cleanup drafts error: %v", err)
		return err
	}

	d.Logger.Info("PostgresDB: %d drafts older than %d days removed", n, retentionDays)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
