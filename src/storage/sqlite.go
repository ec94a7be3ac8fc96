package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"
	"ipo-wizard/src/utils"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
	book   *sqlBook
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db
	d.book = &sqlBook{db: db, applications: "applications", drafts: "drafts", now: time.Now}

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS applications (
			application_id TEXT PRIMARY KEY,
			reference_id TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			issue_id TEXT NOT NULL,
			grand_total TEXT NOT NULL,
			payload BLOB NOT NULL,
			submitted_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS drafts (
			draft_id TEXT PRIMARY KEY,
			actor_id TEXT NOT NULL,
			issue_id TEXT NOT NULL,
			current_step INTEGER NOT NULL,
			payload BLOB NOT NULL,
			saved_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_saved_at ON drafts (saved_at);`,
	}
	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Ping(ctx context.Context) error {
	if d.DB == nil {
		return sql.ErrConnDone
	}
	return d.DB.PingContext(ctx)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SubmitApplication(ctx context.Context, p models.MSubmissionPayload) (models.MSubmissionResult, error) {
	return d.book.submit(ctx, p)
}

func (d *SQLiteDB) FindApplication(ctx context.Context, applicationID string) (string, bool, error) {
	return d.book.findApplication(ctx, applicationID)
}

func (d *SQLiteDB) RecordApplication(ctx context.Context, p models.MSubmissionPayload, referenceID string) error {
	return d.book.recordApplication(ctx, p, referenceID)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveDraft(ctx context.Context, draft models.MWizardDraft) (models.MDraftResult, error) {
	return d.book.saveDraft(ctx, draft)
}

func (d *SQLiteDB) LoadDraft(ctx context.Context, draftID string) (models.MWizardDraft, error) {
	return d.book.loadDraft(ctx, draftID)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.DraftRetentionDays
	cutoff := utils.RetentionCutoff(d.book.now().UTC(), retentionDays)

	n, err := d.book.cleanup(cutoff)
	if err != nil {
		d.Logger.Error("Cleanup drafts error: %v", err)
		return err
	}

	d.Logger.Info("Cleanup completed: %d drafts older than %d days removed", n, retentionDays)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
