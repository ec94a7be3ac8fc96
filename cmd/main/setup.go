package main

import (
	"fmt"

	"ipo-wizard/src/charges"
	datasource "ipo-wizard/src/data_source"
	"ipo-wizard/src/data_source/gateway"
	"ipo-wizard/src/helpers"
	"ipo-wizard/src/interfaces"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"
	"ipo-wizard/src/network"
	"ipo-wizard/src/storage"
	"ipo-wizard/src/utils"
	"ipo-wizard/src/wizard"
)

const dbInitAttempts = 5

// -----------------------------------------------------------------------------

// setupDatabase opens the configured store and retries the schema setup,
// which may race a database container that is still starting.
func setupDatabase(config *models.MConfig, appLogger *logger.Logger) (interfaces.IDatabase, error) {
	var db interfaces.IDatabase
	var err error

	switch config.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(config, logger.NewLogger(config, "PostgresDB"))
	default:
		db, err = storage.NewSQLiteDB(config, logger.NewLogger(config, "SQLiteDB"))
	}
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
		return nil, err
	}

	retry := helpers.NewErrorHandler(appLogger.Named("ErrorHandler"))
	if err := retry.ExecuteWithRetry("database initialization", db.Initialize, dbInitAttempts); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
		return nil, err
	}
	return db, nil
}

// -----------------------------------------------------------------------------

// setupWizard wires the issue catalog, client directory and submission sink.
// A file catalog submits to the local application book; the gateway submits
// upstream with the local book guarding against duplicates.
func setupWizard(config *models.MConfig, db interfaces.IDatabase, appLogger *logger.Logger) (wizard.Dependencies, error) {
	rates, err := charges.RatesFromConfig(config.Charges)
	if err != nil {
		return wizard.Dependencies{}, err
	}

	deps := wizard.Dependencies{
		Drafts: db,
		Rates:  &rates,
		Window: func(issue models.MIssueDescriptor) interfaces.ISubscriptionWindow {
			return utils.NewSubscriptionWindow(issue)
		},
		EnforceWindow: config.Session.EnforceSubscriptionWindow,
		Logger:        logger.NewLogger(config, "Wizard"),
	}

	switch config.Catalog.Type {
	case "gateway":
		netMgr := network.NewNetworkManager(config, logger.NewLogger(config, "NetworkManager"))
		source := gateway.NewGatewaySource(config, netMgr, logger.NewLogger(config, "Gateway"))
		deps.Catalog = source
		deps.Directory = source
		deps.Sink = storage.NewForwardingSink(db, source, logger.NewLogger(config, "Submissions"))
		appLogger.Info("Using gateway catalog at %s (%s)", config.Catalog.BaseURL, config.Catalog.Exchange)
	case "file":
		catalog, err := datasource.NewFileCatalog(config.Catalog.Path, logger.NewLogger(config, "Catalog"))
		if err != nil {
			return wizard.Dependencies{}, err
		}
		deps.Catalog = catalog
		deps.Directory = catalog
		deps.Sink = db
		appLogger.Info("Using file catalog %s", config.Catalog.Path)
	default:
		return wizard.Dependencies{}, fmt.Errorf("unsupported catalog type %q", config.Catalog.Type)
	}

	return deps, nil
}

// -----------------------------------------------------------------------------

// retentionJob purges drafts past the retention window.
type retentionJob struct {
	db interfaces.IDatabase
}

func (j retentionJob) Name() string { return "draft_retention" }
func (j retentionJob) Run() error   { return j.db.CleanupOldData() }

// setupJobs registers the maintenance jobs on the scheduler.
func setupJobs(s *utils.Scheduler, config *models.MConfig, sessions utils.Job, db interfaces.IDatabase, health utils.Job) error {
	if err := s.AddJob(config.Session.SweepSchedule, sessions); err != nil {
		return err
	}
	if err := s.AddJob(config.Storage.RetentionSchedule, retentionJob{db: db}); err != nil {
		return err
	}
	if err := s.AddJob("@every 30s", health); err != nil {
		return err
	}
	// Publish an initial health status without waiting for the first tick
	return s.RunNow(health)
}
