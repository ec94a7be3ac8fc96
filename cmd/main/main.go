package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ipo-wizard/src/config"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/session"
	"ipo-wizard/src/utils"
)

// -----------------------------------------------------------------------------

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)
	appLogger.Info("Starting %s (storage=%s, catalog=%s)", conf.Name, conf.Storage.DBType, conf.Catalog.Type)

	// 4. Storage
	db, err := setupDatabase(conf.MConfig, appLogger)
	if err != nil {
		os.Exit(1)
	}
	defer db.Close()

	// 5. Wizard collaborators
	deps, err := setupWizard(conf.MConfig, db, appLogger)
	if err != nil {
		appLogger.Error("Failed to set up wizard: %v", err)
		os.Exit(1)
	}

	// 6. Sessions
	sessions := session.NewManager(time.Duration(conf.Session.TTLMinutes)*time.Minute, appLogger.Named("Sessions"))

	// 7. Servers
	srv, health, stopGrpc := startServers(conf.MConfig, sessions, deps, db, appLogger)

	// 8. Maintenance jobs
	scheduler := utils.NewScheduler(appLogger.Named("Scheduler"))
	if err := setupJobs(scheduler, conf.MConfig, sessions, db, health); err != nil {
		appLogger.Error("Failed to register jobs: %v", err)
		os.Exit(1)
	}
	scheduler.Start()

	// 9. Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit

	appLogger.Info("Received %s, shutting down...", sig)
	health.Shutdown()
	scheduler.Stop()
	if err := srv.Stop(); err != nil {
		appLogger.Warning("HTTP server shutdown: %v", err)
	}
	stopGrpc()
	appLogger.Info("Shutdown complete.")
}
