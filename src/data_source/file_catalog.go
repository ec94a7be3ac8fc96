package datasource

import (
	"context"
	"fmt"
	"os"
	"sync"

	"ipo-wizard/src/helpers"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout of the catalog fixture.
type catalogFile struct {
	Issues  []models.MIssueDescriptor   `yaml:"issues"`
	Rosters map[string][]models.MClient `yaml:"rosters"`
}

// FileCatalog serves issues and client rosters from a YAML file. It stands in
// for the external catalog and client directory.
type FileCatalog struct {
	Path   string
	Logger *logger.Logger

	mu      sync.RWMutex
	issues  map[string]models.MIssueDescriptor
	rosters map[string][]models.MClient
}

// -----------------------------------------------------------------------------

func NewFileCatalog(path string, log *logger.Logger) (*FileCatalog, error) {
	fc := &FileCatalog{Path: path, Logger: log}
	if err := fc.Reload(); err != nil {
		return nil, err
	}
	return fc, nil
}

// -----------------------------------------------------------------------------

// Reload re-reads the file. On error the previous contents stay in place.
func (fc *FileCatalog) Reload() error {
	data, err := os.ReadFile(fc.Path)
	if err != nil {
		return fmt.Errorf("failed to read catalog '%s': %w", fc.Path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse catalog '%s': %w", fc.Path, err)
	}

	issues := make(map[string]models.MIssueDescriptor, len(file.Issues))
	for _, issue := range file.Issues {
		if issue.ID == "" {
			return fmt.Errorf("catalog '%s': issue without id", fc.Path)
		}
		issues[issue.ID] = issue
	}

	fc.mu.Lock()
	fc.issues = issues
	fc.rosters = file.Rosters
	fc.mu.Unlock()

	fc.Logger.Info("Catalog loaded: %d issues, %d rosters", len(issues), len(file.Rosters))
	return nil
}

// -----------------------------------------------------------------------------

func (fc *FileCatalog) FetchIssue(_ context.Context, issueID string) (models.MIssueDescriptor, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	issue, ok := fc.issues[issueID]
	if !ok {
		return models.MIssueDescriptor{}, helpers.ErrNotFound
	}
	return issue, nil
}

// -----------------------------------------------------------------------------

// FetchRoster returns a copy of the actor's roster. Unknown actors have an
// empty roster.
func (fc *FileCatalog) FetchRoster(_ context.Context, actorID string) ([]models.MClient, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return append([]models.MClient(nil), fc.rosters[actorID]...), nil
}
