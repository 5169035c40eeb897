package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/database"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/version"
)

// RunReader reads run journal entries. *repository.RunRepository satisfies it.
type RunReader interface {
	GetRuns(ctx context.Context, filters model.RunFilters) ([]model.Run, error)
	GetRun(ctx context.Context, id string) (model.Run, error)
}

// SystemService handles system-related operations
type SystemService struct {
	db       *sql.DB
	runs     RunReader
	features map[string]bool
}

// NewSystemService creates a new SystemService.
// features is reported verbatim by GetVersionInfo.
func NewSystemService(db *sql.DB, runs RunReader, features map[string]bool) *SystemService {
	return &SystemService{
		db:       db,
		runs:     runs,
		features: features,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion returns the application version.
func (s *SystemService) CheckVersion() string {
	return version.Version
}

// GetVersionInfo reports application and schema versions and the enabled features.
func (s *SystemService) GetVersionInfo() (model.VersionInfo, error) {
	dbVersion, err := database.Version(s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}

	info := model.VersionInfo{
		AppVersion: version.Version,
		DbVersion:  dbVersion,
		Features:   s.features,
	}

	expected := strconv.FormatInt(database.SchemaVersion, 10)
	if dbVersion != expected {
		info.MigrationNeeded = true
		msg := fmt.Sprintf("database schema is at version %s, expected %s", dbVersion, expected)
		info.MigrationMessage = &msg
	}
	return info, nil
}

// GetRuns returns the most recent run journal entries.
func (s *SystemService) GetRuns(ctx context.Context, filters model.RunFilters) ([]model.Run, error) {
	return s.runs.GetRuns(ctx, filters)
}

// GetRun returns one run journal entry.
func (s *SystemService) GetRun(ctx context.Context, id string) (model.Run, error) {
	return s.runs.GetRun(ctx, id)
}
