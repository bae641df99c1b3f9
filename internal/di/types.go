// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/goaleval/internal/clientdata"
	"github.com/aristath/goaleval/internal/database"
	"github.com/aristath/goaleval/internal/modules/evaluation"
	"github.com/aristath/goaleval/internal/modules/history"
	"github.com/aristath/goaleval/internal/modules/tickerrisk"
	"github.com/aristath/goaleval/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire() and owned by the caller, who must Close it.
type Container struct {
	// Databases
	CacheDB *database.DB // ticker_risk and return_history tables

	// Repositories
	ClientDataRepo *clientdata.Repository

	// Ticker risk
	TickerStore     tickerrisk.Store
	Classifier      tickerrisk.Classifier // nil without OPENAI_API_KEY
	TickerValidator *tickerrisk.Validator

	// Services
	HistoryProvider   history.Provider
	EvaluationService *evaluation.Service

	// Background jobs
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds references to the registered jobs for manual triggering
type JobInstances struct {
	ClientDataCleanup *clientdata.CleanupJob
	TickerRiskCleanup *tickerrisk.CleanupJob
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.CacheDB != nil {
		return c.CacheDB.Close()
	}
	return nil
}
