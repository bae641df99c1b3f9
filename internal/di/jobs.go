package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/goaleval/internal/clientdata"
	"github.com/aristath/goaleval/internal/config"
	"github.com/aristath/goaleval/internal/modules/tickerrisk"
	"github.com/aristath/goaleval/internal/scheduler"
)

// RegisterJobs schedules the daily cache maintenance jobs
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{
		ClientDataCleanup: clientdata.NewCleanupJob(container.ClientDataRepo, log),
		TickerRiskCleanup: tickerrisk.NewCleanupJob(container.TickerStore, cfg.TickerRisk.CacheTTL, log),
	}

	sched := scheduler.New(log)
	for _, job := range []scheduler.Job{instances.ClientDataCleanup, instances.TickerRiskCleanup} {
		if err := sched.AddJob(scheduler.Daily, job); err != nil {
			return nil, err
		}
	}

	container.Scheduler = sched
	container.Jobs = instances
	return instances, nil
}
