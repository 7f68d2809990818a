package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job is a named function executed on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)

	nextExecuteAt time.Time
}

type Scheduler struct {
	jobs   []*Job
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		jobs:   make([]*Job, 0),
		logger: logger,
	}
}

func (scheduler *Scheduler) AddJob(job Job) {
	scheduler.jobs = append(scheduler.jobs, &job)
}

// Run executes due jobs until the context is cancelled. Jobs run
// asynchronously; a slow job never delays the others.
func (scheduler *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()

			for _, job := range scheduler.jobs {
				if job.nextExecuteAt.After(now) {
					continue
				}
				job.nextExecuteAt = now.Add(job.Interval)

				job := job
				go func() {
					defer func() {
						if v := recover(); v != nil {
							scheduler.logger.Error("job panicked",
								"job", job.Name, "panic", v)
						}
					}()
					job.Run(ctx)
				}()
			}
		case <-ctx.Done():
			return
		}
	}
}
