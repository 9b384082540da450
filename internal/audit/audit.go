// Package audit runs the gallery pipeline on a schedule so a screen that
// silently shows nothing still leaves a trail in the logs.
package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/gallery"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/logger"
)

// Runner produces a gallery report.
type Runner interface {
	Run(ctx context.Context) gallery.Report
}

// Auditor schedules gallery runs and logs each report.
type Auditor struct {
	runner   Runner
	schedule string
	cron     *cron.Cron

	mu   sync.Mutex
	last *gallery.Report
}

// New constructs an Auditor. The schedule uses cron syntax or descriptors
// such as "@every 5m".
func New(runner Runner, schedule string) (*Auditor, error) {
	a := &Auditor{
		runner:   runner,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	if _, err := a.cron.AddFunc(schedule, func() { a.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid audit schedule %q: %w", schedule, err)
	}
	return a, nil
}

// Start begins the schedule and stops it when ctx is cancelled.
func (a *Auditor) Start(ctx context.Context) {
	logger.Info(ctx, "starting gallery audit", logger.Fields{"schedule": a.schedule})
	a.cron.Start()
	go func() {
		<-ctx.Done()
		stopped := a.cron.Stop()
		<-stopped.Done()
		logger.Info(context.Background(), "gallery audit stopped")
	}()
}

// RunOnce runs the pipeline and logs the outcome.
func (a *Auditor) RunOnce(ctx context.Context) gallery.Report {
	report := a.runner.Run(ctx)

	fields := logger.Fields{
		"images":      len(report.Images),
		"listed":      report.Listed,
		"matched":     report.Matched,
		"allowed":     report.Allowed,
		"signed":      report.Signed,
		"duration_ms": report.Duration.Milliseconds(),
	}
	switch {
	case report.Degraded != "":
		fields["degraded"] = report.Degraded
		logger.Warn(ctx, "gallery audit degraded", fields)
	case len(report.Images) == 0:
		logger.Warn(ctx, "gallery audit found no displayable images", fields)
	default:
		logger.Info(ctx, "gallery audit completed", fields)
	}

	a.mu.Lock()
	a.last = &report
	a.mu.Unlock()
	return report
}

// Last returns the most recent report, if any run has finished.
func (a *Auditor) Last() (gallery.Report, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return gallery.Report{}, false
	}
	return *a.last, true
}
