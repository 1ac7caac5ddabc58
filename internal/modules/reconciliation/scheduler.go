package reconciliation

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"tourrental/internal/pkg/logger"
)

// Runner performs one reconciliation batch and writes its report.
type Runner struct {
	service   *Service
	reports   *ReportWriter
	reportDir string
	log       *logger.Logger
}

func NewRunner(service *Service, reports *ReportWriter, reportDir string, log *logger.Logger) *Runner {
	return &Runner{service: service, reports: reports, reportDir: reportDir, log: log.With("component", "ReconciliationRunner")}
}

// RunOnce links, validates, and writes an xlsx report when a report dir is configured.
func (r *Runner) RunOnce(ctx context.Context) (*Result, *Validation, error) {
	res, err := r.service.LinkExisting(ctx)
	if err != nil {
		return nil, nil, err
	}
	v, err := r.service.ValidateLinks(ctx)
	if err != nil {
		return res, nil, err
	}
	if r.reportDir == "" {
		return res, v, nil
	}
	path, err := r.reports.WriteFile(r.reportDir, res, v, res.FinishedAt)
	if err != nil {
		r.log.Error("failed to write reconciliation report", "dir", r.reportDir, "error", err)
		return res, v, nil
	}
	r.log.Info("reconciliation report written", "path", path)
	return res, v, nil
}

// Scheduler triggers the runner on a cron spec. Runs never overlap.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	log    *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(runner *Runner, log *logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner: runner,
		log:    log.With("component", "ReconciliationScheduler"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule registers the job. Standard five-field specs and descriptors like "@daily" are accepted.
func (s *Scheduler) Schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		res, v, err := s.runner.RunOnce(s.ctx)
		if err != nil {
			s.log.Error("scheduled reconciliation failed", "error", err)
			return
		}
		s.log.Info("scheduled reconciliation done",
			"linked", res.Linked(), "failed", res.Failed, "one_directional", res.OneDirectional,
			"issues", len(v.Issues), "took", time.Since(started).String())
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels a running batch and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
