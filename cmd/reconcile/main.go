package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tourrental/internal/config"
	"tourrental/internal/database"
	"tourrental/internal/modules/reconciliation"
	"tourrental/internal/pkg/logger"
	"tourrental/internal/repository"
)

// reconcile links historical movements to history entries. Without -cron it runs one
// batch and exits; with a schedule (flag or RECONCILE_CRON) it keeps running until signalled.
func main() {
	_ = godotenv.Load()

	cronSpec := flag.String("cron", "", "cron schedule, overrides RECONCILE_CRON")
	once := flag.Bool("once", false, "run a single batch even when a schedule is configured")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	appLog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer appLog.Sync()

	db, err := database.Connect(cfg.DB, appLog)
	if err != nil {
		appLog.Fatal("db connect failed", "error", err)
	}

	service := reconciliation.NewService(
		repository.NewMovementRepository(db),
		repository.NewContractHistoryRepository(db),
		reconciliation.Windows{Fuzzy: cfg.Reconcile.FuzzyWindow, AmountOnly: cfg.Reconcile.AmountOnlyWindow},
		appLog,
	)
	runner := reconciliation.NewRunner(service, reconciliation.NewReportWriter(), cfg.Reconcile.ReportDir, appLog)

	spec := cfg.Reconcile.Cron
	if *cronSpec != "" {
		spec = *cronSpec
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if spec == "" || *once {
		res, v, err := runner.RunOnce(ctx)
		if err != nil {
			appLog.Fatal("reconciliation failed", "error", err)
		}
		appLog.Info("reconciliation completed",
			"movements", res.MovementsScanned, "entries", res.EntriesScanned,
			"exact", res.Exact, "fuzzy", res.Fuzzy, "failed", res.Failed, "one_directional", res.OneDirectional,
			"issues", len(v.Issues))
		return
	}

	scheduler := reconciliation.NewScheduler(runner, appLog)
	if err := scheduler.Schedule(spec); err != nil {
		appLog.Fatal("invalid reconciliation schedule", "cron", spec, "error", err)
	}
	scheduler.Start()
	appLog.Info("reconciliation scheduler started", "cron", spec)

	<-ctx.Done()
	scheduler.Stop()
	appLog.Info("reconciliation scheduler stopped")
}
