// Command application-rescore re-evaluates every application against its
// property's stored criteria, e.g. after the scoring rules changed.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/repository"
	"tenant_portal_backend/internal/applications/service"
	"tenant_portal_backend/internal/events"
	"tenant_portal_backend/platform/apperr"
	"tenant_portal_backend/platform/config"
	"tenant_portal_backend/platform/db"
	"tenant_portal_backend/platform/logger"
	"tenant_portal_backend/platform/retry"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	propertyFlag := flag.String("property", "", "only re-score this property id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting application rescore")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := retry.Do(ctx, log, "database connection", 3, time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	presets, err := domain.LoadCriteriaPresets(cfg.GetCriteriaDefaultsPath())
	if err != nil {
		log.Error("failed to load criteria presets", "error", err)
		panic("failed to load criteria presets: " + err.Error())
	}

	repo := repository.New(pool)
	// No subscribers: evaluation events have no side effects outside the API process.
	svc := service.New(repo, events.NewInMemoryBus(log), nil, presets, log)

	if failed := rescore(ctx, svc, repo, *propertyFlag, log); failed > 0 {
		pool.Close()
		os.Exit(1)
	}
}

// rescore evaluates the target properties and returns how many failed.
func rescore(ctx context.Context, svc *service.Service, lister repository.PropertyLister, only string, log *logger.Logger) int {
	propertyIDs, err := targetProperties(ctx, lister, only)
	if err != nil {
		log.Error("failed to list properties", "error", err)
		return 1
	}

	var evaluated, skipped, failed int
	for _, propertyID := range propertyIDs {
		if ctx.Err() != nil {
			log.Warn("rescore interrupted", "remaining", len(propertyIDs)-evaluated-skipped-failed)
			break
		}

		result, err := svc.EvaluateProperty(ctx, propertyID)
		switch {
		case apperr.Is(err, apperr.KindValidation):
			log.Info("property has no stored criteria; skipped", "propertyId", propertyID)
			skipped++
		case err != nil:
			log.Error("property rescore failed", "propertyId", propertyID, "error", err)
			failed++
		default:
			log.Info("property rescored",
				"propertyId", propertyID,
				"applications", result.Evaluated,
				"hardPassed", result.HardPassed,
				"unscored", result.Unscored,
				"warnings", result.Warnings,
			)
			evaluated++
		}
	}

	log.Info("application rescore finished", "properties", evaluated, "skipped", skipped, "failed", failed)
	return failed
}

func targetProperties(ctx context.Context, lister repository.PropertyLister, only string) ([]uuid.UUID, error) {
	if only != "" {
		id, err := uuid.Parse(only)
		if err != nil {
			return nil, err
		}
		return []uuid.UUID{id}, nil
	}
	return lister.ListPropertyIDs(ctx)
}
