package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pantrysense/grocer-core/backend/internal/events"
	"github.com/pantrysense/grocer-core/backend/internal/repository"
	"github.com/pantrysense/grocer-core/backend/internal/service"
)

const (
	defaultDBPath          = "./data/grocer.db"
	defaultDBType          = "bolt"
	defaultRefreshInterval = 6 * time.Hour
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logrus.InfoLevel)

	// Get configuration from environment
	dbPath := os.Getenv("GROCER_DB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	dbType := os.Getenv("GROCER_DB_TYPE")
	if dbType == "" {
		dbType = defaultDBType
	}

	refreshInterval := defaultRefreshInterval
	if raw := os.Getenv("GROCER_REFRESH_INTERVAL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			logger.WithError(err).WithField("value", raw).Fatal("invalid GROCER_REFRESH_INTERVAL")
		}
		refreshInterval = parsed
	}

	// Initialize repository
	repo, err := repository.NewRepository(dbPath, repository.DatabaseType(dbType))
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize repository")
	}
	defer repo.Close()

	// Initialize event bus with a logging subscriber
	bus := events.NewPubSub(logger)
	bus.Subscribe(events.EventRateUpdated, func(ctx context.Context, event events.Event) error {
		logger.WithFields(logrus.Fields{
			"user_id":   event.UserID,
			"item_name": event.ItemName,
			"rate":      event.Data["rate"],
			"algorithm": event.Data["algorithm"],
		}).Info("consumption rate updated")
		return nil
	})

	learningService := service.NewLearningService(repo, bus, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodically relearn rates for every known user. The surrounding
	// application's scheduler can also trigger updates on demand.
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshAllUsers(ctx, learningService, repo, logger)
			}
		}
	}()

	logger.WithFields(logrus.Fields{
		"db_path":          dbPath,
		"db_type":          dbType,
		"refresh_interval": refreshInterval,
	}).Info("starting consumption rate learner")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.WithField("signal", sig).Info("received shutdown signal")

	logger.Info("shutting down consumption rate learner")
}

// refreshAllUsers runs the batch rate updater for every user with inventory.
// Per-user failures are logged and skipped so one bad record never stalls the
// refresh loop.
func refreshAllUsers(ctx context.Context, learningService *service.LearningService, repo repository.Repository, logger *logrus.Logger) {
	userIDs, err := repo.ListUserIDs(ctx)
	if err != nil {
		logger.WithError(err).Error("failed to list users for rate refresh")
		return
	}

	for _, userID := range userIDs {
		stats, err := learningService.UpdateAllConsumptionRates(ctx, userID)
		if err != nil {
			logger.WithError(err).WithField("user_id", userID).Error("rate refresh failed for user")
			continue
		}

		logger.WithFields(logrus.Fields{
			"user_id": userID,
			"total":   stats.Total,
			"updated": stats.Updated,
			"failed":  stats.Failed,
		}).Debug("refreshed consumption rates")
	}
}
