// Package prune runs scheduled retention cleanup over stored routing state:
// expired reply keys and old delivery audit rows.
package prune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// runTimeout bounds one cleanup pass.
const runTimeout = 5 * time.Minute

// NotificationStore drops conversation contexts whose expiry has passed.
type NotificationStore interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// DeliveryStore drops delivery audit rows older than a cutoff.
type DeliveryStore interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Service struct {
	logger         *slog.Logger
	cron           *cron.Cron
	notifications  NotificationStore
	deliveries     DeliveryStore
	schedule       string
	deliveryMaxAge time.Duration
	now            func() time.Time
}

// NewService builds the retention service. deliveryMaxAge of zero or less
// disables delivery pruning; expired reply keys are always pruned.
func NewService(log *slog.Logger, notifications NotificationStore, deliveries DeliveryStore, schedule string, deliveryMaxAge time.Duration) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		logger:         log.With(slog.String("service", "prune")),
		cron:           cron.New(),
		notifications:  notifications,
		deliveries:     deliveries,
		schedule:       schedule,
		deliveryMaxAge: deliveryMaxAge,
		now:            time.Now,
	}
}

// Start registers the cron entry and begins the scheduler.
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("parse prune schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("retention pruning scheduled", slog.String("schedule", s.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Service) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		s.logger.Error("retention prune failed", slog.Any("error", err))
	}
}

// Run executes one cleanup pass and logs what it removed.
func (s *Service) Run(ctx context.Context) error {
	var errs []error

	var notificationCount int64
	notificationCount, err := s.notifications.PruneExpired(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("prune expired notifications: %w", err))
	}

	var deliveryCount int64
	if s.deliveryMaxAge > 0 {
		cutoff := s.now().Add(-s.deliveryMaxAge)
		deliveryCount, err = s.deliveries.PruneBefore(ctx, cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("prune deliveries before %s: %w", cutoff.Format(time.RFC3339), err))
		}
	}

	s.logger.Info("retention prune completed",
		slog.Int64("notifications_removed", notificationCount),
		slog.Int64("deliveries_removed", deliveryCount))
	return errors.Join(errs...)
}
