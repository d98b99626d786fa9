package scheduler

import (
	"context"
	"log/slog"
	"time"
)

const (
	TaskRequeueStale     = "requeue_stale_jobs"
	TaskPurgeResetTokens = "purge_reset_tokens"
)

type StaleJobRequeuer interface {
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type ResetTokenPurger interface {
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

type MaintenanceConfig struct {
	// LockTTL is how long a job may stay in processing before it is requeued.
	LockTTL         time.Duration
	RequeueInterval time.Duration
	PurgeInterval   time.Duration
}

func (c *MaintenanceConfig) defaults() {
	if c.LockTTL <= 0 {
		c.LockTTL = 2 * time.Minute
	}
	if c.RequeueInterval <= 0 {
		c.RequeueInterval = 30 * time.Second
	}
	if c.PurgeInterval <= 0 {
		c.PurgeInterval = 15 * time.Minute
	}
}

// RegisterMaintenance adds the job-queue and account housekeeping tasks.
// Either dependency may be nil, in which case its task is skipped.
func RegisterMaintenance(s *Scheduler, cfg MaintenanceConfig, jobs StaleJobRequeuer, users ResetTokenPurger) error {
	cfg.defaults()

	if jobs != nil {
		err := s.Every(TaskRequeueStale, cfg.RequeueInterval, 10*time.Second, func(ctx context.Context) error {
			n, err := jobs.RequeueStaleProcessing(ctx, cfg.LockTTL)
			if err != nil {
				return err
			}
			if n > 0 {
				s.log.WarnContext(ctx, "requeued stale jobs", "count", n, "lock_ttl", cfg.LockTTL.String())
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if users != nil {
		err := s.Every(TaskPurgeResetTokens, cfg.PurgeInterval, 10*time.Second, func(ctx context.Context) error {
			n, err := users.ClearExpiredResetTokens(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				s.log.InfoContext(ctx, "cleared expired reset tokens", slog.Int64("count", n))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
