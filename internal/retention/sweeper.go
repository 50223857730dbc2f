package retention

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Target is one record store the sweeper manages, with its own
// retention horizon.
type Target struct {
	Name      string
	Retention time.Duration
	Purge     func(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically deletes records past their store's retention
// horizon. Deletion is by age predicate, so running concurrently with
// normal writes is safe: a record arriving mid-sweep survives as long
// as its age is within the window at sweep time.
type Sweeper struct {
	interval time.Duration
	targets  []Target
	log      *zap.Logger
}

// NewSweeper creates a sweeper over the given targets.
func NewSweeper(interval time.Duration, targets []Target, log *zap.Logger) *Sweeper {
	return &Sweeper{
		interval: interval,
		targets:  targets,
		log:      log,
	}
}

// Start sweeps once immediately and then on every interval tick until
// the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Retention sweeper shutting down")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce purges every target once.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	for _, target := range s.targets {
		cutoff := time.Now().Add(-target.Retention)
		deleted, err := target.Purge(ctx, cutoff)
		if err != nil {
			s.log.Error("Retention sweep failed",
				zap.String("target", target.Name),
				zap.Error(err))
			continue
		}
		s.log.Info("Retention sweep completed",
			zap.String("target", target.Name),
			zap.Time("cutoff", cutoff),
			zap.Int64("deleted", deleted))
	}
}
