package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionSweeper drops authorization contexts whose session has expired.
type SessionSweeper interface {
	Sweep(now time.Time) int
	Len() int
}

// SessionGauge receives the number of tracked sessions after each sweep.
type SessionGauge interface {
	SetTrackedSessions(n int)
}

// RunSessionSweeper sweeps on every tick until ctx is cancelled.
func RunSessionSweeper(ctx context.Context, sweeper SessionSweeper, gauge SessionGauge, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sweepOnce(sweeper, gauge, now, logger)
		}
	}
}

func sweepOnce(sweeper SessionSweeper, gauge SessionGauge, now time.Time, logger *zap.Logger) {
	if removed := sweeper.Sweep(now); removed > 0 {
		logger.Info("expired sessions swept", zap.Int("removed", removed))
	}
	if gauge != nil {
		gauge.SetTrackedSessions(sweeper.Len())
	}
}
