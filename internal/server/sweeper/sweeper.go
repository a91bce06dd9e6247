// Package sweeper runs the recurring expiry sweep. It is process-wide
// state with an explicit owner: the App starts exactly one sweeper at
// initialization and stops it through context cancellation on shutdown,
// so no orphaned timer survives the process.
package sweeper

import (
	"context"
	"time"

	"github.com/encryptshare/encryptshare/internal/logging"
)

// Expirer is the slice of the transfer gateway the sweeper needs.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// Sweeper periodically erases transfers past their deadline.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	logger   logging.Logger
}

func New(expirer Expirer, interval time.Duration, logger logging.Logger) *Sweeper {
	return &Sweeper{
		expirer:  expirer,
		interval: interval,
		logger:   logger.With("module", "sweeper"),
	}
}

// Run blocks, sweeping once per interval until ctx is cancelled. Sweep
// failures are logged and the loop keeps going: a transient database
// outage must not kill expiry for the rest of the process lifetime.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info(ctx, "starting sweeper", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "stopping sweeper")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		s.logger.Error(ctx, "sweep failed", "error", err.Error())
		return
	}
	if n > 0 {
		s.logger.Info(ctx, "expired overdue transfers", "count", n)
	}
}
