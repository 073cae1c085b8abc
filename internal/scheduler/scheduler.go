package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/service"
)

// Sweeper locks overdue items. *service.Engine satisfies it.
type Sweeper interface {
	Sweep(ctx context.Context) (*service.SweepReport, error)
}

// Run sweeps once per interval until ctx is cancelled. A zero interval
// disables the loop.
func Run(ctx context.Context, s Sweeper, interval time.Duration) {
	if interval <= 0 {
		log.Printf("auto-lock sweep disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("auto-lock sweep every %s", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RunOnce(ctx, s)
		}
	}
}

// RunOnce performs a single sweep and logs what it locked.
func RunOnce(ctx context.Context, s Sweeper) *service.SweepReport {
	report, err := s.Sweep(ctx)
	if err != nil {
		log.Printf("auto-lock sweep failed: %v", err)
		return nil
	}
	if len(report.Locked) > 0 || len(report.Skipped) > 0 {
		log.Printf("auto-lock sweep: locked %d, skipped %d", len(report.Locked), len(report.Skipped))
	}
	return report
}
