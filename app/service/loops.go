package service

import (
	"context"
	"time"
)

// runClaimLoop drives a single-row worker: process claims back to back while
// the queue has due work, sleep one interval when it is empty or a claim
// failed. Errors never stop the loop; only context cancellation does.
func (s *PaymentService) runClaimLoop(ctx context.Context, name string, interval time.Duration, tick func(context.Context) (bool, error)) error {
	for {
		claimed, err := tick(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.WithError(err).WithField("loop", name).Warn("claim_failed")
		}

		if claimed && err == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				continue
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
