package app

import (
	"context"

	"github.com/sirupsen/logrus"
)

// maxAttempts bounds every portal step.
const maxAttempts = 3

// retry calls fn until it succeeds, maxAttempts is reached or ctx is done.
// The last error is returned.
func retry[T any](ctx context.Context, logger *logrus.Entry, fn func(context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		logger.WithError(err).WithField("attempt", attempt).Warn("Attempt failed")
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}
	return result, err
}
