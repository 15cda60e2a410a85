package upload

import (
	"context"
	"log/slog"
	"time"
)

// RunCleanup calls store.Cleanup every interval until ctx is done. Failures
// are logged and do not stop the loop. A non-positive interval runs at
// maxAge/2, or every minute when that is zero too; callers that want no
// cleanup should not start the loop.
func RunCleanup(ctx context.Context, store Store, interval, maxAge time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = maxAge / 2
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
		case <-ticker.C:
			start := time.Now()
			if err := store.Cleanup(ctx, maxAge); err != nil && ctx.Err() == nil {
				logger.Warn("upload cleanup failed", "error", err)
				continue
			}
			logger.Debug("upload cleanup done", "duration", time.Since(start))
		}
	}
}
