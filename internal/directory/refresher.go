package directory

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Refresher keeps a Cache warm by force-refreshing it on an interval.
type Refresher struct {
	cache    *Cache
	interval time.Duration
	logger   logrus.FieldLogger
}

func NewRefresher(cache *Cache, interval time.Duration, logger logrus.FieldLogger) *Refresher {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Refresher{cache: cache, interval: interval, logger: logger}
}

// Run refreshes once immediately and then on every tick until ctx is done.
// Failed refreshes are logged and retried on the next tick.
func (r *Refresher) Run(ctx context.Context) error {
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	resp, err := r.cache.Fetch(ctx, true)
	if err != nil {
		r.logger.WithError(err).Warn("directory: refresh failed")
		return
	}
	r.logger.WithField("records", len(resp.Embedded.Records)).Info("directory: refreshed memo-required list")
}
