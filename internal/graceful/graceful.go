package graceful

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// WithSignals returns a context that is cancelled on SIGINT or SIGTERM.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Shutdown runs stops in order under one shared timeout. Failures are logged
// and do not stop the remaining steps.
func Shutdown(logger logrus.FieldLogger, timeout time.Duration, stops ...func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, stop := range stops {
		if err := stop(ctx); err != nil {
			logger.WithError(err).Error("shutdown step failed")
		}
	}
}
