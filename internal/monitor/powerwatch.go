package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"battwatch/internal/sensor"
)

// PowerNotifier receives charger attach/detach edges.
type PowerNotifier interface {
	NotifyPowerConnected()
	NotifyPowerDisconnected()
}

// PowerWatcher polls the charger state and feeds edge transitions into the
// monitor. Polling is the portable option: not every kernel exposes uevent
// notifications for the power supply class.
type PowerWatcher struct {
	reader   sensor.Reader
	notifier PowerNotifier
	interval time.Duration
	logger   *zap.Logger
}

// NewPowerWatcher builds the watcher.
func NewPowerWatcher(reader sensor.Reader, notifier PowerNotifier, interval time.Duration, logger *zap.Logger) *PowerWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &PowerWatcher{
		reader:   reader,
		notifier: notifier,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until the context is cancelled. A charger already attached at
// startup counts as a connect edge.
func (w *PowerWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var last, known bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			charging, err := w.reader.Charging()
			if err != nil {
				w.logger.Warn("charging state read failed", zap.Error(err))
				continue
			}
			if !known {
				known = true
				last = charging
				if charging {
					w.notifier.NotifyPowerConnected()
				}
				continue
			}
			if charging == last {
				continue
			}
			last = charging
			if charging {
				w.notifier.NotifyPowerConnected()
			} else {
				w.notifier.NotifyPowerDisconnected()
			}
		}
	}
}
