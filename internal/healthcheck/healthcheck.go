package healthcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/angeloszaimis/influx-failover/internal/host"
)

// Sweeper is implemented by dispatcher.Dispatcher.
type Sweeper interface {
	Sweep() []host.Host
}

// Run calls Sweep on every tick until ctx is cancelled.
func Run(
	ctx context.Context,
	sweeper Sweeper,
	interval time.Duration,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Recovery sweeper started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recovery sweeper stopped")
			return

		case <-ticker.C:
			recovered := sweeper.Sweep()
			if len(recovered) == 0 {
				continue
			}

			addresses := make([]string, 0, len(recovered))
			for _, h := range recovered {
				addresses = append(addresses, h.Address())
			}
			logger.Debug("Sweep returned hosts to rotation",
				slog.Any("hosts", addresses))
		}
	}
}
