package workers

import (
	"context"
	"log/slog"
	"time"
)

// RelayStats exposes the live figures the heartbeat samples.
type RelayStats interface {
	QueueDepth() int
}

// SessionCounter reports the number of currently connected sessions.
type SessionCounter interface {
	Len() int
}

// HeartbeatWorker periodically logs connected session count and relay queue
// depth. Reading those figures is non-blocking, so this never interferes
// with the relay loop; values are sampled, not exact.
type HeartbeatWorker struct {
	log      *slog.Logger
	relay    RelayStats
	sessions SessionCounter
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, relay RelayStats, sessions SessionCounter,
	interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, relay: relay, sessions: sessions, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.log.Info("relay heartbeat",
				"sessions", w.sessions.Len(),
				"queue_depth", w.relay.QueueDepth(),
			)
		}
	}
}
