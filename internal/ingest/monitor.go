package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/rjardine/newsroute/internal/events"
	"github.com/rjardine/newsroute/internal/log"
)

// IdleMonitor periodically sweeps the provider set and raises provider.idle
// events for open providers whose feed has gone quiet. Each idle spell is
// announced once; a provider that delivers again re-arms its alert.
type IdleMonitor struct {
	providers ProviderLister
	hub       *events.Hub
	interval  time.Duration
	now       func() time.Time
	notified  map[string]bool
	logger    *slog.Logger
}

func NewIdleMonitor(providers ProviderLister, hub *events.Hub, interval time.Duration) *IdleMonitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &IdleMonitor{
		providers: providers,
		hub:       hub,
		interval:  interval,
		now:       time.Now,
		notified:  make(map[string]bool),
		logger:    log.WithComponent("idle-monitor"),
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (m *IdleMonitor) Start(ctx context.Context) error {
	m.logger.Info("idle monitor started", "interval", m.interval.String())
	defer m.logger.Info("idle monitor stopped")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.sweep(ctx); err != nil {
				m.logger.Error("idle sweep failed", "error", err)
			}
		}
	}
}

func (m *IdleMonitor) sweep(ctx context.Context) error {
	providers, err := m.providers.ListProviders(ctx)
	if err != nil {
		return err
	}

	now := m.now()
	for _, p := range providers {
		if !IsIdle(p, now) {
			delete(m.notified, p.ID)
			continue
		}
		if m.notified[p.ID] {
			continue
		}
		m.notified[p.ID] = true
		m.hub.Publish(events.TypeProviderIdle, events.ProviderIdle{
			Provider:       p.Name,
			LastItemUpdate: *p.LastItemUpdate,
		})
		m.logger.Warn("provider idle", "provider", p.Name,
			"last_item_update", p.LastItemUpdate.Format(time.RFC3339))
	}
	return nil
}
