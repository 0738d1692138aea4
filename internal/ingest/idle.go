package ingest

import (
	"time"

	"github.com/rjardine/newsroute/internal/model"
)

// IsIdle reports whether the provider has been silent past its configured
// threshold. Closed providers and providers with the zero threshold are never
// idle, nor is a provider that has not yet delivered anything. now is
// injected to keep the check deterministic.
func IsIdle(p *model.IngestProvider, now time.Time) bool {
	if p == nil || p.IsClosed {
		return false
	}
	if p.LastItemUpdate == nil {
		return false
	}
	if p.IdleTime.IsZero() {
		return false
	}
	return now.After(p.LastItemUpdate.Add(p.IdleTime.Duration()))
}

// IdleProviders filters the given providers down to the idle ones.
func IdleProviders(providers []*model.IngestProvider, now time.Time) []*model.IngestProvider {
	var out []*model.IngestProvider
	for _, p := range providers {
		if IsIdle(p, now) {
			out = append(out, p)
		}
	}
	return out
}
