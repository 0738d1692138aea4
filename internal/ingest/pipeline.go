package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rjardine/newsroute/internal/dispatch"
	"github.com/rjardine/newsroute/internal/events"
	"github.com/rjardine/newsroute/internal/log"
	"github.com/rjardine/newsroute/internal/model"
	"github.com/rjardine/newsroute/internal/routing"
	"github.com/rjardine/newsroute/internal/store"
)

// SchemeSource materializes the scheme a provider is bound to.
type SchemeSource interface {
	GetScheme(ctx context.Context, id string) (*model.RoutingScheme, error)
}

// AuditLog records routing outcomes and provider activity.
type AuditLog interface {
	AppendItemLog(ctx context.Context, entries []store.ItemLogEntry) error
	TouchProvider(ctx context.Context, id string, at time.Time) error
}

// ActionDispatcher executes matched actions.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, item *model.Item, actions []routing.Action) ([]dispatch.ActionResult, error)
}

// Pipeline is the automatic routing path: an item arrives from a provider,
// the provider's scheme is evaluated, matched actions are dispatched, and
// every outcome is audited and published on the event hub.
type Pipeline struct {
	schemes    SchemeSource
	matcher    *routing.Matcher
	dispatcher ActionDispatcher
	audit      AuditLog
	hub        *events.Hub
	logger     *slog.Logger
}

func NewPipeline(schemes SchemeSource, matcher *routing.Matcher, dispatcher ActionDispatcher, audit AuditLog, hub *events.Hub) *Pipeline {
	return &Pipeline{
		schemes:    schemes,
		matcher:    matcher,
		dispatcher: dispatcher,
		audit:      audit,
		hub:        hub,
		logger:     log.WithComponent("ingest"),
	}
}

// Route processes one arrived item. An empty result with nil error means no
// rule matched; the caller decides what an unrouted item becomes.
func (p *Pipeline) Route(ctx context.Context, provider *model.IngestProvider, item *model.Item, arrived time.Time) ([]dispatch.ActionResult, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if item == nil {
		return nil, fmt.Errorf("item is required")
	}

	logger := p.logger.With("provider", provider.Name, "item_id", item.GUID)

	if err := p.audit.TouchProvider(ctx, provider.ID, arrived); err != nil {
		logger.Warn("failed to record provider activity", "error", err)
	}

	if provider.SchemeID == "" {
		p.publishUnrouted(provider, item, "")
		logger.Debug("provider has no routing scheme")
		return nil, nil
	}

	scheme, err := p.schemes.GetScheme(ctx, provider.SchemeID)
	if err != nil {
		return nil, fmt.Errorf("load scheme %q: %w", provider.SchemeID, err)
	}

	actions, err := p.matcher.Evaluate(ctx, scheme, item, arrived)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		p.publishUnrouted(provider, item, scheme.Name)
		logger.Info("no rule matched", "scheme", scheme.Name)
		return nil, nil
	}

	results, err := p.dispatcher.Dispatch(ctx, item, actions)
	if err != nil {
		return nil, err
	}

	entries := make([]store.ItemLogEntry, len(results))
	failed := 0
	for i, r := range results {
		entries[i] = store.ItemLogEntry{
			ItemGUID:   item.GUID,
			Provider:   provider.Name,
			Scheme:     scheme.Name,
			Rule:       r.Action.Rule,
			Kind:       string(r.Action.Kind),
			Desk:       r.Action.Desk,
			Stage:      r.Action.Stage,
			ArchivedID: r.ItemID,
			CreatedAt:  arrived,
		}
		if r.Err != nil {
			failed++
			entries[i].Error = r.Err.Error()
			p.hub.Publish(events.TypeActionFailed, events.ActionFailed{
				ItemID: item.GUID,
				Rule:   r.Action.Rule,
				Desk:   r.Action.Desk,
				Stage:  r.Action.Stage,
				Error:  r.Err.Error(),
			})
		}
	}
	if err := p.audit.AppendItemLog(ctx, entries); err != nil {
		logger.Error("failed to write item log", "error", err)
	}

	p.hub.Publish(events.TypeItemRouted, events.ItemRouted{
		ItemID:   item.GUID,
		Provider: provider.Name,
		Scheme:   scheme.Name,
		Actions:  len(results),
		Failed:   failed,
	})
	logger.Info("item routed", "scheme", scheme.Name, "actions", len(results), "failed", failed)
	return results, nil
}

func (p *Pipeline) publishUnrouted(provider *model.IngestProvider, item *model.Item, scheme string) {
	p.hub.Publish(events.TypeItemUnrouted, events.ItemRouted{
		ItemID:   item.GUID,
		Provider: provider.Name,
		Scheme:   scheme,
	})
}
