package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rjardine/newsroute/internal/log"
	"github.com/rjardine/newsroute/internal/model"
)

// ErrRemovalNotAllowed is returned when a provider does not permit removal of
// its ingested items.
var ErrRemovalNotAllowed = errors.New("provider does not allow removing ingested items")

// ProviderLister supplies the current provider set, usually backed by the
// store.
type ProviderLister interface {
	ListProviders(ctx context.Context) ([]*model.IngestProvider, error)
}

// ItemRemover deletes an ingested item from wherever the embedder keeps it.
type ItemRemover interface {
	RemoveItem(ctx context.Context, guid string) error
}

// ItemRemoverFunc adapts a function to ItemRemover.
type ItemRemoverFunc func(ctx context.Context, guid string) error

func (f ItemRemoverFunc) RemoveItem(ctx context.Context, guid string) error {
	return f(ctx, guid)
}

// RemovalGuard answers "may ingested items from this provider be removed".
// It holds a snapshot of each provider's allow_remove_ingested flag; the
// owner refreshes it explicitly when providers change, there is no implicit
// background reload.
type RemovalGuard struct {
	providers ProviderLister

	mu    sync.RWMutex
	allow map[string]bool
}

func NewRemovalGuard(providers ProviderLister) *RemovalGuard {
	return &RemovalGuard{
		providers: providers,
		allow:     make(map[string]bool),
	}
}

// Refresh rebuilds the snapshot from the provider source. Call it after any
// provider create or update.
func (g *RemovalGuard) Refresh(ctx context.Context) error {
	list, err := g.providers.ListProviders(ctx)
	if err != nil {
		return fmt.Errorf("refresh removal guard: %w", err)
	}

	next := make(map[string]bool, len(list))
	for _, p := range list {
		next[p.ID] = p.AllowRemoveIngested
	}

	g.mu.Lock()
	g.allow = next
	g.mu.Unlock()

	log.WithComponent("ingest").Debug("removal guard refreshed", "providers", len(next))
	return nil
}

// CanRemove reports whether the provider permits removal of its ingested
// items. Unknown providers are denied.
func (g *RemovalGuard) CanRemove(providerID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.allow[providerID]
}

// Remove deletes the item through remover after checking the provider's
// allow flag. Items that already moved into production (archived) are kept.
func (g *RemovalGuard) Remove(ctx context.Context, item *model.Item, remover ItemRemover) error {
	if item == nil {
		return fmt.Errorf("remove: nil item")
	}
	if item.Archived != nil {
		return fmt.Errorf("remove %q: item is archived", item.GUID)
	}
	if !g.CanRemove(item.Provider) {
		return fmt.Errorf("remove %q: %w", item.GUID, ErrRemovalNotAllowed)
	}
	if err := remover.RemoveItem(ctx, item.GUID); err != nil {
		return fmt.Errorf("remove %q: %w", item.GUID, err)
	}
	return nil
}
