package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rjardine/newsroute/internal/log"
	"github.com/rjardine/newsroute/internal/model"
	"github.com/rjardine/newsroute/internal/routing"
)

//go:generate mockgen -destination=mocks/mock_dispatch.go -package=mocks github.com/rjardine/newsroute/internal/dispatch DeskResolver,MacroRunner,Archiver

var (
	// ErrUnknownDestination marks an action whose desk or stage could not
	// be resolved.
	ErrUnknownDestination = errors.New("unknown desk or stage")

	// ErrUnknownMacro marks an action naming a macro that is not registered.
	ErrUnknownMacro = errors.New("unknown macro")
)

// StageRef is a resolved desk/stage destination.
type StageRef struct {
	DeskID  string
	StageID string
}

// DeskResolver maps the desk and stage names carried on routing actions to
// concrete destinations.
type DeskResolver interface {
	Resolve(ctx context.Context, desk, stage string) (StageRef, error)
}

// MacroRunner applies a named transformation macro to an item copy.
type MacroRunner interface {
	Run(ctx context.Context, name string, item *model.Item) (*model.Item, error)
}

// Archiver executes the destination side of an action: copying an ingested
// item into a stage, or copying and queueing it for publication.
type Archiver interface {
	Fetch(ctx context.Context, item *model.Item, dest StageRef) (string, error)
	Publish(ctx context.Context, item *model.Item, dest StageRef, action routing.Action) (string, error)
}

// ActionResult records the outcome of one dispatched action. A failed action
// carries its error here; it never aborts the batch.
type ActionResult struct {
	Action routing.Action

	// ItemID identifies the archived copy on success.
	ItemID string
	Err    error
}

func (r ActionResult) OK() bool { return r.Err == nil }

// Dispatcher executes the actions a scheme evaluation produced. Results come
// back in action order regardless of execution order.
type Dispatcher struct {
	desks   DeskResolver
	macros  MacroRunner
	archive Archiver
	workers int
	logger  *slog.Logger
}

// New creates a Dispatcher. workers <= 1 dispatches serially.
func New(desks DeskResolver, macros MacroRunner, archive Archiver, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		desks:   desks,
		macros:  macros,
		archive: archive,
		workers: workers,
		logger:  log.WithComponent("dispatch"),
	}
}

// Dispatch runs every action against the item and returns one result per
// action, positionally aligned with the input. Failures are recorded per
// action; the only batch-level error is a missing item.
func (d *Dispatcher) Dispatch(ctx context.Context, item *model.Item, actions []routing.Action) ([]ActionResult, error) {
	if item == nil {
		return nil, fmt.Errorf("item is required")
	}

	results := make([]ActionResult, len(actions))

	if d.workers == 1 || len(actions) < 2 {
		for i := range actions {
			results[i] = d.execute(ctx, item, actions[i])
		}
		return results, nil
	}

	sem := make(chan struct{}, d.workers)
	var wg sync.WaitGroup
	for i := range actions {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = d.execute(ctx, item, actions[i])
		}(i)
	}
	wg.Wait()
	return results, nil
}

func (d *Dispatcher) execute(ctx context.Context, item *model.Item, action routing.Action) ActionResult {
	result := ActionResult{Action: action}
	logger := d.logger.With("rule", action.Rule, "kind", string(action.Kind),
		"desk", action.Desk, "stage", action.Stage, "item_id", item.GUID)

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	dest, err := d.desks.Resolve(ctx, action.Desk, action.Stage)
	if err != nil {
		result.Err = fmt.Errorf("resolve %s/%s: %w", action.Desk, action.Stage, err)
		logger.Error("action failed", "error", result.Err)
		return result
	}

	// Each action works on its own copy so a macro in one action cannot
	// leak edits into another.
	working := item.Clone()
	if action.Macro != "" {
		working, err = d.macros.Run(ctx, action.Macro, working)
		if err != nil {
			result.Err = fmt.Errorf("macro %q: %w", action.Macro, err)
			logger.Error("action failed", "error", result.Err)
			return result
		}
	}

	switch action.Kind {
	case model.ActionFetch:
		result.ItemID, err = d.archive.Fetch(ctx, working, dest)
	case model.ActionPublish:
		result.ItemID, err = d.archive.Publish(ctx, working, dest, action)
	default:
		err = fmt.Errorf("unsupported action kind %q", action.Kind)
	}
	if err != nil {
		result.Err = err
		logger.Error("action failed", "error", err)
		return result
	}

	logger.Info("action dispatched", "archived_id", result.ItemID)
	return result
}
