package send

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rjardine/newsroute/internal/dispatch"
	"github.com/rjardine/newsroute/internal/log"
	"github.com/rjardine/newsroute/internal/model"
	"github.com/rjardine/newsroute/internal/routing"
)

// manualRuleTag marks actions that came from a user-initiated send rather
// than a routing rule.
const manualRuleTag = "manual-send"

// Destination is the desk/stage a user sends items to, with an optional
// transformation macro.
type Destination struct {
	Desk  string `yaml:"desk" json:"desk"`
	Stage string `yaml:"stage" json:"stage"`
	Macro string `yaml:"macro,omitempty" json:"macro,omitempty"`
}

// Result is the per-item outcome of a send. A failed item keeps its pre-send
// state so the operation can be retried.
type Result struct {
	GUID       string
	ArchivedID string
	Err        error
}

func (r Result) OK() bool { return r.Err == nil }

// ActionDispatcher is the slice of the dispatcher the send path uses.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, item *model.Item, actions []routing.Action) ([]dispatch.ActionResult, error)
}

// DestinationSource supplies the user's current working desk/stage, used
// when a send names no explicit destination.
type DestinationSource interface {
	Default(ctx context.Context) (Destination, error)
}

// Service is the interactive counterpart to automatic routing: a user sends
// one or more ingest items to a desk, with the same per-item accounting the
// rule engine produces.
type Service struct {
	dispatcher ActionDispatcher
	defaults   DestinationSource
	pending    *Pending
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(dispatcher ActionDispatcher, defaults DestinationSource) *Service {
	return &Service{
		dispatcher: dispatcher,
		defaults:   defaults,
		pending:    NewPending(),
		now:        time.Now,
		logger:     log.WithComponent("send"),
	}
}

// Pending exposes the destination-selection slot so the interactive layer
// can resolve or cancel it.
func (s *Service) Pending() *Pending { return s.pending }

// One sends a single item to the user's default destination.
func (s *Service) One(ctx context.Context, item *model.Item) (Result, error) {
	dest, err := s.defaults.Default(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("resolve default destination: %w", err)
	}
	return s.OneAs(ctx, item, dest), nil
}

// All sends each item to the user's default destination. One item's failure
// does not block the others.
func (s *Service) All(ctx context.Context, items []*model.Item) ([]Result, error) {
	dest, err := s.defaults.Default(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve default destination: %w", err)
	}
	return s.AllAs(ctx, items, dest), nil
}

// OneAs sends a single item to an explicit destination. On success the
// archived identity and timestamp are recorded on the item; on failure the
// error is attached and the item is otherwise left as it was.
func (s *Service) OneAs(ctx context.Context, item *model.Item, dest Destination) Result {
	result := Result{GUID: item.GUID}

	action := routing.Action{
		Kind:  model.ActionFetch,
		Rule:  manualRuleTag,
		Desk:  dest.Desk,
		Stage: dest.Stage,
		Macro: dest.Macro,
	}
	batch, err := s.dispatcher.Dispatch(ctx, item, []routing.Action{action})
	if err == nil && len(batch) == 1 {
		err = batch[0].Err
	}
	if err != nil {
		result.Err = err
		item.LastError = err.Error()
		s.logger.Error("send failed", "item_id", item.GUID, "desk", dest.Desk, "error", err)
		return result
	}

	archived := s.now()
	item.Archived = &archived
	item.LastError = ""
	result.ArchivedID = batch[0].ItemID
	s.logger.Info("item sent", "item_id", item.GUID, "desk", dest.Desk, "archived_id", result.ArchivedID)
	return result
}

// AllAs sends every item to the same explicit destination, independently.
// The destination is fixed before the batch starts.
func (s *Service) AllAs(ctx context.Context, items []*model.Item, dest Destination) []Result {
	results := make([]Result, len(items))
	for i, item := range items {
		results[i] = s.OneAs(ctx, item, dest)
	}
	return results
}

// AllDeferred initiates a send whose destination is chosen afterwards. It
// blocks until the pending slot is resolved, then runs the batch. A cancelled
// or superseded selection aborts with no items touched.
func (s *Service) AllDeferred(ctx context.Context, items []*model.Item) ([]Result, error) {
	req := s.pending.Start()
	dest, err := req.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return s.AllAs(ctx, items, dest), nil
}

// OneDeferred is AllDeferred for a single item.
func (s *Service) OneDeferred(ctx context.Context, item *model.Item) (Result, error) {
	results, err := s.AllDeferred(ctx, []*model.Item{item})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}
