package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/rjardine/newsroute/internal/log"
	"github.com/rjardine/newsroute/internal/model"
)

// FilterEvaluator decides whether a named content filter matches an item.
// Filters are owned elsewhere; the matcher only sees their verdicts.
type FilterEvaluator interface {
	Matches(ctx context.Context, filterID string, item *model.Item) (bool, error)
}

// FilterEvaluatorFunc adapts a function to FilterEvaluator.
type FilterEvaluatorFunc func(ctx context.Context, filterID string, item *model.Item) (bool, error)

func (f FilterEvaluatorFunc) Matches(ctx context.Context, filterID string, item *model.Item) (bool, error) {
	return f(ctx, filterID, item)
}

// Action is one routing decision, tagged with the rule that produced it.
// Actions from separate rules are never merged or deduplicated; two rules
// naming the same desk produce two actions.
type Action struct {
	Kind              model.ActionKind   `json:"kind"`
	Rule              string             `json:"rule"`
	Desk              string             `json:"desk"`
	Stage             string             `json:"stage"`
	Macro             string             `json:"macro,omitempty"`
	TargetSubscribers []string           `json:"target_subscribers,omitempty"`
	TargetTypes       []model.TargetType `json:"target_types,omitempty"`
}

// Matcher evaluates a scheme's rules, in order, against one ingested item.
type Matcher struct {
	filters FilterEvaluator
}

func NewMatcher(filters FilterEvaluator) *Matcher {
	return &Matcher{filters: filters}
}

// Evaluate walks the scheme top to bottom and collects the actions of every
// rule that matches. A rule matches when its schedule window contains the
// arrival time and its filter (if any) accepts the item. A matching rule with
// the exit flag stops evaluation after contributing its own actions.
//
// A rule whose filter cannot be evaluated is skipped, not failed: a broken or
// deleted filter must not stall the rest of the scheme.
func (m *Matcher) Evaluate(ctx context.Context, scheme *model.RoutingScheme, item *model.Item, arrived time.Time) ([]Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scheme == nil {
		return nil, fmt.Errorf("scheme is required")
	}
	if item == nil {
		return nil, fmt.Errorf("item is required")
	}

	logger := log.WithComponent("routing").With("scheme", scheme.Name, "item_id", item.GUID)

	var out []Action
	for i := range scheme.Rules {
		rule := &scheme.Rules[i]

		if !rule.Schedule.Contains(arrived) {
			logger.Debug("rule outside schedule window", "rule", rule.Name)
			continue
		}

		if rule.FilterID != "" {
			ok, err := m.filters.Matches(ctx, rule.FilterID, item)
			if err != nil {
				logger.Warn("filter evaluation failed, skipping rule",
					"rule", rule.Name, "filter", rule.FilterID, "error", err)
				continue
			}
			if !ok {
				continue
			}
		}

		out = append(out, ruleActions(rule)...)
		if rule.Actions.Exit {
			logger.Debug("exit rule matched, stopping evaluation", "rule", rule.Name)
			break
		}
	}
	return out, nil
}

func ruleActions(rule *model.RoutingRule) []Action {
	out := make([]Action, 0, len(rule.Actions.Fetch)+len(rule.Actions.Publish))
	for _, a := range rule.Actions.Fetch {
		out = append(out, Action{
			Kind:  model.ActionFetch,
			Rule:  rule.Name,
			Desk:  a.Desk,
			Stage: a.Stage,
			Macro: a.Macro,
		})
	}
	for _, a := range rule.Actions.Publish {
		out = append(out, Action{
			Kind:              model.ActionPublish,
			Rule:              rule.Name,
			Desk:              a.Desk,
			Stage:             a.Stage,
			Macro:             a.Macro,
			TargetSubscribers: a.TargetSubscribers,
			TargetTypes:       a.TargetTypes,
		})
	}
	return out
}
