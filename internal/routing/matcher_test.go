package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rjardine/newsroute/internal/model"
)

var testArrival = time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC) // Wednesday

func matchAll(ctx context.Context, filterID string, item *model.Item) (bool, error) {
	return true, nil
}

func testItem() *model.Item {
	return &model.Item{GUID: "urn:item:1", Provider: "reuters", Type: "text"}
}

func ruleWithFetch(name, desk string) model.RoutingRule {
	r := model.NewRule()
	r.Name = name
	r.Actions.Fetch = []model.FetchAction{{Desk: desk, Stage: "incoming"}}
	return r
}

func TestEvaluatePreservesRuleOrder(t *testing.T) {
	scheme := &model.RoutingScheme{
		Name: "wires",
		Rules: []model.RoutingRule{
			ruleWithFetch("third-desk", "finance"),
			ruleWithFetch("first-desk", "sports"),
			ruleWithFetch("second-desk", "world"),
		},
	}

	m := NewMatcher(FilterEvaluatorFunc(matchAll))
	actions, err := m.Evaluate(context.Background(), scheme, testItem(), testArrival)
	assert.NoError(t, err)

	desks := make([]string, len(actions))
	for i, a := range actions {
		desks[i] = a.Desk
	}
	assert.Equal(t, []string{"finance", "sports", "world"}, desks)
}

func TestEvaluateFetchBeforePublishWithinRule(t *testing.T) {
	rule := model.NewRule()
	rule.Name = "both"
	rule.Actions.Fetch = []model.FetchAction{{Desk: "sports", Stage: "incoming", Macro: "strip-ads"}}
	rule.Actions.Publish = []model.PublishAction{{
		Desk:              "sports",
		Stage:             "publish",
		TargetSubscribers: []string{"sub-1"},
		TargetTypes:       []model.TargetType{{Name: "wire", Deny: true}},
	}}
	scheme := &model.RoutingScheme{Name: "wires", Rules: []model.RoutingRule{rule}}

	m := NewMatcher(FilterEvaluatorFunc(matchAll))
	actions, err := m.Evaluate(context.Background(), scheme, testItem(), testArrival)
	assert.NoError(t, err)

	if assert.Len(t, actions, 2) {
		assert.Equal(t, model.ActionFetch, actions[0].Kind)
		assert.Equal(t, "strip-ads", actions[0].Macro)
		assert.Equal(t, model.ActionPublish, actions[1].Kind)
		assert.Equal(t, []string{"sub-1"}, actions[1].TargetSubscribers)
		assert.Equal(t, "both", actions[1].Rule)
	}
}

func TestEvaluateExitStopsAfterMatchingRule(t *testing.T) {
	exitRule := ruleWithFetch("gate", "sports")
	exitRule.Actions.Exit = true
	scheme := &model.RoutingScheme{
		Name: "wires",
		Rules: []model.RoutingRule{
			ruleWithFetch("before", "world"),
			exitRule,
			ruleWithFetch("never-reached", "finance"),
		},
	}

	m := NewMatcher(FilterEvaluatorFunc(matchAll))
	actions, err := m.Evaluate(context.Background(), scheme, testItem(), testArrival)
	assert.NoError(t, err)

	if assert.Len(t, actions, 2) {
		assert.Equal(t, "before", actions[0].Rule)
		assert.Equal(t, "gate", actions[1].Rule)
	}
}

// An exit rule that does not match must not stop evaluation.
func TestEvaluateExitIgnoredWhenRuleDoesNotMatch(t *testing.T) {
	exitRule := ruleWithFetch("night-gate", "sports")
	exitRule.Actions.Exit = true
	exitRule.Schedule.HourFrom = "22:00:00"
	exitRule.Schedule.HourTo = "23:55:00"
	scheme := &model.RoutingScheme{
		Name:  "wires",
		Rules: []model.RoutingRule{exitRule, ruleWithFetch("daytime", "world")},
	}

	m := NewMatcher(FilterEvaluatorFunc(matchAll))
	actions, err := m.Evaluate(context.Background(), scheme, testItem(), testArrival)
	assert.NoError(t, err)

	if assert.Len(t, actions, 1) {
		assert.Equal(t, "daytime", actions[0].Rule)
	}
}

func TestEvaluateScheduleGatesRule(t *testing.T) {
	gated := ruleWithFetch("weekend-only", "sports")
	gated.Schedule.DaysOfWeek = []string{"SAT", "SUN"}
	scheme := &model.RoutingScheme{
		Name:  "wires",
		Rules: []model.RoutingRule{gated, ruleWithFetch("always", "world")},
	}

	m := NewMatcher(FilterEvaluatorFunc(matchAll))
	actions, err := m.Evaluate(context.Background(), scheme, testItem(), testArrival)
	assert.NoError(t, err)

	if assert.Len(t, actions, 1) {
		assert.Equal(t, "always", actions[0].Rule)
	}
}

func TestEvaluateFilterVerdicts(t *testing.T) {
	sportsOnly := ruleWithFetch("sports-only", "sports")
	sportsOnly.FilterID = "filter-sports"
	broken := ruleWithFetch("broken-filter", "finance")
	broken.FilterID = "filter-gone"
	scheme := &model.RoutingScheme{
		Name:  "wires",
		Rules: []model.RoutingRule{sportsOnly, broken, ruleWithFetch("unfiltered", "world")},
	}

	filters := FilterEvaluatorFunc(func(ctx context.Context, filterID string, item *model.Item) (bool, error) {
		switch filterID {
		case "filter-sports":
			return false, nil
		case "filter-gone":
			return false, errors.New("filter not found")
		}
		return true, nil
	})

	m := NewMatcher(filters)
	actions, err := m.Evaluate(context.Background(), scheme, testItem(), testArrival)
	assert.NoError(t, err)

	// Non-matching and unresolvable filters both skip only their own rule.
	if assert.Len(t, actions, 1) {
		assert.Equal(t, "unfiltered", actions[0].Rule)
	}
}

// Two rules routing to the same desk produce two actions. Duplicates are the
// operator's intent, not a defect to collapse.
func TestEvaluateDoesNotDeduplicateActions(t *testing.T) {
	scheme := &model.RoutingScheme{
		Name: "wires",
		Rules: []model.RoutingRule{
			ruleWithFetch("first", "sports"),
			ruleWithFetch("second", "sports"),
		},
	}

	m := NewMatcher(FilterEvaluatorFunc(matchAll))
	actions, err := m.Evaluate(context.Background(), scheme, testItem(), testArrival)
	assert.NoError(t, err)

	if assert.Len(t, actions, 2) {
		assert.Equal(t, actions[0].Desk, actions[1].Desk)
		assert.NotEqual(t, actions[0].Rule, actions[1].Rule)
	}
}

func TestEvaluateEmptySchemeAndCancelledContext(t *testing.T) {
	m := NewMatcher(FilterEvaluatorFunc(matchAll))

	actions, err := m.Evaluate(context.Background(), &model.RoutingScheme{Name: "empty"}, testItem(), testArrival)
	assert.NoError(t, err)
	assert.Empty(t, actions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Evaluate(ctx, &model.RoutingScheme{Name: "empty"}, testItem(), testArrival)
	assert.ErrorIs(t, err, context.Canceled)
}
