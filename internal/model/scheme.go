package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRule marks a rule that must not reach persistence or evaluation.
var ErrInvalidRule = errors.New("invalid routing rule")

// ActionKind discriminates the two action variants a rule can carry.
type ActionKind string

const (
	ActionFetch   ActionKind = "fetch"
	ActionPublish ActionKind = "publish"
)

// FetchAction copies an ingested item into a desk/stage, optionally
// transformed by a named macro.
type FetchAction struct {
	Desk  string `yaml:"desk" json:"desk"`
	Stage string `yaml:"stage" json:"stage"`
	Macro string `yaml:"macro,omitempty" json:"macro,omitempty"`
}

// TargetType is a subscriber-type constraint carried on publish actions.
// Deny inverts the match; the downstream publish stage interprets it.
type TargetType struct {
	Name string `yaml:"name" json:"name"`
	Deny bool   `yaml:"deny" json:"deny"`
}

// PublishAction is a fetch plus subscriber-targeting metadata. The routing
// engine only carries the targeting fields; it never resolves eligibility.
type PublishAction struct {
	Desk              string       `yaml:"desk" json:"desk"`
	Stage             string       `yaml:"stage" json:"stage"`
	Macro             string       `yaml:"macro,omitempty" json:"macro,omitempty"`
	TargetSubscribers []string     `yaml:"target_subscribers,omitempty" json:"target_subscribers,omitempty"`
	TargetTypes       []TargetType `yaml:"target_types,omitempty" json:"target_types,omitempty"`
}

// RuleActions groups a rule's ordered action lists and its exit flag.
type RuleActions struct {
	Fetch   []FetchAction   `yaml:"fetch" json:"fetch"`
	Publish []PublishAction `yaml:"publish" json:"publish"`
	Exit    bool            `yaml:"exit" json:"exit"`
}

// RoutingRule is one ordered entry in a scheme. FilterID references an
// externally owned content filter; empty means the rule matches every item.
type RoutingRule struct {
	Name     string         `yaml:"name" json:"name"`
	FilterID string         `yaml:"filter,omitempty" json:"filter,omitempty"`
	Schedule ScheduleWindow `yaml:"schedule" json:"schedule"`
	Actions  RuleActions    `yaml:"actions" json:"actions"`
}

// NewRule returns the in-memory placeholder a user gets when adding a rule to
// a scheme being edited: no name yet, no filter, full-week window, no actions.
func NewRule() RoutingRule {
	return RoutingRule{
		Schedule: DefaultWindow(),
		Actions: RuleActions{
			Fetch:   []FetchAction{},
			Publish: []PublishAction{},
		},
	}
}

// RoutingScheme is an ordered sequence of rules bound to one or more ingest
// providers. Order is evaluation order and must survive save/load round-trips.
type RoutingScheme struct {
	ID    string        `yaml:"id,omitempty" json:"id,omitempty"`
	Name  string        `yaml:"name" json:"name"`
	Rules []RoutingRule `yaml:"rules" json:"rules"`
}

// Validate rejects a scheme that must not be persisted: unnamed rules,
// duplicate rule names, malformed schedules, actions without a desk or stage.
func (s *RoutingScheme) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("scheme name is required")
	}
	seen := make(map[string]struct{}, len(s.Rules))
	for i, rule := range s.Rules {
		if strings.TrimSpace(rule.Name) == "" {
			return fmt.Errorf("rules[%d]: %w: name is required", i, ErrInvalidRule)
		}
		if _, dup := seen[rule.Name]; dup {
			return fmt.Errorf("rules[%d]: %w: duplicate rule name %q", i, ErrInvalidRule, rule.Name)
		}
		seen[rule.Name] = struct{}{}

		if err := rule.Schedule.Validate(); err != nil {
			return fmt.Errorf("rules[%d] (%s): %w", i, rule.Name, err)
		}
		for j, a := range rule.Actions.Fetch {
			if a.Desk == "" || a.Stage == "" {
				return fmt.Errorf("rules[%d] (%s): fetch[%d]: %w: desk and stage are required", i, rule.Name, j, ErrInvalidRule)
			}
		}
		for j, a := range rule.Actions.Publish {
			if a.Desk == "" || a.Stage == "" {
				return fmt.Errorf("rules[%d] (%s): publish[%d]: %w: desk and stage are required", i, rule.Name, j, ErrInvalidRule)
			}
		}
	}
	return nil
}

// Compact drops unnamed placeholder rules, preserving the order of the rest.
// This is the edit-session behavior: a rule the user added but never named is
// silently discarded on save rather than rejected.
func (s *RoutingScheme) Compact() {
	kept := s.Rules[:0]
	for _, rule := range s.Rules {
		if strings.TrimSpace(rule.Name) == "" {
			continue
		}
		kept = append(kept, rule)
	}
	s.Rules = kept
}

// RuleByName returns the named rule, or nil. Names identify rules for display
// and traceability only; evaluation is strictly positional.
func (s *RoutingScheme) RuleByName(name string) *RoutingRule {
	for i := range s.Rules {
		if s.Rules[i].Name == name {
			return &s.Rules[i]
		}
	}
	return nil
}
