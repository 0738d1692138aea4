package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func namedRule(name string) RoutingRule {
	r := NewRule()
	r.Name = name
	r.Actions.Fetch = []FetchAction{{Desk: "sports", Stage: "incoming"}}
	return r
}

func TestNewRuleDefaults(t *testing.T) {
	r := NewRule()
	assert.Empty(t, r.Name)
	assert.Empty(t, r.FilterID)
	assert.Equal(t, DefaultWindow(), r.Schedule)
	assert.Empty(t, r.Actions.Fetch)
	assert.Empty(t, r.Actions.Publish)
	assert.False(t, r.Actions.Exit)
}

func TestSchemeValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RoutingScheme)
		wantErr string
	}{
		{"valid", func(s *RoutingScheme) {}, ""},
		{"missing scheme name", func(s *RoutingScheme) { s.Name = " " }, "scheme name is required"},
		{"unnamed rule", func(s *RoutingScheme) { s.Rules[0].Name = "" }, "name is required"},
		{"duplicate rule name", func(s *RoutingScheme) { s.Rules[1].Name = s.Rules[0].Name }, "duplicate rule name"},
		{"bad schedule", func(s *RoutingScheme) { s.Rules[0].Schedule.HourFrom = "25:00:00" }, "not HH:MM:SS"},
		{"fetch without stage", func(s *RoutingScheme) { s.Rules[0].Actions.Fetch[0].Stage = "" }, "desk and stage are required"},
		{"publish without desk", func(s *RoutingScheme) {
			s.Rules[0].Actions.Publish = []PublishAction{{Stage: "out"}}
		}, "desk and stage are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := RoutingScheme{
				Name:  "wires",
				Rules: []RoutingRule{namedRule("first"), namedRule("second")},
			}
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSchemeValidateWrapsSentinel(t *testing.T) {
	s := RoutingScheme{Name: "wires", Rules: []RoutingRule{NewRule()}}
	err := s.Validate()
	assert.True(t, errors.Is(err, ErrInvalidRule))
}

func TestSchemeCompactDropsUnnamedRules(t *testing.T) {
	s := RoutingScheme{
		Name: "wires",
		Rules: []RoutingRule{
			namedRule("keep-a"),
			NewRule(),
			namedRule("keep-b"),
			NewRule(),
		},
	}
	s.Compact()

	assert.Len(t, s.Rules, 2)
	assert.Equal(t, "keep-a", s.Rules[0].Name)
	assert.Equal(t, "keep-b", s.Rules[1].Name)
	assert.NoError(t, s.Validate())
}

// Rule order is evaluation order; both codecs must preserve it exactly.
func TestSchemeRoundTripPreservesOrder(t *testing.T) {
	orig := RoutingScheme{
		ID:   "s1",
		Name: "wires",
		Rules: []RoutingRule{
			namedRule("zulu"),
			namedRule("alpha"),
			namedRule("mike"),
		},
	}
	orig.Rules[1].FilterID = "filter-7"
	orig.Rules[1].Actions.Exit = true
	orig.Rules[2].Actions.Publish = []PublishAction{{
		Desk:              "world",
		Stage:             "publish",
		TargetSubscribers: []string{"sub-1", "sub-2"},
		TargetTypes:       []TargetType{{Name: "digital", Deny: true}},
	}}

	raw, err := json.Marshal(orig)
	assert.NoError(t, err)
	var fromJSON RoutingScheme
	assert.NoError(t, json.Unmarshal(raw, &fromJSON))
	assert.Equal(t, orig, fromJSON)

	rawYAML, err := yaml.Marshal(orig)
	assert.NoError(t, err)
	var fromYAML RoutingScheme
	assert.NoError(t, yaml.Unmarshal(rawYAML, &fromYAML))
	assert.Equal(t, orig, fromYAML)
}

func TestRuleByName(t *testing.T) {
	s := RoutingScheme{Name: "wires", Rules: []RoutingRule{namedRule("a"), namedRule("b")}}
	r := s.RuleByName("b")
	if assert.NotNil(t, r) {
		assert.Equal(t, "b", r.Name)
	}
	assert.Nil(t, s.RuleByName("missing"))
}
