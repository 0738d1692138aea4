package routing

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rjardine/newsroute/internal/model"
)

// FilterCondition is one predicate of a content filter. All conditions of a
// filter must hold for the filter to match.
type FilterCondition struct {
	Field  string   `yaml:"field" json:"field"`
	Op     string   `yaml:"op" json:"op"`
	Values []string `yaml:"values" json:"values"`
}

// ContentFilter matches items by field values. Rules reference filters by ID.
type ContentFilter struct {
	ID         string            `yaml:"id" json:"id"`
	Name       string            `yaml:"name" json:"name"`
	Conditions []FilterCondition `yaml:"conditions" json:"conditions"`
}

// FilterSet evaluates content filters by ID. It satisfies FilterEvaluator.
type FilterSet struct {
	filters map[string]ContentFilter
}

// NewFilterSet indexes filters by ID, falling back to Name when ID is empty.
func NewFilterSet(filters []ContentFilter) (*FilterSet, error) {
	indexed := make(map[string]ContentFilter, len(filters))
	for _, f := range filters {
		key := f.ID
		if key == "" {
			key = f.Name
		}
		if key == "" {
			return nil, fmt.Errorf("content filter needs an id or name")
		}
		if _, dup := indexed[key]; dup {
			return nil, fmt.Errorf("duplicate content filter %q", key)
		}
		for _, c := range f.Conditions {
			if err := validateCondition(c); err != nil {
				return nil, fmt.Errorf("filter %q: %w", key, err)
			}
		}
		indexed[key] = f
	}
	return &FilterSet{filters: indexed}, nil
}

// LoadFilters reads content filters from <configDir>/filters.yaml. A missing
// file yields an empty set.
func LoadFilters(path string) (*FilterSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewFilterSet(nil)
		}
		return nil, fmt.Errorf("read filters %q: %w", path, err)
	}

	var doc struct {
		Filters []ContentFilter `yaml:"filters"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse filters %q: %w", path, err)
	}
	return NewFilterSet(doc.Filters)
}

// Len reports how many filters are registered.
func (s *FilterSet) Len() int { return len(s.filters) }

// Matches implements FilterEvaluator. Referencing an unknown filter is an
// error so the rule gets skipped rather than silently matching everything.
func (s *FilterSet) Matches(ctx context.Context, filterID string, item *model.Item) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f, ok := s.filters[filterID]
	if !ok {
		return false, fmt.Errorf("unknown content filter %q", filterID)
	}
	for _, c := range f.Conditions {
		matched, err := evalCondition(c, item)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

func validateCondition(c FilterCondition) error {
	if c.Field == "" {
		return fmt.Errorf("condition field is required")
	}
	switch c.Op {
	case "", "eq", "ne", "in", "nin", "match":
	default:
		return fmt.Errorf("unknown condition op %q", c.Op)
	}
	if c.Op == "match" {
		for _, v := range c.Values {
			if _, err := regexp.Compile(v); err != nil {
				return fmt.Errorf("bad pattern %q: %w", v, err)
			}
		}
	}
	return nil
}

func evalCondition(c FilterCondition, item *model.Item) (bool, error) {
	value := fieldValue(c.Field, item)

	switch c.Op {
	case "", "eq", "in":
		for _, v := range c.Values {
			if strings.EqualFold(value, v) {
				return true, nil
			}
		}
		return false, nil
	case "ne", "nin":
		for _, v := range c.Values {
			if strings.EqualFold(value, v) {
				return false, nil
			}
		}
		return true, nil
	case "match":
		for _, v := range c.Values {
			re, err := regexp.Compile(v)
			if err != nil {
				return false, fmt.Errorf("bad pattern %q: %w", v, err)
			}
			if re.MatchString(value) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown condition op %q", c.Op)
	}
}

func fieldValue(field string, item *model.Item) string {
	switch strings.ToLower(field) {
	case "guid":
		return item.GUID
	case "type":
		return item.Type
	case "headline":
		return item.Headline
	case "body", "body_html":
		return item.Body
	case "provider", "ingest_provider":
		return item.Provider
	default:
		return item.Fields[field]
	}
}
