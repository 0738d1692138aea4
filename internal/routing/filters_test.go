package routing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rjardine/newsroute/internal/model"
)

func TestFilterSetMatches(t *testing.T) {
	set, err := NewFilterSet([]ContentFilter{
		{
			ID: "text-only",
			Conditions: []FilterCondition{
				{Field: "type", Op: "eq", Values: []string{"text"}},
			},
		},
		{
			ID: "sports-wire",
			Conditions: []FilterCondition{
				{Field: "type", Values: []string{"text"}},
				{Field: "category", Op: "in", Values: []string{"sport", "sports"}},
			},
		},
		{
			ID: "no-pictures",
			Conditions: []FilterCondition{
				{Field: "type", Op: "ne", Values: []string{"picture"}},
			},
		},
		{
			ID: "urgent-headline",
			Conditions: []FilterCondition{
				{Field: "headline", Op: "match", Values: []string{"(?i)^urgent"}},
			},
		},
	})
	assert.NoError(t, err)

	ctx := context.Background()
	text := &model.Item{Type: "text", Headline: "calm", Fields: map[string]string{"category": "Sport"}}
	picture := &model.Item{Type: "picture", Headline: "URGENT: flood photos"}

	tests := []struct {
		filter string
		item   *model.Item
		want   bool
	}{
		{"text-only", text, true},
		{"text-only", picture, false},
		{"sports-wire", text, true},
		{"sports-wire", &model.Item{Type: "text"}, false},
		{"no-pictures", text, true},
		{"no-pictures", picture, false},
		{"urgent-headline", picture, true},
		{"urgent-headline", text, false},
	}
	for _, tc := range tests {
		got, err := set.Matches(ctx, tc.filter, tc.item)
		assert.NoError(t, err, tc.filter)
		assert.Equal(t, tc.want, got, "%s on %s", tc.filter, tc.item.Type)
	}
}

func TestFilterSetUnknownFilter(t *testing.T) {
	set, err := NewFilterSet(nil)
	assert.NoError(t, err)

	_, err = set.Matches(context.Background(), "missing", &model.Item{Type: "text"})
	assert.ErrorContains(t, err, "unknown content filter")
}

func TestNewFilterSetRejectsBadDefinitions(t *testing.T) {
	_, err := NewFilterSet([]ContentFilter{{ID: "a"}, {ID: "a"}})
	assert.ErrorContains(t, err, "duplicate content filter")

	_, err = NewFilterSet([]ContentFilter{
		{ID: "b", Conditions: []FilterCondition{{Op: "eq", Values: []string{"x"}}}},
	})
	assert.ErrorContains(t, err, "field is required")

	_, err = NewFilterSet([]ContentFilter{
		{ID: "c", Conditions: []FilterCondition{{Field: "type", Op: "between"}}},
	})
	assert.ErrorContains(t, err, "unknown condition op")

	_, err = NewFilterSet([]ContentFilter{
		{ID: "d", Conditions: []FilterCondition{{Field: "headline", Op: "match", Values: []string{"("}}}},
	})
	assert.ErrorContains(t, err, "bad pattern")
}

func TestLoadFilters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filters.yaml")
	doc := `filters:
  - id: text-only
    name: Text only
    conditions:
      - field: type
        op: eq
        values: [text]
`
	assert.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	set, err := LoadFilters(path)
	assert.NoError(t, err)
	assert.Equal(t, 1, set.Len())

	ok, err := set.Matches(context.Background(), "text-only", &model.Item{Type: "text"})
	assert.NoError(t, err)
	assert.True(t, ok)

	// Missing file is an empty set.
	set, err = LoadFilters(filepath.Join(dir, "absent.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}
