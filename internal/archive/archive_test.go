package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rjardine/newsroute/internal/dispatch"
	"github.com/rjardine/newsroute/internal/model"
	"github.com/rjardine/newsroute/internal/routing"
)

func TestFSFetchWritesItem(t *testing.T) {
	root := t.TempDir()
	a, err := NewFS(root)
	assert.NoError(t, err)

	item := &model.Item{GUID: "guid-1", Headline: "hello"}
	id, err := a.Fetch(context.Background(), item, dispatch.StageRef{DeskID: "sports", StageID: "incoming"})
	assert.NoError(t, err)
	assert.NotEmpty(t, id)

	data, err := os.ReadFile(filepath.Join(root, "sports", "incoming", id+".json"))
	assert.NoError(t, err)

	var stored struct {
		ID   string      `json:"id"`
		Item *model.Item `json:"item"`
	}
	assert.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, id, stored.ID)
	assert.Equal(t, "guid-1", stored.Item.GUID)
}

func TestFSPublishStoresTargeting(t *testing.T) {
	root := t.TempDir()
	a, err := NewFS(root)
	assert.NoError(t, err)

	action := routing.Action{
		Kind:              model.ActionPublish,
		Rule:              "world-wire",
		Desk:              "world",
		Stage:             "publish",
		TargetSubscribers: []string{"sub-1"},
	}
	id, err := a.Publish(context.Background(), &model.Item{GUID: "guid-1"},
		dispatch.StageRef{DeskID: "world", StageID: "publish"}, action)
	assert.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "world", "publish", id+".json"))
	assert.NoError(t, err)

	var stored struct {
		Targeting *routing.Action `json:"targeting"`
	}
	assert.NoError(t, json.Unmarshal(data, &stored))
	if assert.NotNil(t, stored.Targeting) {
		assert.Equal(t, []string{"sub-1"}, stored.Targeting.TargetSubscribers)
	}
}

func TestStaticDesksResolve(t *testing.T) {
	open := NewStaticDesks(nil)
	ref, err := open.Resolve(context.Background(), "anything", "incoming")
	assert.NoError(t, err)
	assert.Equal(t, dispatch.StageRef{DeskID: "anything", StageID: "incoming"}, ref)

	_, err = open.Resolve(context.Background(), "", "incoming")
	assert.ErrorIs(t, err, dispatch.ErrUnknownDestination)

	strict := NewStaticDesks(map[string][]string{"sports": {"incoming", "publish"}})
	_, err = strict.Resolve(context.Background(), "sports", "incoming")
	assert.NoError(t, err)
	_, err = strict.Resolve(context.Background(), "finance", "incoming")
	assert.ErrorIs(t, err, dispatch.ErrUnknownDestination)
	_, err = strict.Resolve(context.Background(), "sports", "archive")
	assert.ErrorIs(t, err, dispatch.ErrUnknownDestination)
}

func TestMacros(t *testing.T) {
	m := NewMacros()

	item := &model.Item{Headline: " breaking news "}
	out, err := m.Run(context.Background(), "trim-whitespace", item)
	assert.NoError(t, err)
	assert.Equal(t, "breaking news", out.Headline)

	out, err = m.Run(context.Background(), "uppercase-headline", out)
	assert.NoError(t, err)
	assert.Equal(t, "BREAKING NEWS", out.Headline)

	_, err = m.Run(context.Background(), "no-such-macro", item)
	assert.ErrorIs(t, err, dispatch.ErrUnknownMacro)
}
