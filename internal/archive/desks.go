package archive

import (
	"context"
	"fmt"

	"github.com/rjardine/newsroute/internal/dispatch"
)

// StaticDesks resolves desk/stage names against a configured map. An empty
// map accepts anything, which suits standalone deployments where desks are
// just archive directories.
type StaticDesks struct {
	desks map[string][]string
}

func NewStaticDesks(desks map[string][]string) *StaticDesks {
	return &StaticDesks{desks: desks}
}

func (d *StaticDesks) Resolve(ctx context.Context, desk, stage string) (dispatch.StageRef, error) {
	if desk == "" || stage == "" {
		return dispatch.StageRef{}, fmt.Errorf("%w: desk and stage are required", dispatch.ErrUnknownDestination)
	}
	if len(d.desks) == 0 {
		return dispatch.StageRef{DeskID: desk, StageID: stage}, nil
	}

	stages, ok := d.desks[desk]
	if !ok {
		return dispatch.StageRef{}, fmt.Errorf("%w: desk %q", dispatch.ErrUnknownDestination, desk)
	}
	for _, s := range stages {
		if s == stage {
			return dispatch.StageRef{DeskID: desk, StageID: stage}, nil
		}
	}
	return dispatch.StageRef{}, fmt.Errorf("%w: stage %q on desk %q", dispatch.ErrUnknownDestination, stage, desk)
}
