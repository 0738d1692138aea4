package send

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rjardine/newsroute/internal/dispatch"
	"github.com/rjardine/newsroute/internal/model"
	"github.com/rjardine/newsroute/internal/routing"
)

type fakeDispatcher struct {
	fail map[string]error // item GUID -> forced failure
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, item *model.Item, actions []routing.Action) ([]dispatch.ActionResult, error) {
	results := make([]dispatch.ActionResult, len(actions))
	for i, a := range actions {
		results[i] = dispatch.ActionResult{Action: a, ItemID: "arch-" + item.GUID}
		if err := f.fail[item.GUID]; err != nil {
			results[i].Err = err
		}
	}
	return results, nil
}

type fixedDefaults struct {
	dest Destination
	err  error
}

func (f fixedDefaults) Default(ctx context.Context) (Destination, error) {
	return f.dest, f.err
}

func newTestService(d ActionDispatcher) *Service {
	s := NewService(d, fixedDefaults{dest: Destination{Desk: "sports", Stage: "incoming"}})
	s.now = func() time.Time { return time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestOneAsSuccessRecordsArchiveOnItem(t *testing.T) {
	s := newTestService(&fakeDispatcher{})
	item := &model.Item{GUID: "guid-1", LastError: "stale failure"}

	res := s.OneAs(context.Background(), item, Destination{Desk: "world", Stage: "incoming", Macro: "strip-ads"})

	assert.True(t, res.OK())
	assert.Equal(t, "arch-guid-1", res.ArchivedID)
	if assert.NotNil(t, item.Archived) {
		assert.Equal(t, 2024, item.Archived.Year())
	}
	assert.Empty(t, item.LastError)
}

func TestOneAsFailureLeavesItemRetryable(t *testing.T) {
	s := newTestService(&fakeDispatcher{fail: map[string]error{"guid-1": errors.New("desk locked")}})
	item := &model.Item{GUID: "guid-1"}

	res := s.OneAs(context.Background(), item, Destination{Desk: "world", Stage: "incoming"})

	assert.False(t, res.OK())
	assert.Nil(t, item.Archived)
	assert.Equal(t, "desk locked", item.LastError)
}

func TestAllAsIsolatesFailures(t *testing.T) {
	s := newTestService(&fakeDispatcher{fail: map[string]error{"guid-2": errors.New("validation failed")}})
	items := []*model.Item{{GUID: "guid-1"}, {GUID: "guid-2"}, {GUID: "guid-3"}}

	results := s.AllAs(context.Background(), items, Destination{Desk: "world", Stage: "incoming"})

	if assert.Len(t, results, 3) {
		assert.True(t, results[0].OK())
		assert.False(t, results[1].OK())
		assert.True(t, results[2].OK())
		assert.Equal(t, "guid-2", results[1].GUID)
	}
	assert.NotNil(t, items[0].Archived)
	assert.Nil(t, items[1].Archived)
	assert.NotNil(t, items[2].Archived)
}

func TestOneUsesDefaultDestination(t *testing.T) {
	s := newTestService(&fakeDispatcher{})
	res, err := s.One(context.Background(), &model.Item{GUID: "guid-1"})
	assert.NoError(t, err)
	assert.True(t, res.OK())

	s2 := NewService(&fakeDispatcher{}, fixedDefaults{err: errors.New("no active desk")})
	_, err = s2.One(context.Background(), &model.Item{GUID: "guid-1"})
	assert.ErrorContains(t, err, "no active desk")
}

func TestAllDeferredRunsAfterResolve(t *testing.T) {
	s := newTestService(&fakeDispatcher{})
	items := []*model.Item{{GUID: "guid-1"}, {GUID: "guid-2"}}

	done := make(chan struct{})
	var results []Result
	var err error
	go func() {
		defer close(done)
		results, err = s.AllDeferred(context.Background(), items)
	}()

	// Let the waiter register, then pick the destination.
	waitForPending(t, func() error {
		return s.Pending().Resolve(Destination{Desk: "world", Stage: "incoming"})
	})

	<-done
	assert.NoError(t, err)
	if assert.Len(t, results, 2) {
		assert.True(t, results[0].OK())
		assert.True(t, results[1].OK())
	}
}

func TestAllDeferredCancelled(t *testing.T) {
	s := newTestService(&fakeDispatcher{})

	done := make(chan error, 1)
	go func() {
		_, err := s.AllDeferred(context.Background(), []*model.Item{{GUID: "guid-1"}})
		done <- err
	}()

	waitForPending(t, s.Pending().Cancel)
	assert.ErrorIs(t, <-done, ErrSelectionCancelled)
}

// waitForPending retries op until the deferred send has opened its selection.
func waitForPending(t *testing.T, op func() error) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		err := op()
		if err == nil {
			return
		}
		if !errors.Is(err, ErrNoPendingSelection) || time.Now().After(deadline) {
			t.Fatalf("pending selection not ready: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
}
