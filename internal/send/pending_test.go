package send

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPendingResolve(t *testing.T) {
	p := NewPending()
	req := p.Start()

	want := Destination{Desk: "sports", Stage: "incoming", Macro: "strip-ads"}
	assert.NoError(t, p.Resolve(want))

	got, err := req.Wait(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPendingStartSupersedesPriorRequest(t *testing.T) {
	p := NewPending()
	old := p.Start()
	fresh := p.Start()

	_, err := old.Wait(context.Background())
	assert.ErrorIs(t, err, ErrSelectionCancelled)

	assert.NoError(t, p.Resolve(Destination{Desk: "world", Stage: "incoming"}))
	got, err := fresh.Wait(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "world", got.Desk)
}

func TestPendingCancelReleasesSlot(t *testing.T) {
	p := NewPending()
	req := p.Start()
	assert.NoError(t, p.Cancel())

	_, err := req.Wait(context.Background())
	assert.ErrorIs(t, err, ErrSelectionCancelled)

	// The slot is free for a new selection.
	next := p.Start()
	assert.NoError(t, p.Resolve(Destination{Desk: "sports", Stage: "incoming"}))
	_, err = next.Wait(context.Background())
	assert.NoError(t, err)
}

func TestPendingResolveWithoutRequest(t *testing.T) {
	p := NewPending()
	assert.ErrorIs(t, p.Resolve(Destination{}), ErrNoPendingSelection)
	assert.ErrorIs(t, p.Cancel(), ErrNoPendingSelection)
}

func TestPendingWaitHonorsContext(t *testing.T) {
	p := NewPending()
	req := p.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := req.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
