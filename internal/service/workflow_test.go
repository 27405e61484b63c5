package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Himansh-u2000/QPlan/internal/logging"
	"github.com/Himansh-u2000/QPlan/internal/model"
	"github.com/Himansh-u2000/QPlan/internal/store"
	"github.com/Himansh-u2000/QPlan/internal/store/memory"
)

var alex = model.Identity{ID: "alex@example.com", Name: "alex"}

func newWorkflow(t *testing.T) (*RequestWorkflow, *memory.Store) {
	t.Helper()
	st := memory.New()
	st.PutResource(model.Resource{ID: "r1", Name: "Quantum Rig A-1", Location: "Lab 3", Status: model.ResourceAvailable})
	return NewRequestWorkflow(st, logging.Discard()), st
}

func TestSubmitApproveScenario(t *testing.T) {
	ctx := context.Background()
	wf, st := newWorkflow(t)

	req, err := wf.Submit(ctx, "r1", alex)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, "Quantum Rig A-1", req.ResourceName)
	assert.Equal(t, "alex", req.UserName)

	pending, err := wf.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "r1", pending[0].ResourceID)

	approved, err := wf.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, approved.Status)

	pending, err = wf.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	res, err := st.GetResource(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.ResourceUnavailable, res.Status)
}

func TestSubmitDuplicateThenDenyThenResubmit(t *testing.T) {
	ctx := context.Background()
	wf, _ := newWorkflow(t)

	first, err := wf.Submit(ctx, "r1", alex)
	require.NoError(t, err)

	_, err = wf.Submit(ctx, "r1", alex)
	require.ErrorIs(t, err, ErrDuplicateRequest)

	pending, err := wf.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "duplicate submit must not write")

	_, err = wf.Deny(ctx, first.ID)
	require.NoError(t, err)

	third, err := wf.Submit(ctx, "r1", alex)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)

	history, err := wf.History(ctx, alex)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.RequestDenied, history[0].Status)
	assert.Equal(t, model.RequestPending, history[1].Status)
}

func TestSubmitDifferentUsersSameResource(t *testing.T) {
	ctx := context.Background()
	wf, _ := newWorkflow(t)

	_, err := wf.Submit(ctx, "r1", alex)
	require.NoError(t, err)
	_, err = wf.Submit(ctx, "r1", model.Identity{ID: "sara@example.com"})
	require.NoError(t, err)

	pending, err := wf.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	assert.Equal(t, "sara@example.com", pending[1].UserName)
}

func TestDenyLeavesResourceUntouched(t *testing.T) {
	ctx := context.Background()
	wf, st := newWorkflow(t)

	req, err := wf.Submit(ctx, "r1", alex)
	require.NoError(t, err)

	denied, err := wf.Deny(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestDenied, denied.Status)

	pending, err := wf.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	res, err := st.GetResource(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.ResourceAvailable, res.Status)
}

func TestApproveFailureAppliesNeitherWrite(t *testing.T) {
	ctx := context.Background()
	wf, st := newWorkflow(t)

	req, err := wf.Submit(ctx, "r1", alex)
	require.NoError(t, err)

	st.FailNext(memory.OpApproveResource, errors.New("connection reset"))
	_, err = wf.Approve(ctx, req.ID)
	require.ErrorIs(t, err, store.ErrStoreUnavailable)

	pending, err := wf.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, req.ID, pending[0].ID)

	res, err := st.GetResource(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.ResourceAvailable, res.Status)
}

func TestDecisionOnDecidedRequest(t *testing.T) {
	ctx := context.Background()
	wf, _ := newWorkflow(t)

	req, err := wf.Submit(ctx, "r1", alex)
	require.NoError(t, err)
	_, err = wf.Approve(ctx, req.ID)
	require.NoError(t, err)

	_, err = wf.Approve(ctx, req.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = wf.Deny(ctx, req.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = wf.Deny(ctx, "unknown")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubmitGuards(t *testing.T) {
	ctx := context.Background()
	wf, st := newWorkflow(t)
	st.PutResource(model.Resource{ID: "r2", Name: "Supercomputer Cygnus", Location: "Data Center", Status: model.ResourceUnavailable})

	_, err := wf.Submit(ctx, "r2", alex)
	assert.ErrorIs(t, err, ErrResourceUnavailable)

	_, err = wf.Submit(ctx, "nope", alex)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = wf.Submit(ctx, "r1", model.Identity{})
	assert.ErrorIs(t, err, ErrValidation)

	st.FailNext(memory.OpHasPending, errors.New("offline"))
	_, err = wf.Submit(ctx, "r1", alex)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)

	pending, err := wf.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSubmitSnapshotsNames(t *testing.T) {
	ctx := context.Background()
	wf, st := newWorkflow(t)

	req, err := wf.Submit(ctx, "r1", alex)
	require.NoError(t, err)

	st.PutResource(model.Resource{ID: "r1", Name: "Quantum Rig A-2", Location: "Lab 3", Status: model.ResourceAvailable})

	got, err := st.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quantum Rig A-1", got.ResourceName)
}

func TestDeleteRequest(t *testing.T) {
	ctx := context.Background()
	wf, _ := newWorkflow(t)

	req, err := wf.Submit(ctx, "r1", alex)
	require.NoError(t, err)

	require.NoError(t, wf.Delete(ctx, req.ID))
	assert.ErrorIs(t, wf.Delete(ctx, req.ID), store.ErrNotFound)
}
