package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Himansh-u2000/QPlan/internal/logging"
	"github.com/Himansh-u2000/QPlan/internal/model"
)

type fakeService struct {
	answerFn func(ctx context.Context, q Query) (string, error)
	calls    []Query
}

func (f *fakeService) Answer(ctx context.Context, q Query) (string, error) {
	f.calls = append(f.calls, q)
	return f.answerFn(ctx, q)
}

func TestAnswerReturnsServiceTextVerbatim(t *testing.T) {
	svc := &fakeService{answerFn: func(context.Context, Query) (string, error) {
		return "  The rig is free on Friday.\n", nil
	}}
	a := New(svc, logging.Discard())

	got := a.Answer(context.Background(), "Is the rig free?", nil, nil)

	assert.Equal(t, "  The rig is free on Friday.\n", got)
	require.Len(t, svc.calls, 1)
	assert.Equal(t, Query{Question: "Is the rig free?"}, svc.calls[0])
}

func TestAnswerFallsBackOnAnyError(t *testing.T) {
	errs := []error{
		context.DeadlineExceeded,
		ErrAssistantUnavailable,
		errors.New("quota exceeded"),
	}
	for _, e := range errs {
		svc := &fakeService{answerFn: func(context.Context, Query) (string, error) { return "partial", e }}
		got := New(svc, logging.Discard()).Answer(context.Background(), "hello", nil, nil)
		assert.Equal(t, FallbackAnswer, got, e.Error())
	}
}

func TestAnswerWithUnconfiguredService(t *testing.T) {
	got := New(Unconfigured{}, logging.Discard()).Answer(context.Background(), "hello", nil, nil)
	assert.Equal(t, FallbackAnswer, got)
}

func TestGroundingContext(t *testing.T) {
	events := []model.Event{
		{ID: "e1", Title: "Lab open day", Description: "Tours every hour", Date: time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC)},
		{ID: "e2", Title: "Hackathon", Description: "Build something", Date: time.Date(2026, 12, 12, 9, 0, 0, 0, time.UTC)},
	}
	resources := []model.Resource{
		{ID: "r1", Name: "Quantum Rig A-1", Location: "Lab 3", Status: model.ResourceAvailable},
		{ID: "r2", Name: "Supercomputer Cygnus", Location: "Data Center", Status: model.ResourceUnavailable},
	}

	assert.Equal(t,
		"- Event: Lab open day, Date: Tue Nov 03 2026, Description: Tours every hour\n"+
			"- Event: Hackathon, Date: Sat Dec 12 2026, Description: Build something",
		EventDetails(events))
	assert.Equal(t,
		"- Resource: Quantum Rig A-1, Status: Available, Location: Lab 3\n"+
			"- Resource: Supercomputer Cygnus, Status: Unavailable, Location: Data Center",
		ResourceStatus(resources))

	svc := &fakeService{answerFn: func(context.Context, Query) (string, error) { return "ok", nil }}
	New(svc, logging.Discard()).Answer(context.Background(), "What is on?", events, resources)
	require.Len(t, svc.calls, 1)
	assert.Equal(t, EventDetails(events), svc.calls[0].EventDetails)
	assert.Equal(t, ResourceStatus(resources), svc.calls[0].ResourceStatus)
}

func TestRenderPrompt(t *testing.T) {
	text, err := RenderPrompt(Query{Question: "Q?", EventDetails: "E", ResourceStatus: "R"})
	require.NoError(t, err)
	assert.Contains(t, text, "Question: Q?\n\nEvent Details: E\n\nResource Status: R\n\nAnswer: ")
}
