package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-events/platform/internal/model"
)

func newFeedbackSvc(f *fakeStore) *FeedbackService {
	return NewFeedbackService(f.eventStore(), f.ticketStore(), f.feedbackStore(), testLogger())
}

// attend registers the user and checks their ticket in.
func attend(t *testing.T, f *fakeStore, event *model.Event, userID string) {
	t.Helper()
	ctx := context.Background()
	reg := newRegService(f)

	ticket, err := reg.Register(ctx, userID, event.ID, nil)
	require.NoError(t, err)
	organizer := Principal{UserID: event.OrganizerID, Role: model.RoleOrganizer}
	_, err = reg.Scan(ctx, organizer, ticket.ID)
	require.NoError(t, err)
}

func completeEvent(t *testing.T, f *fakeStore, event *model.Event) {
	t.Helper()
	event.Status = model.EventCompleted
	require.NoError(t, f.eventStore().Update(context.Background(), event))
}

func TestFeedbackSubmitOnce(t *testing.T) {
	f := newFakeStore()
	event := seedEvent(t, f, nil)
	attend(t, f, event, "user-1")
	completeEvent(t, f, event)
	svc := newFeedbackSvc(f)
	ctx := context.Background()

	require.NoError(t, svc.Submit(ctx, "user-1", event.ID, 5, "great event"))

	err := svc.Submit(ctx, "user-1", event.ID, 4, "second thoughts")
	assert.ErrorIs(t, err, model.ErrStateConflict)

	entries, err := f.feedbackStore().ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].Rating)
}

func TestFeedbackRequiresCompletedEvent(t *testing.T) {
	f := newFakeStore()
	event := seedEvent(t, f, nil)
	svc := newFeedbackSvc(f)

	err := svc.Submit(context.Background(), "user-1", event.ID, 5, "")
	assert.ErrorIs(t, err, model.ErrStateConflict)
}

func TestFeedbackRequiresCheckIn(t *testing.T) {
	f := newFakeStore()
	event := seedEvent(t, f, nil)
	svc := newFeedbackSvc(f)
	reg := newRegService(f)
	ctx := context.Background()

	// Registered but never scanned.
	_, err := reg.Register(ctx, "user-1", event.ID, nil)
	require.NoError(t, err)
	completeEvent(t, f, event)

	err = svc.Submit(ctx, "user-1", event.ID, 5, "")
	assert.ErrorIs(t, err, model.ErrForbidden)

	// No ticket at all.
	err = svc.Submit(ctx, "user-2", event.ID, 5, "")
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestFeedbackRatingBounds(t *testing.T) {
	f := newFakeStore()
	event := seedEvent(t, f, nil)
	svc := newFeedbackSvc(f)

	for _, rating := range []int{0, 6, -1} {
		err := svc.Submit(context.Background(), "user-1", event.ID, rating, "")
		assert.ErrorIs(t, err, model.ErrValidation)
	}
}

func TestFeedbackSummary(t *testing.T) {
	f := newFakeStore()
	event := seedEvent(t, f, nil)
	for _, user := range []string{"u1", "u2", "u3"} {
		attend(t, f, event, user)
	}
	completeEvent(t, f, event)
	svc := newFeedbackSvc(f)
	ctx := context.Background()

	require.NoError(t, svc.Submit(ctx, "u1", event.ID, 5, ""))
	require.NoError(t, svc.Submit(ctx, "u2", event.ID, 4, ""))
	require.NoError(t, svc.Submit(ctx, "u3", event.ID, 5, ""))

	owner := Principal{UserID: event.OrganizerID, Role: model.RoleOrganizer}
	summary, err := svc.Summary(ctx, owner, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.InDelta(t, 14.0/3.0, summary.Average, 0.001)
	assert.Equal(t, 2, summary.Distribution[5])
	assert.Equal(t, 1, summary.Distribution[4])

	_, err = svc.Summary(ctx, Principal{UserID: "org-2"}, event.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}
