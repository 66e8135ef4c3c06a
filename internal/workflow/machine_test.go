package workflow_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaustech/docportal/internal/workflow"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    workflow.Status
		event   workflow.Event
		actor   workflow.Actor
		want    workflow.Status
		wantErr error
	}{
		{"first upload", workflow.StatusPending, workflow.EventUpload, workflow.ActorStudent, workflow.StatusUploaded, nil},
		{"re-upload after rejection", workflow.StatusRejected, workflow.EventUpload, workflow.ActorStudent, workflow.StatusUploaded, nil},
		{"replace while uploaded", workflow.StatusUploaded, workflow.EventUpload, workflow.ActorStudent, workflow.StatusUploaded, nil},
		{"replace while reviewing", workflow.StatusReviewing, workflow.EventUpload, workflow.ActorStudent, workflow.StatusUploaded, nil},
		{"upload after approval", workflow.StatusApproved, workflow.EventUpload, workflow.ActorStudent, workflow.StatusApproved, workflow.ErrIllegalTransition},
		{"admin cannot upload", workflow.StatusPending, workflow.EventUpload, workflow.ActorAdmin, workflow.StatusPending, workflow.ErrForbiddenActor},
		{"admin begins review", workflow.StatusUploaded, workflow.EventBeginReview, workflow.ActorAdmin, workflow.StatusReviewing, nil},
		{"system begins review", workflow.StatusUploaded, workflow.EventBeginReview, workflow.ActorSystem, workflow.StatusReviewing, nil},
		{"student cannot begin review", workflow.StatusUploaded, workflow.EventBeginReview, workflow.ActorStudent, workflow.StatusUploaded, workflow.ErrForbiddenActor},
		{"review twice", workflow.StatusReviewing, workflow.EventBeginReview, workflow.ActorAdmin, workflow.StatusReviewing, workflow.ErrIllegalTransition},
		{"approve uploaded", workflow.StatusUploaded, workflow.EventApprove, workflow.ActorAdmin, workflow.StatusApproved, nil},
		{"approve reviewing", workflow.StatusReviewing, workflow.EventApprove, workflow.ActorAdmin, workflow.StatusApproved, nil},
		{"system cannot approve", workflow.StatusReviewing, workflow.EventApprove, workflow.ActorSystem, workflow.StatusReviewing, workflow.ErrForbiddenActor},
		{"reject reviewing", workflow.StatusReviewing, workflow.EventReject, workflow.ActorAdmin, workflow.StatusRejected, nil},
		{"approve pending", workflow.StatusPending, workflow.EventApprove, workflow.ActorAdmin, workflow.StatusPending, workflow.ErrIllegalTransition},
		{"reject approved", workflow.StatusApproved, workflow.EventReject, workflow.ActorAdmin, workflow.StatusApproved, workflow.ErrIllegalTransition},
		{"approve rejected", workflow.StatusRejected, workflow.EventApprove, workflow.ActorAdmin, workflow.StatusRejected, workflow.ErrIllegalTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := workflow.Transition(tt.from, tt.event, tt.actor)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApprovedIsTerminal(t *testing.T) {
	events := []workflow.Event{workflow.EventUpload, workflow.EventBeginReview, workflow.EventApprove, workflow.EventReject}
	actors := []workflow.Actor{workflow.ActorStudent, workflow.ActorAdmin, workflow.ActorSystem}
	for _, e := range events {
		for _, a := range actors {
			_, err := workflow.Transition(workflow.StatusApproved, e, a)
			var te *workflow.TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, workflow.StatusApproved, te.From)
		}
	}
	assert.True(t, workflow.StatusApproved.Terminal())
	assert.False(t, workflow.CanUpload(workflow.StatusApproved))
	assert.False(t, workflow.StatusRejected.Terminal())
}

func TestCanUploadAndReview(t *testing.T) {
	for _, s := range workflow.AllStatuses() {
		assert.Equal(t, s != workflow.StatusApproved, workflow.CanUpload(s), s.String())
		assert.Equal(t, s == workflow.StatusUploaded || s == workflow.StatusReviewing, workflow.CanReview(s), s.String())
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range workflow.AllStatuses() {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back workflow.Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}

	_, err := workflow.ParseStatus("archived")
	assert.Error(t, err)

	s, err := workflow.ParseStatus(" Approved ")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, s)

	_, err = workflow.Status(42).MarshalText()
	assert.Error(t, err)
}

func TestMatch(t *testing.T) {
	badge := func(s workflow.Status) string {
		return workflow.Match(s, "grey", "blue", "amber", "green", "red")
	}
	assert.Equal(t, "grey", badge(workflow.StatusPending))
	assert.Equal(t, "blue", badge(workflow.StatusUploaded))
	assert.Equal(t, "amber", badge(workflow.StatusReviewing))
	assert.Equal(t, "green", badge(workflow.StatusApproved))
	assert.Equal(t, "red", badge(workflow.StatusRejected))
}
