package feedback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/crf/internal/models"
)

func TestNext_FromPending(t *testing.T) {
	tests := []struct {
		action models.FeedbackAction
		want   models.SuggestionStatus
	}{
		{models.FeedbackAccept, models.SuggestionStatusAccepted},
		{models.FeedbackReject, models.SuggestionStatusRejected},
		{models.FeedbackEdit, models.SuggestionStatusEdited},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			got, err := Next("s1", models.SuggestionStatusPending, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNext_FromTerminal(t *testing.T) {
	for _, st := range []models.SuggestionStatus{models.SuggestionStatusAccepted, models.SuggestionStatusRejected, models.SuggestionStatusEdited} {
		_, err := Next("s1", st, models.FeedbackAccept)
		assert.True(t, errors.Is(err, ErrAlreadyActioned), "status %s", st)
	}
}

func TestNext_UnknownAction(t *testing.T) {
	_, err := Next("s1", models.SuggestionStatusPending, models.FeedbackAction("defer"))
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestNext_UnknownStatus(t *testing.T) {
	_, err := Next("s1", models.SuggestionStatus("weird"), models.FeedbackAccept)
	assert.Error(t, err)
}

func TestActionedError_Message(t *testing.T) {
	e := &ActionedError{SuggestionID: "s1", Status: models.SuggestionStatusAccepted}
	assert.Equal(t, "suggestion s1 already actioned (accepted)", e.Error())

	e = &ActionedError{SuggestionID: "s1", InFlight: true}
	assert.Contains(t, e.Error(), "in flight")
}
