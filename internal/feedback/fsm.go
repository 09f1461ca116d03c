package feedback

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/joescharf/crf/internal/models"
)

// State constants for statekit. They must equal the SuggestionStatus values.
const (
	StatePending  = "pending"
	StateAccepted = "accepted"
	StateRejected = "rejected"
	StateEdited   = "edited"
)

func init() {
	stateMap := map[string]models.SuggestionStatus{
		StatePending:  models.SuggestionStatusPending,
		StateAccepted: models.SuggestionStatusAccepted,
		StateRejected: models.SuggestionStatusRejected,
		StateEdited:   models.SuggestionStatusEdited,
	}
	for fsmState, status := range stateMap {
		if fsmState != string(status) {
			panic(fmt.Sprintf("FSM state %q does not match SuggestionStatus %q", fsmState, status))
		}
	}
}

// suggestionContext carries the suggestion being transitioned.
type suggestionContext struct {
	SuggestionID string
}

// newSuggestionMachine builds the lifecycle machine starting at initial.
// Only pending has outgoing transitions; the three dispositions are terminal.
func newSuggestionMachine(initial models.SuggestionStatus, suggestionID string) (*statekit.Interpreter[suggestionContext], error) {
	builder := statekit.NewMachine[suggestionContext]("suggestion-machine").
		WithInitial(statekit.StateID(initial)).
		WithContext(suggestionContext{SuggestionID: suggestionID})

	builder.State(StatePending).
		On(statekit.EventType(models.FeedbackAccept)).Target(StateAccepted).
		On(statekit.EventType(models.FeedbackReject)).Target(StateRejected).
		On(statekit.EventType(models.FeedbackEdit)).Target(StateEdited).
		Done()

	builder.State(StateAccepted).Done()
	builder.State(StateRejected).Done()
	builder.State(StateEdited).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build suggestion state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return interpreter, nil
}

// Next returns the status that action leads to from current. Actions on a
// terminal status fail with an *ActionedError.
func Next(suggestionID string, current models.SuggestionStatus, action models.FeedbackAction) (models.SuggestionStatus, error) {
	if !current.Valid() {
		return "", fmt.Errorf("suggestion %s has unknown status %q", suggestionID, current)
	}
	if current.IsTerminal() {
		return "", &ActionedError{SuggestionID: suggestionID, Status: current}
	}

	sm, err := newSuggestionMachine(current, suggestionID)
	if err != nil {
		return "", err
	}
	sm.Send(statekit.Event{Type: statekit.EventType(action)})

	next := models.SuggestionStatus(sm.State().Value)
	if next == current {
		return "", &models.ValidationError{Field: "action", Message: fmt.Sprintf("action %q is not allowed while the suggestion is %s", action, current)}
	}
	return next, nil
}
