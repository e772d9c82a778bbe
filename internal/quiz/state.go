// Package quiz runs one quiz attempt: load the quiz, collect one answer per
// question, submit, show the score, and optionally restart.
package quiz

import (
	"errors"
	"fmt"

	"github.com/jsp88/jsp/internal/api"
)

// Canonical quiz types, shared with the API client.
type (
	Quiz     = api.Quiz
	Question = api.Question
	Answer   = api.Answer
	Result   = api.Result
)

// State is the lifecycle phase of a Session.
type State int

const (
	Loading State = iota
	Answering
	Submitting
	Scored
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Answering:
		return "answering"
	case Submitting:
		return "submitting"
	case Scored:
		return "scored"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Transition describes a state change reported to observers.
type Transition struct {
	QuizID int64
	From   State
	To     State
	Err    error // set when To is Failed
}

// ErrInvalidTransition is returned when an operation is not allowed in the
// session's current state.
var ErrInvalidTransition = errors.New("operation not allowed in current state")

// ValidationError reports a local precondition failure. No request was sent
// and the session state is unchanged.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("quiz %s: %s", e.Op, e.Reason)
}

// UserMessage returns the reason, which is written for the learner.
func (e *ValidationError) UserMessage() string {
	return e.Reason
}

func invalidTransition(op string, s State) error {
	return fmt.Errorf("%s while %s: %w", op, s, ErrInvalidTransition)
}
