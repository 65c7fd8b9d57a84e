package assistant

import (
	"errors"
	"fmt"
)

// ErrTurnLimit is reported when the model keeps requesting tools past the
// configured number of turns.
var ErrTurnLimit = errors.New("turn limit reached")

// OrchestrationError is a failure of the exchange with the assistant service
// itself. Status is the HTTP status when one was received.
type OrchestrationError struct {
	Status  int
	Message string
	Err     error
}

func (e *OrchestrationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("assistant service error (%d): %s", e.Status, e.Message)
	}
	return "assistant service error: " + e.Message
}

func (e *OrchestrationError) Unwrap() error {
	return e.Err
}
