package jmap

import "fmt"

// SessionError is returned when the session resource cannot be loaded.
type SessionError struct {
	Status  int
	Message string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("failed to establish JMAP session (%d): %s", e.Status, e.Message)
}

// ProtocolError is returned for non-success API responses and for
// method-level errors inside a successful batch.
type ProtocolError struct {
	Status  int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("JMAP call failed (%d): %s", e.Status, e.Message)
}
