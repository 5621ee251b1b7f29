package wizard

import "errors"

var (
	// ErrAborted signals the user interrupted the wizard (Ctrl+C).
	ErrAborted = errors.New("wizard: aborted")
	// ErrInvalidSelection is returned when a driver reports an option index
	// outside the question's option list.
	ErrInvalidSelection = errors.New("wizard: invalid selection")
)
