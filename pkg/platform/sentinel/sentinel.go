package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and the activity service translates them into domain errors.
//
// - ErrNotFound: the activity does not exist
// - ErrConflict: the participant is already on the activity's list
// - ErrInvalidState: the participant is not on the activity's list
// - ErrUnavailable: the backing store cannot be reached
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
