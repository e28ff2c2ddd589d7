package profilechange

import "errors"

var (
	// ErrNothingToSubmit rejects a submission whose change-set and pending
	// document list are both empty.
	ErrNothingToSubmit = errors.New("nothing to submit")
	ErrInvalidState    = errors.New("request is not pending")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("request not found")
)
