package errorsx

import (
	"errors"
	"fmt"
)

// ReasonedError tags an error with the pipeline stage that produced it, so
// logs and callers can branch on the stage without string matching.
type ReasonedError struct {
	Reason ReasonCode
	Err    error
}

func (e ReasonedError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Err)
}

func (e ReasonedError) Unwrap() error { return e.Err }

// Wrap tags err with a reason. A nil err stays nil, and an error that
// already carries a reason keeps its original one: the stage closest to the
// failure wins.
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return err
	}
	return ReasonedError{Reason: reason, Err: err}
}

// Reason reports the stage that produced err, or ReasonUnknown.
func Reason(err error) ReasonCode {
	var re ReasonedError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonUnknown
}

// HasReason reports whether err carries the given reason.
func HasReason(err error, reason ReasonCode) bool {
	return Reason(err) == reason
}
