package restwin

import (
	"errors"
	"fmt"
)

// ErrNoData reports that the forecast covered none of the sleep window. It is
// user-visible and distinct from an API failure only in message, not in
// handling.
var ErrNoData = errors.New("no weather data available for the sleep window")

// InputError reports invalid form input. It blocks the computation before any
// network call is made.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// APIError reports a failed external call: a transport failure or a payload
// the API itself marked as failed.
type APIError struct {
	API string // "sunrise" or "forecast"
	Err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API: %v", e.API, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }
