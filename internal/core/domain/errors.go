package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRouteIncomplete = errors.New("start and end locations are both required")
	ErrBusy            = errors.New("discovery already in progress")
	ErrNoPOIs          = errors.New("no points of interest discovered yet")
	ErrTourInactive    = errors.New("tour mode is not active")
	ErrTourActive      = errors.New("stop the tour before changing the route")
	ErrNotFound        = errors.New("not found")
	ErrEmptyCompletion = errors.New("empty completion")
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	ErrPOIIndex        = errors.New("point of interest index out of range")
	ErrEmptyPrompt     = errors.New("prompt must not be empty")
	ErrStaleResult     = errors.New("route changed while discovery was running")
)

var requestErrors = []error{
	ErrSessionNotFound, ErrRouteIncomplete, ErrBusy, ErrNoPOIs, ErrTourInactive, ErrTourActive,
	ErrNotFound, ErrInvalidEndpoint, ErrPOIIndex, ErrEmptyPrompt, ErrStaleResult,
}

// IsRequestError reports whether err comes from the session state or the
// request rather than an upstream service. ErrEmptyCompletion counts as upstream.
func IsRequestError(err error) bool {
	for _, s := range requestErrors {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
