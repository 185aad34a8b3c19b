package gcal

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Outcome is the three-way classification every calendar call collapses to.
// Callers branch on this, never on raw error types.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeAuthRequired
	OutcomeFailure
)

// ErrAuthRequired means the user's stored credentials are gone or unusable
// and a fresh OAuth round trip is needed.
var ErrAuthRequired = errors.New("calendar authorization required")

// OutcomeOf normalizes an error from any calendar operation.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, ErrAuthRequired) {
		return OutcomeAuthRequired
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		if gErr.Code == http.StatusUnauthorized || gErr.Code == http.StatusForbidden {
			return OutcomeAuthRequired
		}
		return OutcomeFailure
	}

	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		// invalid_grant etc. — the refresh token is dead.
		return OutcomeAuthRequired
	}

	return OutcomeFailure
}

// IsCanceled reports whether the error is a context cancellation rather
// than a backend failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
