// Package sentinel holds the infrastructure facts upstream clients report.
// Provider errors wrap one of these so callers can branch on errors.Is
// without knowing which provider failed.
package sentinel

import "errors"

var (
	// ErrNotFound means the provider answered that the resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the provider could not answer at all.
	ErrUnavailable = errors.New("unavailable")
)
