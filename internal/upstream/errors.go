package upstream

import (
	"errors"
	"fmt"

	"worldfolio/pkg/platform/sentinel"
)

// Category is the normalized failure taxonomy for external providers.
type Category string

const (
	// CategoryTimeout indicates the provider took too long to respond
	CategoryTimeout Category = "timeout"

	// CategoryBadData indicates the provider returned a body we could not decode
	CategoryBadData Category = "bad_data"

	// CategoryAuthentication indicates a missing or rejected API key
	CategoryAuthentication Category = "authentication"

	// CategoryOutage indicates the provider is unreachable or failing
	CategoryOutage Category = "provider_outage"

	// CategoryNotFound indicates the requested record doesn't exist
	CategoryNotFound Category = "not_found"

	// CategoryRateLimited indicates the provider quota is exhausted
	CategoryRateLimited Category = "rate_limited"

	// CategoryRejected indicates the provider refused the request as invalid
	CategoryRejected Category = "rejected"

	// CategoryInternal indicates an unexpected local error
	CategoryInternal Category = "internal"
)

// Error wraps a provider failure with its category. Status and Body are set
// when the provider answered with a non-2xx response.
type Error struct {
	Category   Category
	Provider   string
	Message    string
	Status     int
	Body       []byte
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("upstream %s [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("upstream %s [%s]: %s", e.Provider, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is lets callers match provider failures against the infrastructure
// sentinels without knowing about this package.
func (e *Error) Is(target error) bool {
	switch target {
	case sentinel.ErrNotFound:
		return e.Category == CategoryNotFound
	case sentinel.ErrUnavailable:
		return e.Category == CategoryOutage ||
			e.Category == CategoryTimeout ||
			e.Category == CategoryRateLimited
	}
	return false
}

// NewError creates a categorized provider error.
func NewError(category Category, provider, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Provider:   provider,
		Message:    message,
		Underlying: underlying,
	}
}

// CategoryOf extracts the category from an error chain.
func CategoryOf(err error) Category {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Category
	}
	return CategoryInternal
}

// categoryForStatus maps a non-2xx HTTP status to a category.
func categoryForStatus(status int) Category {
	switch {
	case status == 404:
		return CategoryNotFound
	case status == 401 || status == 403:
		return CategoryAuthentication
	case status == 429:
		return CategoryRateLimited
	case status == 408 || status == 504:
		return CategoryTimeout
	case status >= 500:
		return CategoryOutage
	default:
		return CategoryRejected
	}
}
