package apperr

import "errors"

// Sentinel errors shared across the service. Handlers map these to HTTP
// status codes; everything else is treated as an internal failure.
var (
	ErrNotFound    = errors.New("link not found")
	ErrExpired     = errors.New("link expired")
	ErrInactive    = errors.New("link deactivated")
	ErrConflict    = errors.New("slug already taken")
	ErrForbidden   = errors.New("not the link owner")
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrTransient   = errors.New("transient storage failure")
	ErrInvalid     = errors.New("invalid input")
)

// IsNotFound reports whether err should surface to a visitor as a 404.
// Expired and deactivated links are indistinguishable from unknown slugs
// on purpose.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) || errors.Is(err, ErrInactive)
}

// IsConflict reports whether err indicates a slug uniqueness conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsForbidden reports whether err indicates an ownership mismatch.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsTransient reports whether err is a retryable storage failure.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

// IsInvalid reports whether err is a validation failure.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalid) }
