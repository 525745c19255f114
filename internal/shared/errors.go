package shared

import "errors"

var (
	// ErrNotFound indicates an id that does not resolve to a record.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrDependency indicates an I/O failure in the record store or mail relay.
	ErrDependency = errors.New("dependency failure")
	// ErrConfiguration indicates missing start-up configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage returns a message suitable for rendering to end users.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation):
		return err.Error()
	default:
		return "Something went wrong, please try again"
	}
}
