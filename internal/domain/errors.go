package domain

import (
	"context"
	"errors"
	"strings"
)

// Domain errors.
var (
	// ErrNotFoundOrUnauthorized is returned when a resource does not exist or
	// is not owned by the requester. The two cases are indistinguishable to
	// callers so that ownership does not leak resource existence.
	ErrNotFoundOrUnauthorized = errors.New("resource not found or not owned by requester")

	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("resource already exists")

	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned when a request carries no valid identity.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrJobNotFound is returned when a cleanup job cannot be found.
	ErrJobNotFound = errors.New("job not found")

	// ErrNoJobs is returned when there are no jobs to process.
	ErrNoJobs = errors.New("no jobs available")
)

// ConflictError is an ErrConflict with a message fit for clients, such as
// which unique field was taken.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrConflict) hold for every ConflictError.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NewConflictError creates a ConflictError.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// ValidationError reports malformed or missing input. It maps to 400.
type ValidationError struct {
	Field   string
	Message string
	Details []string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RequireFields returns a ValidationError listing every blank field, or nil.
// Values are considered blank after trimming whitespace.
func RequireFields(fields map[string]string, order ...string) error {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name+" is required")
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Message: "missing required fields", Details: missing}
}

// DependencyError wraps a failure of Persistence, MediaStore or another
// external collaborator. It maps to a 5xx response.
type DependencyError struct {
	Dependency string
	Op         string
	Err        error
}

func (e *DependencyError) Error() string {
	return e.Dependency + " " + e.Op + ": " + e.Err.Error()
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// Unavailable reports whether the dependency timed out or refused work,
// as opposed to answering with an error.
func (e *DependencyError) Unavailable() bool {
	return errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, ErrDependencyUnavailable)
}

// ErrDependencyUnavailable marks a dependency that is shedding load.
var ErrDependencyUnavailable = errors.New("dependency unavailable")

// NewDependencyError creates a new DependencyError.
func NewDependencyError(dependency, op string, err error) *DependencyError {
	return &DependencyError{
		Dependency: dependency,
		Op:         op,
		Err:        err,
	}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDependency reports whether err is a DependencyError.
func IsDependency(err error) bool {
	var de *DependencyError
	return errors.As(err, &de)
}
