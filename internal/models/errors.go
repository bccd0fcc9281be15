package models

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a bound session
	ErrNotAuthenticated = errors.New("please login first")
	// ErrNotFound is returned when an addressed record does not exist
	ErrNotFound = errors.New("not found")
	// ErrSuperseded is returned by a refresh whose result was discarded because a newer one started
	ErrSuperseded = errors.New("refresh superseded by a newer request")
)

// ValidationError reports a missing or malformed required field; it is raised before any I/O
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InvalidNumberError reports a numeric form field that is not a non-negative number
type InvalidNumberError struct {
	Field string
	Value string
}

func (e *InvalidNumberError) Error() string {
	return fmt.Sprintf("%s must be a non-negative number, got %q", e.Field, e.Value)
}

// DuplicateUserError reports a registration with a username that is already taken
type DuplicateUserError struct {
	Username string
}

func (e *DuplicateUserError) Error() string {
	return "User already exists."
}

// InvalidCredentialsError reports an unknown username or a password mismatch
type InvalidCredentialsError struct {
	Message string
}

func (e *InvalidCredentialsError) Error() string {
	if e.Message == "" {
		return "Invalid credentials."
	}
	return e.Message
}

// ForbiddenError reports an admin operation attempted without the admin flag
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	if e.Message == "" {
		return "Admin access required."
	}
	return e.Message
}

// NetworkError reports a transport failure talking to the backend
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error on %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError reports a non-success payload or status returned by the backend
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
}

// IsNotFound reports whether err means the addressed record does not exist
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.Status == http.StatusNotFound
}

// ErrorMessage converts an error into the status message shown to the user
//
// Typed errors are shown verbatim. Anything else is an internal failure and only its top-level text is shown.
func ErrorMessage(err error) StatusMessage {
	return StatusMessage{Text: userText(err), Severity: SeverityError}
}

func userText(err error) string {
	var (
		validationErr  *ValidationError
		numberErr      *InvalidNumberError
		duplicateErr   *DuplicateUserError
		credentialsErr *InvalidCredentialsError
		forbiddenErr   *ForbiddenError
		networkErr     *NetworkError
		serverErr      *ServerError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &numberErr):
		return numberErr.Error()
	case errors.As(err, &duplicateErr):
		return duplicateErr.Error()
	case errors.As(err, &credentialsErr):
		return credentialsErr.Error()
	case errors.As(err, &forbiddenErr):
		return forbiddenErr.Error()
	case errors.As(err, &networkErr):
		return networkErr.Error()
	case errors.As(err, &serverErr):
		return serverErr.Error()
	case errors.Is(err, ErrNotAuthenticated):
		return ErrNotAuthenticated.Error()
	case errors.Is(err, ErrNotFound):
		return "Record not found."
	default:
		return "Something went wrong, please try again."
	}
}
