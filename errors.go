package factory

import (
	"errors"
	"fmt"
	"strings"
)

// MalformedURIError is returned when the parameter section of a driver URI
// cannot be parsed.
type MalformedURIError struct {
	URI    string
	Reason string
}

func (e *MalformedURIError) Error() string {
	return fmt.Sprintf("malformed driver URI %q: %s", e.URI, e.Reason)
}

// UnrecognizedURIError is returned when no registered provider claims a URI.
type UnrecognizedURIError struct {
	URI string
}

func (e *UnrecognizedURIError) Error() string {
	return fmt.Sprintf("unrecognized driver URI %q: no registered provider handles it", e.URI)
}

// CredentialFileError is returned when a credential had to be loaded from the
// default credential file and the file was missing or incomplete.
type CredentialFileError struct {
	Path string
	Err  error
}

func (e *CredentialFileError) Error() string {
	return fmt.Sprintf("credential file %s: %v", e.Path, e.Err)
}

func (e *CredentialFileError) Unwrap() error { return e.Err }

// ConstructionFailedError is returned when a provider claimed a URI but could
// not build the driver.
type ConstructionFailedError struct {
	URI      string
	Provider string
	Err      error
}

func (e *ConstructionFailedError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("constructing driver for %q: %v", e.URI, e.Err)
	}
	return fmt.Sprintf("provider %s: constructing driver for %q: %v", e.Provider, e.URI, e.Err)
}

func (e *ConstructionFailedError) Unwrap() error { return e.Err }

// MissingTargetError is returned when a browser starting URL was required but
// none of the consulted sources supplied one.
type MissingTargetError struct {
	Keys []string
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("no browser starting URL: set one of %s", strings.Join(e.Keys, ", "))
}

// Constructionf returns a ConstructionFailedError for uri with a formatted
// cause.
func Constructionf(provider, uri, format string, args ...interface{}) error {
	return &ConstructionFailedError{URI: uri, Provider: provider, Err: fmt.Errorf(format, args...)}
}

var errNoDriver = errors.New("provider returned no driver")
