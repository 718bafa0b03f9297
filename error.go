package xsdpack

import (
	"errors"
	"fmt"
	"strings"
)

// Application error codes.
const (
	ECONFLICT   = "conflict"
	EINTERNAL   = "internal"
	EINVALID    = "invalid"
	ENOTFOUND   = "not_found"
	EPARSE      = "parse"
	ELOCATION   = "location"
	EUNRESOLVED = "unresolved"
	EPACKAGE    = "package"
)

// Error represents an application-specific error.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("xsdpack error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Typed errors take precedence over the *Error they may wrap.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	var parseErr *DocumentParseError
	var locErr *LocationNotFoundError
	var refErr *UnresolvedReferenceError
	var pkgErr *InvalidPackageError
	switch {
	case errors.As(err, &parseErr):
		return EPARSE
	case errors.As(err, &locErr):
		return ELOCATION
	case errors.As(err, &refErr):
		return EUNRESOLVED
	case errors.As(err, &pkgErr):
		return EPACKAGE
	case errors.As(err, &e):
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	var parseErr *DocumentParseError
	var locErr *LocationNotFoundError
	var refErr *UnresolvedReferenceError
	var pkgErr *InvalidPackageError
	switch {
	case errors.As(err, &parseErr):
		return parseErr.Error()
	case errors.As(err, &locErr):
		return locErr.Error()
	case errors.As(err, &refErr):
		return refErr.Error()
	case errors.As(err, &pkgErr):
		return pkgErr.Error()
	case errors.As(err, &e):
		return e.Message
	}
	return "Internal error."
}

// DocumentParseError reports malformed schema markup.
type DocumentParseError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *DocumentParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse ")
	b.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&b, ":%d", e.Column)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DocumentParseError) Unwrap() error { return e.Err }

// LocationNotFoundError reports an import or include target that could not be read.
type LocationNotFoundError struct {
	Location string
	From     string // including document, empty for entry points
	Err      error
}

func (e *LocationNotFoundError) Error() string {
	msg := "schema location " + e.Location + " not found"
	if e.From != "" {
		msg += " (referenced from " + e.From + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LocationNotFoundError) Unwrap() error { return e.Err }

// UnresolvedReferenceError reports a reference with no matching index entry.
type UnresolvedReferenceError struct {
	Document    string
	Reference   string
	Name        QName
	Suggestions []Suggestion
}

func (e *UnresolvedReferenceError) Error() string {
	msg := fmt.Sprintf("unresolved reference %q (%s) in %s", e.Reference, e.Name, e.Document)
	if len(e.Suggestions) > 0 {
		names := make([]string, 0, len(e.Suggestions))
		for _, s := range e.Suggestions {
			names = append(names, s.Text)
		}
		msg += "; did you mean " + strings.Join(names, ", ") + "?"
	}
	return msg
}

// InvalidPackageError reports a corrupt or unsupported package file.
type InvalidPackageError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InvalidPackageError) Error() string {
	msg := "invalid package " + e.Path + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidPackageError) Unwrap() error { return e.Err }
