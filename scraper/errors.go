package scraper

import (
	"errors"
	"fmt"
)

// Error is a typed scraping failure. Code identifies the failure class so
// callers can match with errors.Is against the predefined values below.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Extraction failures, fatal to a single lesson only.
var (
	ErrSubjectNotFound   = newError("SUBJECT_NOT_FOUND", "subject element not found in lesson")
	ErrInfoNotFound      = newError("INFO_NOT_FOUND", "information container not found in lesson")
	ErrStructureMismatch = newError("STRUCTURE_MISMATCH", "lesson info rows missing")
	ErrTimeRangeInvalid  = newError("TIME_RANGE_INVALID", "time range not parseable")
)

// Navigation failures. ErrDateNotFound is fatal only for its date;
// ErrScheduleUnreachable aborts the run.
var (
	ErrDateDiscovery       = newError("DATE_DISCOVERY", "failed to query day buttons")
	ErrDateNotFound        = newError("DATE_NOT_FOUND", "date not present among day buttons")
	ErrHeaderParse         = newError("CURRENT_DAY_HEADER", "current day header not parseable")
	ErrScheduleUnreachable = newError("SCHEDULE_UNREACHABLE", "schedule view did not load after all retries")
)

// Authentication failures, fatal to the whole run.
var (
	ErrFormElementNotFound = newError("FORM_ELEMENT_NOT_FOUND", "login form element not found")
	ErrFieldFill           = newError("FIELD_FILL", "failed to fill login form field")
	ErrSubmitNotFound      = newError("SUBMIT_BUTTON_NOT_FOUND", "submit button not found")
	ErrLoginFailed         = newError("LOGIN_FAILED", "portal rejected the login")
	ErrAuthStateUnverified = newError("AUTH_STATE_UNVERIFIED", "authenticated state not reached after login")
	ErrAuthTimeout         = newError("AUTH_TIMEOUT", "authentication timed out")
)

// FormElementNotFound reports a missing login form control by field name.
func FormElementNotFound(field string, err error) *Error {
	return &Error{
		Code:    ErrFormElementNotFound.Code,
		Message: fmt.Sprintf("login form element not found: %s", field),
		Err:     err,
	}
}

// FieldFillError reports a form field that could not be filled after retries.
func FieldFillError(field string, err error) *Error {
	return &Error{
		Code:    ErrFieldFill.Code,
		Message: fmt.Sprintf("failed to fill %s after retries", field),
		Err:     err,
	}
}

// LoginFailed wraps the error message the portal displayed after submit.
func LoginFailed(message string) *Error {
	return &Error{
		Code:    ErrLoginFailed.Code,
		Message: fmt.Sprintf("login failed: %s", message),
	}
}
