package reports

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound      = errors.New("report session not found")
	ErrSessionClosed        = errors.New("report session is closed")
	ErrGenerationInProgress = errors.New("report generation already in progress")
	ErrNoResultSet          = errors.New("no report data to export")
	ErrInvalidTransition    = errors.New("invalid report session transition")
	ErrHandleNotFound       = errors.New("preview handle not found")
	ErrEmptyResult          = errors.New("no data found for the selected report")
)

// ValidationError represents missing or malformed report input
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func requiredError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Code: "required", Message: message}
}

func invalidError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Code: "invalid", Message: message}
}

// FetchError wraps a document store failure during report generation
type FetchError struct {
	Kind ReportKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s report data: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
