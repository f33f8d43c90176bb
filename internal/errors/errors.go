package errors

import (
	"fmt"
)

// AskError is the structured error type for askdoc.
// It provides context for error handling, logging, and user presentation.
type AskError struct {
	// Code is the unique error code (e.g., "ERR_201_PDF_READ").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Extract, Backend, ...).
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *AskError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AskError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with AskError.
func (e *AskError) Is(target error) bool {
	if t, ok := target.(*AskError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *AskError) WithDetail(key, value string) *AskError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *AskError) WithSuggestion(suggestion string) *AskError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AskError with the given code and message.
// The category is derived from the code.
func New(code string, message string) *AskError {
	return &AskError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
	}
}

// Wrap creates an AskError around an existing error.
// Returns nil if cause is nil so call sites can wrap unconditionally.
func Wrap(code string, message string, cause error) *AskError {
	if cause == nil {
		return nil
	}
	e := New(code, message)
	e.Cause = cause
	return e
}

// Code extracts the error code from an AskError anywhere in the chain.
// Returns empty string if no AskError is present.
func Code(err error) string {
	if ae := asAskError(err); ae != nil {
		return ae.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	if ae := asAskError(err); ae != nil {
		return ae.Code == code
	}
	return false
}

func asAskError(err error) *AskError {
	for err != nil {
		if ae, ok := err.(*AskError); ok {
			return ae
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}
