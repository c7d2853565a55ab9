package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeConfiguration     = "CONFIGURATION_ERROR"
	ErrCodeLoginTimeout      = "LOGIN_TIMEOUT"
	ErrCodeNavigationTimeout = "NAVIGATION_TIMEOUT"
	ErrCodeExtraction        = "EXTRACTION_FAILED"
	ErrCodeBrowserLaunch     = "BROWSER_LAUNCH_FAILED"
	ErrCodeUnclassified      = "UNCLASSIFIED_ERROR"
	ErrCodeBusy              = "SCRAPE_IN_PROGRESS"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
)

// Steps of a scrape invocation, recorded on ScrapeError for observability.
const (
	StepConfig            = "config"
	StepAcquireSession    = "acquire_session"
	StepNavigateLogin     = "navigate_login"
	StepDismissConsent    = "dismiss_consent"
	StepFillCredentials   = "fill_credentials"
	StepSubmit            = "submit"
	StepWaitAuthenticated = "wait_authenticated"
	StepNavigateListing   = "navigate_listing"
	StepWaitListing       = "wait_listing"
	StepExpand            = "expand"
	StepExtract           = "extract"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Step    string // may be empty
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// AtStep returns a copy of e tagged with the step it originated from.
func (e *ScrapeError) AtStep(step string) *ScrapeError {
	c := *e
	c.Step = step
	return &c
}

// CodeOf returns the ScrapeError code anywhere in err's chain, or
// ErrCodeUnclassified when err carries none.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeUnclassified
}

// StepOf returns the originating step of err, or "" when unknown.
func StepOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}
