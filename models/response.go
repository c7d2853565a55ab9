package models

import (
	"encoding/json"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ScrapeResult is the envelope produced once per scrape invocation.
//
// It serialises to exactly one of two shapes:
//
//	{"status":"success","data":[...],"total_projects":N}
//	{"status":"error","message":"..."}
type ScrapeResult struct {
	Status        string
	Data          []ProjectRecord
	TotalProjects int
	Message       string

	// ID identifies the invocation in logs and webhook events. Never serialised.
	ID string

	// Err is the cause of an error result. Never serialised.
	Err error
}

// Success wraps extracted records. TotalProjects always equals len(Data).
func Success(records []ProjectRecord) *ScrapeResult {
	if records == nil {
		records = []ProjectRecord{}
	}
	return &ScrapeResult{
		Status:        StatusSuccess,
		Data:          records,
		TotalProjects: len(records),
	}
}

// Failure wraps any error raised during a scrape. Records already read are
// discarded by the caller; there is no partial-success shape.
func Failure(err error) *ScrapeResult {
	return &ScrapeResult{
		Status:  StatusError,
		Message: err.Error(),
		Err:     err,
	}
}

// Assemble maps an extractor outcome onto the envelope.
func Assemble(records []ProjectRecord, err error) *ScrapeResult {
	if err != nil {
		return Failure(err)
	}
	return Success(records)
}

// OK reports whether r is the success variant.
func (r *ScrapeResult) OK() bool {
	return r.Status == StatusSuccess
}

type successBody struct {
	Status        string          `json:"status"`
	Data          []ProjectRecord `json:"data"`
	TotalProjects int             `json:"total_projects"`
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// MarshalJSON emits the shape matching r.Status.
func (r *ScrapeResult) MarshalJSON() ([]byte, error) {
	if r.OK() {
		data := r.Data
		if data == nil {
			data = []ProjectRecord{}
		}
		return json.Marshal(successBody{
			Status:        StatusSuccess,
			Data:          data,
			TotalProjects: len(data),
		})
	}
	return json.Marshal(errorBody{Status: StatusError, Message: r.Message})
}

// UnmarshalJSON accepts either shape.
func (r *ScrapeResult) UnmarshalJSON(b []byte) error {
	var raw struct {
		Status        string          `json:"status"`
		Data          []ProjectRecord `json:"data"`
		TotalProjects int             `json:"total_projects"`
		Message       string          `json:"message"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Status = raw.Status
	r.Data = raw.Data
	r.TotalProjects = raw.TotalProjects
	r.Message = raw.Message
	return nil
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// RootResponse is the response for GET /.
type RootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// DebugResponse is the response for GET /api/debug.
type DebugResponse struct {
	Status      string            `json:"status"`
	Environment map[string]string `json:"environment"`
	Browser     BrowserInfo       `json:"browser"`
}

// BrowserInfo reports the configured automation driver.
type BrowserInfo struct {
	Driver   string `json:"driver"`
	Headless bool   `json:"headless"`
}
